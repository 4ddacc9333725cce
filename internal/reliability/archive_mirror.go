// Package reliability mirrors archived report files to S3-compatible object storage.
package reliability

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/mcsync/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader is the subset of manager.Uploader used by the mirror.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ArchiveMirror copies archived report files into a bucket under a key prefix.
type ArchiveMirror struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewArchiveMirror builds an S3 client from cfg. A custom endpoint (e.g. Cloudflare
// R2) switches the client to path-style addressing.
func NewArchiveMirror(ctx context.Context, cfg config.ArchiveConfig, log zerolog.Logger) (*ArchiveMirror, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewArchiveMirrorWithUploader(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

// NewArchiveMirrorWithUploader creates a mirror over an existing uploader.
func NewArchiveMirrorWithUploader(uploader Uploader, bucket, prefix string, log zerolog.Logger) *ArchiveMirror {
	return &ArchiveMirror{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("service", "archive_mirror").Str("bucket", bucket).Logger(),
	}
}

// Key returns the object key a file is mirrored under.
func (m *ArchiveMirror) Key(path string) string {
	prefix := m.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + filepath.Base(path)
}

// MirrorFile uploads path, recording its checksum as object metadata.
func (m *ArchiveMirror) MirrorFile(ctx context.Context, path string) error {
	checksum, err := calculateChecksum(path)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	key := m.Key(path)
	_, err = m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"checksum": checksum},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	m.log.Debug().Str("key", key).Str("checksum", checksum).Msg("Archived report mirrored")
	return nil
}

func calculateChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
