package meals

import (
	"strings"
)

type richText struct {
	RichText []struct {
		PlainText string `json:"plain_text"`
	} `json:"rich_text"`
}

func (r *richText) text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, t := range r.RichText {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

type notionBlock struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ChildPage *struct {
		Title string `json:"title"`
	} `json:"child_page"`
	Heading1         *richText `json:"heading_1"`
	Heading2         *richText `json:"heading_2"`
	Heading3         *richText `json:"heading_3"`
	Paragraph        *richText `json:"paragraph"`
	BulletedListItem *richText `json:"bulleted_list_item"`
}

type notionChildren struct {
	Results []notionBlock `json:"results"`
}

func notionChildrenPath(id string) string {
	return "/api/notion/blocks/" + id + "/children"
}

// flattenBlocks renders page blocks as the lines of an equivalent markdown file.
// Block types without text are dropped.
func flattenBlocks(blocks []notionBlock) []string {
	var lines []string
	for _, b := range blocks {
		switch b.Type {
		case "heading_1":
			lines = append(lines, "## "+b.Heading1.text())
		case "heading_2":
			lines = append(lines, "## "+b.Heading2.text())
		case "heading_3":
			lines = append(lines, "## "+b.Heading3.text())
		case "paragraph":
			lines = append(lines, strings.Split(b.Paragraph.text(), "\n")...)
		case "bulleted_list_item":
			lines = append(lines, "- "+b.BulletedListItem.text())
		}
	}
	return lines
}
