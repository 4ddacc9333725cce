package work

// Registry holds the sync units in the order they run.
type Registry struct {
	units   map[string]*Unit
	ordered []*Unit
}

// NewRegistry creates an empty unit registry.
func NewRegistry() *Registry {
	return &Registry{
		units: make(map[string]*Unit),
	}
}

// Register appends a unit. Registering an existing ID replaces the unit in place,
// keeping its original position.
func (r *Registry) Register(u *Unit) {
	if _, exists := r.units[u.ID]; exists {
		for i, existing := range r.ordered {
			if existing.ID == u.ID {
				r.ordered[i] = u
			}
		}
	} else {
		r.ordered = append(r.ordered, u)
	}
	r.units[u.ID] = u
}

// Get returns a unit by ID, or nil if not found.
func (r *Registry) Get(id string) *Unit {
	return r.units[id]
}

// Has returns true if a unit with the given ID is registered.
func (r *Registry) Has(id string) bool {
	_, exists := r.units[id]
	return exists
}

// Count returns the number of registered units.
func (r *Registry) Count() int {
	return len(r.units)
}

// IDs returns unit IDs in run order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.ordered))
	for _, u := range r.ordered {
		ids = append(ids, u.ID)
	}
	return ids
}

// Select returns the units to run, in registration order. An empty filter selects
// every unit. Filter entries that name no unit are returned as unknown.
func (r *Registry) Select(only []string) (selected []*Unit, unknown []string) {
	if len(only) == 0 {
		return append([]*Unit(nil), r.ordered...), nil
	}

	want := make(map[string]bool, len(only))
	for _, id := range only {
		if !r.Has(id) {
			unknown = append(unknown, id)
			continue
		}
		want[id] = true
	}

	for _, u := range r.ordered {
		if want[u.ID] {
			selected = append(selected, u)
		}
	}
	return selected, unknown
}
