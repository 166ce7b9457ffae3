package domain

// EntitySnapshot is one tracked body at one simulated instant. Immutable once produced.
type EntitySnapshot struct {
	// ID is the stable identity of the entity. Producers that only send a name get ID = Name.
	ID       string  `json:"id" yaml:"id" mapstructure:"id"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Position Vec3    `json:"pos" yaml:"pos" mapstructure:"pos"`
	Velocity *Vec3   `json:"vel,omitempty" yaml:"vel,omitempty" mapstructure:"vel"`
	Color    string  `json:"color,omitempty" yaml:"color,omitempty" mapstructure:"color"`
	Radius   float64 `json:"radius,omitempty" yaml:"radius,omitempty" mapstructure:"radius"`
}

// Label returns the display name, falling back to the identity.
func (e EntitySnapshot) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Frame is every tracked entity at one discrete simulated instant. Immutable.
type Frame []EntitySnapshot

// IDs returns the entity identities in frame order.
func (f Frame) IDs() []string {
	ids := make([]string, len(f))
	for i, e := range f {
		ids[i] = e.ID
	}
	return ids
}

// Lookup finds an entity by identity.
func (f Frame) Lookup(id string) (EntitySnapshot, bool) {
	for _, e := range f {
		if e.ID == id {
			return e, true
		}
	}
	return EntitySnapshot{}, false
}
