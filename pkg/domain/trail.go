package domain

// TrailSegment is a line between two consecutive recorded positions of one entity.
type TrailSegment struct {
	EntityID string `json:"entity_id"`
	From     Vec3   `json:"from"`
	To       Vec3   `json:"to"`
	// Seq is the creation order within the entity's trail, starting at 1.
	Seq   uint64 `json:"seq"`
	Color string `json:"color,omitempty"`
}
