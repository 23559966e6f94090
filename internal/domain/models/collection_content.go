package models

import "time"

// CollectionContent binds one content item to one collection with a
// position and a per-collection visibility flag.
type CollectionContent struct {
	ID           int64     `json:"id" db:"id"`
	CollectionID int64     `json:"collection_id" db:"collection_id"`
	ContentID    int64     `json:"content_id" db:"content_id"`
	OrderIndex   int       `json:"order_index" db:"order_index"`
	Visible      bool      `json:"visible" db:"visible"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateResult reports how many rows a single-row update touched.
type UpdateResult struct {
	RowsAffected int64
}

func (r UpdateResult) Found() bool {
	return r.RowsAffected > 0
}

// ContentEntry is a resolved content item together with its placement in a
// specific collection.
type ContentEntry struct {
	OrderIndex int     `json:"order_index"`
	Visible    bool    `json:"visible"`
	Content    Content `json:"content"`
}

// ReorderOp moves one item of a collection to NewOrderIndex. The item is
// identified by ContentID (positive: real id, negative: -k for the k-th
// item created earlier in the same update) or, when ContentID is nil, by the
// position it currently occupies.
type ReorderOp struct {
	ContentID     *int64 `json:"content_id,omitempty"`
	OldOrderIndex *int   `json:"old_order_index,omitempty"`
	NewOrderIndex int    `json:"new_order_index"`
}

type VisibilityChange struct {
	ContentID int64 `json:"content_id"`
	Visible   bool  `json:"visible"`
}
