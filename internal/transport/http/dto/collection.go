package dto

import (
	"time"

	"portfolio/internal/domain/models"
)

type CreateCollectionRequest struct {
	Type           models.CollectionType `json:"type" validate:"required,oneof=BLOG ART_GALLERY PORTFOLIO CLIENT_GALLERY"`
	Title          string                `json:"title" validate:"required,max=255"`
	Slug           string                `json:"slug" validate:"omitempty,max=255"`
	Description    string                `json:"description"`
	LocationID     *int64                `json:"location_id"`
	CollectionDate *time.Time            `json:"collection_date"`
	Visible        *bool                 `json:"visible"`
	DisplayMode    models.DisplayMode    `json:"display_mode" validate:"omitempty,oneof=CHRONOLOGICAL ORDERED"`
	ContentPerPage int                   `json:"content_per_page" validate:"omitempty,min=1,max=500"`
	Password       string                `json:"password" validate:"omitempty,min=4"`
	Tags           []string              `json:"tags"`
}

// UpdateCollectionRequest changes only the fields that are present. Content
// carries membership changes applied in the same transaction.
type UpdateCollectionRequest struct {
	Title          *string             `json:"title" validate:"omitempty,max=255"`
	Slug           *string             `json:"slug" validate:"omitempty,max=255"`
	Description    *string             `json:"description"`
	Visible        *bool               `json:"visible"`
	DisplayMode    *models.DisplayMode `json:"display_mode" validate:"omitempty,oneof=CHRONOLOGICAL ORDERED"`
	ContentPerPage *int                `json:"content_per_page" validate:"omitempty,min=1,max=500"`
	CollectionDate *time.Time          `json:"collection_date"`
	LocationID     *int64              `json:"location_id"`
	Password       *string             `json:"password" validate:"omitempty,min=4"`
	CoverImageID   *int64              `json:"cover_image_id"`
	Tags           []string            `json:"tags"`
	Content        *ContentOperations  `json:"content" validate:"omitempty"`
}

// ContentOperations is applied in this order: new text blocks, removals,
// reorders, visibility changes. Reorder ops may refer to the new text
// blocks as -1, -2, ... in creation order.
type ContentOperations struct {
	NewTextBlocks []NewTextBlock            `json:"new_text_blocks" validate:"dive"`
	Remove        []int64                   `json:"remove"`
	Reorder       []models.ReorderOp        `json:"reorder"`
	Visibility    []models.VisibilityChange `json:"visibility"`
}

type NewTextBlock struct {
	Text       string `json:"text" validate:"required"`
	FormatType string `json:"format_type" validate:"omitempty,oneof=plain markdown html"`
}

type ReorderRequest struct {
	Ops []models.ReorderOp `json:"ops" validate:"required,min=1"`
}

type AttachContentRequest struct {
	ContentIDs []int64 `json:"content_ids" validate:"required,min=1"`
	Position   *int    `json:"position" validate:"omitempty,min=0"`
}

type DetachContentRequest struct {
	ContentIDs []int64 `json:"content_ids" validate:"required,min=1"`
}

type MoveContentRequest struct {
	ContentID     int64 `json:"content_id" validate:"required"`
	NewOrderIndex int   `json:"new_order_index" validate:"min=0"`
}

type SetVisibilityRequest struct {
	Visible bool `json:"visible"`
}

type SetCoverRequest struct {
	ContentID *int64 `json:"content_id"`
}

// CollectionResponse is a collection with one page of its content.
type CollectionResponse struct {
	models.Collection
	CoverImage *models.ImageContent  `json:"cover_image,omitempty"`
	Content    []models.ContentEntry `json:"content"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"total_pages"`
}

type CollectionSummary struct {
	models.Collection
	CoverImage *models.ImageContent `json:"cover_image,omitempty"`
}
