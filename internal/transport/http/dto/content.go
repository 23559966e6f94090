package dto

import (
	"mime/multipart"
	"time"

	"portfolio/internal/domain/models"
)

type CreateTextRequest struct {
	CollectionID int64    `json:"collection_id" validate:"required"`
	Text         string   `json:"text" validate:"required"`
	FormatType   string   `json:"format_type" validate:"omitempty,oneof=plain markdown html"`
	Tags         []string `json:"tags"`
}

type CreateCollectionRefRequest struct {
	CollectionID           int64 `json:"collection_id" validate:"required"`
	ReferencedCollectionID int64 `json:"referenced_collection_id" validate:"required"`
}

// UpdateImageRequest changes only the fields that are present. Camera, lens
// and location are given by name and created when unknown; an empty name
// clears the reference.
type UpdateImageRequest struct {
	Title         *string    `json:"title" validate:"omitempty,max=255"`
	Author        *string    `json:"author" validate:"omitempty,max=255"`
	Rating        *int       `json:"rating"`
	BlackAndWhite *bool      `json:"black_and_white"`
	IsFilm        *bool      `json:"is_film"`
	FilmTypeID    *int64     `json:"film_type_id"`
	FilmFormat    *string    `json:"film_format"`
	ISO           *int       `json:"iso" validate:"omitempty,min=1"`
	Camera        *string    `json:"camera"`
	Lens          *string    `json:"lens"`
	Location      *string    `json:"location"`
	CaptureDate   *time.Time `json:"capture_date"`
	Tags          []string   `json:"tags"`
	People        []string   `json:"people"`
}

type UpdateTextRequest struct {
	Text       *string `json:"text" validate:"omitempty,min=1"`
	FormatType *string `json:"format_type" validate:"omitempty,oneof=plain markdown html"`
}

type UploadInput struct {
	CollectionID int64
	Files        []*multipart.FileHeader
}

type UploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type UploadResult struct {
	Created []models.Content `json:"created"`
	Failed  []UploadFailure  `json:"failed,omitempty"`
}

type BatchLoadRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=500"`
}
