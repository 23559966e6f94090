package models

import (
	"fmt"
	"time"
)

type ContentType string

const (
	ContentTypeImage      ContentType = "IMAGE"
	ContentTypeText       ContentType = "TEXT"
	ContentTypeGif        ContentType = "GIF"
	ContentTypeCollection ContentType = "COLLECTION"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeImage, ContentTypeText, ContentTypeGif, ContentTypeCollection:
		return true
	}
	return false
}

// ContentBase is the identity envelope shared by every content variant.
// It maps to the base `content` table.
type ContentBase struct {
	ID          int64       `json:"id" db:"id"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Tags        []string    `json:"tags,omitempty"`
}

// Content is implemented by *ImageContent, *TextContent, *GifContent and
// *CollectionRefContent only.
type Content interface {
	Base() *ContentBase
	sealed()
}

func (b *ContentBase) Base() *ContentBase { return b }

func (*ContentBase) sealed() {}

// ImageContent maps to content_image.
type ImageContent struct {
	ContentBase

	Title            string     `json:"title"`
	ImageWidth       int        `json:"image_width"`
	ImageHeight      int        `json:"image_height"`
	ISO              *int       `json:"iso,omitempty"`
	Author           string     `json:"author,omitempty"`
	Rating           int        `json:"rating"`
	FStop            string     `json:"f_stop,omitempty"`
	ShutterSpeed     string     `json:"shutter_speed,omitempty"`
	FocalLength      string     `json:"focal_length,omitempty"`
	BlackAndWhite    bool       `json:"black_and_white"`
	IsFilm           bool       `json:"is_film"`
	FilmFormat       string     `json:"film_format,omitempty"`
	FilmTypeID       *int64     `json:"film_type_id,omitempty"`
	CameraID         *int64     `json:"camera_id,omitempty"`
	LensID           *int64     `json:"lens_id,omitempty"`
	LocationID       *int64     `json:"location_id,omitempty"`
	ImageURLWeb      string     `json:"image_url_web"`
	ImageURLOriginal string     `json:"image_url_original,omitempty"`
	CaptureDate      *time.Time `json:"capture_date,omitempty"`
	FileIdentifier   string     `json:"-"`
	WebFileKey       string     `json:"-"`

	// Resolved on read.
	CameraName   string   `json:"camera,omitempty"`
	LensName     string   `json:"lens,omitempty"`
	FilmTypeName string   `json:"film_type,omitempty"`
	LocationName string   `json:"location,omitempty"`
	People       []string `json:"people,omitempty"`
}

// TextContent maps to content_text.
type TextContent struct {
	ContentBase

	Text       string `json:"text"`
	FormatType string `json:"format_type"`
}

// GifContent maps to content_gif.
type GifContent struct {
	ContentBase

	Title          string     `json:"title"`
	GifURL         string     `json:"gif_url"`
	ThumbnailURL   string     `json:"thumbnail_url,omitempty"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Author         string     `json:"author,omitempty"`
	CaptureDate    *time.Time `json:"capture_date,omitempty"`
	FileIdentifier string     `json:"-"`
	ThumbnailKey   string     `json:"-"`
}

// CollectionRefContent maps to content_collection: a nested collection
// shown as an item of another collection.
type CollectionRefContent struct {
	ContentBase

	ReferencedCollectionID int64  `json:"referenced_collection_id"`
	Title                  string `json:"title,omitempty"`
	Slug                   string `json:"slug,omitempty"`
	CoverImageID           *int64 `json:"cover_image_id,omitempty"`
}

const (
	TextFormatPlain    = "plain"
	TextFormatMarkdown = "markdown"
	TextFormatHTML     = "html"
)

// SortDate is the capture date used for chronological display; content
// without one falls back to its creation time.
func SortDate(c Content) time.Time {
	switch v := c.(type) {
	case *ImageContent:
		if v.CaptureDate != nil {
			return *v.CaptureDate
		}
	case *GifContent:
		if v.CaptureDate != nil {
			return *v.CaptureDate
		}
	}
	return c.Base().CreatedAt
}

// FileKeys returns the object storage keys owned by the content.
func FileKeys(c Content) []string {
	var keys []string
	switch v := c.(type) {
	case *ImageContent:
		keys = append(keys, v.FileIdentifier, v.WebFileKey)
	case *GifContent:
		keys = append(keys, v.FileIdentifier, v.ThumbnailKey)
	}

	out := keys[:0]
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func NewContentOfType(t ContentType) (Content, error) {
	switch t {
	case ContentTypeImage:
		return &ImageContent{ContentBase: ContentBase{ContentType: t}}, nil
	case ContentTypeText:
		return &TextContent{ContentBase: ContentBase{ContentType: t}}, nil
	case ContentTypeGif:
		return &GifContent{ContentBase: ContentBase{ContentType: t}}, nil
	case ContentTypeCollection:
		return &CollectionRefContent{ContentBase: ContentBase{ContentType: t}}, nil
	}
	return nil, fmt.Errorf("unsupported content type %q", t)
}
