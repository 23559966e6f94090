package models

import (
	"time"
)

type CollectionType string

const (
	CollectionTypeBlog          CollectionType = "BLOG"
	CollectionTypeArtGallery    CollectionType = "ART_GALLERY"
	CollectionTypePortfolio     CollectionType = "PORTFOLIO"
	CollectionTypeClientGallery CollectionType = "CLIENT_GALLERY"
)

func (t CollectionType) Valid() bool {
	switch t {
	case CollectionTypeBlog, CollectionTypeArtGallery, CollectionTypePortfolio, CollectionTypeClientGallery:
		return true
	}
	return false
}

type DisplayMode string

const (
	DisplayModeChronological DisplayMode = "CHRONOLOGICAL"
	DisplayModeOrdered       DisplayMode = "ORDERED"
)

func (m DisplayMode) Valid() bool {
	return m == DisplayModeChronological || m == DisplayModeOrdered
}

const DefaultContentPerPage = 30

// Collection is a named, typed, ordered container of content.
type Collection struct {
	ID             int64          `json:"id" db:"id"`
	Type           CollectionType `json:"type" db:"type"`
	Title          string         `json:"title" db:"title"`
	Slug           string         `json:"slug" db:"slug"`
	Description    string         `json:"description" db:"description"`
	LocationID     *int64         `json:"location_id,omitempty" db:"location_id"`
	CollectionDate *time.Time     `json:"collection_date,omitempty" db:"collection_date"`
	Visible        bool           `json:"visible" db:"visible"`
	DisplayMode    DisplayMode    `json:"display_mode" db:"display_mode"`
	CoverImageID   *int64         `json:"cover_image_id,omitempty" db:"cover_image_id"`
	ContentPerPage int            `json:"content_per_page" db:"content_per_page"`
	TotalContent   int            `json:"total_content" db:"total_content"`
	PasswordHash   string         `json:"-" db:"password_hash"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
	Tags           []string       `json:"tags,omitempty"`
}

func (c Collection) IsClientGallery() bool {
	return c.Type == CollectionTypeClientGallery
}

func (c Collection) PasswordProtected() bool {
	return c.IsClientGallery() && c.PasswordHash != ""
}

// CollectionUpdate carries the optional field changes of a collection
// update. Nil means "leave unchanged".
type CollectionUpdate struct {
	Title          *string
	Slug           *string
	Description    *string
	Visible        *bool
	DisplayMode    *DisplayMode
	ContentPerPage *int
	CollectionDate *time.Time
	LocationID     *int64
	PasswordHash   *string
}

func (u CollectionUpdate) Empty() bool {
	return u.Title == nil && u.Slug == nil && u.Description == nil && u.Visible == nil &&
		u.DisplayMode == nil && u.ContentPerPage == nil && u.CollectionDate == nil &&
		u.LocationID == nil && u.PasswordHash == nil
}
