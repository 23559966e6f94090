package repository

import (
	"context"
	"time"

	"portfolio/internal/domain/models"
)

// Transactor runs fn inside a single database transaction. Repository calls
// made with the ctx passed to fn take part in it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CollectionFilter struct {
	Type        models.CollectionType
	VisibleOnly bool
}

type CollectionRepository interface {
	Create(ctx context.Context, c models.Collection) (int64, error)
	GetByID(ctx context.Context, id int64) (models.Collection, error)
	GetBySlug(ctx context.Context, slug string) (models.Collection, error)
	List(ctx context.Context, filter CollectionFilter) ([]models.Collection, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, id int64, upd models.CollectionUpdate) error
	SetCoverImage(ctx context.Context, id int64, contentID *int64) error
	SetTags(ctx context.Context, id int64, names []string) error
	LockForUpdate(ctx context.Context, id int64) error
	RefreshTotalContent(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// CollectionContentRepository is the association store for the
// collection_content join table.
type CollectionContentRepository interface {
	ListByCollection(ctx context.Context, collectionID int64) ([]models.CollectionContent, error)
	ListByCollectionPage(ctx context.Context, collectionID int64, visibleOnly bool, limit, offset int) ([]models.CollectionContent, error)
	CountByCollection(ctx context.Context, collectionID int64, visibleOnly bool) (int, error)
	MaxOrderIndex(ctx context.Context, collectionID int64) (int, bool, error)
	FindAssociation(ctx context.Context, collectionID, contentID int64) (models.CollectionContent, error)
	FindByOrderIndex(ctx context.Context, collectionID int64, orderIndex int) (models.CollectionContent, error)
	SetOrderIndex(ctx context.Context, associationID int64, orderIndex int) (models.UpdateResult, error)
	SetVisible(ctx context.Context, associationID int64, visible bool) (models.UpdateResult, error)
	ShiftOrderIndices(ctx context.Context, collectionID int64, start, end, delta int) (int64, error)
	Attach(ctx context.Context, collectionID, contentID int64, orderIndex int, visible bool) (models.CollectionContent, error)
	Append(ctx context.Context, collectionID, contentID int64, visible bool) (models.CollectionContent, error)
	DetachContent(ctx context.Context, collectionID int64, contentIDs []int64) (int64, error)
	DeleteAllForCollection(ctx context.Context, collectionID int64) (int64, error)
	Compact(ctx context.Context, collectionID int64) error
	CollectionIDsForContent(ctx context.Context, contentID int64) ([]int64, error)
}

type ContentRepository interface {
	CreateImage(ctx context.Context, img *models.ImageContent) (int64, error)
	CreateText(ctx context.Context, txt *models.TextContent) (int64, error)
	CreateGif(ctx context.Context, gif *models.GifContent) (int64, error)
	CreateCollectionRef(ctx context.Context, ref *models.CollectionRefContent) (int64, error)
	TypeByID(ctx context.Context, id int64) (models.ContentType, error)
	TypesByIDs(ctx context.Context, ids []int64) (map[int64]models.ContentType, error)
	ImagesByIDs(ctx context.Context, ids []int64) ([]*models.ImageContent, error)
	TextsByIDs(ctx context.Context, ids []int64) ([]*models.TextContent, error)
	GifsByIDs(ctx context.Context, ids []int64) ([]*models.GifContent, error)
	CollectionRefsByIDs(ctx context.Context, ids []int64) ([]*models.CollectionRefContent, error)
	UpdateImage(ctx context.Context, img *models.ImageContent) error
	UpdateText(ctx context.Context, txt *models.TextContent) error
	SetTags(ctx context.Context, contentID int64, names []string) error
	SetPeople(ctx context.Context, contentID int64, names []string) error
	IDsReferencingCollection(ctx context.Context, collectionID int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

// VocabularyRepository manages one name-keyed lookup table.
type VocabularyRepository interface {
	List(ctx context.Context) ([]models.Term, error)
	Create(ctx context.Context, name string) (models.Term, error)
	FindOrCreate(ctx context.Context, name string) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type FilmTypeRepository interface {
	List(ctx context.Context) ([]models.FilmType, error)
	GetByID(ctx context.Context, id int64) (models.FilmType, error)
	Create(ctx context.Context, ft models.FilmType) (models.FilmType, error)
	Delete(ctx context.Context, id int64) error
}

type AccessGrantRepository interface {
	SaveGrant(ctx context.Context, collectionID int64, grantID string, exp time.Duration) error
	HasGrant(ctx context.Context, collectionID int64, grantID string) (bool, error)
	RevokeGrant(ctx context.Context, collectionID int64, grantID string) error
	RevokeAllGrants(ctx context.Context, collectionID int64) error
}
