// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"portfolio/internal/domain/models"
	"portfolio/internal/repository"
)

// Transactor runs fn directly and counts calls.
type Transactor struct {
	Calls int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

type CollectionRepository struct {
	mock.Mock
}

var _ repository.CollectionRepository = (*CollectionRepository)(nil)

func (m *CollectionRepository) Create(ctx context.Context, c models.Collection) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CollectionRepository) GetByID(ctx context.Context, id int64) (models.Collection, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Collection), args.Error(1)
}

func (m *CollectionRepository) GetBySlug(ctx context.Context, slug string) (models.Collection, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(models.Collection), args.Error(1)
}

func (m *CollectionRepository) List(ctx context.Context, filter repository.CollectionFilter) ([]models.Collection, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Collection), args.Error(1)
}

func (m *CollectionRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *CollectionRepository) Update(ctx context.Context, id int64, upd models.CollectionUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *CollectionRepository) SetCoverImage(ctx context.Context, id int64, contentID *int64) error {
	args := m.Called(ctx, id, contentID)
	return args.Error(0)
}

func (m *CollectionRepository) SetTags(ctx context.Context, id int64, names []string) error {
	args := m.Called(ctx, id, names)
	return args.Error(0)
}

func (m *CollectionRepository) LockForUpdate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CollectionRepository) RefreshTotalContent(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *CollectionRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type CollectionContentRepository struct {
	mock.Mock
}

var _ repository.CollectionContentRepository = (*CollectionContentRepository)(nil)

func (m *CollectionContentRepository) ListByCollection(ctx context.Context, collectionID int64) ([]models.CollectionContent, error) {
	args := m.Called(ctx, collectionID)
	return args.Get(0).([]models.CollectionContent), args.Error(1)
}

func (m *CollectionContentRepository) ListByCollectionPage(ctx context.Context, collectionID int64, visibleOnly bool, limit, offset int) ([]models.CollectionContent, error) {
	args := m.Called(ctx, collectionID, visibleOnly, limit, offset)
	return args.Get(0).([]models.CollectionContent), args.Error(1)
}

func (m *CollectionContentRepository) CountByCollection(ctx context.Context, collectionID int64, visibleOnly bool) (int, error) {
	args := m.Called(ctx, collectionID, visibleOnly)
	return args.Int(0), args.Error(1)
}

func (m *CollectionContentRepository) MaxOrderIndex(ctx context.Context, collectionID int64) (int, bool, error) {
	args := m.Called(ctx, collectionID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *CollectionContentRepository) FindAssociation(ctx context.Context, collectionID, contentID int64) (models.CollectionContent, error) {
	args := m.Called(ctx, collectionID, contentID)
	return args.Get(0).(models.CollectionContent), args.Error(1)
}

func (m *CollectionContentRepository) FindByOrderIndex(ctx context.Context, collectionID int64, orderIndex int) (models.CollectionContent, error) {
	args := m.Called(ctx, collectionID, orderIndex)
	return args.Get(0).(models.CollectionContent), args.Error(1)
}

func (m *CollectionContentRepository) SetOrderIndex(ctx context.Context, associationID int64, orderIndex int) (models.UpdateResult, error) {
	args := m.Called(ctx, associationID, orderIndex)
	return args.Get(0).(models.UpdateResult), args.Error(1)
}

func (m *CollectionContentRepository) SetVisible(ctx context.Context, associationID int64, visible bool) (models.UpdateResult, error) {
	args := m.Called(ctx, associationID, visible)
	return args.Get(0).(models.UpdateResult), args.Error(1)
}

func (m *CollectionContentRepository) ShiftOrderIndices(ctx context.Context, collectionID int64, start, end, delta int) (int64, error) {
	args := m.Called(ctx, collectionID, start, end, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CollectionContentRepository) Attach(ctx context.Context, collectionID, contentID int64, orderIndex int, visible bool) (models.CollectionContent, error) {
	args := m.Called(ctx, collectionID, contentID, orderIndex, visible)
	return args.Get(0).(models.CollectionContent), args.Error(1)
}

func (m *CollectionContentRepository) Append(ctx context.Context, collectionID, contentID int64, visible bool) (models.CollectionContent, error) {
	args := m.Called(ctx, collectionID, contentID, visible)
	return args.Get(0).(models.CollectionContent), args.Error(1)
}

func (m *CollectionContentRepository) DetachContent(ctx context.Context, collectionID int64, contentIDs []int64) (int64, error) {
	args := m.Called(ctx, collectionID, contentIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CollectionContentRepository) DeleteAllForCollection(ctx context.Context, collectionID int64) (int64, error) {
	args := m.Called(ctx, collectionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CollectionContentRepository) Compact(ctx context.Context, collectionID int64) error {
	args := m.Called(ctx, collectionID)
	return args.Error(0)
}

func (m *CollectionContentRepository) CollectionIDsForContent(ctx context.Context, contentID int64) ([]int64, error) {
	args := m.Called(ctx, contentID)
	return args.Get(0).([]int64), args.Error(1)
}

type ContentRepository struct {
	mock.Mock
}

var _ repository.ContentRepository = (*ContentRepository)(nil)

func (m *ContentRepository) CreateImage(ctx context.Context, img *models.ImageContent) (int64, error) {
	args := m.Called(ctx, img)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ContentRepository) CreateText(ctx context.Context, txt *models.TextContent) (int64, error) {
	args := m.Called(ctx, txt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ContentRepository) CreateGif(ctx context.Context, gif *models.GifContent) (int64, error) {
	args := m.Called(ctx, gif)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ContentRepository) CreateCollectionRef(ctx context.Context, ref *models.CollectionRefContent) (int64, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ContentRepository) TypeByID(ctx context.Context, id int64) (models.ContentType, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.ContentType), args.Error(1)
}

func (m *ContentRepository) TypesByIDs(ctx context.Context, ids []int64) (map[int64]models.ContentType, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[int64]models.ContentType), args.Error(1)
}

func (m *ContentRepository) ImagesByIDs(ctx context.Context, ids []int64) ([]*models.ImageContent, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.ImageContent), args.Error(1)
}

func (m *ContentRepository) TextsByIDs(ctx context.Context, ids []int64) ([]*models.TextContent, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.TextContent), args.Error(1)
}

func (m *ContentRepository) GifsByIDs(ctx context.Context, ids []int64) ([]*models.GifContent, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.GifContent), args.Error(1)
}

func (m *ContentRepository) CollectionRefsByIDs(ctx context.Context, ids []int64) ([]*models.CollectionRefContent, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.CollectionRefContent), args.Error(1)
}

func (m *ContentRepository) UpdateImage(ctx context.Context, img *models.ImageContent) error {
	args := m.Called(ctx, img)
	return args.Error(0)
}

func (m *ContentRepository) UpdateText(ctx context.Context, txt *models.TextContent) error {
	args := m.Called(ctx, txt)
	return args.Error(0)
}

func (m *ContentRepository) SetTags(ctx context.Context, contentID int64, names []string) error {
	args := m.Called(ctx, contentID, names)
	return args.Error(0)
}

func (m *ContentRepository) SetPeople(ctx context.Context, contentID int64, names []string) error {
	args := m.Called(ctx, contentID, names)
	return args.Error(0)
}

func (m *ContentRepository) IDsReferencingCollection(ctx context.Context, collectionID int64) ([]int64, error) {
	args := m.Called(ctx, collectionID)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *ContentRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type VocabularyRepository struct {
	mock.Mock
}

var _ repository.VocabularyRepository = (*VocabularyRepository)(nil)

func (m *VocabularyRepository) List(ctx context.Context) ([]models.Term, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Term), args.Error(1)
}

func (m *VocabularyRepository) Create(ctx context.Context, name string) (models.Term, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.Term), args.Error(1)
}

func (m *VocabularyRepository) FindOrCreate(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *VocabularyRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type FilmTypeRepository struct {
	mock.Mock
}

var _ repository.FilmTypeRepository = (*FilmTypeRepository)(nil)

func (m *FilmTypeRepository) List(ctx context.Context) ([]models.FilmType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.FilmType), args.Error(1)
}

func (m *FilmTypeRepository) GetByID(ctx context.Context, id int64) (models.FilmType, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.FilmType), args.Error(1)
}

func (m *FilmTypeRepository) Create(ctx context.Context, ft models.FilmType) (models.FilmType, error) {
	args := m.Called(ctx, ft)
	return args.Get(0).(models.FilmType), args.Error(1)
}

func (m *FilmTypeRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AccessGrantRepository struct {
	mock.Mock
}

var _ repository.AccessGrantRepository = (*AccessGrantRepository)(nil)

func (m *AccessGrantRepository) SaveGrant(ctx context.Context, collectionID int64, grantID string, exp time.Duration) error {
	args := m.Called(ctx, collectionID, grantID, exp)
	return args.Error(0)
}

func (m *AccessGrantRepository) HasGrant(ctx context.Context, collectionID int64, grantID string) (bool, error) {
	args := m.Called(ctx, collectionID, grantID)
	return args.Bool(0), args.Error(1)
}

func (m *AccessGrantRepository) RevokeGrant(ctx context.Context, collectionID int64, grantID string) error {
	args := m.Called(ctx, collectionID, grantID)
	return args.Error(0)
}

func (m *AccessGrantRepository) RevokeAllGrants(ctx context.Context, collectionID int64) error {
	args := m.Called(ctx, collectionID)
	return args.Error(0)
}
