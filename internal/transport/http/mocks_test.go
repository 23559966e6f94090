package http_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"portfolio/internal/domain/models"
	vocabulary "portfolio/internal/services/vocabulary_service"
	"portfolio/internal/transport/http/dto"
)

type collectionServiceMock struct{ mock.Mock }

func (m *collectionServiceMock) CreateCollection(ctx context.Context, req dto.CreateCollectionRequest) (models.Collection, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Collection), args.Error(1)
}

func (m *collectionServiceMock) GetCollection(ctx context.Context, id int64, page int) (*dto.CollectionResponse, error) {
	args := m.Called(ctx, id, page)
	resp, _ := args.Get(0).(*dto.CollectionResponse)
	return resp, args.Error(1)
}

func (m *collectionServiceMock) GetVisibleBySlug(ctx context.Context, slug string) (models.Collection, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(models.Collection), args.Error(1)
}

func (m *collectionServiceMock) Page(ctx context.Context, c models.Collection, page int, publicView bool) (*dto.CollectionResponse, error) {
	args := m.Called(ctx, c, page, publicView)
	resp, _ := args.Get(0).(*dto.CollectionResponse)
	return resp, args.Error(1)
}

func (m *collectionServiceMock) ListCollections(ctx context.Context, collectionType models.CollectionType, publicView bool) ([]dto.CollectionSummary, error) {
	args := m.Called(ctx, collectionType, publicView)
	list, _ := args.Get(0).([]dto.CollectionSummary)
	return list, args.Error(1)
}

func (m *collectionServiceMock) UpdateCollection(ctx context.Context, id int64, req dto.UpdateCollectionRequest) (models.Collection, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.Collection), args.Error(1)
}

func (m *collectionServiceMock) Reorder(ctx context.Context, collectionID int64, ops []models.ReorderOp) error {
	return m.Called(ctx, collectionID, ops).Error(0)
}

func (m *collectionServiceMock) AttachContent(ctx context.Context, collectionID int64, req dto.AttachContentRequest) ([]models.CollectionContent, error) {
	args := m.Called(ctx, collectionID, req)
	list, _ := args.Get(0).([]models.CollectionContent)
	return list, args.Error(1)
}

func (m *collectionServiceMock) DetachContent(ctx context.Context, collectionID int64, contentIDs []int64) (int64, error) {
	args := m.Called(ctx, collectionID, contentIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *collectionServiceMock) MoveContent(ctx context.Context, collectionID int64, req dto.MoveContentRequest) error {
	return m.Called(ctx, collectionID, req).Error(0)
}

func (m *collectionServiceMock) CompactOrder(ctx context.Context, collectionID int64) error {
	return m.Called(ctx, collectionID).Error(0)
}

func (m *collectionServiceMock) SetContentVisibility(ctx context.Context, collectionID, contentID int64, visible bool) error {
	return m.Called(ctx, collectionID, contentID, visible).Error(0)
}

func (m *collectionServiceMock) SetCoverImage(ctx context.Context, collectionID int64, contentID *int64) error {
	return m.Called(ctx, collectionID, contentID).Error(0)
}

func (m *collectionServiceMock) DeleteCollection(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type contentServiceMock struct{ mock.Mock }

func (m *contentServiceMock) GetContent(ctx context.Context, id int64) (models.Content, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(models.Content)
	return c, args.Error(1)
}

func (m *contentServiceMock) LoadByIDs(ctx context.Context, ids []int64) ([]models.Content, error) {
	args := m.Called(ctx, ids)
	list, _ := args.Get(0).([]models.Content)
	return list, args.Error(1)
}

func (m *contentServiceMock) CreateTextContent(ctx context.Context, req dto.CreateTextRequest) (*models.TextContent, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*models.TextContent)
	return c, args.Error(1)
}

func (m *contentServiceMock) CreateCollectionReference(ctx context.Context, req dto.CreateCollectionRefRequest) (*models.CollectionRefContent, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*models.CollectionRefContent)
	return c, args.Error(1)
}

func (m *contentServiceMock) UpdateImage(ctx context.Context, id int64, req dto.UpdateImageRequest) (*models.ImageContent, error) {
	args := m.Called(ctx, id, req)
	c, _ := args.Get(0).(*models.ImageContent)
	return c, args.Error(1)
}

func (m *contentServiceMock) UpdateText(ctx context.Context, id int64, req dto.UpdateTextRequest) (*models.TextContent, error) {
	args := m.Called(ctx, id, req)
	c, _ := args.Get(0).(*models.TextContent)
	return c, args.Error(1)
}

func (m *contentServiceMock) DeleteContent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type uploadServiceMock struct{ mock.Mock }

func (m *uploadServiceMock) Upload(ctx context.Context, input dto.UploadInput) (*dto.UploadResult, error) {
	args := m.Called(ctx, input)
	res, _ := args.Get(0).(*dto.UploadResult)
	return res, args.Error(1)
}

type vocabularyServiceMock struct{ mock.Mock }

func (m *vocabularyServiceMock) ListTerms(ctx context.Context, kind vocabulary.Kind) ([]models.Term, error) {
	args := m.Called(ctx, kind)
	list, _ := args.Get(0).([]models.Term)
	return list, args.Error(1)
}

func (m *vocabularyServiceMock) CreateTerm(ctx context.Context, kind vocabulary.Kind, req dto.CreateTermRequest) (models.Term, error) {
	args := m.Called(ctx, kind, req)
	return args.Get(0).(models.Term), args.Error(1)
}

func (m *vocabularyServiceMock) DeleteTerm(ctx context.Context, kind vocabulary.Kind, id int64) error {
	return m.Called(ctx, kind, id).Error(0)
}

func (m *vocabularyServiceMock) ListFilmTypes(ctx context.Context) ([]models.FilmType, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.FilmType)
	return list, args.Error(1)
}

func (m *vocabularyServiceMock) CreateFilmType(ctx context.Context, req dto.CreateFilmTypeRequest) (models.FilmType, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.FilmType), args.Error(1)
}

func (m *vocabularyServiceMock) DeleteFilmType(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type authServiceMock struct{ mock.Mock }

func (m *authServiceMock) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *authServiceMock) GrantGalleryAccess(ctx context.Context, slug, password string) (string, models.Collection, error) {
	args := m.Called(ctx, slug, password)
	return args.String(0), args.Get(1).(models.Collection), args.Error(2)
}

func (m *authServiceMock) HasGalleryAccess(ctx context.Context, collectionID int64, token string) (bool, error) {
	args := m.Called(ctx, collectionID, token)
	return args.Bool(0), args.Error(1)
}
