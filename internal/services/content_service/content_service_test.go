package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/logger/handlers/slogdiscard"
	"portfolio/internal/repository/mocks"
	"portfolio/internal/storage"
	"portfolio/internal/transport/http/dto"
)

type mockObjects struct {
	mock.Mock
}

func (m *mockObjects) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate() { c.calls++ }

type fixture struct {
	svc         *ContentService
	tx          *mocks.Transactor
	collections *mocks.CollectionRepository
	assoc       *mocks.CollectionContentRepository
	content     *mocks.ContentRepository
	cameras     *mocks.VocabularyRepository
	lenses      *mocks.VocabularyRepository
	locations   *mocks.VocabularyRepository
	filmTypes   *mocks.FilmTypeRepository
	objects     *mockObjects
	vocab       *countingInvalidator
}

func newFixture() *fixture {
	f := &fixture{
		tx:          &mocks.Transactor{},
		collections: new(mocks.CollectionRepository),
		assoc:       new(mocks.CollectionContentRepository),
		content:     new(mocks.ContentRepository),
		cameras:     new(mocks.VocabularyRepository),
		lenses:      new(mocks.VocabularyRepository),
		locations:   new(mocks.VocabularyRepository),
		filmTypes:   new(mocks.FilmTypeRepository),
		objects:     new(mockObjects),
		vocab:       &countingInvalidator{},
	}
	f.svc = NewContentService(slogdiscard.NewDiscardLogger(), f.tx, Repositories{
		Collections:       f.collections,
		CollectionContent: f.assoc,
		Content:           f.content,
		Cameras:           f.cameras,
		Lenses:            f.lenses,
		Locations:         f.locations,
		FilmTypes:         f.filmTypes,
	}, f.objects, f.vocab)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.collections.AssertExpectations(t)
	f.assoc.AssertExpectations(t)
	f.content.AssertExpectations(t)
	f.cameras.AssertExpectations(t)
	f.filmTypes.AssertExpectations(t)
	f.objects.AssertExpectations(t)
}

func image(id int64) *models.ImageContent {
	return &models.ImageContent{ContentBase: models.ContentBase{ID: id, ContentType: models.ContentTypeImage}}
}

func TestContentService_LoadByIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ids := []int64{1, 2, 3, 4}
	f.content.On("TypesByIDs", ctx, ids).Return(map[int64]models.ContentType{
		1: models.ContentTypeImage,
		2: models.ContentTypeImage,
		3: models.ContentTypeText,
		4: models.ContentTypeGif,
	}, nil).Once()
	f.content.On("ImagesByIDs", ctx, []int64{1, 2}).Return([]*models.ImageContent{image(1), image(2)}, nil).Once()
	f.content.On("TextsByIDs", ctx, []int64{3}).Return([]*models.TextContent{
		{ContentBase: models.ContentBase{ID: 3, ContentType: models.ContentTypeText}, Text: "hi"},
	}, nil).Once()
	f.content.On("GifsByIDs", ctx, []int64{4}).Return([]*models.GifContent{
		{ContentBase: models.ContentBase{ID: 4, ContentType: models.ContentTypeGif}},
	}, nil).Once()

	items, err := f.svc.LoadByIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, items, 4)

	byType := map[models.ContentType]int{}
	for _, it := range items {
		byType[it.Base().ContentType]++
	}
	assert.Equal(t, 2, byType[models.ContentTypeImage])
	assert.Equal(t, 1, byType[models.ContentTypeText])
	assert.Equal(t, 1, byType[models.ContentTypeGif])

	f.assertExpectations(t)
}

func TestContentService_LoadByIDs_SkipsUnknownTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ids := []int64{1, 2, 9}
	f.content.On("TypesByIDs", ctx, ids).Return(map[int64]models.ContentType{
		1: models.ContentTypeImage,
		2: models.ContentType("VIDEO"),
	}, nil).Once()
	f.content.On("ImagesByIDs", ctx, []int64{1}).Return([]*models.ImageContent{image(1)}, nil).Once()

	items, err := f.svc.LoadByIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].Base().ID)

	f.assertExpectations(t)
}

func TestContentService_LoadByIDs_Empty(t *testing.T) {
	f := newFixture()

	items, err := f.svc.LoadByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	f.content.AssertNotCalled(t, "TypesByIDs", mock.Anything, mock.Anything)
}

func TestContentService_GetContent_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.content.On("TypesByIDs", ctx, []int64{42}).Return(map[int64]models.ContentType{}, nil).Once()

	_, err := f.svc.GetContent(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrContentNotFound)
}

func TestContentService_CreateTextContent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		req       dto.CreateTextRequest
		mockSetup func(f *fixture)
		wantErr   error
	}{
		{
			name: "appended to collection",
			req:  dto.CreateTextRequest{CollectionID: 7, Text: "Intro", FormatType: "plain"},
			mockSetup: func(f *fixture) {
				f.collections.On("LockForUpdate", ctx, int64(7)).Return(nil).Once()
				f.content.On("CreateText", ctx, mock.MatchedBy(func(txt *models.TextContent) bool {
					return txt.Text == "Intro" && txt.FormatType == models.TextFormatPlain
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*models.TextContent).ID = 11
				}).Return(int64(11), nil).Once()
				f.assoc.On("Append", ctx, int64(7), int64(11), true).
					Return(models.CollectionContent{ID: 1, CollectionID: 7, ContentID: 11, OrderIndex: 3, Visible: true}, nil).Once()
				f.collections.On("RefreshTotalContent", ctx, int64(7)).Return(4, nil).Once()
			},
		},
		{
			name:      "blank text",
			req:       dto.CreateTextRequest{CollectionID: 7, Text: "   "},
			mockSetup: func(f *fixture) {},
			wantErr:   models.ErrValidation,
		},
		{
			name:      "unknown format",
			req:       dto.CreateTextRequest{CollectionID: 7, Text: "x", FormatType: "rtf"},
			mockSetup: func(f *fixture) {},
			wantErr:   models.ErrValidation,
		},
		{
			name: "missing collection",
			req:  dto.CreateTextRequest{CollectionID: 8, Text: "x"},
			mockSetup: func(f *fixture) {
				f.collections.On("LockForUpdate", ctx, int64(8)).Return(storage.ErrCollectionNotFound).Once()
			},
			wantErr: storage.ErrCollectionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.mockSetup(f)

			txt, err := f.svc.CreateTextContent(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, txt)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(11), txt.ID)
			}
			f.assertExpectations(t)
		})
	}
}

func TestContentService_CreateCollectionReference(t *testing.T) {
	ctx := context.Background()

	t.Run("self reference rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreateCollectionReference(ctx, dto.CreateCollectionRefRequest{CollectionID: 3, ReferencedCollectionID: 3})
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("appended with referenced title", func(t *testing.T) {
		f := newFixture()
		cover := int64(99)
		f.collections.On("LockForUpdate", ctx, int64(1)).Return(nil).Once()
		f.collections.On("GetByID", ctx, int64(2)).
			Return(models.Collection{ID: 2, Title: "Lisbon", Slug: "lisbon", CoverImageID: &cover}, nil).Once()
		f.content.On("CreateCollectionRef", ctx, mock.AnythingOfType("*models.CollectionRefContent")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*models.CollectionRefContent).ID = 50
			}).Return(int64(50), nil).Once()
		f.assoc.On("Append", ctx, int64(1), int64(50), true).Return(models.CollectionContent{}, nil).Once()
		f.collections.On("RefreshTotalContent", ctx, int64(1)).Return(1, nil).Once()

		ref, err := f.svc.CreateCollectionReference(ctx, dto.CreateCollectionRefRequest{CollectionID: 1, ReferencedCollectionID: 2})
		require.NoError(t, err)
		assert.Equal(t, "Lisbon", ref.Title)
		assert.Equal(t, "lisbon", ref.Slug)
		assert.Equal(t, &cover, ref.CoverImageID)
		f.assertExpectations(t)
	})
}

func ptr[T any](v T) *T { return &v }

func TestContentService_UpdateImage_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		current *models.ImageContent
		req     dto.UpdateImageRequest
		setup   func(f *fixture)
	}{
		{
			name:    "rating above five",
			current: image(1),
			req:     dto.UpdateImageRequest{Rating: ptr(6)},
		},
		{
			name:    "negative rating",
			current: image(1),
			req:     dto.UpdateImageRequest{Rating: ptr(-1)},
		},
		{
			name:    "film without format",
			current: image(1),
			req:     dto.UpdateImageRequest{IsFilm: ptr(true)},
		},
		{
			name:    "film with unknown format",
			current: image(1),
			req:     dto.UpdateImageRequest{IsFilm: ptr(true), FilmFormat: ptr("8x10")},
		},
		{
			name:    "digital with film format",
			current: image(1),
			req:     dto.UpdateImageRequest{FilmFormat: ptr("120")},
		},
		{
			name:    "digital with film type",
			current: image(1),
			req:     dto.UpdateImageRequest{FilmTypeID: ptr(int64(4))},
		},
		{
			name:    "unknown film type",
			current: image(1),
			req:     dto.UpdateImageRequest{IsFilm: ptr(true), FilmFormat: ptr("35mm"), FilmTypeID: ptr(int64(4))},
			setup: func(f *fixture) {
				f.filmTypes.On("GetByID", ctx, int64(4)).Return(models.FilmType{}, storage.ErrTermNotFound).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.content.On("ImagesByIDs", ctx, []int64{1}).Return([]*models.ImageContent{tt.current}, nil).Once()
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.svc.UpdateImage(ctx, 1, tt.req)
			assert.ErrorIs(t, err, models.ErrValidation)
			f.content.AssertNotCalled(t, "UpdateImage", mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestContentService_UpdateImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	current := image(1)
	current.CameraID = ptr(int64(3))

	f.content.On("ImagesByIDs", ctx, []int64{1}).Return([]*models.ImageContent{current}, nil).Once()
	f.filmTypes.On("GetByID", ctx, int64(2)).
		Return(models.FilmType{ID: 2, Name: "portra_400", DefaultISO: 400}, nil).Once()
	f.lenses.On("FindOrCreate", ctx, "50mm f/1.4").Return(int64(8), nil).Once()
	f.content.On("UpdateImage", ctx, mock.MatchedBy(func(img *models.ImageContent) bool {
		return img.Rating == 4 &&
			img.IsFilm &&
			img.FilmFormat == "120" &&
			img.ISO != nil && *img.ISO == 400 &&
			img.CameraID != nil && *img.CameraID == 3 &&
			img.LensID != nil && *img.LensID == 8 &&
			img.LocationID == nil
	})).Return(nil).Once()

	updated := image(1)
	updated.Rating = 4
	f.content.On("ImagesByIDs", ctx, []int64{1}).Return([]*models.ImageContent{updated}, nil).Once()

	img, err := f.svc.UpdateImage(ctx, 1, dto.UpdateImageRequest{
		Rating:     ptr(4),
		IsFilm:     ptr(true),
		FilmFormat: ptr("120"),
		FilmTypeID: ptr(int64(2)),
		Lens:       ptr(" 50mm f/1.4 "),
		Location:   ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, img.Rating)
	assert.Equal(t, 1, f.vocab.calls)
	f.locations.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestContentService_UpdateImage_WrongType(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.content.On("ImagesByIDs", ctx, []int64{5}).Return([]*models.ImageContent{}, nil).Once()
	f.content.On("TypeByID", ctx, int64(5)).Return(models.ContentTypeText, nil).Once()

	_, err := f.svc.UpdateImage(ctx, 5, dto.UpdateImageRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, models.ErrValidation)

	f.content.On("ImagesByIDs", ctx, []int64{6}).Return([]*models.ImageContent{}, nil).Once()
	f.content.On("TypeByID", ctx, int64(6)).Return(models.ContentType(""), storage.ErrContentNotFound).Once()

	_, err = f.svc.UpdateImage(ctx, 6, dto.UpdateImageRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrContentNotFound)
}

func TestContentService_UpdateText(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	txt := &models.TextContent{ContentBase: models.ContentBase{ID: 3}, Text: "old", FormatType: models.TextFormatPlain}
	f.content.On("TextsByIDs", ctx, []int64{3}).Return([]*models.TextContent{txt}, nil).Once()
	f.content.On("UpdateText", ctx, txt).Return(nil).Once()

	got, err := f.svc.UpdateText(ctx, 3, dto.UpdateTextRequest{Text: ptr("new"), FormatType: ptr("markdown")})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Text)
	assert.Equal(t, models.TextFormatMarkdown, got.FormatType)
	f.assertExpectations(t)
}

func TestContentService_DeleteContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	img := image(1)
	img.FileIdentifier = "Image/Original/2024/05/a.jpg"
	img.WebFileKey = "Image/Web/2024/05/a.jpg.webp"

	f.content.On("TypesByIDs", ctx, []int64{1}).Return(map[int64]models.ContentType{1: models.ContentTypeImage}, nil).Once()
	f.content.On("ImagesByIDs", ctx, []int64{1}).Return([]*models.ImageContent{img}, nil).Once()
	f.assoc.On("CollectionIDsForContent", ctx, int64(1)).Return([]int64{10, 20}, nil).Once()
	f.collections.On("LockForUpdate", ctx, int64(10)).Return(nil).Once()
	f.collections.On("LockForUpdate", ctx, int64(20)).Return(nil).Once()
	f.content.On("Delete", ctx, int64(1)).Return(nil).Once()
	f.collections.On("RefreshTotalContent", ctx, int64(10)).Return(2, nil).Once()
	f.collections.On("RefreshTotalContent", ctx, int64(20)).Return(0, nil).Once()
	f.objects.On("Delete", ctx, img.FileIdentifier).Return(nil).Once()
	f.objects.On("Delete", ctx, img.WebFileKey).Return(errors.New("s3 down")).Once()

	err := f.svc.DeleteContent(ctx, 1)
	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestContentService_DeleteContent_RepoFailureKeepsFiles(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.content.On("TypesByIDs", ctx, []int64{1}).Return(map[int64]models.ContentType{1: models.ContentTypeImage}, nil).Once()
	f.content.On("ImagesByIDs", ctx, []int64{1}).Return([]*models.ImageContent{image(1)}, nil).Once()
	f.assoc.On("CollectionIDsForContent", ctx, int64(1)).Return([]int64{}, nil).Once()
	f.content.On("Delete", ctx, int64(1)).Return(errors.New("db gone")).Once()

	err := f.svc.DeleteContent(ctx, 1)
	assert.Error(t, err)
	f.objects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
