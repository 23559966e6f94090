package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/logger/handlers/slogdiscard"
	"portfolio/internal/repository"
	"portfolio/internal/repository/mocks"
	"portfolio/internal/storage"
	"portfolio/internal/transport/http/dto"
)

func newService() (*VocabularyService, *mocks.VocabularyRepository, *mocks.FilmTypeRepository) {
	tags := new(mocks.VocabularyRepository)
	films := new(mocks.FilmTypeRepository)
	svc := NewVocabularyService(slogdiscard.NewDiscardLogger(), time.Minute,
		map[Kind]repository.VocabularyRepository{KindTags: tags}, films)
	return svc, tags, films
}

func TestVocabularyService_ListTermsIsCached(t *testing.T) {
	ctx := context.Background()
	svc, tags, _ := newService()

	tags.On("List", ctx).Return([]models.Term{{ID: 1, Name: "street"}}, nil).Once()

	for i := 0; i < 3; i++ {
		got, err := svc.ListTerms(ctx, KindTags)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	tags.AssertNumberOfCalls(t, "List", 1)
}

func TestVocabularyService_CreateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, tags, _ := newService()

	tags.On("List", ctx).Return([]models.Term{{ID: 1, Name: "street"}}, nil).Once()
	tags.On("Create", ctx, "film").Return(models.Term{ID: 2, Name: "film"}, nil).Once()
	tags.On("List", ctx).Return([]models.Term{{ID: 1, Name: "street"}, {ID: 2, Name: "film"}}, nil).Once()

	_, err := svc.ListTerms(ctx, KindTags)
	require.NoError(t, err)

	term, err := svc.CreateTerm(ctx, KindTags, dto.CreateTermRequest{Name: "  film "})
	require.NoError(t, err)
	assert.Equal(t, int64(2), term.ID)

	got, err := svc.ListTerms(ctx, KindTags)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	tags.AssertExpectations(t)
}

func TestVocabularyService_CreateTerm_Errors(t *testing.T) {
	ctx := context.Background()
	svc, tags, _ := newService()

	_, err := svc.CreateTerm(ctx, KindTags, dto.CreateTermRequest{Name: " "})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateTerm(ctx, Kind("colours"), dto.CreateTermRequest{Name: "red"})
	assert.ErrorIs(t, err, models.ErrValidation)

	tags.On("Create", ctx, "street").Return(models.Term{}, storage.ErrConflict).Once()
	_, err = svc.CreateTerm(ctx, KindTags, dto.CreateTermRequest{Name: "street"})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestVocabularyService_FilmTypes(t *testing.T) {
	ctx := context.Background()
	svc, _, films := newService()

	films.On("List", ctx).Return([]models.FilmType{{ID: 1, Name: "hp5"}}, nil).Once()
	films.On("Create", ctx, models.FilmType{Name: "portra_400", DisplayName: "Kodak Portra 400", DefaultISO: 400}).
		Return(models.FilmType{ID: 2, Name: "portra_400"}, nil).Once()
	films.On("List", ctx).Return([]models.FilmType{{ID: 1}, {ID: 2}}, nil).Once()

	list, err := svc.ListFilmTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.CreateFilmType(ctx, dto.CreateFilmTypeRequest{Name: "portra_400", DisplayName: "Kodak Portra 400", DefaultISO: 400})
	require.NoError(t, err)

	list, err = svc.ListFilmTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.CreateFilmType(ctx, dto.CreateFilmTypeRequest{Name: "x"})
	assert.ErrorIs(t, err, models.ErrValidation)
	films.AssertExpectations(t)
}

func TestVocabularyService_Invalidate(t *testing.T) {
	ctx := context.Background()
	svc, tags, _ := newService()

	tags.On("List", ctx).Return([]models.Term{}, nil).Twice()

	_, _ = svc.ListTerms(ctx, KindTags)
	svc.Invalidate()
	_, _ = svc.ListTerms(ctx, KindTags)

	tags.AssertNumberOfCalls(t, "List", 2)
}
