package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/logger/sl"
	"portfolio/internal/repository"
	"portfolio/internal/transport/http/dto"
)

// Kind names one vocabulary list.
type Kind string

const (
	KindTags      Kind = "tags"
	KindPeople    Kind = "people"
	KindCameras   Kind = "cameras"
	KindLenses    Kind = "lenses"
	KindLocations Kind = "locations"

	filmTypesKey = "film_types"
)

// VocabularyService serves the lookup lists used by the metadata editor.
// Lists are cached in process and dropped on every write.
type VocabularyService struct {
	log       *slog.Logger
	cache     *cache.Cache
	terms     map[Kind]repository.VocabularyRepository
	filmTypes repository.FilmTypeRepository
}

func NewVocabularyService(
	log *slog.Logger,
	ttl time.Duration,
	terms map[Kind]repository.VocabularyRepository,
	filmTypes repository.FilmTypeRepository,
) *VocabularyService {
	return &VocabularyService{
		log:       log,
		cache:     cache.New(ttl, 2*ttl),
		terms:     terms,
		filmTypes: filmTypes,
	}
}

func (s *VocabularyService) repo(kind Kind) (repository.VocabularyRepository, error) {
	r, ok := s.terms[kind]
	if !ok {
		return nil, models.Invalid("unknown vocabulary %q", kind)
	}
	return r, nil
}

func (s *VocabularyService) ListTerms(ctx context.Context, kind Kind) ([]models.Term, error) {
	const op = "service.VocabularyService.ListTerms"

	repo, err := s.repo(kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cached, ok := s.cache.Get(string(kind)); ok {
		return cached.([]models.Term), nil
	}

	terms, err := repo.List(ctx)
	if err != nil {
		s.log.Error("failed to list vocabulary",
			slog.String("op", op),
			slog.String("kind", string(kind)),
			sl.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.SetDefault(string(kind), terms)
	return terms, nil
}

func (s *VocabularyService) CreateTerm(ctx context.Context, kind Kind, req dto.CreateTermRequest) (models.Term, error) {
	const op = "service.VocabularyService.CreateTerm"
	log := s.log.With(
		slog.String("op", op),
		slog.String("kind", string(kind)),
	)

	repo, err := s.repo(kind)
	if err != nil {
		return models.Term{}, fmt.Errorf("%s: %w", op, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Term{}, fmt.Errorf("%s: %w", op, models.Invalid("name is required"))
	}

	term, err := repo.Create(ctx, name)
	if err != nil {
		log.Warn("failed to create term", sl.Err(err))
		return models.Term{}, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(string(kind))
	log.Info("term created", slog.Int64("id", term.ID))
	return term, nil
}

func (s *VocabularyService) DeleteTerm(ctx context.Context, kind Kind, id int64) error {
	const op = "service.VocabularyService.DeleteTerm"

	repo, err := s.repo(kind)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(string(kind))
	return nil
}

func (s *VocabularyService) ListFilmTypes(ctx context.Context) ([]models.FilmType, error) {
	const op = "service.VocabularyService.ListFilmTypes"

	if cached, ok := s.cache.Get(filmTypesKey); ok {
		return cached.([]models.FilmType), nil
	}

	list, err := s.filmTypes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.SetDefault(filmTypesKey, list)
	return list, nil
}

func (s *VocabularyService) CreateFilmType(ctx context.Context, req dto.CreateFilmTypeRequest) (models.FilmType, error) {
	const op = "service.VocabularyService.CreateFilmType"

	ft := models.FilmType{
		Name:        strings.TrimSpace(req.Name),
		DisplayName: strings.TrimSpace(req.DisplayName),
		DefaultISO:  req.DefaultISO,
	}
	if ft.Name == "" || ft.DisplayName == "" {
		return models.FilmType{}, fmt.Errorf("%s: %w", op, models.Invalid("name and display name are required"))
	}
	if ft.DefaultISO < 0 {
		return models.FilmType{}, fmt.Errorf("%s: %w", op, models.Invalid("default ISO must not be negative"))
	}

	created, err := s.filmTypes.Create(ctx, ft)
	if err != nil {
		return models.FilmType{}, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(filmTypesKey)
	return created, nil
}

func (s *VocabularyService) DeleteFilmType(ctx context.Context, id int64) error {
	const op = "service.VocabularyService.DeleteFilmType"

	if err := s.filmTypes.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Delete(filmTypesKey)
	return nil
}

// Invalidate drops every cached list. Content edits call it after creating
// terms implicitly.
func (s *VocabularyService) Invalidate() {
	s.cache.Flush()
}
