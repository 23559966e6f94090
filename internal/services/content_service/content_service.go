package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/logger/sl"
	"portfolio/internal/repository"
	"portfolio/internal/storage"
	"portfolio/internal/transport/http/dto"
)

const maxRating = 5

// ObjectDeleter removes stored media files.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// VocabularyInvalidator drops cached vocabulary lists after a write that may
// have created new terms.
type VocabularyInvalidator interface {
	Invalidate()
}

type Repositories struct {
	Collections       repository.CollectionRepository
	CollectionContent repository.CollectionContentRepository
	Content           repository.ContentRepository
	Cameras           repository.VocabularyRepository
	Lenses            repository.VocabularyRepository
	Locations         repository.VocabularyRepository
	FilmTypes         repository.FilmTypeRepository
}

type ContentService struct {
	log     *slog.Logger
	tx      repository.Transactor
	repos   Repositories
	objects ObjectDeleter
	vocab   VocabularyInvalidator
}

func NewContentService(log *slog.Logger, tx repository.Transactor, repos Repositories, objects ObjectDeleter, vocab VocabularyInvalidator) *ContentService {
	return &ContentService{
		log:     log,
		tx:      tx,
		repos:   repos,
		objects: objects,
		vocab:   vocab,
	}
}

// LoadByIDs resolves a mixed list of content ids with one query per content
// type. The result order is unrelated to ids; unknown ids and unsupported
// types are left out.
func (s *ContentService) LoadByIDs(ctx context.Context, ids []int64) ([]models.Content, error) {
	const op = "service.ContentService.LoadByIDs"
	log := s.log.With(slog.String("op", op))

	if len(ids) == 0 {
		return nil, nil
	}

	types, err := s.repos.Content.TypesByIDs(ctx, ids)
	if err != nil {
		log.Error("failed to read content types", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	groups := make(map[models.ContentType][]int64)
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		t, ok := types[id]
		if !ok {
			log.Debug("content id not found", slog.Int64("content_id", id))
			continue
		}
		if !t.Valid() {
			log.Warn("skipping content with unsupported type",
				slog.Int64("content_id", id),
				slog.String("content_type", string(t)),
			)
			continue
		}
		groups[t] = append(groups[t], id)
	}

	out := make([]models.Content, 0, len(seen))

	if group := groups[models.ContentTypeImage]; len(group) > 0 {
		images, err := s.repos.Content.ImagesByIDs(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("%s: images: %w", op, err)
		}
		for _, c := range images {
			out = append(out, c)
		}
	}

	if group := groups[models.ContentTypeText]; len(group) > 0 {
		texts, err := s.repos.Content.TextsByIDs(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("%s: texts: %w", op, err)
		}
		for _, c := range texts {
			out = append(out, c)
		}
	}

	if group := groups[models.ContentTypeGif]; len(group) > 0 {
		gifs, err := s.repos.Content.GifsByIDs(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("%s: gifs: %w", op, err)
		}
		for _, c := range gifs {
			out = append(out, c)
		}
	}

	if group := groups[models.ContentTypeCollection]; len(group) > 0 {
		refs, err := s.repos.Content.CollectionRefsByIDs(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("%s: collection references: %w", op, err)
		}
		for _, c := range refs {
			out = append(out, c)
		}
	}

	expected := 0
	for _, group := range groups {
		expected += len(group)
	}
	if len(out) != expected {
		log.Warn("batch load returned a different number of rows than typed ids",
			slog.Int("expected", expected),
			slog.Int("loaded", len(out)),
		)
	}

	return out, nil
}

func (s *ContentService) GetContent(ctx context.Context, id int64) (models.Content, error) {
	const op = "service.ContentService.GetContent"

	items, err := s.LoadByIDs(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrContentNotFound)
	}

	return items[0], nil
}

// CreateTextContent stores a text block and appends it to the collection.
func (s *ContentService) CreateTextContent(ctx context.Context, req dto.CreateTextRequest) (*models.TextContent, error) {
	const op = "service.ContentService.CreateTextContent"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", req.CollectionID),
	)

	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%s: %w", op, models.Invalid("text is required"))
	}

	format, err := textFormat(req.FormatType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txt := &models.TextContent{
		ContentBase: models.ContentBase{Tags: req.Tags},
		Text:        req.Text,
		FormatType:  format,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, req.CollectionID); err != nil {
			return err
		}
		if _, err := s.repos.Content.CreateText(ctx, txt); err != nil {
			return err
		}
		if _, err := s.repos.CollectionContent.Append(ctx, req.CollectionID, txt.ID, true); err != nil {
			return err
		}
		_, err := s.repos.Collections.RefreshTotalContent(ctx, req.CollectionID)
		return err
	})
	if err != nil {
		log.Error("failed to create text content", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("text content created", slog.Int64("content_id", txt.ID))
	return txt, nil
}

// CreateCollectionReference nests one collection inside another as a
// COLLECTION content item.
func (s *ContentService) CreateCollectionReference(ctx context.Context, req dto.CreateCollectionRefRequest) (*models.CollectionRefContent, error) {
	const op = "service.ContentService.CreateCollectionReference"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", req.CollectionID),
		slog.Int64("referenced_collection_id", req.ReferencedCollectionID),
	)

	if req.CollectionID == req.ReferencedCollectionID {
		return nil, fmt.Errorf("%s: %w", op, models.Invalid("a collection cannot contain itself"))
	}

	ref := &models.CollectionRefContent{ReferencedCollectionID: req.ReferencedCollectionID}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, req.CollectionID); err != nil {
			return err
		}

		target, err := s.repos.Collections.GetByID(ctx, req.ReferencedCollectionID)
		if err != nil {
			return err
		}
		ref.Title = target.Title
		ref.Slug = target.Slug
		ref.CoverImageID = target.CoverImageID

		if _, err := s.repos.Content.CreateCollectionRef(ctx, ref); err != nil {
			return err
		}
		if _, err := s.repos.CollectionContent.Append(ctx, req.CollectionID, ref.ID, true); err != nil {
			return err
		}
		_, err = s.repos.Collections.RefreshTotalContent(ctx, req.CollectionID)
		return err
	})
	if err != nil {
		log.Error("failed to create collection reference", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("collection reference created", slog.Int64("content_id", ref.ID))
	return ref, nil
}

// UpdateImage applies a partial metadata update to an image.
func (s *ContentService) UpdateImage(ctx context.Context, id int64, req dto.UpdateImageRequest) (*models.ImageContent, error) {
	const op = "service.ContentService.UpdateImage"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("content_id", id),
	)

	img, err := s.loadImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Title != nil {
		img.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		img.Author = strings.TrimSpace(*req.Author)
	}
	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > maxRating {
			return nil, fmt.Errorf("%s: %w", op, models.Invalid("rating must be between 0 and %d", maxRating))
		}
		img.Rating = *req.Rating
	}
	if req.BlackAndWhite != nil {
		img.BlackAndWhite = *req.BlackAndWhite
	}
	if req.IsFilm != nil {
		img.IsFilm = *req.IsFilm
	}
	if req.FilmFormat != nil {
		img.FilmFormat = strings.ToUpper(strings.TrimSpace(*req.FilmFormat))
	}
	if req.FilmTypeID != nil {
		img.FilmTypeID = req.FilmTypeID
		if *req.FilmTypeID == 0 {
			img.FilmTypeID = nil
		}
	}
	if req.ISO != nil {
		img.ISO = req.ISO
	}
	if req.CaptureDate != nil {
		img.CaptureDate = req.CaptureDate
	}
	if req.Tags != nil {
		img.Tags = req.Tags
	}
	if req.People != nil {
		img.People = req.People
	}

	if err := s.validateFilm(ctx, img); err != nil {
		log.Warn("invalid film metadata", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if img.CameraID, err = s.termID(ctx, s.repos.Cameras, req.Camera, img.CameraID); err != nil {
			return err
		}
		if img.LensID, err = s.termID(ctx, s.repos.Lenses, req.Lens, img.LensID); err != nil {
			return err
		}
		if img.LocationID, err = s.termID(ctx, s.repos.Locations, req.Location, img.LocationID); err != nil {
			return err
		}
		return s.repos.Content.UpdateImage(ctx, img)
	})
	if err != nil {
		log.Error("failed to update image", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.vocab != nil && (req.Camera != nil || req.Lens != nil || req.Location != nil || req.Tags != nil || req.People != nil) {
		s.vocab.Invalidate()
	}

	updated, err := s.loadImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("image updated")
	return updated, nil
}

// validateFilm enforces that film format and film type are set only on film
// images and that film images carry a known format.
func (s *ContentService) validateFilm(ctx context.Context, img *models.ImageContent) error {
	if !img.IsFilm {
		if img.FilmFormat != "" || img.FilmTypeID != nil {
			return models.Invalid("film type and film format are only allowed on film images")
		}
		return nil
	}

	if !models.FilmFormat(img.FilmFormat).Valid() {
		return models.Invalid("film images need a film format, got %q", img.FilmFormat)
	}

	if img.FilmTypeID == nil {
		return nil
	}

	ft, err := s.repos.FilmTypes.GetByID(ctx, *img.FilmTypeID)
	if err != nil {
		if errors.Is(err, storage.ErrTermNotFound) {
			return models.Invalid("unknown film type %d", *img.FilmTypeID)
		}
		return err
	}

	if img.ISO == nil && ft.DefaultISO > 0 {
		iso := ft.DefaultISO
		img.ISO = &iso
	}

	return nil
}

// termID maps an optional name to a vocabulary id. A nil name keeps current,
// an empty name clears it.
func (s *ContentService) termID(ctx context.Context, repo repository.VocabularyRepository, name *string, current *int64) (*int64, error) {
	if name == nil {
		return current, nil
	}

	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil, nil
	}

	id, err := repo.FindOrCreate(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *ContentService) UpdateText(ctx context.Context, id int64, req dto.UpdateTextRequest) (*models.TextContent, error) {
	const op = "service.ContentService.UpdateText"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("content_id", id),
	)

	texts, err := s.repos.Content.TextsByIDs(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%s: %w", op, s.wrongTypeOrMissing(ctx, id, models.ContentTypeText))
	}
	txt := texts[0]

	if req.Text != nil {
		if strings.TrimSpace(*req.Text) == "" {
			return nil, fmt.Errorf("%s: %w", op, models.Invalid("text is required"))
		}
		txt.Text = *req.Text
	}
	if req.FormatType != nil {
		format, err := textFormat(*req.FormatType)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		txt.FormatType = format
	}

	if err := s.repos.Content.UpdateText(ctx, txt); err != nil {
		log.Error("failed to update text", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("text updated")
	return txt, nil
}

// DeleteContent removes the content everywhere it is used. Stored files are
// deleted after the transaction commits; failures there are only logged.
func (s *ContentService) DeleteContent(ctx context.Context, id int64) error {
	const op = "service.ContentService.DeleteContent"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("content_id", id),
	)

	content, err := s.GetContent(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		collectionIDs, err := s.repos.CollectionContent.CollectionIDsForContent(ctx, id)
		if err != nil {
			return err
		}
		for _, cid := range collectionIDs {
			if err := s.repos.Collections.LockForUpdate(ctx, cid); err != nil {
				return err
			}
		}

		if err := s.repos.Content.Delete(ctx, id); err != nil {
			return err
		}

		for _, cid := range collectionIDs {
			if _, err := s.repos.Collections.RefreshTotalContent(ctx, cid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to delete content", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.objects != nil {
		for _, key := range models.FileKeys(content) {
			if err := s.objects.Delete(ctx, key); err != nil {
				log.Warn("failed to delete stored object", slog.String("key", key), sl.Err(err))
			}
		}
	}

	log.Info("content deleted", slog.String("content_type", string(content.Base().ContentType)))
	return nil
}

func (s *ContentService) loadImage(ctx context.Context, id int64) (*models.ImageContent, error) {
	images, err := s.repos.Content.ImagesByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, s.wrongTypeOrMissing(ctx, id, models.ContentTypeImage)
	}
	return images[0], nil
}

func (s *ContentService) wrongTypeOrMissing(ctx context.Context, id int64, want models.ContentType) error {
	t, err := s.repos.Content.TypeByID(ctx, id)
	if err != nil {
		return err
	}
	return models.Invalid("content %d is %s, not %s", id, t, want)
}

func textFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		return models.TextFormatMarkdown, nil
	case models.TextFormatPlain, models.TextFormatMarkdown, models.TextFormatHTML:
		return f, nil
	}
	return "", models.Invalid("unsupported text format %q", format)
}
