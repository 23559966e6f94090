package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/exifmeta"
	"portfolio/internal/lib/logger/sl"
	"portfolio/internal/metrics"
	"portfolio/internal/repository"
	"portfolio/internal/storage"
	"portfolio/internal/transport/http/dto"
)

// ObjectStorage stores uploaded files and returns their public URL.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

type ImageProcessor interface {
	Dimensions(original []byte) (int, int, error)
	WebVersion(original []byte) (models.Rendition, error)
	Thumbnail(original []byte) (models.Rendition, error)
}

type VocabularyInvalidator interface {
	Invalidate()
}

type Repositories struct {
	Collections       repository.CollectionRepository
	CollectionContent repository.CollectionContentRepository
	Content           repository.ContentRepository
	Cameras           repository.VocabularyRepository
	Lenses            repository.VocabularyRepository
}

type UploadService struct {
	log         *slog.Logger
	tx          repository.Transactor
	repos       Repositories
	objects     ObjectStorage
	images      ImageProcessor
	vocab       VocabularyInvalidator
	maxFileSize int64

	now   func() time.Time
	newID func() string
}

func NewUploadService(
	log *slog.Logger,
	tx repository.Transactor,
	repos Repositories,
	objects ObjectStorage,
	images ImageProcessor,
	vocab VocabularyInvalidator,
	maxFileSize int64,
) *UploadService {
	return &UploadService{
		log:         log,
		tx:          tx,
		repos:       repos,
		objects:     objects,
		images:      images,
		vocab:       vocab,
		maxFileSize: maxFileSize,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Upload stores every file as IMAGE or GIF content appended to the
// collection. Files are processed one at a time; a failing file is reported
// in the result and does not stop the others.
func (s *UploadService) Upload(ctx context.Context, input dto.UploadInput) (*dto.UploadResult, error) {
	const op = "service.UploadService.Upload"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", input.CollectionID),
		slog.Int("files", len(input.Files)),
	)

	if len(input.Files) == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.Invalid("no files uploaded"))
	}

	if _, err := s.repos.Collections.GetByID(ctx, input.CollectionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &dto.UploadResult{Created: make([]models.Content, 0, len(input.Files))}
	for _, fh := range input.Files {
		content, kind, err := s.uploadOne(ctx, input.CollectionID, fh)
		if err != nil {
			log.Warn("file upload failed", slog.String("filename", fh.Filename), sl.Err(err))
			metrics.UploadsTotal.WithLabelValues(kind, "failed").Inc()
			result.Failed = append(result.Failed, dto.UploadFailure{
				Filename: fh.Filename,
				Error:    err.Error(),
			})
			continue
		}

		metrics.UploadsTotal.WithLabelValues(kind, "ok").Inc()
		result.Created = append(result.Created, content)
	}

	if len(result.Created) > 0 {
		if _, err := s.repos.Collections.RefreshTotalContent(ctx, input.CollectionID); err != nil {
			log.Error("failed to refresh content total", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if s.vocab != nil {
			s.vocab.Invalidate()
		}
	}

	log.Info("upload finished",
		slog.Int("created", len(result.Created)),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *UploadService) uploadOne(ctx context.Context, collectionID int64, fh *multipart.FileHeader) (models.Content, string, error) {
	kind := "unknown"

	if s.maxFileSize > 0 && fh.Size > s.maxFileSize {
		return nil, kind, storage.ErrFileTooLarge
	}

	data, err := readFile(fh, s.maxFileSize)
	if err != nil {
		return nil, kind, err
	}

	contentType, err := detectContentType(fh.Filename, data)
	if err != nil {
		return nil, kind, err
	}

	if contentType == "image/gif" {
		kind = string(models.ContentTypeGif)
		gif, err := s.uploadGif(ctx, collectionID, fh.Filename, data)
		if err != nil {
			return nil, kind, err
		}
		return gif, kind, nil
	}

	kind = string(models.ContentTypeImage)
	img, err := s.uploadImage(ctx, collectionID, fh.Filename, contentType, data)
	if err != nil {
		return nil, kind, err
	}
	return img, kind, nil
}

func (s *UploadService) uploadImage(ctx context.Context, collectionID int64, filename, contentType string, data []byte) (*models.ImageContent, error) {
	log := s.log.With(slog.String("filename", filename))

	started := time.Now()
	meta, err := exifmeta.Extract(data)
	if err != nil {
		log.Debug("no usable exif", sl.Err(err))
	}

	width, height := meta.Width, meta.Height
	if width == 0 || height == 0 {
		if width, height, err = s.images.Dimensions(data); err != nil {
			return nil, fmt.Errorf("read dimensions: %w", err)
		}
	}

	web, err := s.images.WebVersion(data)
	if err != nil {
		return nil, fmt.Errorf("web version: %w", err)
	}
	metrics.ImageProcessingDuration.WithLabelValues(string(models.ContentTypeImage)).Observe(time.Since(started).Seconds())

	name := cleanName(filename)
	prefix := s.now().UTC().Format("2006/01")
	id := s.newID()
	originalKey := fmt.Sprintf("Image/Original/%s/%s-%s", prefix, id, name)
	webKey := fmt.Sprintf("Image/Web/%s/%s-%s.webp", prefix, id, name)

	uploaded := make([]string, 0, 2)
	cleanup := func() { s.deleteObjects(ctx, uploaded) }

	originalURL, err := s.objects.Put(ctx, originalKey, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}
	uploaded = append(uploaded, originalKey)

	webURL, err := s.objects.Put(ctx, webKey, web.ContentType, web.Data)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("store web version: %w", err)
	}
	uploaded = append(uploaded, webKey)

	img := &models.ImageContent{
		ContentBase:      models.ContentBase{ContentType: models.ContentTypeImage},
		Title:            strings.TrimSuffix(filename, filepath.Ext(filename)),
		ImageWidth:       width,
		ImageHeight:      height,
		ISO:              meta.ISO,
		Author:           meta.Artist,
		Rating:           meta.Rating,
		FStop:            meta.FStop,
		ShutterSpeed:     meta.ShutterSpeed,
		FocalLength:      meta.FocalLength,
		ImageURLWeb:      webURL,
		ImageURLOriginal: originalURL,
		CaptureDate:      meta.CaptureDate,
		FileIdentifier:   originalKey,
		WebFileKey:       webKey,
		CameraName:       meta.CameraName(),
		LensName:         meta.LensModel,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, collectionID); err != nil {
			return err
		}
		if img.CameraName != "" {
			cameraID, err := s.repos.Cameras.FindOrCreate(ctx, img.CameraName)
			if err != nil {
				return err
			}
			img.CameraID = &cameraID
		}
		if img.LensName != "" {
			lensID, err := s.repos.Lenses.FindOrCreate(ctx, img.LensName)
			if err != nil {
				return err
			}
			img.LensID = &lensID
		}
		if _, err := s.repos.Content.CreateImage(ctx, img); err != nil {
			return err
		}
		_, err := s.repos.CollectionContent.Append(ctx, collectionID, img.ID, true)
		return err
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("save image: %w", err)
	}

	return img, nil
}

func (s *UploadService) uploadGif(ctx context.Context, collectionID int64, filename string, data []byte) (*models.GifContent, error) {
	started := time.Now()

	width, height, err := s.images.Dimensions(data)
	if err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}

	thumb, err := s.images.Thumbnail(data)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	metrics.ImageProcessingDuration.WithLabelValues(string(models.ContentTypeGif)).Observe(time.Since(started).Seconds())

	name := cleanName(filename)
	prefix := s.now().UTC().Format("2006/01")
	id := s.newID()
	originalKey := fmt.Sprintf("Gif/Original/%s/%s-%s", prefix, id, name)
	thumbKey := fmt.Sprintf("Gif/Thumbnail/%s/%s-%s.webp", prefix, id, name)

	uploaded := make([]string, 0, 2)
	cleanup := func() { s.deleteObjects(ctx, uploaded) }

	gifURL, err := s.objects.Put(ctx, originalKey, "image/gif", data)
	if err != nil {
		return nil, fmt.Errorf("store gif: %w", err)
	}
	uploaded = append(uploaded, originalKey)

	thumbURL, err := s.objects.Put(ctx, thumbKey, thumb.ContentType, thumb.Data)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}
	uploaded = append(uploaded, thumbKey)

	gif := &models.GifContent{
		ContentBase:    models.ContentBase{ContentType: models.ContentTypeGif},
		Title:          strings.TrimSuffix(filename, filepath.Ext(filename)),
		GifURL:         gifURL,
		ThumbnailURL:   thumbURL,
		Width:          width,
		Height:         height,
		FileIdentifier: originalKey,
		ThumbnailKey:   thumbKey,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, collectionID); err != nil {
			return err
		}
		if _, err := s.repos.Content.CreateGif(ctx, gif); err != nil {
			return err
		}
		_, err := s.repos.CollectionContent.Append(ctx, collectionID, gif.ID, true)
		return err
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("save gif: %w", err)
	}

	return gif, nil
}

func (s *UploadService) deleteObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil {
			s.log.Warn("failed to remove orphaned object", slog.String("key", key), sl.Err(err))
		}
	}
}

func readFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	var r io.Reader = src
	if limit > 0 {
		r = io.LimitReader(src, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, storage.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	return data, nil
}

var extContentTypes = map[string]string{
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
}

// detectContentType sniffs the bytes and falls back to the extension for
// formats net/http does not recognise.
func detectContentType(filename string, data []byte) (string, error) {
	switch ct := http.DetectContentType(data); ct {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return ct, nil
	}

	if ct, ok := extContentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct, nil
	}

	return "", fmt.Errorf("%w: %s", storage.ErrInvalidFileType, filepath.Ext(filename))
}

// cleanName makes a filename safe to use inside an object key.
func cleanName(filename string) string {
	name := strings.ToLower(filepath.Base(filename))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, name)
	if name == "" || name == "." {
		return "file"
	}
	return name
}
