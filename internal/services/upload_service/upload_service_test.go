package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/logger/handlers/slogdiscard"
	"portfolio/internal/repository/mocks"
	"portfolio/internal/storage"
	"portfolio/internal/transport/http/dto"
)

var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x01}, 64)...)
	gifBytes  = append([]byte("GIF89a"), bytes.Repeat([]byte{0x02}, 64)...)
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}}
}

func (m *memoryObjects) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && bytes.Contains([]byte(key), []byte(m.failOn)) {
		return "", errors.New("bucket unavailable")
	}
	m.objects[key] = body
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type fakeProcessor struct{}

func (fakeProcessor) Dimensions([]byte) (int, int, error) { return 4000, 3000, nil }

func (fakeProcessor) WebVersion([]byte) (models.Rendition, error) {
	return models.Rendition{Width: 2500, Height: 1875, Data: []byte("webp"), ContentType: models.ContentTypeWebP}, nil
}

func (fakeProcessor) Thumbnail([]byte) (models.Rendition, error) {
	return models.Rendition{Width: 480, Height: 360, Data: []byte("thumb"), ContentType: models.ContentTypeWebP}, nil
}

type fixture struct {
	svc         *UploadService
	collections *mocks.CollectionRepository
	assoc       *mocks.CollectionContentRepository
	content     *mocks.ContentRepository
	objects     *memoryObjects
}

func newFixture(maxFileSize int64) *fixture {
	f := &fixture{
		collections: new(mocks.CollectionRepository),
		assoc:       new(mocks.CollectionContentRepository),
		content:     new(mocks.ContentRepository),
		objects:     newMemoryObjects(),
	}
	f.svc = NewUploadService(slogdiscard.NewDiscardLogger(), &mocks.Transactor{}, Repositories{
		Collections:       f.collections,
		CollectionContent: f.assoc,
		Content:           f.content,
		Cameras:           new(mocks.VocabularyRepository),
		Lenses:            new(mocks.VocabularyRepository),
	}, f.objects, fakeProcessor{}, nil, maxFileSize)
	f.svc.now = func() time.Time { return time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC) }
	f.svc.newID = func() string { return "fixed" }
	return f
}

func fileHeaders(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["files"]
}

func TestUploadService_Upload_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)

	f.collections.On("GetByID", ctx, int64(1)).Return(models.Collection{ID: 1}, nil).Once()
	f.collections.On("LockForUpdate", ctx, int64(1)).Return(nil).Twice()
	f.content.On("CreateImage", ctx, mock.MatchedBy(func(img *models.ImageContent) bool {
		return img.FileIdentifier == "Image/Original/2024/05/fixed-my-photo.jpg" &&
			img.WebFileKey == "Image/Web/2024/05/fixed-my-photo.jpg.webp" &&
			img.ImageWidth == 4000 && img.ImageHeight == 3000 &&
			img.ImageURLWeb == "https://cdn.example.com/Image/Web/2024/05/fixed-my-photo.jpg.webp"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.ImageContent).ID = 10
	}).Return(int64(10), nil).Once()
	f.content.On("CreateGif", ctx, mock.MatchedBy(func(gif *models.GifContent) bool {
		return gif.FileIdentifier == "Gif/Original/2024/05/fixed-loop.gif" &&
			gif.ThumbnailKey == "Gif/Thumbnail/2024/05/fixed-loop.gif.webp"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.GifContent).ID = 11
	}).Return(int64(11), nil).Once()
	f.assoc.On("Append", ctx, int64(1), int64(10), true).Return(models.CollectionContent{}, nil).Once()
	f.assoc.On("Append", ctx, int64(1), int64(11), true).Return(models.CollectionContent{}, nil).Once()
	f.collections.On("RefreshTotalContent", ctx, int64(1)).Return(2, nil).Once()

	res, err := f.svc.Upload(ctx, dto.UploadInput{
		CollectionID: 1,
		Files: fileHeaders(t, map[string][]byte{
			"My Photo.jpg": jpegBytes,
			"loop.gif":     gifBytes,
			"notes.txt":    []byte("plain text is not an image"),
		}),
	})
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "notes.txt", res.Failed[0].Filename)
	assert.Len(t, f.objects.objects, 4)

	f.collections.AssertExpectations(t)
	f.content.AssertExpectations(t)
	f.assoc.AssertExpectations(t)
}

func TestUploadService_Upload_RemovesObjectsWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)

	f.collections.On("GetByID", ctx, int64(1)).Return(models.Collection{ID: 1}, nil).Once()
	f.collections.On("LockForUpdate", ctx, int64(1)).Return(nil).Once()
	f.content.On("CreateImage", ctx, mock.Anything).Return(int64(0), errors.New("db down")).Once()

	res, err := f.svc.Upload(ctx, dto.UploadInput{
		CollectionID: 1,
		Files:        fileHeaders(t, map[string][]byte{"a.jpg": jpegBytes}),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Failed, 1)
	assert.Empty(t, f.objects.objects)
	f.collections.AssertNotCalled(t, "RefreshTotalContent", mock.Anything, mock.Anything)
}

func TestUploadService_Upload_WebVersionStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)
	f.objects.failOn = "Image/Web"

	f.collections.On("GetByID", ctx, int64(1)).Return(models.Collection{ID: 1}, nil).Once()

	res, err := f.svc.Upload(ctx, dto.UploadInput{
		CollectionID: 1,
		Files:        fileHeaders(t, map[string][]byte{"a.jpg": jpegBytes}),
	})
	require.NoError(t, err)
	assert.Len(t, res.Failed, 1)
	assert.Empty(t, f.objects.objects)
}

func TestUploadService_Upload_TooLarge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(10)

	f.collections.On("GetByID", ctx, int64(1)).Return(models.Collection{ID: 1}, nil).Once()

	res, err := f.svc.Upload(ctx, dto.UploadInput{
		CollectionID: 1,
		Files:        fileHeaders(t, map[string][]byte{"big.jpg": jpegBytes}),
	})
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.Contains(t, res.Failed[0].Error, storage.ErrFileTooLarge.Error())
}

func TestUploadService_Upload_Errors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(0)
	_, err := f.svc.Upload(ctx, dto.UploadInput{CollectionID: 1})
	assert.ErrorIs(t, err, models.ErrValidation)

	f.collections.On("GetByID", ctx, int64(2)).Return(models.Collection{}, storage.ErrCollectionNotFound).Once()
	_, err = f.svc.Upload(ctx, dto.UploadInput{
		CollectionID: 2,
		Files:        fileHeaders(t, map[string][]byte{"a.jpg": jpegBytes}),
	})
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		want    string
		wantErr bool
	}{
		{name: "jpeg", file: "a.jpg", data: jpegBytes, want: "image/jpeg"},
		{name: "gif", file: "a.gif", data: gifBytes, want: "image/gif"},
		{name: "tiff by extension", file: "scan.TIFF", data: []byte("II*\x00rest"), want: "image/tiff"},
		{name: "text", file: "a.jpg", data: []byte("hello"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := detectContentType(tt.file, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, storage.ErrInvalidFileType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "my-photo.jpg", cleanName("My Photo.jpg"))
	assert.Equal(t, "fle.png", cleanName("../../fïle.png"))
	assert.Equal(t, "file", cleanName("ü"))
}
