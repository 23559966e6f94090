package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstorage "portfolio/internal/storage"
	storage "portfolio/internal/storage/filestorage"
)

func setupFileStorage(t *testing.T) (*storage.LocalFileStorage, string) {
	t.Helper()

	tempDir := t.TempDir()

	fs, err := storage.NewLocalFileStorage(tempDir, "http://test.local/uploads/")
	require.NoError(t, err)

	return fs, tempDir
}

func TestLocalFileStorage_Put(t *testing.T) {
	fs, dir := setupFileStorage(t)

	tests := []struct {
		name    string
		key     string
		content string
		wantURL string
		onDisk  string
	}{
		{
			name:    "nested key",
			key:     "Image/Original/2024/05/abc-photo.jpg",
			content: "jpeg bytes",
			wantURL: "http://test.local/uploads/Image/Original/2024/05/abc-photo.jpg",
			onDisk:  filepath.Join(dir, "Image", "Original", "2024", "05", "abc-photo.jpg"),
		},
		{
			name:    "traversal is confined to base dir",
			key:     "../../etc/passwd",
			content: "nope",
			onDisk:  filepath.Join(dir, "etc", "passwd"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := fs.Put(context.Background(), tt.key, "image/jpeg", []byte(tt.content))
			require.NoError(t, err)
			if tt.wantURL != "" {
				assert.Equal(t, tt.wantURL, url)
			}

			data, err := os.ReadFile(tt.onDisk)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestLocalFileStorage_PutCancelled(t *testing.T) {
	fs, _ := setupFileStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.Put(ctx, "a.jpg", "image/jpeg", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalFileStorage_Delete(t *testing.T) {
	fs, _ := setupFileStorage(t)
	ctx := context.Background()

	_, err := fs.Put(ctx, "Gif/Original/2024/05/loop.gif", "image/gif", []byte("gif"))
	require.NoError(t, err)

	require.NoError(t, fs.Delete(ctx, "Gif/Original/2024/05/loop.gif"))
	assert.NoFileExists(t, fs.GetFullPath("Gif/Original/2024/05/loop.gif"))

	err = fs.Delete(ctx, "Gif/Original/2024/05/loop.gif")
	assert.ErrorIs(t, err, appstorage.ErrFileNotFound)
}

func TestLocalFileStorage_GetFullPath(t *testing.T) {
	fs, dir := setupFileStorage(t)

	assert.Equal(t, filepath.Join(dir, "a", "b.jpg"), fs.GetFullPath("a/b.jpg"))
	assert.Equal(t, dir, fs.GetBaseDir())
}

func TestNewLocalFileStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	_, err := storage.NewLocalFileStorage(dir, "http://test.local")
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestConcurrentPuts(t *testing.T) {
	fs, _ := setupFileStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := fs.Put(ctx, fmt.Sprintf("Image/Web/%d.webp", i), "image/webp", []byte("data"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := os.ReadDir(fs.GetFullPath("Image/Web"))
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}
