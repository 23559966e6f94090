package storage

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"

	"portfolio/internal/lib/logger/handlers/slogdiscard"
)

func TestFileURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		key  string
		want string
	}{
		{
			name: "cdn",
			cfg:  Config{Bucket: "media", CDNURL: "https://cdn.example.com", Endpoint: "https://s3.local"},
			key:  "Image/Web/2024/05/a.webp",
			want: "https://cdn.example.com/Image/Web/2024/05/a.webp",
		},
		{
			name: "path style endpoint",
			cfg:  Config{Bucket: "media", Endpoint: "http://minio:9000/"},
			key:  "Gif/Original/2024/05/b.gif",
			want: "http://minio:9000/media/Gif/Original/2024/05/b.gif",
		},
		{
			name: "aws default",
			cfg:  Config{Bucket: "media", Region: "eu-west-1"},
			key:  "x.jpg",
			want: "https://media.s3.eu-west-1.amazonaws.com/x.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileURL(tt.cfg, tt.key))
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	s := &Store{cfg: Config{Bucket: "media", CDNURL: "https://cdn.example.com"}}

	key, ok := s.KeyFromURL("https://cdn.example.com/Image/Original/2024/05/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "Image/Original/2024/05/a.jpg", key)

	_, ok = s.KeyFromURL("https://elsewhere.example.com/a.jpg")
	assert.False(t, ok)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := newBreaker(slogdiscard.NewDiscardLogger())
	errUpstream := errors.New("upstream down")

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (any, error) { return nil, errUpstream })
		assert.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (any, error) { return nil, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
