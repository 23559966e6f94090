package httpapp_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapp "portfolio/internal/app/http"
	"portfolio/internal/domain/models"
	"portfolio/internal/lib/jwt"
	"portfolio/internal/lib/logger/handlers/slogdiscard"
	vocabulary "portfolio/internal/services/vocabulary_service"
	httprouters "portfolio/internal/transport/http"
	"portfolio/internal/transport/http/dto"
)

const secret = "test-secret"

type staticVocabulary struct{}

func (staticVocabulary) ListTerms(context.Context, vocabulary.Kind) ([]models.Term, error) {
	return nil, nil
}

func (staticVocabulary) CreateTerm(context.Context, vocabulary.Kind, dto.CreateTermRequest) (models.Term, error) {
	return models.Term{}, nil
}

func (staticVocabulary) DeleteTerm(context.Context, vocabulary.Kind, int64) error {
	return nil
}

func (staticVocabulary) ListFilmTypes(context.Context) ([]models.FilmType, error) {
	return []models.FilmType{{ID: 1, Name: "portra-400", DisplayName: "Kodak Portra 400"}}, nil
}

func (staticVocabulary) CreateFilmType(context.Context, dto.CreateFilmTypeRequest) (models.FilmType, error) {
	return models.FilmType{}, nil
}

func (staticVocabulary) DeleteFilmType(context.Context, int64) error {
	return nil
}

type checker struct {
	err error
}

func (c checker) HealthCheck(context.Context) error {
	return c.err
}

func newServer(t *testing.T, health map[string]httpapp.HealthChecker) *httpapp.Server {
	t.Helper()

	log := slogdiscard.NewDiscardLogger()
	routers := httprouters.NewRouter(log, nil, nil, nil, staticVocabulary{}, nil)

	s := httpapp.New(log, httpapp.Config{
		SessionSecret: "session",
		JWTSecret:     secret,
	}, routers, health)
	s.BuildRouters()

	return s
}

func get(s *httpapp.Server, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	s := newServer(t, nil)

	admin, err := jwt.NewAdminToken([]byte(secret), "admin", time.Hour)
	require.NoError(t, err)
	gallery, err := jwt.NewGalleryToken([]byte(secret), 3, "grant", time.Hour)
	require.NoError(t, err)
	foreign, err := jwt.NewAdminToken([]byte("other-secret"), "admin", time.Hour)
	require.NoError(t, err)
	expired, err := jwt.NewAdminToken([]byte(secret), "admin", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "admin token", token: admin, wantStatus: http.StatusOK},
		{name: "no token", wantStatus: http.StatusUnauthorized},
		{name: "gallery token", token: gallery, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", token: foreign, wantStatus: http.StatusUnauthorized},
		{name: "expired", token: expired, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(s, "/api/v1/admin/film-types", tt.token)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "Kodak Portra 400")
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		s := newServer(t, map[string]httpapp.HealthChecker{"postgres": checker{}, "redis": checker{}})

		rec := get(s, "/healthz", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"postgres":"up","redis":"up"}`, rec.Body.String())
	})

	t.Run("dependency down", func(t *testing.T) {
		s := newServer(t, map[string]httpapp.HealthChecker{"postgres": checker{}, "redis": checker{err: errors.New("refused")}})

		rec := get(s, "/healthz", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"postgres":"up","redis":"down"}`, rec.Body.String())
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t, nil)

	get(s, "/healthz", "")
	rec := get(s, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
