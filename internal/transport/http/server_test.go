package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/logger/handlers/slogdiscard"
	"portfolio/internal/services/auth"
	"portfolio/internal/storage"
	httprouters "portfolio/internal/transport/http"
	"portfolio/internal/transport/http/dto"
	"portfolio/internal/transport/http/dto/response"
)

type structValidator struct {
	v *validator.Validate
}

func (s *structValidator) Validate(i interface{}) error {
	return s.v.Struct(i)
}

type HandlersSuite struct {
	suite.Suite

	e           *echo.Echo
	collections *collectionServiceMock
	content     *contentServiceMock
	uploads     *uploadServiceMock
	vocabulary  *vocabularyServiceMock
	auth        *authServiceMock
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupTest() {
	s.collections = new(collectionServiceMock)
	s.content = new(contentServiceMock)
	s.uploads = new(uploadServiceMock)
	s.vocabulary = new(vocabularyServiceMock)
	s.auth = new(authServiceMock)

	r := httprouters.NewRouter(slogdiscard.NewDiscardLogger(), s.collections, s.content, s.uploads, s.vocabulary, s.auth)

	e := echo.New()
	e.Validator = &structValidator{v: validator.New()}
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-secret"))))

	e.POST("/api/v1/login", r.Login)
	e.GET("/api/v1/collections", r.ListPublicCollections)
	e.GET("/api/v1/collections/:slug", r.GetPublicCollection)
	e.POST("/api/v1/collections/:slug/access", r.GalleryAccess)

	e.POST("/admin/collections", r.CreateCollection)
	e.GET("/admin/collections/:id", r.GetCollection)
	e.PUT("/admin/collections/:id", r.UpdateCollection)
	e.DELETE("/admin/collections/:id", r.DeleteCollection)
	e.POST("/admin/collections/:id/reorder", r.ReorderCollection)
	e.POST("/admin/collections/:id/content/detach", r.DetachContent)
	e.PUT("/admin/collections/:id/cover", r.SetCoverImage)
	e.POST("/admin/collections/:id/upload", r.UploadContent)
	e.GET("/admin/content/:id", r.GetContent)
	e.POST("/admin/content/batch", r.BatchLoadContent)
	e.POST("/admin/vocabulary/:kind", r.CreateTerm)

	s.e = e
}

func (s *HandlersSuite) TearDownTest() {
	s.collections.AssertExpectations(s.T())
	s.content.AssertExpectations(s.T())
	s.uploads.AssertExpectations(s.T())
	s.vocabulary.AssertExpectations(s.T())
	s.auth.AssertExpectations(s.T())
}

func (s *HandlersSuite) do(method, target string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *HandlersSuite) TestErrorMapping() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantDetail string
	}{
		{
			name:       "content not found",
			err:        fmt.Errorf("services.ContentService.GetContent: %w", storage.ErrContentNotFound),
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
			wantDetail: storage.ErrContentNotFound.Error(),
		},
		{
			name:       "validation keeps only the client message",
			err:        fmt.Errorf("op: %w", models.Invalid("rating must be between 0 and 5")),
			wantStatus: http.StatusBadRequest,
			wantError:  "validation_failed",
			wantDetail: "rating must be between 0 and 5",
		},
		{
			name:       "unique conflict",
			err:        fmt.Errorf("op: %w", storage.ErrConflict),
			wantStatus: http.StatusConflict,
			wantError:  "conflict",
		},
		{
			name:       "file too large",
			err:        storage.ErrFileTooLarge,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "validation_failed",
		},
		{
			name:       "anything else is internal",
			err:        errors.New("connection reset by peer"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
			wantDetail: "Internal server error",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.content.On("GetContent", mock.Anything, int64(9)).Return(nil, tt.err).Once()

			rec := s.do(http.MethodGet, "/admin/content/9", nil)

			s.Equal(tt.wantStatus, rec.Code)
			resp := decodeError(s.T(), rec)
			s.Equal(tt.wantError, resp.Error)
			if tt.wantDetail != "" {
				s.Equal(tt.wantDetail, resp.Details)
			}
			s.NotContains(rec.Body.String(), "GetContent")
		})
	}
}

func (s *HandlersSuite) TestGetContent() {
	text := &models.TextContent{
		ContentBase: models.ContentBase{ID: 9, ContentType: models.ContentTypeText},
		Text:        "hello",
		FormatType:  models.TextFormatMarkdown,
	}
	s.content.On("GetContent", mock.Anything, int64(9)).Return(text, nil).Once()

	rec := s.do(http.MethodGet, "/admin/content/9", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"content_type":"TEXT"`)
	s.Contains(rec.Body.String(), `"text":"hello"`)
}

func (s *HandlersSuite) TestInvalidPathID() {
	for _, id := range []string{"abc", "0", "-3"} {
		rec := s.do(http.MethodGet, "/admin/content/"+id, nil)

		s.Equal(http.StatusBadRequest, rec.Code, id)
		s.Equal("invalid content id", decodeError(s.T(), rec).Details)
	}
}

func (s *HandlersSuite) TestBindErrors() {
	s.Run("malformed json", func() {
		rec := s.do(http.MethodPost, "/admin/collections", `{"title":`)

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid_request", decodeError(s.T(), rec).Error)
	})

	s.Run("failed validation", func() {
		rec := s.do(http.MethodPost, "/admin/collections", map[string]string{"type": "BLOG"})

		s.Equal(http.StatusBadRequest, rec.Code)
		resp := decodeError(s.T(), rec)
		s.Equal("invalid_request", resp.Error)
		s.Contains(resp.Details, "Title")
	})

	s.Run("unknown collection type", func() {
		rec := s.do(http.MethodPost, "/admin/collections", map[string]string{"type": "ALBUM", "title": "x"})

		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlersSuite) TestCreateCollection() {
	created := models.Collection{ID: 3, Type: models.CollectionTypeBlog, Title: "Road trip", Slug: "road-trip"}
	s.collections.On("CreateCollection", mock.Anything, mock.MatchedBy(func(req dto.CreateCollectionRequest) bool {
		return req.Title == "Road trip" && req.Type == models.CollectionTypeBlog
	})).Return(created, nil).Once()

	rec := s.do(http.MethodPost, "/admin/collections", map[string]string{"type": "BLOG", "title": "Road trip"})

	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"slug":"road-trip"`)
}

func (s *HandlersSuite) TestReorder() {
	ops := []models.ReorderOp{
		{ContentID: ptr(int64(5)), NewOrderIndex: 2},
		{ContentID: ptr(int64(7)), NewOrderIndex: 0},
	}
	s.collections.On("Reorder", mock.Anything, int64(1), ops).Return(nil).Once()

	rec := s.do(http.MethodPost, "/admin/collections/1/reorder", dto.ReorderRequest{Ops: ops})

	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlersSuite) TestReorderRejectsEmptyOps() {
	rec := s.do(http.MethodPost, "/admin/collections/1/reorder", `{"ops":[]}`)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlersSuite) TestDetachNothingRemoved() {
	s.collections.On("DetachContent", mock.Anything, int64(1), []int64{42}).
		Return(int64(0), storage.ErrAssociationNotFound).Once()

	rec := s.do(http.MethodPost, "/admin/collections/1/content/detach", dto.DetachContentRequest{ContentIDs: []int64{42}})

	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlersSuite) TestSetCoverRejectsNonImage() {
	s.collections.On("SetCoverImage", mock.Anything, int64(1), ptr(int64(8))).
		Return(models.Invalid("cover image must be IMAGE content, got TEXT")).Once()

	rec := s.do(http.MethodPut, "/admin/collections/1/cover", map[string]int64{"content_id": 8})

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decodeError(s.T(), rec).Details, "IMAGE")
}

func (s *HandlersSuite) TestBatchLoad() {
	loaded := []models.Content{
		&models.ImageContent{ContentBase: models.ContentBase{ID: 1, ContentType: models.ContentTypeImage}},
		&models.GifContent{ContentBase: models.ContentBase{ID: 2, ContentType: models.ContentTypeGif}},
	}
	s.content.On("LoadByIDs", mock.Anything, []int64{1, 2, 3}).Return(loaded, nil).Once()

	rec := s.do(http.MethodPost, "/admin/content/batch", dto.BatchLoadRequest{IDs: []int64{1, 2, 3}})

	s.Equal(http.StatusOK, rec.Code)
	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Data, 2)
}

func (s *HandlersSuite) TestPublicCollection() {
	blog := models.Collection{ID: 4, Type: models.CollectionTypeBlog, Slug: "trip", Visible: true}
	page := &dto.CollectionResponse{Collection: blog, Page: 1, TotalPages: 1}

	s.collections.On("GetVisibleBySlug", mock.Anything, "trip").Return(blog, nil).Once()
	s.collections.On("Page", mock.Anything, blog, 2, true).Return(page, nil).Once()

	rec := s.do(http.MethodGet, "/api/v1/collections/trip?page=2", nil)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlersSuite) TestClientGalleryAccess() {
	gallery := models.Collection{ID: 8, Type: models.CollectionTypeClientGallery, Slug: "smith-wedding", Visible: true}

	s.Run("without token", func() {
		s.SetupTest()
		s.collections.On("GetVisibleBySlug", mock.Anything, "smith-wedding").Return(gallery, nil).Once()
		s.auth.On("HasGalleryAccess", mock.Anything, int64(8), "").Return(false, nil).Once()

		rec := s.do(http.MethodGet, "/api/v1/collections/smith-wedding", nil)

		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("access_denied", decodeError(s.T(), rec).Error)
	})

	s.Run("with header token", func() {
		s.SetupTest()
		page := &dto.CollectionResponse{Collection: gallery, Page: 1}
		s.collections.On("GetVisibleBySlug", mock.Anything, "smith-wedding").Return(gallery, nil).Once()
		s.auth.On("HasGalleryAccess", mock.Anything, int64(8), "tok").Return(true, nil).Once()
		s.collections.On("Page", mock.Anything, gallery, 1, true).Return(page, nil).Once()

		rec := s.do(http.MethodGet, "/api/v1/collections/smith-wedding", nil, "X-Gallery-Token", "tok")

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("grant store failure", func() {
		s.SetupTest()
		s.collections.On("GetVisibleBySlug", mock.Anything, "smith-wedding").Return(gallery, nil).Once()
		s.auth.On("HasGalleryAccess", mock.Anything, int64(8), "tok").Return(false, errors.New("redis down")).Once()

		rec := s.do(http.MethodGet, "/api/v1/collections/smith-wedding", nil, "X-Gallery-Token", "tok")

		s.Equal(http.StatusInternalServerError, rec.Code)
	})
}

func (s *HandlersSuite) TestGalleryAccessSetsSessionCookie() {
	gallery := models.Collection{ID: 8, Type: models.CollectionTypeClientGallery, Slug: "smith-wedding"}
	s.auth.On("GrantGalleryAccess", mock.Anything, "smith-wedding", "secret").Return("tok", gallery, nil).Once()

	rec := s.do(http.MethodPost, "/api/v1/collections/smith-wedding/access", map[string]string{"password": "secret"})

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"access_token":"tok"`)
	s.Contains(rec.Header().Get("Set-Cookie"), "gallery=")
}

func (s *HandlersSuite) TestGalleryAccessWrongPassword() {
	s.auth.On("GrantGalleryAccess", mock.Anything, "smith-wedding", "nope").
		Return("", models.Collection{}, auth.ErrInvalidCredentials).Once()

	rec := s.do(http.MethodPost, "/api/v1/collections/smith-wedding/access", map[string]string{"password": "nope"})

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Empty(rec.Header().Get("Set-Cookie"))
}

func (s *HandlersSuite) TestLogin() {
	s.auth.On("Login", mock.Anything, "admin", "pw").Return("jwt-token", nil).Once()

	rec := s.do(http.MethodPost, "/api/v1/login", map[string]string{"username": "admin", "password": "pw"})

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "jwt-token")
}

func (s *HandlersSuite) TestCreateTermConflict() {
	s.vocabulary.On("CreateTerm", mock.Anything, mock.Anything, dto.CreateTermRequest{Name: "Leica"}).
		Return(models.Term{}, fmt.Errorf("op: %w", storage.ErrConflict)).Once()

	rec := s.do(http.MethodPost, "/admin/vocabulary/cameras", dto.CreateTermRequest{Name: "Leica"})

	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlersSuite) TestUpload() {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range []string{"a.jpg", "b.gif"} {
		part, err := w.CreateFormFile("files", name)
		s.Require().NoError(err)
		_, err = part.Write([]byte("data"))
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	result := &dto.UploadResult{Failed: []dto.UploadFailure{{Filename: "b.gif", Error: "invalid file type"}}}
	s.uploads.On("Upload", mock.Anything, mock.MatchedBy(func(in dto.UploadInput) bool {
		return in.CollectionID == 5 && len(in.Files) == 2
	})).Return(result, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/admin/collections/5/upload", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	s.Equal(http.StatusCreated, rec.Code)
	s.True(strings.Contains(rec.Body.String(), "b.gif"))
}

func (s *HandlersSuite) TestUploadWithoutMultipart() {
	rec := s.do(http.MethodPost, "/admin/collections/5/upload", `{}`)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func ptr[T any](v T) *T {
	return &v
}
