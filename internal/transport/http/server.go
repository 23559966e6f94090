package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/logger/sl"
	"portfolio/internal/services/auth"
	vocabulary "portfolio/internal/services/vocabulary_service"
	"portfolio/internal/storage"
	"portfolio/internal/transport/http/dto"
	"portfolio/internal/transport/http/dto/request"
	"portfolio/internal/transport/http/dto/response"

	_ "portfolio/docs"
)

const (
	gallerySession     = "gallery"
	galleryTokenHeader = "X-Gallery-Token"
)

type CollectionService interface {
	CreateCollection(ctx context.Context, req dto.CreateCollectionRequest) (models.Collection, error)
	GetCollection(ctx context.Context, id int64, page int) (*dto.CollectionResponse, error)
	GetVisibleBySlug(ctx context.Context, slug string) (models.Collection, error)
	Page(ctx context.Context, c models.Collection, page int, publicView bool) (*dto.CollectionResponse, error)
	ListCollections(ctx context.Context, collectionType models.CollectionType, publicView bool) ([]dto.CollectionSummary, error)
	UpdateCollection(ctx context.Context, id int64, req dto.UpdateCollectionRequest) (models.Collection, error)
	Reorder(ctx context.Context, collectionID int64, ops []models.ReorderOp) error
	AttachContent(ctx context.Context, collectionID int64, req dto.AttachContentRequest) ([]models.CollectionContent, error)
	DetachContent(ctx context.Context, collectionID int64, contentIDs []int64) (int64, error)
	MoveContent(ctx context.Context, collectionID int64, req dto.MoveContentRequest) error
	CompactOrder(ctx context.Context, collectionID int64) error
	SetContentVisibility(ctx context.Context, collectionID, contentID int64, visible bool) error
	SetCoverImage(ctx context.Context, collectionID int64, contentID *int64) error
	DeleteCollection(ctx context.Context, id int64) error
}

type ContentService interface {
	GetContent(ctx context.Context, id int64) (models.Content, error)
	LoadByIDs(ctx context.Context, ids []int64) ([]models.Content, error)
	CreateTextContent(ctx context.Context, req dto.CreateTextRequest) (*models.TextContent, error)
	CreateCollectionReference(ctx context.Context, req dto.CreateCollectionRefRequest) (*models.CollectionRefContent, error)
	UpdateImage(ctx context.Context, id int64, req dto.UpdateImageRequest) (*models.ImageContent, error)
	UpdateText(ctx context.Context, id int64, req dto.UpdateTextRequest) (*models.TextContent, error)
	DeleteContent(ctx context.Context, id int64) error
}

type UploadService interface {
	Upload(ctx context.Context, input dto.UploadInput) (*dto.UploadResult, error)
}

type VocabularyService interface {
	ListTerms(ctx context.Context, kind vocabulary.Kind) ([]models.Term, error)
	CreateTerm(ctx context.Context, kind vocabulary.Kind, req dto.CreateTermRequest) (models.Term, error)
	DeleteTerm(ctx context.Context, kind vocabulary.Kind, id int64) error
	ListFilmTypes(ctx context.Context) ([]models.FilmType, error)
	CreateFilmType(ctx context.Context, req dto.CreateFilmTypeRequest) (models.FilmType, error)
	DeleteFilmType(ctx context.Context, id int64) error
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	GrantGalleryAccess(ctx context.Context, slug, password string) (string, models.Collection, error)
	HasGalleryAccess(ctx context.Context, collectionID int64, token string) (bool, error)
}

type Routers struct {
	log               *slog.Logger
	CollectionService CollectionService
	ContentService    ContentService
	UploadService     UploadService
	VocabularyService VocabularyService
	AuthService       AuthService
}

func NewRouter(
	log *slog.Logger,
	collectionService CollectionService,
	contentService ContentService,
	uploadService UploadService,
	vocabularyService VocabularyService,
	authService AuthService,
) *Routers {
	return &Routers{
		log:               log,
		CollectionService: collectionService,
		ContentService:    contentService,
		UploadService:     uploadService,
		VocabularyService: vocabularyService,
		AuthService:       authService,
	}
}

var notFoundErrors = []error{
	storage.ErrCollectionNotFound,
	storage.ErrContentNotFound,
	storage.ErrAssociationNotFound,
	storage.ErrTermNotFound,
	storage.ErrFileNotFound,
}

// fail maps a service error onto the response envelope: not found is 404,
// rejected input 400, unique conflicts 409 and anything else 500.
func (r *Routers) fail(c echo.Context, log *slog.Logger, err error) error {
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf) {
			log.Warn("not found", sl.Err(err))
			return c.JSON(http.StatusNotFound, response.ErrNotFound.WithDetails(nf.Error()))
		}
	}

	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrValidationFailed.WithDetails(ve.Msg))
	case errors.Is(err, storage.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, response.ErrValidationFailed.WithDetails(storage.ErrFileTooLarge.Error()))
	case errors.Is(err, storage.ErrInvalidFileType):
		return c.JSON(http.StatusUnsupportedMediaType, response.ErrValidationFailed.WithDetails(storage.ErrInvalidFileType.Error()))
	case errors.Is(err, auth.ErrNotProtected):
		return c.JSON(http.StatusBadRequest, response.ErrValidationFailed.WithDetails(auth.ErrNotProtected.Error()))
	case errors.Is(err, storage.ErrConflict):
		log.Warn("conflict", sl.Err(err))
		return c.JSON(http.StatusConflict, response.ErrConflict.WithDetails("a record with the same unique key already exists"))
	case errors.Is(err, auth.ErrInvalidCredentials):
		log.Info("authentication failed", sl.Err(err))
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed.WithDetails(auth.ErrInvalidCredentials.Error()))
	}

	log.Error("request failed", sl.Err(err))
	return c.JSON(http.StatusInternalServerError, response.ErrInternal)
}

// bind decodes and validates the request body into req. The returned
// error is an *echo.HTTPError carrying the 400 response.
func (r *Routers) bind(c echo.Context, log *slog.Logger, req interface{}) error {
	if err := c.Bind(req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return echo.NewHTTPError(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid request", sl.Err(err))
		return echo.NewHTTPError(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	return nil
}

var errBadRequest = errors.New("bad request")

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadRequest
	}
	return id, nil
}

func invalidID(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails("invalid "+name))
}

func queryPage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, response.SuccessResponse(data))
}

// Login godoc
// @Summary Admin login
// @Description Checks the admin credentials and returns a JWT for the admin API.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Credentials"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	token, err := r.AuthService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, map[string]string{"access_token": token})
}

// GalleryAccess godoc
// @Summary Unlock a client gallery
// @Description Verifies the gallery password, stores an access token in the session cookie and returns it.
// @Tags collections
// @Accept json
// @Produce json
// @Param slug path string true "Collection slug"
// @Param request body request.GalleryAccessRequest true "Gallery password"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/collections/{slug}/access [post]
func (r *Routers) GalleryAccess(c echo.Context) error {
	const op = "http.routers.GalleryAccess"

	log := r.log.With(
		slog.String("op", op),
		slog.String("slug", c.Param("slug")),
	)

	var req request.GalleryAccessRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	token, collection, err := r.AuthService.GrantGalleryAccess(c.Request().Context(), c.Param("slug"), req.Password)
	if err != nil {
		return r.fail(c, log, err)
	}

	if sess, err := session.Get(gallerySession, c); err == nil {
		sess.Values[galleryTokenKey(collection.ID)] = token
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to save gallery session", sl.Err(err))
		}
	}

	return success(c, http.StatusOK, map[string]string{"access_token": token})
}

func galleryTokenKey(collectionID int64) string {
	return "token:" + strconv.FormatInt(collectionID, 10)
}

// galleryToken reads the access token from the header or the session cookie.
func galleryToken(c echo.Context, collectionID int64) string {
	if token := c.Request().Header.Get(galleryTokenHeader); token != "" {
		return token
	}

	sess, err := session.Get(gallerySession, c)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[galleryTokenKey(collectionID)].(string)
	return token
}
