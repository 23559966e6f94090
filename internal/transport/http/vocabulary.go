package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	vocabulary "portfolio/internal/services/vocabulary_service"
	"portfolio/internal/transport/http/dto"
)

// ListTerms godoc
// @Summary List a vocabulary
// @Tags admin-vocabulary
// @Produce json
// @Param kind path string true "Vocabulary" Enums(tags, people, cameras, lenses, locations)
// @Success 200 {object} response.Response{data=[]models.Term}
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/vocabulary/{kind} [get]
func (r *Routers) ListTerms(c echo.Context) error {
	const op = "http.routers.ListTerms"

	log := r.log.With(
		slog.String("op", op),
		slog.String("kind", c.Param("kind")),
	)

	terms, err := r.VocabularyService.ListTerms(c.Request().Context(), vocabulary.Kind(c.Param("kind")))
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, terms)
}

// CreateTerm godoc
// @Summary Add a vocabulary term
// @Tags admin-vocabulary
// @Accept json
// @Produce json
// @Param kind path string true "Vocabulary" Enums(tags, people, cameras, lenses, locations)
// @Param request body dto.CreateTermRequest true "Term"
// @Success 201 {object} response.Response{data=models.Term}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/vocabulary/{kind} [post]
func (r *Routers) CreateTerm(c echo.Context) error {
	const op = "http.routers.CreateTerm"

	log := r.log.With(
		slog.String("op", op),
		slog.String("kind", c.Param("kind")),
	)

	var req dto.CreateTermRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	term, err := r.VocabularyService.CreateTerm(c.Request().Context(), vocabulary.Kind(c.Param("kind")), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusCreated, term)
}

// DeleteTerm godoc
// @Summary Delete a vocabulary term
// @Tags admin-vocabulary
// @Param kind path string true "Vocabulary" Enums(tags, people, cameras, lenses, locations)
// @Param id path int true "Term ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/vocabulary/{kind}/{id} [delete]
func (r *Routers) DeleteTerm(c echo.Context) error {
	const op = "http.routers.DeleteTerm"

	log := r.log.With(
		slog.String("op", op),
		slog.String("kind", c.Param("kind")),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "term id")
	}

	if err := r.VocabularyService.DeleteTerm(c.Request().Context(), vocabulary.Kind(c.Param("kind")), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListFilmTypes godoc
// @Summary List film stocks
// @Tags admin-vocabulary
// @Produce json
// @Success 200 {object} response.Response{data=[]models.FilmType}
// @Security ApiKeyAuth
// @Router /api/v1/admin/film-types [get]
func (r *Routers) ListFilmTypes(c echo.Context) error {
	const op = "http.routers.ListFilmTypes"

	log := r.log.With(
		slog.String("op", op),
	)

	types, err := r.VocabularyService.ListFilmTypes(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, types)
}

// CreateFilmType godoc
// @Summary Add a film stock
// @Tags admin-vocabulary
// @Accept json
// @Produce json
// @Param request body dto.CreateFilmTypeRequest true "Film stock"
// @Success 201 {object} response.Response{data=models.FilmType}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/film-types [post]
func (r *Routers) CreateFilmType(c echo.Context) error {
	const op = "http.routers.CreateFilmType"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.CreateFilmTypeRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	ft, err := r.VocabularyService.CreateFilmType(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusCreated, ft)
}

// DeleteFilmType godoc
// @Summary Delete a film stock
// @Tags admin-vocabulary
// @Param id path int true "Film type ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/film-types/{id} [delete]
func (r *Routers) DeleteFilmType(c echo.Context) error {
	const op = "http.routers.DeleteFilmType"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "film type id")
	}

	if err := r.VocabularyService.DeleteFilmType(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}
