package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"portfolio/internal/lib/logger/sl"
	"portfolio/internal/transport/http/dto"
	"portfolio/internal/transport/http/dto/response"
)

// GetContent godoc
// @Summary Get one content item
// @Tags admin-content
// @Produce json
// @Param id path int true "Content ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/content/{id} [get]
func (r *Routers) GetContent(c echo.Context) error {
	const op = "http.routers.GetContent"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "content id")
	}

	content, err := r.ContentService.GetContent(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, content)
}

// BatchLoadContent godoc
// @Summary Load content by ids
// @Description Returns the typed content for the given ids. Unknown ids are skipped and the order is not guaranteed.
// @Tags admin-content
// @Accept json
// @Produce json
// @Param request body dto.BatchLoadRequest true "Content ids"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/content/batch [post]
func (r *Routers) BatchLoadContent(c echo.Context) error {
	const op = "http.routers.BatchLoadContent"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.BatchLoadRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	content, err := r.ContentService.LoadByIDs(c.Request().Context(), req.IDs)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, content)
}

// CreateTextContent godoc
// @Summary Add a text block to a collection
// @Tags admin-content
// @Accept json
// @Produce json
// @Param request body dto.CreateTextRequest true "Text block"
// @Success 201 {object} response.Response{data=models.TextContent}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/content/text [post]
func (r *Routers) CreateTextContent(c echo.Context) error {
	const op = "http.routers.CreateTextContent"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.CreateTextRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	text, err := r.ContentService.CreateTextContent(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusCreated, text)
}

// CreateCollectionReference godoc
// @Summary Nest a collection inside another
// @Tags admin-content
// @Accept json
// @Produce json
// @Param request body dto.CreateCollectionRefRequest true "Reference"
// @Success 201 {object} response.Response{data=models.CollectionRefContent}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/content/collection [post]
func (r *Routers) CreateCollectionReference(c echo.Context) error {
	const op = "http.routers.CreateCollectionReference"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.CreateCollectionRefRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	ref, err := r.ContentService.CreateCollectionReference(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusCreated, ref)
}

// UpdateImage godoc
// @Summary Update image metadata
// @Tags admin-content
// @Accept json
// @Produce json
// @Param id path int true "Content ID"
// @Param request body dto.UpdateImageRequest true "Changes"
// @Success 200 {object} response.Response{data=models.ImageContent}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/content/images/{id} [put]
func (r *Routers) UpdateImage(c echo.Context) error {
	const op = "http.routers.UpdateImage"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "content id")
	}

	var req dto.UpdateImageRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	img, err := r.ContentService.UpdateImage(c.Request().Context(), id, req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, img)
}

// UpdateText godoc
// @Summary Update a text block
// @Tags admin-content
// @Accept json
// @Produce json
// @Param id path int true "Content ID"
// @Param request body dto.UpdateTextRequest true "Changes"
// @Success 200 {object} response.Response{data=models.TextContent}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/content/texts/{id} [put]
func (r *Routers) UpdateText(c echo.Context) error {
	const op = "http.routers.UpdateText"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "content id")
	}

	var req dto.UpdateTextRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	text, err := r.ContentService.UpdateText(c.Request().Context(), id, req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, text)
}

// DeleteContent godoc
// @Summary Delete content
// @Description Removes the content from every collection and deletes its stored files.
// @Tags admin-content
// @Param id path int true "Content ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/content/{id} [delete]
func (r *Routers) DeleteContent(c echo.Context) error {
	const op = "http.routers.DeleteContent"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "content id")
	}

	if err := r.ContentService.DeleteContent(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// UploadContent godoc
// @Summary Upload images and gifs
// @Description Stores every file under "files" and appends it to the collection. Files are processed one by one; a failing file is reported and skipped.
// @Tags admin-content
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Collection ID"
// @Param files formData file true "Images or gifs"
// @Success 201 {object} response.Response{data=dto.UploadResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id}/upload [post]
func (r *Routers) UploadContent(c echo.Context) error {
	const op = "http.routers.UploadContent"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("failed to parse multipart form", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails("multipart form expected"))
	}

	result, err := r.UploadService.Upload(c.Request().Context(), dto.UploadInput{
		CollectionID: id,
		Files:        form.File["files"],
	})
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusCreated, result)
}
