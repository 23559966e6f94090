package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"portfolio/internal/domain/models"
	"portfolio/internal/transport/http/dto"
	"portfolio/internal/transport/http/dto/response"
)

// ListPublicCollections godoc
// @Summary List visible collections
// @Description Visible collections of an optional type with their cover images. Client galleries are never listed.
// @Tags collections
// @Produce json
// @Param type query string false "Collection type" Enums(BLOG, ART_GALLERY, PORTFOLIO)
// @Success 200 {object} response.Response{data=[]dto.CollectionSummary}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/collections [get]
func (r *Routers) ListPublicCollections(c echo.Context) error {
	const op = "http.routers.ListPublicCollections"

	log := r.log.With(
		slog.String("op", op),
	)

	list, err := r.CollectionService.ListCollections(c.Request().Context(), models.CollectionType(c.QueryParam("type")), true)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, list)
}

// GetPublicCollection godoc
// @Summary Get a collection by slug
// @Description One page of visible content. Client galleries need an access token from the access endpoint, sent as X-Gallery-Token or kept in the session cookie.
// @Tags collections
// @Produce json
// @Param slug path string true "Collection slug"
// @Param page query int false "Page number, from 1"
// @Param X-Gallery-Token header string false "Client gallery access token"
// @Success 200 {object} response.Response{data=dto.CollectionResponse}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/collections/{slug} [get]
func (r *Routers) GetPublicCollection(c echo.Context) error {
	const op = "http.routers.GetPublicCollection"

	log := r.log.With(
		slog.String("op", op),
		slog.String("slug", c.Param("slug")),
	)

	ctx := c.Request().Context()

	collection, err := r.CollectionService.GetVisibleBySlug(ctx, c.Param("slug"))
	if err != nil {
		return r.fail(c, log, err)
	}

	if collection.IsClientGallery() {
		ok, err := r.AuthService.HasGalleryAccess(ctx, collection.ID, galleryToken(c, collection.ID))
		if err != nil {
			return r.fail(c, log, err)
		}
		if !ok {
			log.Info("gallery access denied")
			return c.JSON(http.StatusForbidden, response.ErrAccessDenied)
		}
	}

	page, err := r.CollectionService.Page(ctx, collection, queryPage(c), true)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, page)
}

// ListCollections godoc
// @Summary List all collections
// @Tags admin-collections
// @Produce json
// @Param type query string false "Collection type" Enums(BLOG, ART_GALLERY, PORTFOLIO, CLIENT_GALLERY)
// @Success 200 {object} response.Response{data=[]dto.CollectionSummary}
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections [get]
func (r *Routers) ListCollections(c echo.Context) error {
	const op = "http.routers.ListCollections"

	log := r.log.With(
		slog.String("op", op),
	)

	list, err := r.CollectionService.ListCollections(c.Request().Context(), models.CollectionType(c.QueryParam("type")), false)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, list)
}

// CreateCollection godoc
// @Summary Create a collection
// @Description The slug is derived from the title when omitted. Client galleries need a password.
// @Tags admin-collections
// @Accept json
// @Produce json
// @Param request body dto.CreateCollectionRequest true "Collection"
// @Success 201 {object} response.Response{data=models.Collection}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections [post]
func (r *Routers) CreateCollection(c echo.Context) error {
	const op = "http.routers.CreateCollection"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.CreateCollectionRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	collection, err := r.CollectionService.CreateCollection(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusCreated, collection)
}

// GetCollection godoc
// @Summary Get a collection with hidden content
// @Tags admin-collections
// @Produce json
// @Param id path int true "Collection ID"
// @Param page query int false "Page number, from 1"
// @Success 200 {object} response.Response{data=dto.CollectionResponse}
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id} [get]
func (r *Routers) GetCollection(c echo.Context) error {
	const op = "http.routers.GetCollection"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	resp, err := r.CollectionService.GetCollection(c.Request().Context(), id, queryPage(c))
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, resp)
}

// UpdateCollection godoc
// @Summary Update a collection
// @Description Changes the given fields and applies the optional content operations (new text blocks, removals, reorders, visibility) in one transaction.
// @Tags admin-collections
// @Accept json
// @Produce json
// @Param id path int true "Collection ID"
// @Param request body dto.UpdateCollectionRequest true "Changes"
// @Success 200 {object} response.Response{data=models.Collection}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id} [put]
func (r *Routers) UpdateCollection(c echo.Context) error {
	const op = "http.routers.UpdateCollection"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	var req dto.UpdateCollectionRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	collection, err := r.CollectionService.UpdateCollection(c.Request().Context(), id, req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, collection)
}

// DeleteCollection godoc
// @Summary Delete a collection
// @Description Removes the collection and its memberships. Contained content is kept.
// @Tags admin-collections
// @Param id path int true "Collection ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id} [delete]
func (r *Routers) DeleteCollection(c echo.Context) error {
	const op = "http.routers.DeleteCollection"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	if err := r.CollectionService.DeleteCollection(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ReorderCollection godoc
// @Summary Reorder collection content
// @Description Each op names an item by content id or by its current order index and sets a new order index.
// @Tags admin-collections
// @Accept json
// @Param id path int true "Collection ID"
// @Param request body dto.ReorderRequest true "Reorder operations"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id}/reorder [post]
func (r *Routers) ReorderCollection(c echo.Context) error {
	const op = "http.routers.ReorderCollection"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	var req dto.ReorderRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	if err := r.CollectionService.Reorder(c.Request().Context(), id, req.Ops); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// AttachContent godoc
// @Summary Add existing content to a collection
// @Description Appends the content or inserts it as a block at position.
// @Tags admin-collections
// @Accept json
// @Produce json
// @Param id path int true "Collection ID"
// @Param request body dto.AttachContentRequest true "Content to attach"
// @Success 201 {object} response.Response{data=[]models.CollectionContent}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id}/content [post]
func (r *Routers) AttachContent(c echo.Context) error {
	const op = "http.routers.AttachContent"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	var req dto.AttachContentRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	attached, err := r.CollectionService.AttachContent(c.Request().Context(), id, req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusCreated, attached)
}

// DetachContent godoc
// @Summary Remove content from a collection
// @Description The content itself is kept. Remaining order indices are not renumbered.
// @Tags admin-collections
// @Accept json
// @Produce json
// @Param id path int true "Collection ID"
// @Param request body dto.DetachContentRequest true "Content to detach"
// @Success 200 {object} response.Response{data=map[string]int64}
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id}/content/detach [post]
func (r *Routers) DetachContent(c echo.Context) error {
	const op = "http.routers.DetachContent"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	var req dto.DetachContentRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	removed, err := r.CollectionService.DetachContent(c.Request().Context(), id, req.ContentIDs)
	if err != nil {
		return r.fail(c, log, err)
	}

	return success(c, http.StatusOK, map[string]int64{"removed": removed})
}

// MoveContent godoc
// @Summary Move one item
// @Description Moves an item to a new order index, shifting the items in between.
// @Tags admin-collections
// @Accept json
// @Param id path int true "Collection ID"
// @Param request body dto.MoveContentRequest true "Move"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id}/content/move [post]
func (r *Routers) MoveContent(c echo.Context) error {
	const op = "http.routers.MoveContent"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	var req dto.MoveContentRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	if err := r.CollectionService.MoveContent(c.Request().Context(), id, req); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CompactCollection godoc
// @Summary Renumber order indices
// @Description Closes gaps so order indices run 0..N-1, keeping relative order.
// @Tags admin-collections
// @Param id path int true "Collection ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id}/compact [post]
func (r *Routers) CompactCollection(c echo.Context) error {
	const op = "http.routers.CompactCollection"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	if err := r.CollectionService.CompactOrder(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SetContentVisibility godoc
// @Summary Show or hide an item in one collection
// @Tags admin-collections
// @Accept json
// @Param id path int true "Collection ID"
// @Param content_id path int true "Content ID"
// @Param request body dto.SetVisibilityRequest true "Visibility"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id}/content/{content_id}/visibility [put]
func (r *Routers) SetContentVisibility(c echo.Context) error {
	const op = "http.routers.SetContentVisibility"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}
	contentID, err := pathID(c, "content_id")
	if err != nil {
		return invalidID(c, "content id")
	}

	var req dto.SetVisibilityRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	if err := r.CollectionService.SetContentVisibility(c.Request().Context(), id, contentID, req.Visible); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SetCoverImage godoc
// @Summary Set or clear the cover image
// @Description The content must be an image. A null content_id clears the cover.
// @Tags admin-collections
// @Accept json
// @Param id path int true "Collection ID"
// @Param request body dto.SetCoverRequest true "Cover"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/collections/{id}/cover [put]
func (r *Routers) SetCoverImage(c echo.Context) error {
	const op = "http.routers.SetCoverImage"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := pathID(c, "id")
	if err != nil {
		return invalidID(c, "collection id")
	}

	var req dto.SetCoverRequest
	if err := r.bind(c, log, &req); err != nil {
		return err
	}

	if err := r.CollectionService.SetCoverImage(c.Request().Context(), id, req.ContentID); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}
