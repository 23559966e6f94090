package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/credentials"
	"portfolio/internal/lib/logger/sl"
	"portfolio/internal/lib/slug"
	"portfolio/internal/metrics"
	"portfolio/internal/repository"
	"portfolio/internal/storage"
	"portfolio/internal/transport/http/dto"
)

const maxSlugAttempts = 50

// ContentLoader resolves content ids into typed content.
type ContentLoader interface {
	LoadByIDs(ctx context.Context, ids []int64) ([]models.Content, error)
}

// GrantRevoker drops every client-gallery access grant of a collection.
type GrantRevoker interface {
	RevokeAllGrants(ctx context.Context, collectionID int64) error
}

type Repositories struct {
	Collections       repository.CollectionRepository
	CollectionContent repository.CollectionContentRepository
	Content           repository.ContentRepository
}

type CollectionService struct {
	log      *slog.Logger
	tx       repository.Transactor
	repos    Repositories
	loader   ContentLoader
	verifier credentials.Verifier
	grants   GrantRevoker
}

func NewCollectionService(
	log *slog.Logger,
	tx repository.Transactor,
	repos Repositories,
	loader ContentLoader,
	verifier credentials.Verifier,
	grants GrantRevoker,
) *CollectionService {
	return &CollectionService{
		log:      log,
		tx:       tx,
		repos:    repos,
		loader:   loader,
		verifier: verifier,
		grants:   grants,
	}
}

func (s *CollectionService) CreateCollection(ctx context.Context, req dto.CreateCollectionRequest) (models.Collection, error) {
	const op = "service.CollectionService.CreateCollection"
	log := s.log.With(
		slog.String("op", op),
		slog.String("title", req.Title),
	)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.Collection{}, fmt.Errorf("%s: %w", op, models.Invalid("title is required"))
	}
	if !req.Type.Valid() {
		return models.Collection{}, fmt.Errorf("%s: %w", op, models.Invalid("unknown collection type %q", req.Type))
	}

	c := models.Collection{
		Type:           req.Type,
		Title:          title,
		Description:    req.Description,
		LocationID:     req.LocationID,
		CollectionDate: req.CollectionDate,
		Visible:        true,
		DisplayMode:    req.DisplayMode,
		ContentPerPage: req.ContentPerPage,
		Tags:           req.Tags,
	}
	if req.Visible != nil {
		c.Visible = *req.Visible
	}
	if c.DisplayMode == "" {
		c.DisplayMode = defaultDisplayMode(c.Type)
	}
	if !c.DisplayMode.Valid() {
		return models.Collection{}, fmt.Errorf("%s: %w", op, models.Invalid("unknown display mode %q", c.DisplayMode))
	}
	if c.ContentPerPage <= 0 {
		c.ContentPerPage = models.DefaultContentPerPage
	}

	switch {
	case c.IsClientGallery() && req.Password == "":
		return models.Collection{}, fmt.Errorf("%s: %w", op, models.Invalid("client galleries need a password"))
	case !c.IsClientGallery() && req.Password != "":
		return models.Collection{}, fmt.Errorf("%s: %w", op, models.Invalid("only client galleries can have a password"))
	case req.Password != "":
		hash, err := s.verifier.Hash(req.Password)
		if err != nil {
			log.Error("failed to hash gallery password", sl.Err(err))
			return models.Collection{}, fmt.Errorf("%s: %w", op, err)
		}
		c.PasswordHash = hash
	}

	var id int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if c.Slug, err = s.pickSlug(ctx, req.Slug, title); err != nil {
			return err
		}

		if id, err = s.repos.Collections.Create(ctx, c); err != nil {
			return err
		}

		if len(req.Tags) > 0 {
			return s.repos.Collections.SetTags(ctx, id, req.Tags)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create collection", sl.Err(err))
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repos.Collections.GetByID(ctx, id)
	if err != nil {
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("collection created", slog.Int64("collection_id", id), slog.String("slug", created.Slug))
	return created, nil
}

// pickSlug uses the requested slug as is (a clash is a conflict) or derives
// one from the title, adding -2, -3, ... until it is free.
func (s *CollectionService) pickSlug(ctx context.Context, requested, title string) (string, error) {
	if strings.TrimSpace(requested) != "" {
		want := slug.Generate(requested)
		if want == "" {
			return "", models.Invalid("slug %q has no usable characters", requested)
		}
		taken, err := s.repos.Collections.SlugExists(ctx, want)
		if err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("slug %q: %w", want, storage.ErrConflict)
		}
		return want, nil
	}

	base := slug.Generate(title)
	if base == "" {
		return "", models.Invalid("cannot derive a slug from title %q", title)
	}

	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.repos.Collections.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}

	return "", fmt.Errorf("slug %q: %w", base, storage.ErrConflict)
}

func defaultDisplayMode(t models.CollectionType) models.DisplayMode {
	if t == models.CollectionTypeBlog {
		return models.DisplayModeChronological
	}
	return models.DisplayModeOrdered
}

// GetCollection returns a page of the collection with hidden items included.
func (s *CollectionService) GetCollection(ctx context.Context, id int64, page int) (*dto.CollectionResponse, error) {
	const op = "service.CollectionService.GetCollection"

	c, err := s.repos.Collections.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.Page(ctx, c, page, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// GetVisibleBySlug returns a collection for public display. Hidden
// collections are reported as not found.
func (s *CollectionService) GetVisibleBySlug(ctx context.Context, slug string) (models.Collection, error) {
	const op = "service.CollectionService.GetVisibleBySlug"

	c, err := s.repos.Collections.GetBySlug(ctx, slug)
	if err != nil {
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}
	if !c.Visible {
		return models.Collection{}, fmt.Errorf("%s: %w", op, storage.ErrCollectionNotFound)
	}

	return c, nil
}

// Page assembles one page of collection content. ORDERED collections are
// paged by order index in the database; CHRONOLOGICAL ones are sorted by
// capture date first. publicView hides items marked invisible.
func (s *CollectionService) Page(ctx context.Context, c models.Collection, page int, publicView bool) (*dto.CollectionResponse, error) {
	const op = "service.CollectionService.Page"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", c.ID),
	)

	perPage := c.ContentPerPage
	if perPage <= 0 {
		perPage = models.DefaultContentPerPage
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	total, err := s.repos.CollectionContent.CountByCollection(ctx, c.ID, publicView)
	if err != nil {
		log.Error("failed to count content", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var entries []models.ContentEntry
	if c.DisplayMode == models.DisplayModeChronological {
		entries, err = s.chronologicalPage(ctx, c.ID, publicView, perPage, offset)
	} else {
		entries, err = s.orderedPage(ctx, c.ID, publicView, perPage, offset)
	}
	if err != nil {
		log.Error("failed to load content page", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &dto.CollectionResponse{
		Collection: c,
		CoverImage: s.ResolveCoverImage(ctx, c),
		Content:    entries,
		Page:       page,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

func (s *CollectionService) orderedPage(ctx context.Context, collectionID int64, visibleOnly bool, limit, offset int) ([]models.ContentEntry, error) {
	assocs, err := s.repos.CollectionContent.ListByCollectionPage(ctx, collectionID, visibleOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.resolveEntries(ctx, assocs)
}

func (s *CollectionService) chronologicalPage(ctx context.Context, collectionID int64, visibleOnly bool, limit, offset int) ([]models.ContentEntry, error) {
	assocs, err := s.repos.CollectionContent.ListByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	if visibleOnly {
		filtered := assocs[:0]
		for _, a := range assocs {
			if a.Visible {
				filtered = append(filtered, a)
			}
		}
		assocs = filtered
	}

	entries, err := s.resolveEntries(ctx, assocs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := models.SortDate(entries[i].Content), models.SortDate(entries[j].Content)
		if di.Equal(dj) {
			return entries[i].OrderIndex < entries[j].OrderIndex
		}
		return di.Before(dj)
	})

	if offset >= len(entries) {
		return []models.ContentEntry{}, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

// resolveEntries keeps the association order; associations whose content
// could not be loaded are dropped.
func (s *CollectionService) resolveEntries(ctx context.Context, assocs []models.CollectionContent) ([]models.ContentEntry, error) {
	if len(assocs) == 0 {
		return []models.ContentEntry{}, nil
	}

	ids := make([]int64, 0, len(assocs))
	for _, a := range assocs {
		ids = append(ids, a.ContentID)
	}

	items, err := s.loader.LoadByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Content, len(items))
	for _, it := range items {
		byID[it.Base().ID] = it
	}

	entries := make([]models.ContentEntry, 0, len(assocs))
	for _, a := range assocs {
		content, ok := byID[a.ContentID]
		if !ok {
			continue
		}
		entries = append(entries, models.ContentEntry{
			OrderIndex: a.OrderIndex,
			Visible:    a.Visible,
			Content:    content,
		})
	}
	return entries, nil
}

// ListCollections returns collection summaries with their cover images.
// Public listings contain visible collections only and never client
// galleries.
func (s *CollectionService) ListCollections(ctx context.Context, collectionType models.CollectionType, publicView bool) ([]dto.CollectionSummary, error) {
	const op = "service.CollectionService.ListCollections"
	log := s.log.With(slog.String("op", op))

	if collectionType != "" && !collectionType.Valid() {
		return nil, fmt.Errorf("%s: %w", op, models.Invalid("unknown collection type %q", collectionType))
	}
	if publicView && collectionType == models.CollectionTypeClientGallery {
		return []dto.CollectionSummary{}, nil
	}

	list, err := s.repos.Collections.List(ctx, repository.CollectionFilter{
		Type:        collectionType,
		VisibleOnly: publicView,
	})
	if err != nil {
		log.Error("failed to list collections", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var coverIDs []int64
	for _, c := range list {
		if c.CoverImageID != nil {
			coverIDs = append(coverIDs, *c.CoverImageID)
		}
	}

	covers := make(map[int64]*models.ImageContent)
	if len(coverIDs) > 0 {
		items, err := s.loader.LoadByIDs(ctx, coverIDs)
		if err != nil {
			log.Warn("failed to load cover images", sl.Err(err))
		}
		for _, it := range items {
			if img, ok := it.(*models.ImageContent); ok {
				covers[img.ID] = img
			}
		}
	}

	out := make([]dto.CollectionSummary, 0, len(list))
	for _, c := range list {
		if publicView && c.IsClientGallery() {
			continue
		}
		sum := dto.CollectionSummary{Collection: c}
		if c.CoverImageID != nil {
			sum.CoverImage = covers[*c.CoverImageID]
		}
		out = append(out, sum)
	}

	return out, nil
}

// ResolveCoverImage returns the cover image or nil. A cover that is missing
// or not an image is logged and treated as absent.
func (s *CollectionService) ResolveCoverImage(ctx context.Context, c models.Collection) *models.ImageContent {
	const op = "service.CollectionService.ResolveCoverImage"

	if c.CoverImageID == nil {
		return nil
	}

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", c.ID),
		slog.Int64("cover_image_id", *c.CoverImageID),
	)

	items, err := s.loader.LoadByIDs(ctx, []int64{*c.CoverImageID})
	if err != nil {
		log.Warn("failed to load cover image", sl.Err(err))
		return nil
	}
	if len(items) == 0 {
		log.Warn("cover image does not exist")
		return nil
	}

	img, ok := items[0].(*models.ImageContent)
	if !ok {
		log.Warn("cover is not an image", slog.String("content_type", string(items[0].Base().ContentType)))
		return nil
	}
	return img
}

// SetCoverImage sets or, with a nil contentID, clears the cover.
func (s *CollectionService) SetCoverImage(ctx context.Context, collectionID int64, contentID *int64) error {
	const op = "service.CollectionService.SetCoverImage"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", collectionID),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.setCover(ctx, collectionID, contentID)
	})
	if err != nil {
		log.Warn("failed to set cover image", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("cover image updated")
	return nil
}

func (s *CollectionService) setCover(ctx context.Context, collectionID int64, contentID *int64) error {
	if contentID != nil {
		t, err := s.repos.Content.TypeByID(ctx, *contentID)
		if err != nil {
			return err
		}
		if t != models.ContentTypeImage {
			return models.Invalid("cover must be an image, content %d is %s", *contentID, t)
		}
	}
	return s.repos.Collections.SetCoverImage(ctx, collectionID, contentID)
}

// UpdateCollection applies field changes and the optional content operations
// in one transaction.
func (s *CollectionService) UpdateCollection(ctx context.Context, id int64, req dto.UpdateCollectionRequest) (models.Collection, error) {
	const op = "service.CollectionService.UpdateCollection"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", id),
	)

	upd, err := collectionUpdate(req)
	if err != nil {
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	passwordChanged := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, id); err != nil {
			return err
		}

		current, err := s.repos.Collections.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Password != nil {
			if !current.IsClientGallery() {
				return models.Invalid("only client galleries can have a password")
			}
			if *req.Password == "" {
				return models.Invalid("client galleries need a password")
			}
			hash, err := s.verifier.Hash(*req.Password)
			if err != nil {
				return err
			}
			upd.PasswordHash = &hash
			passwordChanged = true
		}

		if !upd.Empty() {
			if err := s.repos.Collections.Update(ctx, id, upd); err != nil {
				return err
			}
		}

		if req.Tags != nil {
			if err := s.repos.Collections.SetTags(ctx, id, req.Tags); err != nil {
				return err
			}
		}

		if req.CoverImageID != nil {
			cover := req.CoverImageID
			if *cover == 0 {
				cover = nil
			}
			if err := s.setCover(ctx, id, cover); err != nil {
				return err
			}
		}

		if req.Content != nil {
			if err := s.applyContentOperations(ctx, id, *req.Content); err != nil {
				return err
			}
			if _, err := s.repos.Collections.RefreshTotalContent(ctx, id); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		log.Warn("failed to update collection", sl.Err(err))
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	if passwordChanged {
		s.revokeGrants(ctx, id)
	}

	updated, err := s.repos.Collections.GetByID(ctx, id)
	if err != nil {
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("collection updated")
	return updated, nil
}

func collectionUpdate(req dto.UpdateCollectionRequest) (models.CollectionUpdate, error) {
	upd := models.CollectionUpdate{
		Description:    req.Description,
		Visible:        req.Visible,
		CollectionDate: req.CollectionDate,
		LocationID:     req.LocationID,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return upd, models.Invalid("title cannot be empty")
		}
		upd.Title = &title
	}
	if req.Slug != nil {
		normalized := slug.Generate(*req.Slug)
		if normalized == "" {
			return upd, models.Invalid("slug %q has no usable characters", *req.Slug)
		}
		upd.Slug = &normalized
	}
	if req.DisplayMode != nil {
		if !req.DisplayMode.Valid() {
			return upd, models.Invalid("unknown display mode %q", *req.DisplayMode)
		}
		upd.DisplayMode = req.DisplayMode
	}
	if req.ContentPerPage != nil {
		if *req.ContentPerPage < 1 {
			return upd, models.Invalid("content per page must be positive")
		}
		upd.ContentPerPage = req.ContentPerPage
	}

	return upd, nil
}

// applyContentOperations runs inside the caller's transaction. New text
// blocks are created first so reorder ops can refer to them as -1, -2, ...
func (s *CollectionService) applyContentOperations(ctx context.Context, collectionID int64, ops dto.ContentOperations) error {
	created := make([]int64, 0, len(ops.NewTextBlocks))
	for i, block := range ops.NewTextBlocks {
		if strings.TrimSpace(block.Text) == "" {
			return models.Invalid("new text block %d is empty", i+1)
		}
		format, err := textFormat(block.FormatType)
		if err != nil {
			return err
		}

		txt := &models.TextContent{Text: block.Text, FormatType: format}
		id, err := s.repos.Content.CreateText(ctx, txt)
		if err != nil {
			return err
		}
		if _, err := s.repos.CollectionContent.Append(ctx, collectionID, id, true); err != nil {
			return err
		}
		created = append(created, id)
	}

	if len(ops.Remove) > 0 {
		if _, err := s.repos.CollectionContent.DetachContent(ctx, collectionID, ops.Remove); err != nil {
			return err
		}
	}

	if len(ops.Reorder) > 0 {
		if err := s.applyReorder(ctx, collectionID, ops.Reorder, created); err != nil {
			return err
		}
	}

	for _, v := range ops.Visibility {
		if err := s.setVisibility(ctx, collectionID, v.ContentID, v.Visible); err != nil {
			return err
		}
	}

	return nil
}

// applyReorder resolves every op to an association before writing anything,
// then sets each new order index independently. Density is not enforced.
func (s *CollectionService) applyReorder(ctx context.Context, collectionID int64, ops []models.ReorderOp, created []int64) error {
	targets := make([]int64, len(ops))
	seen := make(map[int64]int, len(ops))

	for i, op := range ops {
		if op.NewOrderIndex < 0 {
			return models.Invalid("reorder op %d: negative order index %d", i, op.NewOrderIndex)
		}

		var (
			a   models.CollectionContent
			err error
		)
		switch {
		case op.ContentID != nil:
			contentID, rerr := resolvePlaceholder(*op.ContentID, created)
			if rerr != nil {
				return fmt.Errorf("reorder op %d: %w", i, rerr)
			}
			a, err = s.repos.CollectionContent.FindAssociation(ctx, collectionID, contentID)
		case op.OldOrderIndex != nil:
			a, err = s.repos.CollectionContent.FindByOrderIndex(ctx, collectionID, *op.OldOrderIndex)
		default:
			return models.Invalid("reorder op %d names neither a content id nor an old order index", i)
		}
		if err != nil {
			return fmt.Errorf("reorder op %d: %w", i, err)
		}

		if prev, dup := seen[a.ID]; dup {
			return models.Invalid("reorder ops %d and %d move the same item", prev, i)
		}
		seen[a.ID] = i
		targets[i] = a.ID
	}

	for i, op := range ops {
		res, err := s.repos.CollectionContent.SetOrderIndex(ctx, targets[i], op.NewOrderIndex)
		if err != nil {
			return err
		}
		if !res.Found() {
			return fmt.Errorf("reorder op %d: %w", i, storage.ErrAssociationNotFound)
		}
	}

	metrics.ReorderOperationsTotal.Add(float64(len(ops)))
	return nil
}

// resolvePlaceholder maps -k to the k-th id created in this update.
func resolvePlaceholder(contentID int64, created []int64) (int64, error) {
	switch {
	case contentID > 0:
		return contentID, nil
	case contentID == 0:
		return 0, models.Invalid("content id 0 is not valid")
	}

	k := int(-contentID)
	if k > len(created) {
		return 0, models.Invalid("placeholder %d does not name new content, %d created", contentID, len(created))
	}
	return created[k-1], nil
}

// Reorder applies a reorder request on its own.
func (s *CollectionService) Reorder(ctx context.Context, collectionID int64, ops []models.ReorderOp) error {
	const op = "service.CollectionService.Reorder"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", collectionID),
		slog.Int("ops", len(ops)),
	)

	if len(ops) == 0 {
		return fmt.Errorf("%s: %w", op, models.Invalid("no reorder operations"))
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, collectionID); err != nil {
			return err
		}
		return s.applyReorder(ctx, collectionID, ops, nil)
	})
	if err != nil {
		log.Warn("reorder failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("collection reordered")
	return nil
}

// AttachContent adds existing content to the collection, appended at the end
// or inserted as a block at position.
func (s *CollectionService) AttachContent(ctx context.Context, collectionID int64, req dto.AttachContentRequest) ([]models.CollectionContent, error) {
	const op = "service.CollectionService.AttachContent"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", collectionID),
	)

	if len(req.ContentIDs) == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.Invalid("no content ids"))
	}

	var attached []models.CollectionContent
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, collectionID); err != nil {
			return err
		}

		types, err := s.repos.Content.TypesByIDs(ctx, req.ContentIDs)
		if err != nil {
			return err
		}
		var refIDs []int64
		for _, id := range req.ContentIDs {
			t, ok := types[id]
			if !ok {
				return fmt.Errorf("content %d: %w", id, storage.ErrContentNotFound)
			}
			if t == models.ContentTypeCollection {
				refIDs = append(refIDs, id)
			}
		}
		if err := s.rejectSelfReference(ctx, collectionID, refIDs); err != nil {
			return err
		}

		if req.Position == nil {
			for _, id := range req.ContentIDs {
				a, err := s.repos.CollectionContent.Append(ctx, collectionID, id, true)
				if err != nil {
					return err
				}
				attached = append(attached, a)
			}
		} else {
			if attached, err = s.insertAt(ctx, collectionID, *req.Position, req.ContentIDs); err != nil {
				return err
			}
		}

		_, err = s.repos.Collections.RefreshTotalContent(ctx, collectionID)
		return err
	})
	if err != nil {
		log.Warn("failed to attach content", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("content attached", slog.Int("count", len(attached)))
	return attached, nil
}

// rejectSelfReference fails when one of the COLLECTION items refIDs points
// at collectionID itself.
func (s *CollectionService) rejectSelfReference(ctx context.Context, collectionID int64, refIDs []int64) error {
	if len(refIDs) == 0 {
		return nil
	}

	refs, err := s.repos.Content.CollectionRefsByIDs(ctx, refIDs)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref.ReferencedCollectionID == collectionID {
			return models.Invalid("content %d references collection %d itself", ref.ID, collectionID)
		}
	}
	return nil
}

// insertAt compacts the order, opens a gap of len(ids) at position and fills
// it. Positions past the end append.
func (s *CollectionService) insertAt(ctx context.Context, collectionID int64, position int, ids []int64) ([]models.CollectionContent, error) {
	if position < 0 {
		return nil, models.Invalid("position must not be negative")
	}

	if err := s.repos.CollectionContent.Compact(ctx, collectionID); err != nil {
		return nil, err
	}

	count, err := s.repos.CollectionContent.CountByCollection(ctx, collectionID, false)
	if err != nil {
		return nil, err
	}
	if position > count {
		position = count
	}

	if position < count {
		if _, err := s.repos.CollectionContent.ShiftOrderIndices(ctx, collectionID, position, count-1, len(ids)); err != nil {
			return nil, err
		}
	}

	out := make([]models.CollectionContent, 0, len(ids))
	for i, id := range ids {
		a, err := s.repos.CollectionContent.Attach(ctx, collectionID, id, position+i, true)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// DetachContent removes content from the collection. The content itself is
// kept and the remaining order indices are left as they are.
func (s *CollectionService) DetachContent(ctx context.Context, collectionID int64, contentIDs []int64) (int64, error) {
	const op = "service.CollectionService.DetachContent"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", collectionID),
	)

	var removed int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, collectionID); err != nil {
			return err
		}

		var err error
		if removed, err = s.repos.CollectionContent.DetachContent(ctx, collectionID, contentIDs); err != nil {
			return err
		}
		if removed == 0 {
			return storage.ErrAssociationNotFound
		}

		_, err = s.repos.Collections.RefreshTotalContent(ctx, collectionID)
		return err
	})
	if err != nil {
		log.Warn("failed to detach content", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("content detached", slog.Int64("count", removed))
	return removed, nil
}

// MoveContent moves one item to newIndex and shifts the items in between so
// the order stays dense.
func (s *CollectionService) MoveContent(ctx context.Context, collectionID int64, req dto.MoveContentRequest) error {
	const op = "service.CollectionService.MoveContent"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", collectionID),
		slog.Int64("content_id", req.ContentID),
	)

	if req.NewOrderIndex < 0 {
		return fmt.Errorf("%s: %w", op, models.Invalid("order index must not be negative"))
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, collectionID); err != nil {
			return err
		}
		if err := s.repos.CollectionContent.Compact(ctx, collectionID); err != nil {
			return err
		}

		a, err := s.repos.CollectionContent.FindAssociation(ctx, collectionID, req.ContentID)
		if err != nil {
			return err
		}

		count, err := s.repos.CollectionContent.CountByCollection(ctx, collectionID, false)
		if err != nil {
			return err
		}

		target := req.NewOrderIndex
		if target > count-1 {
			target = count - 1
		}
		if target == a.OrderIndex {
			return nil
		}

		if target < a.OrderIndex {
			_, err = s.repos.CollectionContent.ShiftOrderIndices(ctx, collectionID, target, a.OrderIndex-1, 1)
		} else {
			_, err = s.repos.CollectionContent.ShiftOrderIndices(ctx, collectionID, a.OrderIndex+1, target, -1)
		}
		if err != nil {
			return err
		}

		res, err := s.repos.CollectionContent.SetOrderIndex(ctx, a.ID, target)
		if err != nil {
			return err
		}
		if !res.Found() {
			return storage.ErrAssociationNotFound
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to move content", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("content moved", slog.Int("new_order_index", req.NewOrderIndex))
	return nil
}

// CompactOrder renumbers the collection to 0..N-1 keeping relative order.
func (s *CollectionService) CompactOrder(ctx context.Context, collectionID int64) error {
	const op = "service.CollectionService.CompactOrder"

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, collectionID); err != nil {
			return err
		}
		return s.repos.CollectionContent.Compact(ctx, collectionID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CollectionService) SetContentVisibility(ctx context.Context, collectionID, contentID int64, visible bool) error {
	const op = "service.CollectionService.SetContentVisibility"

	if err := s.setVisibility(ctx, collectionID, contentID, visible); err != nil {
		s.log.Warn("failed to change visibility",
			slog.String("op", op),
			slog.Int64("collection_id", collectionID),
			slog.Int64("content_id", contentID),
			sl.Err(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CollectionService) setVisibility(ctx context.Context, collectionID, contentID int64, visible bool) error {
	a, err := s.repos.CollectionContent.FindAssociation(ctx, collectionID, contentID)
	if err != nil {
		return err
	}

	res, err := s.repos.CollectionContent.SetVisible(ctx, a.ID, visible)
	if err != nil {
		return err
	}
	if !res.Found() {
		return storage.ErrAssociationNotFound
	}
	return nil
}

// DeleteCollection removes the collection and its associations. Contained
// content is kept; COLLECTION content that points at this collection is
// deleted from every collection it appears in.
func (s *CollectionService) DeleteCollection(ctx context.Context, id int64) error {
	const op = "service.CollectionService.DeleteCollection"
	log := s.log.With(
		slog.String("op", op),
		slog.Int64("collection_id", id),
	)

	var deleted models.Collection
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Collections.LockForUpdate(ctx, id); err != nil {
			return err
		}

		var err error
		if deleted, err = s.repos.Collections.GetByID(ctx, id); err != nil {
			return err
		}

		refs, err := s.repos.Content.IDsReferencingCollection(ctx, id)
		if err != nil {
			return err
		}

		seen := map[int64]bool{id: true}
		var parents []int64
		for _, ref := range refs {
			ids, err := s.repos.CollectionContent.CollectionIDsForContent(ctx, ref)
			if err != nil {
				return err
			}
			for _, p := range ids {
				if !seen[p] {
					seen[p] = true
					parents = append(parents, p)
				}
			}
		}

		// Parents are locked in ascending id order.
		sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })
		for _, p := range parents {
			if err := s.repos.Collections.LockForUpdate(ctx, p); err != nil {
				return err
			}
		}

		for _, ref := range refs {
			if err := s.repos.Content.Delete(ctx, ref); err != nil {
				return err
			}
		}

		if _, err := s.repos.CollectionContent.DeleteAllForCollection(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Collections.Delete(ctx, id); err != nil {
			return err
		}

		for _, p := range parents {
			if _, err := s.repos.Collections.RefreshTotalContent(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrCollectionNotFound) {
			log.Warn("collection not found")
		} else {
			log.Error("failed to delete collection", sl.Err(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if deleted.IsClientGallery() {
		s.revokeGrants(ctx, id)
	}

	log.Info("collection deleted")
	return nil
}

func (s *CollectionService) revokeGrants(ctx context.Context, collectionID int64) {
	if s.grants == nil {
		return
	}
	if err := s.grants.RevokeAllGrants(ctx, collectionID); err != nil {
		s.log.Error("failed to revoke gallery access grants",
			slog.Int64("collection_id", collectionID),
			sl.Err(err),
		)
	}
}

func textFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		return models.TextFormatMarkdown, nil
	case models.TextFormatPlain, models.TextFormatMarkdown, models.TextFormatHTML:
		return f, nil
	}
	return "", models.Invalid("unsupported text format %q", format)
}
