package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"

	"portfolio/internal/domain/models"
	"portfolio/internal/storage"
	"portfolio/internal/storage/postgresql"
)

const collectionContentTable = "collection_content"

var associationColumns = []string{
	"id",
	"collection_id",
	"content_id",
	"order_index",
	"visible",
	"created_at",
	"updated_at",
}

const compactQuery = `
UPDATE collection_content cc
SET order_index = ranked.rn, updated_at = NOW()
FROM (
	SELECT id, ROW_NUMBER() OVER (ORDER BY order_index, id) - 1 AS rn
	FROM collection_content
	WHERE collection_id = $1
) ranked
WHERE cc.id = ranked.id AND cc.order_index <> ranked.rn`

type CollectionContentRepo struct {
	db *postgresql.Storage
	sb sq.StatementBuilderType
}

func NewCollectionContentRepo(db *postgresql.Storage) *CollectionContentRepo {
	return &CollectionContentRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *CollectionContentRepo) ListByCollection(ctx context.Context, collectionID int64) ([]models.CollectionContent, error) {
	const op = "repository.CollectionContentRepo.ListByCollection"

	query, args, err := r.sb.Select(associationColumns...).
		From(collectionContentTable).
		Where(sq.Eq{"collection_id": collectionID}).
		OrderBy("order_index", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := r.queryAssociations(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (r *CollectionContentRepo) ListByCollectionPage(ctx context.Context, collectionID int64, visibleOnly bool, limit, offset int) ([]models.CollectionContent, error) {
	const op = "repository.CollectionContentRepo.ListByCollectionPage"

	where := sq.And{sq.Eq{"collection_id": collectionID}}
	if visibleOnly {
		where = append(where, sq.Eq{"visible": true})
	}

	query, args, err := r.sb.Select(associationColumns...).
		From(collectionContentTable).
		Where(where).
		OrderBy("order_index", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := r.queryAssociations(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (r *CollectionContentRepo) CountByCollection(ctx context.Context, collectionID int64, visibleOnly bool) (int, error) {
	const op = "repository.CollectionContentRepo.CountByCollection"

	where := sq.And{sq.Eq{"collection_id": collectionID}}
	if visibleOnly {
		where = append(where, sq.Eq{"visible": true})
	}

	query, args, err := r.sb.Select("COUNT(*)").
		From(collectionContentTable).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var count int
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

// MaxOrderIndex reports false when the collection has no content.
func (r *CollectionContentRepo) MaxOrderIndex(ctx context.Context, collectionID int64) (int, bool, error) {
	const op = "repository.CollectionContentRepo.MaxOrderIndex"

	query, args, err := r.sb.Select("MAX(order_index)").
		From(collectionContentTable).
		Where(sq.Eq{"collection_id": collectionID}).
		ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	var maxIndex *int
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&maxIndex); err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	if maxIndex == nil {
		return 0, false, nil
	}

	return *maxIndex, true, nil
}

func (r *CollectionContentRepo) FindAssociation(ctx context.Context, collectionID, contentID int64) (models.CollectionContent, error) {
	const op = "repository.CollectionContentRepo.FindAssociation"

	query, args, err := r.sb.Select(associationColumns...).
		From(collectionContentTable).
		Where(sq.Eq{"collection_id": collectionID, "content_id": contentID}).
		ToSql()
	if err != nil {
		return models.CollectionContent{}, fmt.Errorf("%s: %w", op, err)
	}

	cc, err := scanAssociation(r.db.Conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if postgresql.IsNoRows(err) {
			return models.CollectionContent{}, fmt.Errorf("%s: %w", op, storage.ErrAssociationNotFound)
		}
		return models.CollectionContent{}, fmt.Errorf("%s: %w", op, err)
	}

	return cc, nil
}

// FindByOrderIndex returns the association currently at orderIndex. When
// gaps or duplicates exist the lowest id wins.
func (r *CollectionContentRepo) FindByOrderIndex(ctx context.Context, collectionID int64, orderIndex int) (models.CollectionContent, error) {
	const op = "repository.CollectionContentRepo.FindByOrderIndex"

	query, args, err := r.sb.Select(associationColumns...).
		From(collectionContentTable).
		Where(sq.Eq{"collection_id": collectionID, "order_index": orderIndex}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return models.CollectionContent{}, fmt.Errorf("%s: %w", op, err)
	}

	cc, err := scanAssociation(r.db.Conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if postgresql.IsNoRows(err) {
			return models.CollectionContent{}, fmt.Errorf("%s: %w", op, storage.ErrAssociationNotFound)
		}
		return models.CollectionContent{}, fmt.Errorf("%s: %w", op, err)
	}

	return cc, nil
}

func (r *CollectionContentRepo) SetOrderIndex(ctx context.Context, associationID int64, orderIndex int) (models.UpdateResult, error) {
	const op = "repository.CollectionContentRepo.SetOrderIndex"

	query, args, err := r.sb.Update(collectionContentTable).
		Set("order_index", orderIndex).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": associationID}).
		ToSql()
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.UpdateResult{RowsAffected: tag.RowsAffected()}, nil
}

func (r *CollectionContentRepo) SetVisible(ctx context.Context, associationID int64, visible bool) (models.UpdateResult, error) {
	const op = "repository.CollectionContentRepo.SetVisible"

	query, args, err := r.sb.Update(collectionContentTable).
		Set("visible", visible).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": associationID}).
		ToSql()
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.UpdateResult{RowsAffected: tag.RowsAffected()}, nil
}

// ShiftOrderIndices adds delta to every order_index in [start, end].
func (r *CollectionContentRepo) ShiftOrderIndices(ctx context.Context, collectionID int64, start, end, delta int) (int64, error) {
	const op = "repository.CollectionContentRepo.ShiftOrderIndices"

	if start > end {
		return 0, nil
	}

	query, args, err := r.sb.Update(collectionContentTable).
		Set("order_index", sq.Expr("order_index + ?", delta)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"collection_id": collectionID}).
		Where(sq.GtOrEq{"order_index": start}).
		Where(sq.LtOrEq{"order_index": end}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

func (r *CollectionContentRepo) Attach(ctx context.Context, collectionID, contentID int64, orderIndex int, visible bool) (models.CollectionContent, error) {
	const op = "repository.CollectionContentRepo.Attach"

	return r.insert(ctx, op, collectionID, contentID, orderIndex, visible)
}

// Append places the content after the current last item, or at 0 when the
// collection is empty.
func (r *CollectionContentRepo) Append(ctx context.Context, collectionID, contentID int64, visible bool) (models.CollectionContent, error) {
	const op = "repository.CollectionContentRepo.Append"

	next := sq.Expr(
		"(SELECT COALESCE(MAX(order_index), -1) + 1 FROM collection_content WHERE collection_id = ?)",
		collectionID,
	)

	return r.insert(ctx, op, collectionID, contentID, next, visible)
}

func (r *CollectionContentRepo) insert(ctx context.Context, op string, collectionID, contentID int64, orderIndex interface{}, visible bool) (models.CollectionContent, error) {
	query, args, err := r.sb.Insert(collectionContentTable).
		Columns("collection_id", "content_id", "order_index", "visible").
		Values(collectionID, contentID, orderIndex, visible).
		Suffix("RETURNING id, collection_id, content_id, order_index, visible, created_at, updated_at").
		ToSql()
	if err != nil {
		return models.CollectionContent{}, fmt.Errorf("%s: %w", op, err)
	}

	cc, err := scanAssociation(r.db.Conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if postgresql.IsUniqueViolation(err) {
			return models.CollectionContent{}, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}
		return models.CollectionContent{}, fmt.Errorf("%s: %w", op, err)
	}

	return cc, nil
}

// DetachContent removes the given content from the collection. Remaining
// order indices are left as they are.
func (r *CollectionContentRepo) DetachContent(ctx context.Context, collectionID int64, contentIDs []int64) (int64, error) {
	const op = "repository.CollectionContentRepo.DetachContent"

	if len(contentIDs) == 0 {
		return 0, nil
	}

	query, args, err := r.sb.Delete(collectionContentTable).
		Where(sq.Eq{"collection_id": collectionID, "content_id": contentIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

func (r *CollectionContentRepo) DeleteAllForCollection(ctx context.Context, collectionID int64) (int64, error) {
	const op = "repository.CollectionContentRepo.DeleteAllForCollection"

	query, args, err := r.sb.Delete(collectionContentTable).
		Where(sq.Eq{"collection_id": collectionID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}

// Compact renumbers the collection to 0..N-1 keeping the relative order.
func (r *CollectionContentRepo) Compact(ctx context.Context, collectionID int64) error {
	const op = "repository.CollectionContentRepo.Compact"

	if _, err := r.db.Conn(ctx).Exec(ctx, compactQuery, collectionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *CollectionContentRepo) CollectionIDsForContent(ctx context.Context, contentID int64) ([]int64, error) {
	const op = "repository.CollectionContentRepo.CollectionIDsForContent"

	query, args, err := r.sb.Select("collection_id").
		From(collectionContentTable).
		Where(sq.Eq{"content_id": contentID}).
		OrderBy("collection_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids, err := queryInt64s(ctx, r.db.Conn(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}

func (r *CollectionContentRepo) queryAssociations(ctx context.Context, query string, args ...interface{}) ([]models.CollectionContent, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.CollectionContent
	for rows.Next() {
		cc, err := scanAssociation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, cc)
	}

	return items, rows.Err()
}

func scanAssociation(row pgx.Row) (models.CollectionContent, error) {
	var cc models.CollectionContent
	err := row.Scan(
		&cc.ID,
		&cc.CollectionID,
		&cc.ContentID,
		&cc.OrderIndex,
		&cc.Visible,
		&cc.CreatedAt,
		&cc.UpdatedAt,
	)
	return cc, err
}

func queryInt64s(ctx context.Context, db postgresql.DBTX, query string, args ...interface{}) ([]int64, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
