package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/lib/pq"

	"portfolio/internal/domain/models"
	"portfolio/internal/storage"
	"portfolio/internal/storage/postgresql"
)

const collectionTable = "collection"

var collectionColumns = []string{
	"id",
	"type",
	"title",
	"slug",
	"description",
	"location_id",
	"collection_date",
	"visible",
	"display_mode",
	"cover_image_id",
	"content_per_page",
	"total_content",
	"password_hash",
	"created_at",
	"updated_at",
}

type CollectionRepo struct {
	db *postgresql.Storage
	sb sq.StatementBuilderType
}

func NewCollectionRepo(db *postgresql.Storage) *CollectionRepo {
	return &CollectionRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *CollectionRepo) Create(ctx context.Context, c models.Collection) (int64, error) {
	const op = "repository.CollectionRepo.Create"

	query, args, err := r.sb.Insert(collectionTable).
		Columns(
			"type",
			"title",
			"slug",
			"description",
			"location_id",
			"collection_date",
			"visible",
			"display_mode",
			"content_per_page",
			"password_hash",
		).
		Values(
			c.Type,
			c.Title,
			c.Slug,
			c.Description,
			c.LocationID,
			c.CollectionDate,
			c.Visible,
			c.DisplayMode,
			c.ContentPerPage,
			nullableString(c.PasswordHash),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if postgresql.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *CollectionRepo) GetByID(ctx context.Context, id int64) (models.Collection, error) {
	const op = "repository.CollectionRepo.GetByID"

	return r.getOne(ctx, op, sq.Eq{"id": id})
}

func (r *CollectionRepo) GetBySlug(ctx context.Context, slug string) (models.Collection, error) {
	const op = "repository.CollectionRepo.GetBySlug"

	return r.getOne(ctx, op, sq.Eq{"slug": slug})
}

func (r *CollectionRepo) getOne(ctx context.Context, op string, where sq.Eq) (models.Collection, error) {
	query, args, err := r.sb.Select(collectionColumns...).
		From(collectionTable).
		Where(where).
		ToSql()
	if err != nil {
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	c, err := scanCollection(r.db.Conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if postgresql.IsNoRows(err) {
			return models.Collection{}, fmt.Errorf("%s: %w", op, storage.ErrCollectionNotFound)
		}
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	c.Tags, err = r.tags(ctx, c.ID)
	if err != nil {
		return models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (r *CollectionRepo) List(ctx context.Context, filter CollectionFilter) ([]models.Collection, error) {
	const op = "repository.CollectionRepo.List"

	builder := r.sb.Select(collectionColumns...).
		From(collectionTable).
		OrderBy("collection_date DESC NULLS LAST", "id DESC")

	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"type": filter.Type})
	}
	if filter.VisibleOnly {
		builder = builder.Where(sq.Eq{"visible": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var collections []models.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		collections = append(collections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return collections, nil
}

func (r *CollectionRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	const op = "repository.CollectionRepo.SlugExists"

	query, args, err := r.sb.Select("1").
		Prefix("SELECT EXISTS (").
		From(collectionTable).
		Where(sq.Eq{"slug": slug}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var exists bool
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (r *CollectionRepo) Update(ctx context.Context, id int64, upd models.CollectionUpdate) error {
	const op = "repository.CollectionRepo.Update"

	builder := r.sb.Update(collectionTable).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id})

	if upd.Title != nil {
		builder = builder.Set("title", *upd.Title)
	}
	if upd.Slug != nil {
		builder = builder.Set("slug", *upd.Slug)
	}
	if upd.Description != nil {
		builder = builder.Set("description", *upd.Description)
	}
	if upd.Visible != nil {
		builder = builder.Set("visible", *upd.Visible)
	}
	if upd.DisplayMode != nil {
		builder = builder.Set("display_mode", *upd.DisplayMode)
	}
	if upd.ContentPerPage != nil {
		builder = builder.Set("content_per_page", *upd.ContentPerPage)
	}
	if upd.CollectionDate != nil {
		builder = builder.Set("collection_date", *upd.CollectionDate)
	}
	if upd.LocationID != nil {
		builder = builder.Set("location_id", *upd.LocationID)
	}
	if upd.PasswordHash != nil {
		builder = builder.Set("password_hash", nullableString(*upd.PasswordHash))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		if postgresql.IsUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrCollectionNotFound)
	}

	return nil
}

// SetCoverImage stores contentID as the cover, or clears it when nil. The
// caller is responsible for checking that contentID is an image.
func (r *CollectionRepo) SetCoverImage(ctx context.Context, id int64, contentID *int64) error {
	const op = "repository.CollectionRepo.SetCoverImage"

	query, args, err := r.sb.Update(collectionTable).
		Set("cover_image_id", contentID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrCollectionNotFound)
	}

	return nil
}

// SetTags replaces the tag set of the collection, creating missing tags.
func (r *CollectionRepo) SetTags(ctx context.Context, id int64, names []string) error {
	const op = "repository.CollectionRepo.SetTags"

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		return replaceLinks(ctx, r.db.Conn(ctx), collectionTagLinks, id, names)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// LockForUpdate takes a row lock on the collection for the rest of the
// current transaction.
func (r *CollectionRepo) LockForUpdate(ctx context.Context, id int64) error {
	const op = "repository.CollectionRepo.LockForUpdate"

	query, args, err := r.sb.Select("id").
		From(collectionTable).
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var locked int64
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&locked); err != nil {
		if postgresql.IsNoRows(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrCollectionNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshTotalContent recomputes the denormalised content count.
func (r *CollectionRepo) RefreshTotalContent(ctx context.Context, id int64) (int, error) {
	const op = "repository.CollectionRepo.RefreshTotalContent"

	query, args, err := r.sb.Update(collectionTable).
		Set("total_content", sq.Expr("(SELECT COUNT(*) FROM collection_content WHERE collection_id = ?)", id)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING total_content").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&total); err != nil {
		if postgresql.IsNoRows(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrCollectionNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return total, nil
}

func (r *CollectionRepo) Delete(ctx context.Context, id int64) error {
	const op = "repository.CollectionRepo.Delete"

	query, args, err := r.sb.Delete(collectionTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrCollectionNotFound)
	}

	return nil
}

func (r *CollectionRepo) tags(ctx context.Context, id int64) ([]string, error) {
	query, args, err := r.sb.Select("t.name").
		From("tag t").
		Join("collection_tags ct ON ct.tag_id = t.id").
		Where(sq.Eq{"ct.collection_id": id}).
		OrderBy("t.name").
		ToSql()
	if err != nil {
		return nil, err
	}

	return queryStrings(ctx, r.db.Conn(ctx), query, args...)
}

func scanCollection(row pgx.Row) (models.Collection, error) {
	var (
		c            models.Collection
		passwordHash *string
	)

	err := row.Scan(
		&c.ID,
		&c.Type,
		&c.Title,
		&c.Slug,
		&c.Description,
		&c.LocationID,
		&c.CollectionDate,
		&c.Visible,
		&c.DisplayMode,
		&c.CoverImageID,
		&c.ContentPerPage,
		&c.TotalContent,
		&passwordHash,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if passwordHash != nil {
		c.PasswordHash = *passwordHash
	}

	return c, err
}

// linkTable describes a many-to-many join between an owner row and a
// name-keyed vocabulary table.
type linkTable struct {
	table     string
	ownerCol  string
	termCol   string
	termTable string
	termName  string
}

var (
	collectionTagLinks = linkTable{
		table:     "collection_tags",
		ownerCol:  "collection_id",
		termCol:   "tag_id",
		termTable: "tag",
		termName:  "name",
	}
	contentTagLinks = linkTable{
		table:     "content_tags",
		ownerCol:  "content_id",
		termCol:   "tag_id",
		termTable: "tag",
		termName:  "name",
	}
	contentPeopleLinks = linkTable{
		table:     "content_image_people",
		ownerCol:  "content_id",
		termCol:   "person_id",
		termTable: "content_people",
		termName:  "person_name",
	}
)

func replaceLinks(ctx context.Context, db postgresql.DBTX, lt linkTable, ownerID int64, names []string) error {
	sb := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	query, args, err := sb.Delete(lt.table).Where(sq.Eq{lt.ownerCol: ownerID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, query, args...); err != nil {
		return err
	}

	names = normalizeNames(names)
	if len(names) == 0 {
		return nil
	}

	insertTerms := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT unnest($1::text[]) ON CONFLICT (%s) DO NOTHING",
		lt.termTable, lt.termName, lt.termName,
	)
	if _, err := db.Exec(ctx, insertTerms, pq.Array(names)); err != nil {
		return err
	}

	insertLinks := fmt.Sprintf(
		"INSERT INTO %s (%s, %s) SELECT $1, id FROM %s WHERE %s = ANY($2::text[]) ON CONFLICT DO NOTHING",
		lt.table, lt.ownerCol, lt.termCol, lt.termTable, lt.termName,
	)
	if _, err := db.Exec(ctx, insertLinks, ownerID, pq.Array(names)); err != nil {
		return err
	}

	return nil
}

func queryStrings(ctx context.Context, db postgresql.DBTX, query string, args ...interface{}) ([]string, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
