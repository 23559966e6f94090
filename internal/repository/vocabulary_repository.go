package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"portfolio/internal/domain/models"
	"portfolio/internal/storage"
	"portfolio/internal/storage/postgresql"
)

// VocabularyRepo serves every lookup table shaped as (id, <name column>).
type VocabularyRepo struct {
	db     *postgresql.Storage
	sb     sq.StatementBuilderType
	table  string
	column string
}

func newVocabularyRepo(db *postgresql.Storage, table, column string) *VocabularyRepo {
	return &VocabularyRepo{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		table:  table,
		column: column,
	}
}

func NewTagRepo(db *postgresql.Storage) *VocabularyRepo {
	return newVocabularyRepo(db, "tag", "name")
}

func NewPersonRepo(db *postgresql.Storage) *VocabularyRepo {
	return newVocabularyRepo(db, "content_people", "person_name")
}

func NewCameraRepo(db *postgresql.Storage) *VocabularyRepo {
	return newVocabularyRepo(db, "content_cameras", "camera_name")
}

func NewLensRepo(db *postgresql.Storage) *VocabularyRepo {
	return newVocabularyRepo(db, "content_lenses", "lens_name")
}

func NewLocationRepo(db *postgresql.Storage) *VocabularyRepo {
	return newVocabularyRepo(db, "location", "name")
}

func (r *VocabularyRepo) List(ctx context.Context) ([]models.Term, error) {
	op := "repository.VocabularyRepo.List." + r.table

	query, args, err := r.sb.Select("id", r.column).
		From(r.table).
		OrderBy(r.column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	terms := []models.Term{}
	for rows.Next() {
		var t models.Term
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		terms = append(terms, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return terms, nil
}

func (r *VocabularyRepo) Create(ctx context.Context, name string) (models.Term, error) {
	op := "repository.VocabularyRepo.Create." + r.table

	query, args, err := r.sb.Insert(r.table).
		Columns(r.column).
		Values(name).
		Suffix("RETURNING id, " + r.column).
		ToSql()
	if err != nil {
		return models.Term{}, fmt.Errorf("%s: %w", op, err)
	}

	var t models.Term
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&t.ID, &t.Name); err != nil {
		if postgresql.IsUniqueViolation(err) {
			return models.Term{}, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}
		return models.Term{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// FindOrCreate returns the id of the term with the given name, inserting it
// when missing.
func (r *VocabularyRepo) FindOrCreate(ctx context.Context, name string) (int64, error) {
	op := "repository.VocabularyRepo.FindOrCreate." + r.table

	query, args, err := r.sb.Insert(r.table).
		Columns(r.column).
		Values(name).
		Suffix(fmt.Sprintf("ON CONFLICT (%[1]s) DO UPDATE SET %[1]s = EXCLUDED.%[1]s RETURNING id", r.column)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *VocabularyRepo) Delete(ctx context.Context, id int64) error {
	op := "repository.VocabularyRepo.Delete." + r.table

	query, args, err := r.sb.Delete(r.table).
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
		return fmt.Errorf("%s: %w", op, storage.ErrTermNotFound)
	}

	return nil
}

type FilmTypeRepo struct {
	db *postgresql.Storage
	sb sq.StatementBuilderType
}

func NewFilmTypeRepo(db *postgresql.Storage) *FilmTypeRepo {
	return &FilmTypeRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *FilmTypeRepo) List(ctx context.Context) ([]models.FilmType, error) {
	const op = "repository.FilmTypeRepo.List"

	query, args, err := r.sb.Select("id", "film_type_name", "display_name", "COALESCE(default_iso, 0)").
		From("content_film_types").
		OrderBy("display_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	filmTypes := []models.FilmType{}
	for rows.Next() {
		var ft models.FilmType
		if err := rows.Scan(&ft.ID, &ft.Name, &ft.DisplayName, &ft.DefaultISO); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		filmTypes = append(filmTypes, ft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return filmTypes, nil
}

func (r *FilmTypeRepo) GetByID(ctx context.Context, id int64) (models.FilmType, error) {
	const op = "repository.FilmTypeRepo.GetByID"

	query, args, err := r.sb.Select("id", "film_type_name", "display_name", "COALESCE(default_iso, 0)").
		From("content_film_types").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.FilmType{}, fmt.Errorf("%s: %w", op, err)
	}

	var ft models.FilmType
	err = r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&ft.ID, &ft.Name, &ft.DisplayName, &ft.DefaultISO)
	if err != nil {
		if postgresql.IsNoRows(err) {
			return models.FilmType{}, fmt.Errorf("%s: %w", op, storage.ErrTermNotFound)
		}
		return models.FilmType{}, fmt.Errorf("%s: %w", op, err)
	}

	return ft, nil
}

func (r *FilmTypeRepo) Create(ctx context.Context, ft models.FilmType) (models.FilmType, error) {
	const op = "repository.FilmTypeRepo.Create"

	var defaultISO *int
	if ft.DefaultISO > 0 {
		defaultISO = &ft.DefaultISO
	}

	query, args, err := r.sb.Insert("content_film_types").
		Columns("film_type_name", "display_name", "default_iso").
		Values(ft.Name, ft.DisplayName, defaultISO).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return models.FilmType{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&ft.ID); err != nil {
		if postgresql.IsUniqueViolation(err) {
			return models.FilmType{}, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}
		return models.FilmType{}, fmt.Errorf("%s: %w", op, err)
	}

	return ft, nil
}

func (r *FilmTypeRepo) Delete(ctx context.Context, id int64) error {
	const op = "repository.FilmTypeRepo.Delete"

	query, args, err := r.sb.Delete("content_film_types").
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
		return fmt.Errorf("%s: %w", op, storage.ErrTermNotFound)
	}

	return nil
}

// normalizeNames trims names, drops empty ones and removes duplicates while
// keeping the first occurrence order.
func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
