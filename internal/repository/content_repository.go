package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"portfolio/internal/domain/models"
	"portfolio/internal/storage"
	"portfolio/internal/storage/postgresql"
)

const contentTable = "content"

var contentChildTables = []string{
	"content_image",
	"content_text",
	"content_gif",
	"content_collection",
}

type ContentRepo struct {
	db *postgresql.Storage
	sb sq.StatementBuilderType
}

func NewContentRepo(db *postgresql.Storage) *ContentRepo {
	return &ContentRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// insertBase writes the shared content row and fills in id and timestamps.
func (r *ContentRepo) insertBase(ctx context.Context, base *models.ContentBase) error {
	query, args, err := r.sb.Insert(contentTable).
		Columns("content_type").
		Values(base.ContentType).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}

	return r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&base.ID, &base.CreatedAt, &base.UpdatedAt)
}

func (r *ContentRepo) CreateImage(ctx context.Context, img *models.ImageContent) (int64, error) {
	const op = "repository.ContentRepo.CreateImage"

	img.ContentType = models.ContentTypeImage

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.insertBase(ctx, &img.ContentBase); err != nil {
			return err
		}

		query, args, err := r.sb.Insert("content_image").
			Columns(
				"id",
				"title",
				"image_width",
				"image_height",
				"iso",
				"author",
				"rating",
				"f_stop",
				"shutter_speed",
				"focal_length",
				"black_and_white",
				"is_film",
				"film_format",
				"film_type_id",
				"camera_id",
				"lens_id",
				"location_id",
				"image_url_web",
				"image_url_original",
				"web_file_key",
				"file_identifier",
				"capture_date",
			).
			Values(
				img.ID,
				img.Title,
				img.ImageWidth,
				img.ImageHeight,
				img.ISO,
				img.Author,
				img.Rating,
				img.FStop,
				img.ShutterSpeed,
				img.FocalLength,
				img.BlackAndWhite,
				img.IsFilm,
				img.FilmFormat,
				img.FilmTypeID,
				img.CameraID,
				img.LensID,
				img.LocationID,
				img.ImageURLWeb,
				img.ImageURLOriginal,
				img.WebFileKey,
				img.FileIdentifier,
				img.CaptureDate,
			).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := r.db.Conn(ctx).Exec(ctx, query, args...); err != nil {
			return err
		}

		if err := replaceLinks(ctx, r.db.Conn(ctx), contentTagLinks, img.ID, img.Tags); err != nil {
			return err
		}

		return replaceLinks(ctx, r.db.Conn(ctx), contentPeopleLinks, img.ID, img.People)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return img.ID, nil
}

func (r *ContentRepo) CreateText(ctx context.Context, txt *models.TextContent) (int64, error) {
	const op = "repository.ContentRepo.CreateText"

	txt.ContentType = models.ContentTypeText

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.insertBase(ctx, &txt.ContentBase); err != nil {
			return err
		}

		query, args, err := r.sb.Insert("content_text").
			Columns("id", "text_body", "format_type").
			Values(txt.ID, txt.Text, txt.FormatType).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := r.db.Conn(ctx).Exec(ctx, query, args...); err != nil {
			return err
		}

		return replaceLinks(ctx, r.db.Conn(ctx), contentTagLinks, txt.ID, txt.Tags)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return txt.ID, nil
}

func (r *ContentRepo) CreateGif(ctx context.Context, gif *models.GifContent) (int64, error) {
	const op = "repository.ContentRepo.CreateGif"

	gif.ContentType = models.ContentTypeGif

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.insertBase(ctx, &gif.ContentBase); err != nil {
			return err
		}

		query, args, err := r.sb.Insert("content_gif").
			Columns(
				"id",
				"title",
				"gif_url",
				"thumbnail_url",
				"thumbnail_key",
				"width",
				"height",
				"author",
				"file_identifier",
				"capture_date",
			).
			Values(
				gif.ID,
				gif.Title,
				gif.GifURL,
				gif.ThumbnailURL,
				gif.ThumbnailKey,
				gif.Width,
				gif.Height,
				gif.Author,
				gif.FileIdentifier,
				gif.CaptureDate,
			).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := r.db.Conn(ctx).Exec(ctx, query, args...); err != nil {
			return err
		}

		return replaceLinks(ctx, r.db.Conn(ctx), contentTagLinks, gif.ID, gif.Tags)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return gif.ID, nil
}

func (r *ContentRepo) CreateCollectionRef(ctx context.Context, ref *models.CollectionRefContent) (int64, error) {
	const op = "repository.ContentRepo.CreateCollectionRef"

	ref.ContentType = models.ContentTypeCollection

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.insertBase(ctx, &ref.ContentBase); err != nil {
			return err
		}

		query, args, err := r.sb.Insert("content_collection").
			Columns("id", "referenced_collection_id").
			Values(ref.ID, ref.ReferencedCollectionID).
			ToSql()
		if err != nil {
			return err
		}

		_, err = r.db.Conn(ctx).Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return ref.ID, nil
}

func (r *ContentRepo) TypeByID(ctx context.Context, id int64) (models.ContentType, error) {
	const op = "repository.ContentRepo.TypeByID"

	query, args, err := r.sb.Select("content_type").
		From(contentTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var t models.ContentType
	if err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&t); err != nil {
		if postgresql.IsNoRows(err) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrContentNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// TypesByIDs reads the discriminator of every existing id. Missing ids are
// absent from the result.
func (r *ContentRepo) TypesByIDs(ctx context.Context, ids []int64) (map[int64]models.ContentType, error) {
	const op = "repository.ContentRepo.TypesByIDs"

	types := make(map[int64]models.ContentType, len(ids))
	if len(ids) == 0 {
		return types, nil
	}

	query, args, err := r.sb.Select("id", "content_type").
		From(contentTable).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			t  models.ContentType
		)
		if err := rows.Scan(&id, &t); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		types[id] = t
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return types, nil
}

func (r *ContentRepo) ImagesByIDs(ctx context.Context, ids []int64) ([]*models.ImageContent, error) {
	const op = "repository.ContentRepo.ImagesByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(
		"c.id",
		"c.content_type",
		"c.created_at",
		"c.updated_at",
		"ci.title",
		"ci.image_width",
		"ci.image_height",
		"ci.iso",
		"ci.author",
		"ci.rating",
		"ci.f_stop",
		"ci.shutter_speed",
		"ci.focal_length",
		"ci.black_and_white",
		"ci.is_film",
		"ci.film_format",
		"ci.film_type_id",
		"ci.camera_id",
		"ci.lens_id",
		"ci.location_id",
		"ci.image_url_web",
		"ci.image_url_original",
		"ci.web_file_key",
		"ci.file_identifier",
		"ci.capture_date",
		"COALESCE(cam.camera_name, '')",
		"COALESCE(lens.lens_name, '')",
		"COALESCE(ft.display_name, '')",
		"COALESCE(loc.name, '')",
	).
		From("content c").
		Join("content_image ci ON ci.id = c.id").
		LeftJoin("content_cameras cam ON cam.id = ci.camera_id").
		LeftJoin("content_lenses lens ON lens.id = ci.lens_id").
		LeftJoin("content_film_types ft ON ft.id = ci.film_type_id").
		LeftJoin("location loc ON loc.id = ci.location_id").
		Where(sq.Eq{"c.id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var images []*models.ImageContent
	for rows.Next() {
		img := &models.ImageContent{}
		err := rows.Scan(
			&img.ID,
			&img.ContentType,
			&img.CreatedAt,
			&img.UpdatedAt,
			&img.Title,
			&img.ImageWidth,
			&img.ImageHeight,
			&img.ISO,
			&img.Author,
			&img.Rating,
			&img.FStop,
			&img.ShutterSpeed,
			&img.FocalLength,
			&img.BlackAndWhite,
			&img.IsFilm,
			&img.FilmFormat,
			&img.FilmTypeID,
			&img.CameraID,
			&img.LensID,
			&img.LocationID,
			&img.ImageURLWeb,
			&img.ImageURLOriginal,
			&img.WebFileKey,
			&img.FileIdentifier,
			&img.CaptureDate,
			&img.CameraName,
			&img.LensName,
			&img.FilmTypeName,
			&img.LocationName,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tags, err := r.namesByContent(ctx, contentTagLinks, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	people, err := r.namesByContent(ctx, contentPeopleLinks, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, img := range images {
		img.Tags = tags[img.ID]
		img.People = people[img.ID]
	}

	return images, nil
}

func (r *ContentRepo) TextsByIDs(ctx context.Context, ids []int64) ([]*models.TextContent, error) {
	const op = "repository.ContentRepo.TextsByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(
		"c.id",
		"c.content_type",
		"c.created_at",
		"c.updated_at",
		"ct.text_body",
		"ct.format_type",
	).
		From("content c").
		Join("content_text ct ON ct.id = c.id").
		Where(sq.Eq{"c.id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var texts []*models.TextContent
	for rows.Next() {
		txt := &models.TextContent{}
		if err := rows.Scan(&txt.ID, &txt.ContentType, &txt.CreatedAt, &txt.UpdatedAt, &txt.Text, &txt.FormatType); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		texts = append(texts, txt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tags, err := r.namesByContent(ctx, contentTagLinks, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, txt := range texts {
		txt.Tags = tags[txt.ID]
	}

	return texts, nil
}

func (r *ContentRepo) GifsByIDs(ctx context.Context, ids []int64) ([]*models.GifContent, error) {
	const op = "repository.ContentRepo.GifsByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(
		"c.id",
		"c.content_type",
		"c.created_at",
		"c.updated_at",
		"cg.title",
		"cg.gif_url",
		"cg.thumbnail_url",
		"cg.thumbnail_key",
		"cg.width",
		"cg.height",
		"cg.author",
		"cg.file_identifier",
		"cg.capture_date",
	).
		From("content c").
		Join("content_gif cg ON cg.id = c.id").
		Where(sq.Eq{"c.id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var gifs []*models.GifContent
	for rows.Next() {
		gif := &models.GifContent{}
		err := rows.Scan(
			&gif.ID,
			&gif.ContentType,
			&gif.CreatedAt,
			&gif.UpdatedAt,
			&gif.Title,
			&gif.GifURL,
			&gif.ThumbnailURL,
			&gif.ThumbnailKey,
			&gif.Width,
			&gif.Height,
			&gif.Author,
			&gif.FileIdentifier,
			&gif.CaptureDate,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		gifs = append(gifs, gif)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tags, err := r.namesByContent(ctx, contentTagLinks, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, gif := range gifs {
		gif.Tags = tags[gif.ID]
	}

	return gifs, nil
}

func (r *ContentRepo) CollectionRefsByIDs(ctx context.Context, ids []int64) ([]*models.CollectionRefContent, error) {
	const op = "repository.ContentRepo.CollectionRefsByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := r.sb.Select(
		"c.id",
		"c.content_type",
		"c.created_at",
		"c.updated_at",
		"cc.referenced_collection_id",
		"col.title",
		"col.slug",
		"col.cover_image_id",
	).
		From("content c").
		Join("content_collection cc ON cc.id = c.id").
		Join("collection col ON col.id = cc.referenced_collection_id").
		Where(sq.Eq{"c.id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var refs []*models.CollectionRefContent
	for rows.Next() {
		ref := &models.CollectionRefContent{}
		err := rows.Scan(
			&ref.ID,
			&ref.ContentType,
			&ref.CreatedAt,
			&ref.UpdatedAt,
			&ref.ReferencedCollectionID,
			&ref.Title,
			&ref.Slug,
			&ref.CoverImageID,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return refs, nil
}

func (r *ContentRepo) UpdateImage(ctx context.Context, img *models.ImageContent) error {
	const op = "repository.ContentRepo.UpdateImage"

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		query, args, err := r.sb.Update("content_image").
			Set("title", img.Title).
			Set("iso", img.ISO).
			Set("author", img.Author).
			Set("rating", img.Rating).
			Set("f_stop", img.FStop).
			Set("shutter_speed", img.ShutterSpeed).
			Set("focal_length", img.FocalLength).
			Set("black_and_white", img.BlackAndWhite).
			Set("is_film", img.IsFilm).
			Set("film_format", img.FilmFormat).
			Set("film_type_id", img.FilmTypeID).
			Set("camera_id", img.CameraID).
			Set("lens_id", img.LensID).
			Set("location_id", img.LocationID).
			Set("capture_date", img.CaptureDate).
			Where(sq.Eq{"id": img.ID}).
			ToSql()
		if err != nil {
			return err
		}

		tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrContentNotFound
		}

		if err := r.touch(ctx, img.ID); err != nil {
			return err
		}

		if err := replaceLinks(ctx, r.db.Conn(ctx), contentTagLinks, img.ID, img.Tags); err != nil {
			return err
		}

		return replaceLinks(ctx, r.db.Conn(ctx), contentPeopleLinks, img.ID, img.People)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *ContentRepo) UpdateText(ctx context.Context, txt *models.TextContent) error {
	const op = "repository.ContentRepo.UpdateText"

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		query, args, err := r.sb.Update("content_text").
			Set("text_body", txt.Text).
			Set("format_type", txt.FormatType).
			Where(sq.Eq{"id": txt.ID}).
			ToSql()
		if err != nil {
			return err
		}

		tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrContentNotFound
		}

		return r.touch(ctx, txt.ID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *ContentRepo) SetTags(ctx context.Context, contentID int64, names []string) error {
	const op = "repository.ContentRepo.SetTags"

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		return replaceLinks(ctx, r.db.Conn(ctx), contentTagLinks, contentID, names)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *ContentRepo) SetPeople(ctx context.Context, contentID int64, names []string) error {
	const op = "repository.ContentRepo.SetPeople"

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		return replaceLinks(ctx, r.db.Conn(ctx), contentPeopleLinks, contentID, names)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IDsReferencingCollection lists the COLLECTION content rows pointing at
// collectionID.
func (r *ContentRepo) IDsReferencingCollection(ctx context.Context, collectionID int64) ([]int64, error) {
	const op = "repository.ContentRepo.IDsReferencingCollection"

	query, args, err := r.sb.Select("id").
		From("content_collection").
		Where(sq.Eq{"referenced_collection_id": collectionID}).
		OrderBy("id").
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

// Delete removes the content row together with its child row, tag and
// people links and every collection association.
func (r *ContentRepo) Delete(ctx context.Context, id int64) error {
	const op = "repository.ContentRepo.Delete"

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		deletes := []sq.DeleteBuilder{
			r.sb.Delete("content_tags").Where(sq.Eq{"content_id": id}),
			r.sb.Delete("content_image_people").Where(sq.Eq{"content_id": id}),
			r.sb.Delete(collectionContentTable).Where(sq.Eq{"content_id": id}),
		}
		for _, table := range contentChildTables {
			deletes = append(deletes, r.sb.Delete(table).Where(sq.Eq{"id": id}))
		}

		for _, d := range deletes {
			query, args, err := d.ToSql()
			if err != nil {
				return err
			}
			if _, err := r.db.Conn(ctx).Exec(ctx, query, args...); err != nil {
				return err
			}
		}

		query, args, err := r.sb.Delete(contentTable).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}

		tag, err := r.db.Conn(ctx).Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrContentNotFound
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *ContentRepo) touch(ctx context.Context, id int64) error {
	query, args, err := r.sb.Update(contentTable).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Conn(ctx).Exec(ctx, query, args...)
	return err
}

func (r *ContentRepo) namesByContent(ctx context.Context, lt linkTable, ids []int64) (map[int64][]string, error) {
	query, args, err := r.sb.Select("l."+lt.ownerCol, "t."+lt.termName).
		From(lt.table + " l").
		Join(fmt.Sprintf("%s t ON t.id = l.%s", lt.termTable, lt.termCol)).
		Where(sq.Eq{"l." + lt.ownerCol: ids}).
		OrderBy("t." + lt.termName).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[int64][]string)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = append(names[id], name)
	}

	return names, rows.Err()
}
