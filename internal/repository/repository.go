package repository

import (
	"portfolio/internal/storage/postgresql"
)

// Repository groups the postgres-backed repositories over one pool.
type Repository struct {
	db *postgresql.Storage

	Collection        CollectionRepository
	CollectionContent CollectionContentRepository
	Content           ContentRepository
	Tags              VocabularyRepository
	People            VocabularyRepository
	Cameras           VocabularyRepository
	Lenses            VocabularyRepository
	Locations         VocabularyRepository
	FilmTypes         FilmTypeRepository
}

func NewRepository(db *postgresql.Storage) *Repository {
	return &Repository{
		db:                db,
		Collection:        NewCollectionRepo(db),
		CollectionContent: NewCollectionContentRepo(db),
		Content:           NewContentRepo(db),
		Tags:              NewTagRepo(db),
		People:            NewPersonRepo(db),
		Cameras:           NewCameraRepo(db),
		Lenses:            NewLensRepo(db),
		Locations:         NewLocationRepo(db),
		FilmTypes:         NewFilmTypeRepo(db),
	}
}

// Transactor exposes the storage transaction runner to services.
func (r *Repository) Transactor() Transactor {
	return r.db
}

func (r *Repository) Close() {
	r.db.Stop()
}
