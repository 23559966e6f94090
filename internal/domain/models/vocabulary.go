package models

// Term is a named vocabulary entry: tag, person, camera, lens or location.
type Term struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type FilmType struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"film_type_name"`
	DisplayName string `json:"display_name" db:"display_name"`
	DefaultISO  int    `json:"default_iso" db:"default_iso"`
}

type FilmFormat string

const (
	FilmFormat35mm    FilmFormat = "35MM"
	FilmFormat120     FilmFormat = "120"
	FilmFormatLarge   FilmFormat = "4X5"
	FilmFormatInstant FilmFormat = "INSTANT"
)

func (f FilmFormat) Valid() bool {
	switch f {
	case FilmFormat35mm, FilmFormat120, FilmFormatLarge, FilmFormatInstant:
		return true
	}
	return false
}
