package dto

type CreateTermRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateFilmTypeRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	DisplayName string `json:"display_name" validate:"required,max=255"`
	DefaultISO  int    `json:"default_iso" validate:"omitempty,min=1"`
}
