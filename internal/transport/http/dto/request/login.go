package request

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type GalleryAccessRequest struct {
	Password string `json:"password" validate:"required"`
}
