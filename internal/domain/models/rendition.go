package models

const ContentTypeWebP = "image/webp"

// Rendition is one encoded derivative of an uploaded image.
type Rendition struct {
	Width       int
	Height      int
	Data        []byte
	ContentType string
}
