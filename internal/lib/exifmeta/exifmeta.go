// Package exifmeta reads capture metadata from uploaded image bytes: EXIF
// camera/exposure fields and the XMP star rating.
package exifmeta

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

type Metadata struct {
	CameraMake   string
	CameraModel  string
	LensModel    string
	FStop        string
	ShutterSpeed string
	FocalLength  string
	ISO          *int
	Width        int
	Height       int
	Artist       string
	CaptureDate  *time.Time
	Rating       int
}

// CameraName joins make and model, skipping the make when the model
// already starts with it ("Canon Canon EOS R5" is reported as "Canon EOS R5").
func (m Metadata) CameraName() string {
	mk, model := strings.TrimSpace(m.CameraMake), strings.TrimSpace(m.CameraModel)
	switch {
	case model == "":
		return mk
	case mk == "" || strings.HasPrefix(strings.ToLower(model), strings.ToLower(mk)):
		return model
	}
	return mk + " " + model
}

// Extract never discards the XMP rating: when EXIF is missing or unreadable
// the returned error says so and the metadata still carries the rating.
func Extract(data []byte) (Metadata, error) {
	m := Metadata{Rating: XMPRating(data)}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return m, fmt.Errorf("exifmeta: decode: %w", err)
	}

	m.CameraMake = stringTag(x, exif.Make)
	m.CameraModel = stringTag(x, exif.Model)
	m.LensModel = stringTag(x, exif.LensModel)
	m.Artist = stringTag(x, exif.Artist)

	if num, den, ok := ratTag(x, exif.FNumber); ok {
		m.FStop = FormatFStop(num, den)
	}
	if num, den, ok := ratTag(x, exif.ExposureTime); ok {
		m.ShutterSpeed = FormatShutterSpeed(num, den)
	}
	if num, den, ok := ratTag(x, exif.FocalLength); ok {
		m.FocalLength = FormatFocalLength(num, den)
	}
	if iso, ok := intTag(x, exif.ISOSpeedRatings); ok && iso > 0 {
		m.ISO = &iso
	}
	if w, ok := intTag(x, exif.PixelXDimension); ok {
		m.Width = w
	}
	if h, ok := intTag(x, exif.PixelYDimension); ok {
		m.Height = h
	}
	if t, err := x.DateTime(); err == nil && !t.IsZero() {
		m.CaptureDate = &t
	}

	return m, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.StringVal {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

func ratTag(x *exif.Exif, name exif.FieldName) (int64, int64, bool) {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.RatVal {
		return 0, 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil {
		return 0, 0, false
	}
	return num, den, true
}

func intTag(x *exif.Exif, name exif.FieldName) (int, bool) {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.IntVal {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatFStop renders an aperture rational as "f/2.8".
func FormatFStop(num, den int64) string {
	if num <= 0 || den <= 0 {
		return ""
	}
	v := math.Round(float64(num)/float64(den)*10) / 10
	return "f/" + strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatShutterSpeed renders an exposure time as "1/250 sec" or "2 sec".
func FormatShutterSpeed(num, den int64) string {
	if num <= 0 || den <= 0 {
		return ""
	}
	if num >= den {
		v := math.Round(float64(num)/float64(den)*10) / 10
		return strconv.FormatFloat(v, 'f', -1, 64) + " sec"
	}
	return fmt.Sprintf("1/%d sec", int64(math.Round(float64(den)/float64(num))))
}

// FormatFocalLength renders a focal length as "50mm".
func FormatFocalLength(num, den int64) string {
	if num <= 0 || den <= 0 {
		return ""
	}
	v := math.Round(float64(num)/float64(den)*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}

var (
	xmpRatingAttr = regexp.MustCompile(`xmp:Rating\s*=\s*["'](-?\d+)["']`)
	xmpRatingElem = regexp.MustCompile(`<xmp:Rating>\s*(-?\d+)\s*</xmp:Rating>`)
)

// XMPRating returns the 0..5 star rating from an embedded XMP packet.
// Rejected (-1) and missing ratings are reported as 0.
func XMPRating(data []byte) int {
	m := xmpRatingAttr.FindSubmatch(data)
	if m == nil {
		m = xmpRatingElem.FindSubmatch(data)
	}
	if m == nil {
		return 0
	}

	r, err := strconv.Atoi(string(m[1]))
	if err != nil || r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}
