package imaging

import (
	"bytes"
	"math"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/intermodalis/transitcore/coreerrors"
)

// Exif is the subset of tags the picture pipeline keeps (spec.md §4.3
// "Exif extraction").
type Exif struct {
	Orientation int // 1..8, defaults to 1 (upright) when absent
	Lat, Lon    *float64
	Capture     *time.Time
	CameraModel *string
}

const captureLayout = "2006:01:02 15:04:05"

// ExtractExif reads the tags spec.md §4.3 lists out of data. A missing
// EXIF segment is not an error here — callers that require it (panorama
// upload) check for that themselves.
func ExtractExif(data []byte) (*Exif, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}

	out := &Exif{Orientation: 1}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			out.Orientation = v
		}
	}

	out.Lat, out.Lon = extractCoordinates(x)

	if t := extractCaptureTag(x, exif.DateTimeOriginal); t != nil {
		out.Capture = t
	} else {
		out.Capture = extractCaptureTag(x, exif.DateTimeDigitized)
	}

	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil && s != "" {
			out.CameraModel = &s
		}
	}

	return out, nil
}

// extractCaptureTag parses field as a YYYY:MM:DD HH:MM:SS timestamp
// (spec.md §4.3); DateTimeOriginal is tried first, DateTimeDigitized as
// the fallback.
func extractCaptureTag(x *exif.Exif, field exif.FieldName) *time.Time {
	tag, err := x.Get(field)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	t, err := time.Parse(captureLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// extractCoordinates converts GPSLatitude/GPSLongitude {deg,min,sec}
// rationals to decimal degrees. Longitude is always negated regardless of
// GPSLongitudeRef: the source this behavior is ported from has never been
// observed to honor the ref tag, so the negation is preserved verbatim
// rather than "corrected" (spec.md §9). NaN results are discarded.
func extractCoordinates(x *exif.Exif) (lat, lon *float64) {
	latVal, ok := dmsToDecimal(x, exif.GPSLatitude)
	if !ok || math.IsNaN(latVal) {
		return nil, nil
	}
	lonVal, ok := dmsToDecimal(x, exif.GPSLongitude)
	if !ok || math.IsNaN(lonVal) {
		return nil, nil
	}
	lonVal = -lonVal
	return &latVal, &lonVal
}

func dmsToDecimal(x *exif.Exif, field exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	deg, err := ratAt(tag, 0)
	if err != nil {
		return 0, false
	}
	min, err := ratAt(tag, 1)
	if err != nil {
		return 0, false
	}
	sec, err := ratAt(tag, 2)
	if err != nil {
		return 0, false
	}
	return deg + min/60 + sec/3600, true
}

func ratAt(tag *tiff.Tag, idx int) (float64, error) {
	num, den, err := tag.Rat2(idx)
	if err != nil {
		return 0, coreerrors.Processing.Wrap(err)
	}
	if den == 0 {
		return 0, coreerrors.Processing.New("zero-denominator EXIF rational")
	}
	return float64(num) / float64(den), nil
}
