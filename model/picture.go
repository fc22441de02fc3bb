package model

import "time"

// PictureKind distinguishes a regular stop picture from a 360-degree
// panorama (spec.md §3 "Picture (Stop/Pano)").
type PictureKind int

const (
	KindStopPic PictureKind = iota
	KindPano
)

// PictureMeta is the dynamic, moderator-curated metadata block attached to
// a picture (spec.md §3). Quality ranges 0-5 inclusive; nil means unset.
type PictureMeta struct {
	Public    bool
	Sensitive bool
	Lon       *float64
	Lat       *float64
	Quality   *int
	Tags      []string
	Attrs     []string
	Notes     *string
}

// Picture is a Stop or Pano picture (spec.md §3). A picture becomes visible
// to non-uploaders only once Tagged && !Meta.Sensitive && Meta.Public.
type Picture struct {
	ID               int64
	Kind             PictureKind
	OriginalFilename string
	ContentHash      string // sha1, lowercase hex, unique across stop pictures
	UploaderID       int64
	UploadDate       time.Time
	CaptureDate      *time.Time
	CameraModel      *string
	Width, Height    int
	Meta             PictureMeta
	Tagged           bool
	UpdaterID        *int64     // set to the evaluator on StopPicMetaUpdate accept (spec.md §4.2.2)
	UpdateDate       *time.Time
}

// VisibleToPublic reports whether a non-uploader may see this picture.
func (p Picture) VisibleToPublic() bool {
	return p.Tagged && !p.Meta.Sensitive && p.Meta.Public
}

// PictureStopLink is one (picture, stop) relationship; a picture can link
// to zero or more stops, each link carrying its own ordered attribute list
// (spec.md §3).
type PictureStopLink struct {
	PictureID int64
	StopID    int64
	Attrs     []string
}
