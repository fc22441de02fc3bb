package patch

import "github.com/intermodalis/transitcore/model"

// PictureMetaPatch is Patch<PictureMeta> (spec.md §3 StopPicMetaUpdate).
type PictureMetaPatch struct {
	Public    *bool           `json:"public,omitempty"`
	Sensitive *bool           `json:"sensitive,omitempty"`
	Lon       *Field[float64] `json:"lon,omitempty"`
	Lat       *Field[float64] `json:"lat,omitempty"`
	Quality   *Field[int]     `json:"quality,omitempty"`
	Tags      *[]string       `json:"tags,omitempty"`
	Attrs     *[]string       `json:"attrs,omitempty"`
	Notes     *Field[string]  `json:"notes,omitempty"`
}

func (p *PictureMetaPatch) IsEmpty() bool {
	return p.Public == nil && p.Sensitive == nil && p.Lon == nil && p.Lat == nil &&
		p.Quality == nil && p.Tags == nil && p.Attrs == nil && p.Notes == nil
}

func (p *PictureMetaPatch) Apply(m *model.PictureMeta) {
	if p.Public != nil {
		m.Public = *p.Public
	}
	if p.Sensitive != nil {
		m.Sensitive = *p.Sensitive
	}
	if p.Lon != nil {
		m.Lon = fieldToPtr(p.Lon)
	}
	if p.Lat != nil {
		m.Lat = fieldToPtr(p.Lat)
	}
	if p.Quality != nil {
		m.Quality = fieldToPtr(p.Quality)
	}
	if p.Tags != nil {
		m.Tags = *p.Tags
	}
	if p.Attrs != nil {
		m.Attrs = *p.Attrs
	}
	if p.Notes != nil {
		m.Notes = fieldToPtr(p.Notes)
	}
}

func (p *PictureMetaPatch) DropNoops(m model.PictureMeta) {
	if p.Public != nil && *p.Public == m.Public {
		p.Public = nil
	}
	if p.Sensitive != nil && *p.Sensitive == m.Sensitive {
		p.Sensitive = nil
	}
	if p.Lon != nil && FieldEqual(p.Lon, m.Lon) {
		p.Lon = nil
	}
	if p.Lat != nil && FieldEqual(p.Lat, m.Lat) {
		p.Lat = nil
	}
	if p.Quality != nil && FieldEqual(p.Quality, m.Quality) {
		p.Quality = nil
	}
	if p.Tags != nil && stringsEqual(*p.Tags, m.Tags) {
		p.Tags = nil
	}
	if p.Attrs != nil && stringsEqual(*p.Attrs, m.Attrs) {
		p.Attrs = nil
	}
	if p.Notes != nil && FieldEqual(p.Notes, m.Notes) {
		p.Notes = nil
	}
}

func (p *PictureMetaPatch) DropFields(names map[string]struct{}) {
	if _, ok := names["public"]; ok {
		p.Public = nil
	}
	if _, ok := names["sensitive"]; ok {
		p.Sensitive = nil
	}
	if _, ok := names["lon"]; ok {
		p.Lon = nil
	}
	if _, ok := names["lat"]; ok {
		p.Lat = nil
	}
	if _, ok := names["quality"]; ok {
		p.Quality = nil
	}
	if _, ok := names["tags"]; ok {
		p.Tags = nil
	}
	if _, ok := names["attrs"]; ok {
		p.Attrs = nil
	}
	if _, ok := names["notes"]; ok {
		p.Notes = nil
	}
}
