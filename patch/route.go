package patch

import "github.com/intermodalis/transitcore/model"

// RoutePatch is Patch<Route>.
type RoutePatch struct {
	OperatorID *int64  `json:"operator_id,omitempty"`
	Code       *string `json:"code,omitempty"`
	Name       *string `json:"name,omitempty"`
	Circular   *bool   `json:"circular,omitempty"`
}

func (p *RoutePatch) IsEmpty() bool {
	return p.OperatorID == nil && p.Code == nil && p.Name == nil && p.Circular == nil
}

func (p *RoutePatch) Apply(r *model.Route) {
	if p.OperatorID != nil {
		r.OperatorID = *p.OperatorID
	}
	if p.Code != nil {
		r.Code = *p.Code
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Circular != nil {
		r.Circular = *p.Circular
	}
}

func (p *RoutePatch) DropNoops(r model.Route) {
	if p.OperatorID != nil && *p.OperatorID == r.OperatorID {
		p.OperatorID = nil
	}
	if p.Code != nil && *p.Code == r.Code {
		p.Code = nil
	}
	if p.Name != nil && *p.Name == r.Name {
		p.Name = nil
	}
	if p.Circular != nil && *p.Circular == r.Circular {
		p.Circular = nil
	}
}

func (p *RoutePatch) DropFields(names map[string]struct{}) {
	if _, ok := names["operator_id"]; ok {
		p.OperatorID = nil
	}
	if _, ok := names["code"]; ok {
		p.Code = nil
	}
	if _, ok := names["name"]; ok {
		p.Name = nil
	}
	if _, ok := names["circular"]; ok {
		p.Circular = nil
	}
}

// SubroutePatch is Patch<Subroute>.
type SubroutePatch struct {
	Name     *string        `json:"name,omitempty"`
	Flag     *string        `json:"flag,omitempty"`
	Via      *[]int64       `json:"via,omitempty"`
	Headsign *Field[string] `json:"headsign,omitempty"`
}

func (p *SubroutePatch) IsEmpty() bool {
	return p.Name == nil && p.Flag == nil && p.Via == nil && p.Headsign == nil
}

func (p *SubroutePatch) Apply(s *model.Subroute) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Flag != nil {
		s.Flag = *p.Flag
	}
	if p.Via != nil {
		s.Via = *p.Via
	}
	if p.Headsign != nil {
		s.Headsign = fieldToPtr(p.Headsign)
	}
}

func (p *SubroutePatch) DropNoops(s model.Subroute) {
	if p.Name != nil && *p.Name == s.Name {
		p.Name = nil
	}
	if p.Flag != nil && *p.Flag == s.Flag {
		p.Flag = nil
	}
	if p.Via != nil && int64sEqual(*p.Via, s.Via) {
		p.Via = nil
	}
	if p.Headsign != nil && FieldEqual(p.Headsign, s.Headsign) {
		p.Headsign = nil
	}
}

func (p *SubroutePatch) DropFields(names map[string]struct{}) {
	if _, ok := names["name"]; ok {
		p.Name = nil
	}
	if _, ok := names["flag"]; ok {
		p.Flag = nil
	}
	if _, ok := names["via"]; ok {
		p.Via = nil
	}
	if _, ok := names["headsign"]; ok {
		p.Headsign = nil
	}
}

func int64sEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DeparturePatch is Patch<Departure>. Time is checked for negative values
// by the contrib package's validation step and reduced modulo 1440 when the
// change is accepted, not here (spec.md §4.2.2).
type DeparturePatch struct {
	Time       *int   `json:"time,omitempty"`
	CalendarID *int64 `json:"calendar_id,omitempty"`
}

func (p *DeparturePatch) IsEmpty() bool {
	return p.Time == nil && p.CalendarID == nil
}

func (p *DeparturePatch) Apply(d *model.Departure) {
	if p.Time != nil {
		d.Time = *p.Time
	}
	if p.CalendarID != nil {
		d.CalendarID = *p.CalendarID
	}
}

func (p *DeparturePatch) DropNoops(d model.Departure) {
	if p.Time != nil && *p.Time == d.Time {
		p.Time = nil
	}
	if p.CalendarID != nil && *p.CalendarID == d.CalendarID {
		p.CalendarID = nil
	}
}

func (p *DeparturePatch) DropFields(names map[string]struct{}) {
	if _, ok := names["time"]; ok {
		p.Time = nil
	}
	if _, ok := names["calendar_id"]; ok {
		p.CalendarID = nil
	}
}
