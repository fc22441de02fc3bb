package patch

import (
	"time"

	"github.com/intermodalis/transitcore/model"
)

// StopPatch is Patch<Stop> (spec.md §3/§4.1). Field names are the
// canonical snake_case names drop_fields accepts.
type StopPatch struct {
	NameCanonical *Field[string]        `json:"name_canonical,omitempty"`
	NameShort     *Field[string]        `json:"name_short,omitempty"`
	Address       *Field[model.Address] `json:"address,omitempty"`
	ParishID      *Field[int64]         `json:"parish_id,omitempty"`
	Lat           *Field[float64]       `json:"lat,omitempty"`
	Lon           *Field[float64]       `json:"lon,omitempty"`

	Notes *string     `json:"notes,omitempty"`
	Tags  *[]string   `json:"tags,omitempty"`
	A11y  *model.A11y `json:"a11y,omitempty"`

	Flags     *[]string            `json:"flags,omitempty"`
	Schedules *[]model.ScheduleRef `json:"schedules,omitempty"`

	VerificationLevel *model.Verification `json:"verification_level,omitempty"`

	ServiceCheckDate        *Field[time.Time] `json:"service_check_date,omitempty"`
	InfrastructureCheckDate *Field[time.Time] `json:"infrastructure_check_date,omitempty"`
}

// stopFieldNames is the canonical snake_case name set drop_fields matches
// against (spec.md §4.1).
var stopFieldNames = []string{
	"name_canonical", "name_short", "address", "parish_id", "lat", "lon",
	"notes", "tags", "a11y", "flags", "schedules", "verification_level",
	"service_check_date", "infrastructure_check_date",
}

// IsEmpty reports whether every field of p is the outer-None ("unchanged")
// state (spec.md §4.1 op 2).
func (p *StopPatch) IsEmpty() bool {
	return p.NameCanonical == nil && p.NameShort == nil && p.Address == nil &&
		p.ParishID == nil && p.Lat == nil && p.Lon == nil &&
		p.Notes == nil && p.Tags == nil && p.A11y == nil &&
		p.Flags == nil && p.Schedules == nil && p.VerificationLevel == nil &&
		p.ServiceCheckDate == nil && p.InfrastructureCheckDate == nil
}

// Apply overwrites every outer-Some field of stop with the patch's inner
// value (spec.md §4.1 op 1). Pure on the patch; total on a well-formed
// patch.
func (p *StopPatch) Apply(stop *model.Stop) {
	if p.NameCanonical != nil {
		stop.NameCanonical = fieldToPtr(p.NameCanonical)
	}
	if p.NameShort != nil {
		stop.NameShort = fieldToPtr(p.NameShort)
	}
	if p.Address != nil {
		stop.Address = fieldToPtr(p.Address)
	}
	if p.ParishID != nil {
		stop.ParishID = fieldToPtr(p.ParishID)
	}
	if p.Lat != nil {
		stop.Lat = fieldToPtr(p.Lat)
	}
	if p.Lon != nil {
		stop.Lon = fieldToPtr(p.Lon)
	}
	if p.Notes != nil {
		stop.Notes = *p.Notes
	}
	if p.Tags != nil {
		stop.Tags = *p.Tags
	}
	if p.A11y != nil {
		stop.A11y = *p.A11y
	}
	if p.Flags != nil {
		stop.Flags = *p.Flags
	}
	if p.Schedules != nil {
		stop.Schedules = *p.Schedules
	}
	if p.VerificationLevel != nil {
		stop.Verification = *p.VerificationLevel
	}
	if p.ServiceCheckDate != nil {
		stop.ServiceCheckDate = fieldToPtr(p.ServiceCheckDate)
	}
	if p.InfrastructureCheckDate != nil {
		stop.InfrastructureCheckDate = fieldToPtr(p.InfrastructureCheckDate)
	}
}

func fieldToPtr[T any](f *Field[T]) *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}

// DropNoops clears every outer-Some field whose inner value already equals
// stop's current value (spec.md §4.1 op 3). Idempotent.
func (p *StopPatch) DropNoops(stop model.Stop) {
	if p.NameCanonical != nil && FieldEqual(p.NameCanonical, stop.NameCanonical) {
		p.NameCanonical = nil
	}
	if p.NameShort != nil && FieldEqual(p.NameShort, stop.NameShort) {
		p.NameShort = nil
	}
	if p.Address != nil && addressFieldEqual(p.Address, stop.Address) {
		p.Address = nil
	}
	if p.ParishID != nil && FieldEqual(p.ParishID, stop.ParishID) {
		p.ParishID = nil
	}
	if p.Lat != nil && FieldEqual(p.Lat, stop.Lat) {
		p.Lat = nil
	}
	if p.Lon != nil && FieldEqual(p.Lon, stop.Lon) {
		p.Lon = nil
	}
	if p.Notes != nil && *p.Notes == stop.Notes {
		p.Notes = nil
	}
	if p.Tags != nil && stringsEqual(*p.Tags, stop.Tags) {
		p.Tags = nil
	}
	if p.A11y != nil && *p.A11y == stop.A11y {
		p.A11y = nil
	}
	if p.Flags != nil && stringsEqual(*p.Flags, stop.Flags) {
		p.Flags = nil
	}
	if p.Schedules != nil && schedulesEqual(*p.Schedules, stop.Schedules) {
		p.Schedules = nil
	}
	if p.VerificationLevel != nil && *p.VerificationLevel == stop.Verification {
		p.VerificationLevel = nil
	}
	if p.ServiceCheckDate != nil && timeFieldEqual(p.ServiceCheckDate, stop.ServiceCheckDate) {
		p.ServiceCheckDate = nil
	}
	if p.InfrastructureCheckDate != nil && timeFieldEqual(p.InfrastructureCheckDate, stop.InfrastructureCheckDate) {
		p.InfrastructureCheckDate = nil
	}
}

func stringsEqual(a, b []string) bool {
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

func timeFieldEqual(f *Field[time.Time], current *time.Time) bool {
	if f.Null {
		return current == nil
	}
	return current != nil && f.Value.Equal(*current)
}

func addressFieldEqual(f *Field[model.Address], current *model.Address) bool {
	if f.Null {
		return current == nil
	}
	if current == nil {
		return false
	}
	return addressEqual(&f.Value, current)
}

func schedulesEqual(a, b []model.ScheduleRef) bool {
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

// DropFields forces every field named in names to the outer-None state
// (spec.md §4.1 op 4). Idempotent; names are canonical snake_case.
func (p *StopPatch) DropFields(names map[string]struct{}) {
	if _, ok := names["name_canonical"]; ok {
		p.NameCanonical = nil
	}
	if _, ok := names["name_short"]; ok {
		p.NameShort = nil
	}
	if _, ok := names["address"]; ok {
		p.Address = nil
	}
	if _, ok := names["parish_id"]; ok {
		p.ParishID = nil
	}
	if _, ok := names["lat"]; ok {
		p.Lat = nil
	}
	if _, ok := names["lon"]; ok {
		p.Lon = nil
	}
	if _, ok := names["notes"]; ok {
		p.Notes = nil
	}
	if _, ok := names["tags"]; ok {
		p.Tags = nil
	}
	if _, ok := names["a11y"]; ok {
		p.A11y = nil
	}
	if _, ok := names["flags"]; ok {
		p.Flags = nil
	}
	if _, ok := names["schedules"]; ok {
		p.Schedules = nil
	}
	if _, ok := names["verification_level"]; ok {
		p.VerificationLevel = nil
	}
	if _, ok := names["service_check_date"]; ok {
		p.ServiceCheckDate = nil
	}
	if _, ok := names["infrastructure_check_date"]; ok {
		p.InfrastructureCheckDate = nil
	}
}

// StopFieldNames returns the canonical field names DropFields accepts.
func StopFieldNames() []string {
	out := make([]string, len(stopFieldNames))
	copy(out, stopFieldNames)
	return out
}

// Deverify computes the verification downgrade spec.md §4.1 op 5 requires
// and, if the result differs from current.Verification, stores it onto
// p.VerificationLevel so a subsequent Apply picks it up; otherwise clears
// that field to avoid a no-op changelog entry. It returns the computed
// verification either way.
func (p *StopPatch) Deverify(current model.Stop) model.Verification {
	downgraded, _, _ := p.deverifyDowngrade(current)

	result := downgraded
	if p.VerificationLevel != nil {
		result = downgraded.Min(*p.VerificationLevel)
	}

	if result != current.Verification {
		p.VerificationLevel = &result
	} else {
		p.VerificationLevel = nil
	}
	return result
}

// TouchedDuets reports which verification duets this patch's fields would
// downgrade against current (spec.md §4.1 op 5), so a caller that wants to
// re-upgrade exactly the affected duets (e.g. an accept with verify=true,
// per spec.md §4.2.2) knows which ones those are without re-deriving the
// service/infrastructure field classification itself.
func (p *StopPatch) TouchedDuets(current model.Stop) (service, infrastructure bool) {
	_, service, infrastructure = p.deverifyDowngrade(current)
	return service, infrastructure
}

func (p *StopPatch) deverifyDowngrade(current model.Stop) (downgraded model.Verification, serviceTouched, infraTouched bool) {
	downgraded = current.Verification

	serviceTouched = p.Flags != nil || p.Schedules != nil
	if p.A11y != nil && !p.A11y.ServiceEqual(current.A11y) {
		serviceTouched = true
	}
	if serviceTouched {
		downgraded.Service = model.NotVerified
	}

	infraTouched = p.A11y != nil && !p.A11y.InfrastructureEqual(current.A11y)
	if infraTouched {
		downgraded.Infrastructure = model.NotVerified
	}

	return downgraded, serviceTouched, infraTouched
}
