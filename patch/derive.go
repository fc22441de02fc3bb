package patch

import (
	"time"

	"github.com/intermodalis/transitcore/model"
)

// DeriveStopPatch builds the patch a producer would submit to move a stop
// from `against` to `desired`, setting only the fields that actually
// differ. Used by contribution producers assembling a StopUpdate from a
// full-form edit, and by the round-trip property test (spec.md §8 property
// 1): DeriveStopPatch(s, s).IsEmpty() is always true.
func DeriveStopPatch(desired, against model.Stop) *StopPatch {
	p := &StopPatch{}

	if !ptrStringEqual(desired.NameCanonical, against.NameCanonical) {
		p.NameCanonical = fieldFromPtr(desired.NameCanonical)
	}
	if !ptrStringEqual(desired.NameShort, against.NameShort) {
		p.NameShort = fieldFromPtr(desired.NameShort)
	}
	if !addressEqual(desired.Address, against.Address) {
		p.Address = fieldFromAddressPtr(desired.Address)
	}
	if !ptrInt64Equal(desired.ParishID, against.ParishID) {
		p.ParishID = fieldFromPtr(desired.ParishID)
	}
	if !ptrFloatEqual(desired.Lat, against.Lat) {
		p.Lat = fieldFromPtr(desired.Lat)
	}
	if !ptrFloatEqual(desired.Lon, against.Lon) {
		p.Lon = fieldFromPtr(desired.Lon)
	}
	if desired.Notes != against.Notes {
		v := desired.Notes
		p.Notes = &v
	}
	if !stringsEqual(desired.Tags, against.Tags) {
		v := append([]string(nil), desired.Tags...)
		p.Tags = &v
	}
	if desired.A11y != against.A11y {
		v := desired.A11y
		p.A11y = &v
	}
	if !stringsEqual(desired.Flags, against.Flags) {
		v := append([]string(nil), desired.Flags...)
		p.Flags = &v
	}
	if !schedulesEqual(desired.Schedules, against.Schedules) {
		v := append([]model.ScheduleRef(nil), desired.Schedules...)
		p.Schedules = &v
	}
	if desired.Verification != against.Verification {
		v := desired.Verification
		p.VerificationLevel = &v
	}
	if !ptrTimeEqual(desired.ServiceCheckDate, against.ServiceCheckDate) {
		p.ServiceCheckDate = fieldFromPtr(desired.ServiceCheckDate)
	}
	if !ptrTimeEqual(desired.InfrastructureCheckDate, against.InfrastructureCheckDate) {
		p.InfrastructureCheckDate = fieldFromPtr(desired.InfrastructureCheckDate)
	}

	return p
}

func fieldFromPtr[T any](v *T) *Field[T] {
	if v == nil {
		return SetNull[T]()
	}
	return SetTo(*v)
}

func fieldFromAddressPtr(v *model.Address) *Field[model.Address] {
	if v == nil {
		return SetNull[model.Address]()
	}
	return SetTo(*v)
}

func ptrStringEqual(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func ptrInt64Equal(a, b *int64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func ptrFloatEqual(a, b *float64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func ptrTimeEqual(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func addressEqual(a, b *model.Address) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return ptrStringEqual(a.Locality, b.Locality) &&
		ptrStringEqual(a.Street, b.Street) &&
		ptrStringEqual(a.Door, b.Door)
}
