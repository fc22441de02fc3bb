package model

import "time"

// Address is a Stop's optional street address (spec.md §3).
type Address struct {
	Locality *string
	Street   *string
	Door     *string
}

// Stop is the canonical transit stop entity (spec.md §3). Lat/Lon are
// either both present or both absent; that invariant is enforced by
// validation (contrib package), not by the type itself, since a patch must
// be able to represent "unchanged" independently of "absent" for each field.
type Stop struct {
	ID int64

	NameCanonical *string
	NameShort     *string

	Address   *Address
	ParishID  *int64

	Lat *float64
	Lon *float64

	Notes string
	Tags  []string

	A11y A11y

	// Flags and Schedules are the "service" fields deverify (spec.md §4.1)
	// downgrades the Service duet for.
	Flags     []string
	Schedules []ScheduleRef

	Verification Verification

	ServiceCheckDate        *time.Time
	InfrastructureCheckDate *time.Time
}

// ScheduleRef references an externally-maintained schedule/calendar entry
// attached to a stop (e.g. a seasonal notice); the calendar system itself is
// out of scope (spec.md §1), only its reference survives on the Stop.
type ScheduleRef struct {
	CalendarID int64
	Note       string
}

// Clone returns a deep-enough copy of the stop for safe mutation by
// patch.Apply without aliasing slices/pointers back into the original.
func (s Stop) Clone() Stop {
	c := s
	if s.NameCanonical != nil {
		v := *s.NameCanonical
		c.NameCanonical = &v
	}
	if s.NameShort != nil {
		v := *s.NameShort
		c.NameShort = &v
	}
	if s.Address != nil {
		a := *s.Address
		c.Address = &a
	}
	if s.ParishID != nil {
		v := *s.ParishID
		c.ParishID = &v
	}
	if s.Lat != nil {
		v := *s.Lat
		c.Lat = &v
	}
	if s.Lon != nil {
		v := *s.Lon
		c.Lon = &v
	}
	if s.Tags != nil {
		c.Tags = append([]string(nil), s.Tags...)
	}
	if s.Flags != nil {
		c.Flags = append([]string(nil), s.Flags...)
	}
	if s.Schedules != nil {
		c.Schedules = append([]ScheduleRef(nil), s.Schedules...)
	}
	if s.ServiceCheckDate != nil {
		v := *s.ServiceCheckDate
		c.ServiceCheckDate = &v
	}
	if s.InfrastructureCheckDate != nil {
		v := *s.InfrastructureCheckDate
		c.InfrastructureCheckDate = &v
	}
	return c
}
