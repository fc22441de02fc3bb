package patch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intermodalis/transitcore/model"
)

func sampleStop() model.Stop {
	name := "Rossio"
	lat, lon := 38.7139, -9.1394
	return model.Stop{
		ID:            1,
		NameCanonical: &name,
		Lat:           &lat,
		Lon:           &lon,
		Notes:         "near the station",
		Tags:          []string{"urban"},
		A11y:          model.A11y{Bench: true},
		Flags:         []string{"wheelchair"},
		Verification: model.Verification{
			Position: model.Verified, Service: model.Verified, Infrastructure: model.Verified,
		},
	}
}

// Property 1: for any Stop s, DeriveStopPatch(s, s).IsEmpty().
func TestDeriveStopPatchRoundTrip(t *testing.T) {
	s := sampleStop()
	p := DeriveStopPatch(s, s)
	require.True(t, p.IsEmpty())
}

// Property 2: drop_noops is idempotent.
func TestDropNoopsFixedPoint(t *testing.T) {
	s := sampleStop()
	newName := "Rossio Station"
	p := &StopPatch{
		NameCanonical: SetTo(newName),
		Notes:         strptr("near the station"), // equals current -> dropped
	}
	p.DropNoops(s)
	first := *p
	p.DropNoops(s)
	require.Equal(t, first, *p)
	require.NotNil(t, p.NameCanonical)
	require.Nil(t, p.Notes)
}

// Property 3: after DropFields(F), no field named in F is outer-Some.
func TestDropFieldsRemoval(t *testing.T) {
	p := &StopPatch{
		NameCanonical: SetTo("New Name"),
		Notes:         strptr("x"),
	}
	p.DropFields(map[string]struct{}{"name_canonical": {}})
	require.Nil(t, p.NameCanonical)
	require.NotNil(t, p.Notes)
}

// Property 4: deverify never raises any verification duet.
func TestDeverifyMonotonicity(t *testing.T) {
	s := sampleStop()
	p := &StopPatch{Flags: &[]string{"wheelchair", "step-free"}}
	result := p.Deverify(s)
	require.Equal(t, model.NotVerified, result.Service)
	require.Equal(t, s.Verification.Position, result.Position)
	require.Equal(t, s.Verification.Infrastructure, result.Infrastructure)
}

// S5 — stop accept deverifies service only.
func TestDeverifyServiceOnlyTouchesServiceDuet(t *testing.T) {
	s := sampleStop()
	p := &StopPatch{Flags: &[]string{"accessible"}}
	p.Deverify(s)
	require.NotNil(t, p.VerificationLevel)
	require.Equal(t, model.NotVerified, p.VerificationLevel.Service)
	require.Equal(t, model.Verified, p.VerificationLevel.Infrastructure)
	require.Equal(t, model.Verified, p.VerificationLevel.Position)
}

func TestDeverifyNoopWhenUnchanged(t *testing.T) {
	s := sampleStop()
	p := &StopPatch{Notes: strptr("different now")}
	p.Deverify(s)
	require.Nil(t, p.VerificationLevel)
}

func TestDeverifyRequestedOverrideTakesPointwiseMinimum(t *testing.T) {
	s := sampleStop()
	requested := model.Verification{Position: model.Wrong, Service: model.Verified, Infrastructure: model.Verified}
	p := &StopPatch{VerificationLevel: &requested}
	result := p.Deverify(s)
	require.Equal(t, model.Wrong, result.Position)
}

func TestApplySetsAndClearsOptionalFields(t *testing.T) {
	s := sampleStop()
	p := &StopPatch{Lat: SetNull[float64]()}
	p.Apply(&s)
	require.Nil(t, s.Lat)
	require.NotNil(t, s.Lon) // unrelated field untouched
}

func TestFieldJSONRoundTrip(t *testing.T) {
	f := SetTo("hello")
	b, err := f.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"hello"`, string(b))

	n := SetNull[string]()
	b, err = n.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "null", string(b))
}

func strptr(s string) *string { return &s }
