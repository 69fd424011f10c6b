package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdimitrov/garagesync/internal/model"
)

// A booking write must stale the raw booking lists and every view computed
// from them, while unrelated resources keep their cached values.
func TestInvalidateDependents_BookingWrite(t *testing.T) {
	s := New()
	ctx := context.Background()

	keys := []Key{
		NewKey(model.KindBookings, "2026-09-01"),
		NewView(ViewAvailableSlots, "2026-09-01"),
		NewView(ViewBookingsByState),
		NewView(ViewMyBookings),
		NewView(ViewPendingOffers, "u1"),
		NewKey(model.KindParts),
	}
	loads := make(map[string]int)
	for _, k := range keys {
		k := k
		_, err := s.Read(ctx, k, func(context.Context) (any, error) {
			loads[k.String()]++
			return k.String(), nil
		})
		require.NoError(t, err)
	}

	s.InvalidateDependents(model.KindBookings)

	for _, k := range keys {
		k := k
		_, err := s.Read(ctx, k, func(context.Context) (any, error) {
			loads[k.String()]++
			return k.String(), nil
		})
		require.NoError(t, err)
	}

	for _, k := range keys[:4] {
		require.Equal(t, 2, loads[k.String()], "booking-dependent key %s must reload", k)
	}
	for _, k := range keys[4:] {
		require.Equal(t, 1, loads[k.String()], "unrelated key %s must stay fresh", k)
	}
}

func TestDependents_EveryKindCovered(t *testing.T) {
	for _, kind := range model.Kinds() {
		deps := Dependents(kind)
		require.NotEmpty(t, deps, "kind %s missing from the dependency table", kind)
		require.Equal(t, NewKey(kind), deps[0], "a kind's own prefix comes first")
	}
}
