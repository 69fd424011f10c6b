package cache

import "github.com/mdimitrov/garagesync/internal/model"

// Derived-view roots. Views aggregate or filter raw resources and are cached
// under their own keys, so a raw-resource write must stale them explicitly.
const (
	ViewAvailableSlots  = "available-slots"
	ViewMyBookings      = "my-bookings"
	ViewBookingsByState = "bookings-count-by-status"
	ViewPendingOffers   = "pending-offers"
	ViewAdminOffers     = "admin-offers"
)

// dependents maps a resource kind to every key prefix a write to that kind
// makes stale. The table is static; both local writes and remote change
// events consult it through InvalidateDependents.
var dependents = map[model.Kind][]Key{
	model.KindClients:  {NewKey(model.KindClients)},
	model.KindVehicles: {NewKey(model.KindVehicles)},
	model.KindRepairs:  {NewKey(model.KindRepairs)},
	model.KindParts:    {NewKey(model.KindParts)},
	model.KindServices: {NewKey(model.KindServices)},
	model.KindBookings: {
		NewKey(model.KindBookings),
		NewView(ViewMyBookings),
		NewView(ViewAvailableSlots),
		NewView(ViewBookingsByState),
	},
	model.KindOffers: {
		NewKey(model.KindOffers),
		NewView(ViewAdminOffers),
		NewView(ViewPendingOffers),
	},
}

// Dependents returns the key prefixes staled by a write to kind.
func Dependents(kind model.Kind) []Key {
	return dependents[kind]
}

// InvalidateDependents stales every prefix a write to kind affects.
func (s *Store) InvalidateDependents(kind model.Kind) {
	for _, p := range dependents[kind] {
		s.Invalidate(p)
	}
}
