package postgres

import "github.com/mdimitrov/garagesync/internal/repository"

// Compile-time checks that every repo satisfies its interface.
var (
	_ repository.BookingRepository = (*BookingRepo)(nil)
	_ repository.OfferRepository   = (*OfferRepo)(nil)
	_ repository.ClientRepository  = (*ClientRepo)(nil)
	_ repository.VehicleRepository = (*VehicleRepo)(nil)
	_ repository.RepairRepository  = (*RepairRepo)(nil)
	_ repository.PartRepository    = (*PartRepo)(nil)
	_ repository.ServiceRepository = (*ServiceRepo)(nil)
	_ repository.UserRepository    = (*UserRepo)(nil)
	_ repository.ProfileRepository = (*ProfileRepo)(nil)
	_ repository.OwnerResolver     = (*OwnerRepo)(nil)
)
