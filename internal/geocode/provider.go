package geocode

import (
	"context"
	"errors"
)

// ErrNoMatch is returned by a Provider when the address resolved to nothing.
// The orchestration layer maps it to a NotFoundError carrying the address.
var ErrNoMatch = errors.New("geocode: no match for address")

// Provider resolves a free-text address to coordinates through an external
// service. Implementations make a single blocking call; retry policy, if any,
// belongs to the implementation.
type Provider interface {
	// Geocode returns the coordinates for address in degrees, or ErrNoMatch
	// if the service found no result.
	Geocode(ctx context.Context, address string) (latitude, longitude float64, err error)
}
