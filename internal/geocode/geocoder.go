// Package geocode resolves postal addresses to coordinates through an
// external provider, with an optional cache in front.
package geocode

import (
	"context"
	"errors"

	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
)

var ErrUnavailable = errors.New("geocoder_unavailable")

// Geocoder resolves an address to a point. Implementations must be safe for
// concurrent use.
type Geocoder interface {
	Geocode(ctx context.Context, addr territorydomain.Address) (territorydomain.Coordinates, error)
}

// Func adapts a plain function to the Geocoder interface.
type Func func(ctx context.Context, addr territorydomain.Address) (territorydomain.Coordinates, error)

func (f Func) Geocode(ctx context.Context, addr territorydomain.Address) (territorydomain.Coordinates, error) {
	return f(ctx, addr)
}
