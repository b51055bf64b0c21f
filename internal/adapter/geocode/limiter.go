package geocode

import (
	"context"
	"fmt"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimitedGeocoder throttles calls to an upstream geocoding API.
type RateLimitedGeocoder struct {
	inner   domain.Geocoder
	limiter *rate.Limiter
}

// NewRateLimitedGeocoder allows rps requests per second with the given burst.
// rps may be fractional.
func NewRateLimitedGeocoder(inner domain.Geocoder, rps float64, burst int) *RateLimitedGeocoder {
	return &RateLimitedGeocoder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedGeocoder) Search(ctx context.Context, text string, limit int) ([]domain.LocationCandidate, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocode rate limit wait: %w", err)
	}
	return r.inner.Search(ctx, text, limit)
}

func (r *RateLimitedGeocoder) ResolveOne(ctx context.Context, text string) (domain.LocationCandidate, bool, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.LocationCandidate{}, false, fmt.Errorf("geocode rate limit wait: %w", err)
	}
	return r.inner.ResolveOne(ctx, text)
}
