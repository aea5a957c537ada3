package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/ports"
	"github.com/samirrijal/peakview/internal/core/visibility"
)

// FixedLocation is a LocationSource that always reports the same fix, used
// when the observer position arrives with the request.
type FixedLocation domain.Fix

func (f FixedLocation) Current(ctx context.Context) (domain.Fix, error) {
	return domain.Fix(f), nil
}

// resolveObserver reads the location source once and fills in the ground
// elevation from the terrain when the fix does not carry one.
func resolveObserver(ctx context.Context, source ports.LocationSource, terrain visibility.Terrain, eyeHeight float64) (domain.Observer, error) {
	if source == nil {
		return domain.Observer{}, domain.ErrPermissionDenied
	}
	fix, err := source.Current(ctx)
	if err != nil {
		return domain.Observer{}, fmt.Errorf("read location: %w", err)
	}

	observer := domain.Observer{
		Location:  fix.Location,
		Heading:   fix.Heading,
		EyeHeight: eyeHeight,
	}
	if fix.Elevation != nil {
		observer.Elevation = *fix.Elevation
		return observer, nil
	}

	resolved, err := terrain.Lookup(ctx, []domain.GeoPoint{fix.Location})
	if err != nil {
		return domain.Observer{}, fmt.Errorf("observer elevation: %w", err)
	}
	if len(resolved) != 1 || !resolved[0].Resolved() {
		return domain.Observer{}, &domain.ProviderError{
			Provider:  "elevation",
			Operation: "observer lookup",
			Batch:     -1,
			Err:       fmt.Errorf("no elevation for observer location"),
		}
	}
	observer.Elevation = *resolved[0].Elevation
	return observer, nil
}
