package homography

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/quadwarp/internal/solver"
)

var (
	// ErrConfiguration is returned when fewer than 4 correspondences are supplied.
	ErrConfiguration = errors.New("homography: 4 point correspondences required")

	// ErrSingular is returned when the correspondences do not determine a
	// homography (collinear corners, coincident points) or a matrix cannot be
	// inverted. It is the solver's sentinel, so errors.Is matches both.
	ErrSingular = solver.ErrSingular

	// ErrDegenerateMapping is returned when a point maps to infinity: the
	// homogeneous divisor is zero or the result is not finite.
	ErrDegenerateMapping = errors.New("homography: point maps to infinity")
)

// ConfigurationError describes which side of the correspondence set is short.
type ConfigurationError struct {
	Side string // "source" or "destination"
	Got  int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("homography: %s has %d points, need 4", e.Side, e.Got)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
