package reliefmesh

import "github.com/pkg/errors"

// Builders check their inputs against these before emitting any triangle.
// Returned errors wrap one of them with the offending parameter, so use
// errors.Is to classify.
var (
	// ErrInvalidDimension reports a grid or image dimension that is too
	// small for the coordinate mapping (usually < 2).
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrEmptyInput reports that clustering or sampling found no eligible
	// points.
	ErrEmptyInput = errors.New("empty input")

	// ErrDegenerateGeometry reports a tessellation with no rings or too few
	// segments.
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrSizeMismatch reports mask and height grids of different sizes.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrInvalidOption reports a numeric option outside its valid range.
	ErrInvalidOption = errors.New("invalid option")
)

func positive(name string, v float64) error {
	if !(v > 0) {
		return errors.Wrapf(ErrInvalidOption, "%s must be > 0, got %v", name, v)
	}
	return nil
}

func nonNegative(name string, v float64) error {
	if !(v >= 0) {
		return errors.Wrapf(ErrInvalidOption, "%s must be >= 0, got %v", name, v)
	}
	return nil
}

func gridDimension(name string, v int) error {
	if v < 2 {
		return errors.Wrapf(ErrInvalidDimension, "%s must be >= 2, got %d", name, v)
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
