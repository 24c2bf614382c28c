package dealias

import "errors"

// Sentinel errors returned by engine entry points. Callers should use
// errors.Is against these rather than matching error strings.
var (
	// ErrShapeMismatch is returned when velocities and mask have different
	// dimensions.
	ErrShapeMismatch = errors.New("dealias: velocities and mask shape mismatch")

	// ErrNonMonotonicLimits is returned when interval limits are not
	// strictly increasing.
	ErrNonMonotonicLimits = errors.New("dealias: interval limits must be strictly increasing")

	// ErrTooFewLimits is returned when fewer than two interval limits are
	// supplied (at least one bin is required).
	ErrTooFewLimits = errors.New("dealias: at least two interval limits are required")

	// ErrNegativeGapBound is returned when a gap-jump bound is negative.
	ErrNegativeGapBound = errors.New("dealias: gap bounds must be non-negative")

	// ErrNoRays is returned when a sweep has zero rays or zero gates.
	ErrNoRays = errors.New("dealias: sweep has no rays or no gates")
)
