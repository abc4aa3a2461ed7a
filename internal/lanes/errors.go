package lanes

import "errors"

var (
	// ErrNoPixelsFound reports that a boundary has no pixels to fit because
	// the search came back empty for that side. Per-frame and recoverable:
	// the boundary is not visible this frame.
	ErrNoPixelsFound = errors.New("lanes: no lane pixels found")

	// ErrFitUnavailable reports that a least-squares fit is undefined for the
	// given pixel set (too few or degenerate points). Per-frame and
	// recoverable: callers substitute a fallback model.
	ErrFitUnavailable = errors.New("lanes: polynomial fit unavailable")

	// ErrInvalidConfig reports a configuration rejected before any frame is
	// processed. Fatal at configuration time.
	ErrInvalidConfig = errors.New("lanes: invalid configuration")
)
