package tracking

import "errors"

var (
	// ErrMalformedFrame is returned when a frame's buffer does not match its dimensions.
	ErrMalformedFrame = errors.New("tracking: malformed frame")

	// ErrMalformedMask is returned when a mask's buffer does not match its dimensions.
	ErrMalformedMask = errors.New("tracking: malformed mask")

	// ErrDimensionMismatch is returned when two buffers of one run differ in size.
	ErrDimensionMismatch = errors.New("tracking: dimension mismatch")

	// ErrInvalidScanDistance is returned when the yaw scan distance is not positive.
	ErrInvalidScanDistance = errors.New("tracking: scan distance must be positive")

	// ErrInvalidKernel is returned for an empty or malformed structuring element.
	ErrInvalidKernel = errors.New("tracking: invalid structuring element")

	// ErrInvalidColorRange is returned when a color range bound is out of its domain.
	ErrInvalidColorRange = errors.New("tracking: invalid color range")
)
