package langid

import "errors"

var (
	ErrInvalidModel  = errors.New("invalid langid model")
	ErrShapeMismatch = errors.New("langid table shape mismatch")
	ErrFeatureRange  = errors.New("langid feature index out of range")
	ErrNonFinite     = errors.New("langid parameter is not finite")
)
