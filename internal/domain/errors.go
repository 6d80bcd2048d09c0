package domain

import "errors"

var (
	// ErrFetch and ErrDecode never leave the image loader; they are logged and
	// replaced by the placeholder.
	ErrFetch  = errors.New("image fetch failed")
	ErrDecode = errors.New("image decode failed")

	ErrOutOfBounds        = errors.New("piece out of bounds")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyClaimed     = errors.New("piece already claimed")
	ErrInvalidGrid        = errors.New("invalid puzzle grid")
	ErrNotInitialized     = errors.New("puzzle not initialized")
	ErrAlreadyInitialized = errors.New("puzzle already initialized")
	ErrClosed             = errors.New("puzzle store closed")
)
