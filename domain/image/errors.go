package image

import "errors"

// Domain errors for reading and compacting images.
var (
	// ErrPathResolution indicates the image path argument is missing or malformed.
	ErrPathResolution = errors.New("invalid image path")

	// ErrFileNotFound indicates the image file does not exist.
	ErrFileNotFound = errors.New("image file not found")

	// ErrIO indicates the image file could not be read.
	ErrIO = errors.New("image file could not be read")

	// ErrInputTooLarge indicates the image file exceeds the input size limit.
	ErrInputTooLarge = errors.New("image file too large")

	// ErrDecode indicates the bytes are not a supported image.
	ErrDecode = errors.New("failed to decode image")

	// ErrEncode indicates the codec failed while resizing or re-encoding.
	ErrEncode = errors.New("failed to encode image")

	// ErrInvalidConfig indicates a compaction configuration is unusable.
	ErrInvalidConfig = errors.New("invalid compaction config")
)
