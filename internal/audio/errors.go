package audio

import "errors"

var (
	// ErrAccessDenied reports that the host refused to hand over the
	// capture device. Callers surface it inline and keep rendering
	// from whatever other source is bound, there is no retry loop.
	ErrAccessDenied = errors.New("audio: capture access denied")

	// ErrNoInputDevice reports that the host has no usable input
	// device at all.
	ErrNoInputDevice = errors.New("audio: no input device available")

	// ErrUnsupportedFormat reports a playback file that is neither
	// WAV nor MP3.
	ErrUnsupportedFormat = errors.New("audio: unsupported file format")

	// ErrSourceClosed reports use of a source after Close.
	ErrSourceClosed = errors.New("audio: source closed")
)
