package vpx

import "errors"

// ErrMissingStream is returned when a table file lacks a stream the format
// requires (Version, GameData). Optional streams are skipped silently.
var ErrMissingStream = errors.New("missing mandatory stream")
