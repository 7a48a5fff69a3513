// Package tiles renders tilemaps with a small family of specialized shader
// variants.
//
// A variant is chosen by three independent features: the shape of the
// tilemap (square or isometric diamond), where tile sizes come from (one size
// for the whole map, or one per tile), and how tiles are shaded (flat color,
// a texture, or one tile of a texture atlas). Each variant is compiled to its
// own pipeline; tiles with different features are drawn in different batches.
//
// Tiles are appended to an [encoding.Encoding] as four vertices each and drawn
// by one of the engines in engine/, which execute a [renderer.Recording].
package tiles

import (
	"log/slog"

	"honnef.co/go/tiles/internal/logging"
)

// SetLogger sets the logger used by all packages of this module. A nil logger
// disables logging, which is the default.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the logger used by all packages of this module.
func Logger() *slog.Logger {
	return logging.Logger()
}
