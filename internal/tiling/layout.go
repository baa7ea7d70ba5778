package tiling

import (
	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/platform"
)

// Tiles holds one rectangle per view, in view order.
type Tiles [config.NumViews]platform.Rect

// ComputeTiles splits display into a 2x2 grid ordered top-left, top-right,
// bottom-left, bottom-right.
//
// Tile sizes use floor division, so an odd width or height leaves a one pixel
// strip uncovered on the right or bottom edge. A zero-size display yields
// zero-size tiles.
func ComputeTiles(display platform.Display) Tiles {
	origin := display.Bounds
	tileW := origin.Width / 2
	tileH := origin.Height / 2

	return Tiles{
		{X: origin.X, Y: origin.Y, Width: tileW, Height: tileH},
		{X: origin.X + int(tileW), Y: origin.Y, Width: tileW, Height: tileH},
		{X: origin.X, Y: origin.Y + int(tileH), Width: tileW, Height: tileH},
		{X: origin.X + int(tileW), Y: origin.Y + int(tileH), Width: tileW, Height: tileH},
	}
}
