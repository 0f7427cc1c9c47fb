// Package trail draws gesture trails to PNG with OpenCV.
package trail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/surfshell/internal/gesture"
)

// Padding is the margin kept around a path when the canvas is sized to fit.
const Padding = 16

// MaxSize bounds both canvas dimensions.
const MaxSize = 4096

// ErrEmptyPath is returned when there is nothing to draw.
var ErrEmptyPath = errors.New("empty gesture path")

// Style controls how a trail is drawn.
type Style struct {
	Color      color.RGBA
	Thickness  int
	Background color.RGBA
}

// DefaultStyle is a translucent blue 4px line on a transparent canvas.
func DefaultStyle() Style {
	return Style{
		Color:     color.RGBA{R: 0, G: 120, B: 215, A: 150},
		Thickness: 4,
	}
}

// Options sets the canvas. A zero Width or Height fits the canvas to the path.
type Options struct {
	Width  int
	Height int
	Style  Style
}

// Render draws path as a polyline and returns the PNG encoding.
func Render(path []gesture.Point, opts Options) ([]byte, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	if opts.Style.Thickness <= 0 {
		opts.Style = DefaultStyle()
	}

	pts := make([]image.Point, len(path))
	maxX, maxY := 0, 0
	for i, p := range path {
		pts[i] = image.Point{X: coord(p.X), Y: coord(p.Y)}
		maxX = max(maxX, pts[i].X)
		maxY = max(maxY, pts[i].Y)
	}

	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = maxX+Padding, maxY+Padding
	}
	w, h = min(w, MaxSize), min(h, MaxSize)

	bg := opts.Style.Background
	canvas := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(bg.B), float64(bg.G), float64(bg.R), float64(bg.A)),
		h, w, gocv.MatTypeCV8UC4,
	)
	defer canvas.Close()

	if len(pts) == 1 {
		gocv.Circle(&canvas, pts[0], opts.Style.Thickness, opts.Style.Color, -1)
	} else {
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
		defer pv.Close()
		gocv.Polylines(&canvas, pv, false, opts.Style.Color, opts.Style.Thickness)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trail: %w", err)
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

// coord rounds v to a pixel, keeping it within one canvas of the origin.
func coord(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(-MaxSize, math.Min(v, MaxSize))))
}

// Recorder keeps the visible trail and the last completed gesture.
type Recorder struct {
	mu   sync.Mutex
	live []gesture.Point
	last []gesture.Point
	dir  gesture.Direction
}

// Attach subscribes the recorder to r.
func (rec *Recorder) Attach(r *gesture.Recognizer) {
	r.OnTrail(rec.Trail)
	r.OnResult(rec.Result)
}

// Trail records the visible trail.
func (rec *Recorder) Trail(path []gesture.Point) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.live = path
}

// Result records a completed gesture.
func (rec *Recorder) Result(dir gesture.Direction, path []gesture.Point) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.dir = dir
	rec.last = path
}

// Live returns the trail currently on screen.
func (rec *Recorder) Live() []gesture.Point {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]gesture.Point(nil), rec.live...)
}

// Last returns the most recently completed gesture.
func (rec *Recorder) Last() (gesture.Direction, []gesture.Point) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.dir, append([]gesture.Point(nil), rec.last...)
}

// Snapshot returns the live trail, or the last gesture once it has faded.
func (rec *Recorder) Snapshot() []gesture.Point {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.live) > 0 {
		return append([]gesture.Point(nil), rec.live...)
	}
	return append([]gesture.Point(nil), rec.last...)
}
