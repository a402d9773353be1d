package dicom

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// minWindowWidth is the width below which a slice is treated as carrying no
// windowing information.
const minWindowWidth = 1e-5

// Windowing is the series-level display window plus the pixel value bounds
// observed across every slice.
type Windowing struct {
	Center   float64
	Width    float64
	MinPixel int
	MaxPixel int
	// Contributors is the number of slices whose width took part in the
	// average.
	Contributors int
}

// Unknown reports that no slice carried a usable window, in which case the
// caller derives one from pixel extrema.
func (w Windowing) Unknown() bool {
	return w.Contributors == 0
}

// FromPixelRange returns w with center and width replaced by the window
// spanning the observed pixel bounds. It is a no-op when the window is
// known.
func (w Windowing) FromPixelRange() Windowing {
	if !w.Unknown() || w.MaxPixel <= w.MinPixel {
		return w
	}
	w.Width = float64(w.MaxPixel - w.MinPixel)
	w.Center = float64(w.MinPixel) + w.Width/2
	return w
}

// parseFirst reads the first value of a possibly multi-valued DS string.
// Unparseable text reads as zero.
func parseFirst(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(FirstValue(raw)), 64)
	if err != nil {
		return 0
	}
	return v
}

// ResolveWindowing averages window center and width over the slices that
// carry a non-negligible width and tracks the smallest and largest pixel
// values of the whole series.
func ResolveWindowing(records []FileRecord) Windowing {
	w := Windowing{MinPixel: math.MaxUint16, MaxPixel: 0}

	var centers, widths []float64
	for _, r := range records {
		if r.SmallestPixelValue < w.MinPixel {
			w.MinPixel = r.SmallestPixelValue
		}
		if r.LargestPixelValue > w.MaxPixel {
			w.MaxPixel = r.LargestPixelValue
		}

		width := parseFirst(r.WindowWidth)
		if math.Abs(width) > minWindowWidth {
			centers = append(centers, parseFirst(r.WindowCenter))
			widths = append(widths, width)
		}
	}

	w.Contributors = len(widths)
	if w.Contributors > 0 {
		w.Center = stat.Mean(centers, nil)
		w.Width = stat.Mean(widths, nil)
	}

	if w.MaxPixel == 0 {
		w.MaxPixel = int(w.Center * 2)
	}
	return w
}
