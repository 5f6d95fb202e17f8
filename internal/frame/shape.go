package frame

import (
	"image"
	"math"
)

const (
	shapeGridSize     = 100
	edgeThreshold     = 30
	darkPixelLuma     = 100
	defaultAspect     = 1.5
	rectAspectFloor   = 1.6
	roundAspectCeil   = 1.4
	rectEdgeDominance = 0.8
)

// Profile describes the geometry of an eyewear frame derived from edge and
// bounding-box statistics of a single image.
type Profile struct {
	AspectRatio     float64 `json:"aspect_ratio"`
	Rectangular     bool    `json:"is_rectangular"`
	Round           bool    `json:"is_round"`
	HorizontalScore int     `json:"horizontal_score"`
	VerticalScore   int     `json:"vertical_score"`
}

// DefaultProfile is returned when shape analysis cannot produce a usable
// result. Neither classification triggers any score boosting downstream.
func DefaultProfile() Profile {
	return Profile{AspectRatio: defaultAspect}
}

// Analyze derives a shape profile from a single image. It never fails:
// degenerate input yields the default profile.
func Analyze(img image.Image) Profile {
	if img == nil {
		return DefaultProfile()
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return DefaultProfile()
	}

	gray := Grayscale(Resize(img, shapeGridSize, shapeGridSize))
	h := len(gray)
	w := len(gray[0])

	// Horizontal gradient: absolute difference of adjacent columns.
	// Vertical gradient: absolute difference of adjacent rows.
	gx := make([][]bool, h)
	for y := 0; y < h; y++ {
		gx[y] = make([]bool, w-1)
		for x := 0; x < w-1; x++ {
			gx[y][x] = math.Abs(gray[y][x+1]-gray[y][x]) > edgeThreshold
		}
	}
	gy := make([][]bool, h-1)
	for y := 0; y < h-1; y++ {
		gy[y] = make([]bool, w)
		for x := 0; x < w; x++ {
			gy[y][x] = math.Abs(gray[y+1][x]-gray[y][x]) > edgeThreshold
		}
	}

	// Rectangular frames concentrate horizontal edges in the top and bottom
	// thirds; round frames spread them more evenly.
	horizontal := countEdges(gy, 0, h/3, 0, w) + countEdges(gy, 2*h/3, len(gy), 0, w)
	vertical := countEdges(gx, 0, h, 0, w/3) + countEdges(gx, 0, h, 2*w/3, w-1)

	aspect := darkBoxAspect(gray)

	return Profile{
		AspectRatio:     aspect,
		Rectangular:     aspect > rectAspectFloor && float64(horizontal) > float64(vertical)*rectEdgeDominance,
		Round:           aspect < roundAspectCeil,
		HorizontalScore: horizontal,
		VerticalScore:   vertical,
	}
}

// countEdges counts set cells in mask within the half-open row/column ranges,
// clipped to the mask dimensions.
func countEdges(mask [][]bool, y0, y1, x0, x1 int) int {
	count := 0
	for y := y0; y < y1 && y < len(mask); y++ {
		row := mask[y]
		for x := x0; x < x1 && x < len(row); x++ {
			if row[x] {
				count++
			}
		}
	}
	return count
}

// darkBoxAspect computes the width/height aspect ratio of the bounding box of
// dark (frame) pixels, rounded to two decimals. Images without dark pixels
// yield the default aspect.
func darkBoxAspect(gray [][]float64) float64 {
	rmin, rmax, cmin, cmax := -1, -1, -1, -1
	for y := range gray {
		for x := range gray[y] {
			if gray[y][x] < darkPixelLuma {
				if rmin == -1 || y < rmin {
					rmin = y
				}
				if y > rmax {
					rmax = y
				}
				if cmin == -1 || x < cmin {
					cmin = x
				}
				if x > cmax {
					cmax = x
				}
			}
		}
	}
	if rmin == -1 {
		return defaultAspect
	}

	width := cmax - cmin
	height := rmax - rmin
	aspect := float64(width) / math.Max(float64(height), 1)
	return math.Round(aspect*100) / 100
}
