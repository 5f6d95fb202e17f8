package frame

import (
	"image"
	"image/color"
	"image/draw"
)

const (
	varianceWindow    = 5
	varianceThreshold = 100
	darkKeepLuma      = 200
	dilateIterations  = 3
)

// SuppressBackground flattens the non-subject background to white before
// embedding. Pixels are kept where the local 5x5 variance is high (edges,
// texture) or the pixel is dark; the keep-mask is dilated so the subject's
// surroundings survive, and everything else is painted white. Brightness here
// is the plain channel mean, not perceptual luma; the variance and darkness
// thresholds are tuned against it.
func SuppressBackground(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return img
	}

	gray := channelMeans(img)

	mask := make([][]bool, h)
	for y := 0; y < h; y++ {
		mask[y] = make([]bool, w)
		for x := 0; x < w; x++ {
			mask[y][x] = localVariance(gray, x, y) > varianceThreshold || gray[y][x] < darkKeepLuma
		}
	}

	for i := 0; i < dilateIterations; i++ {
		mask = dilate(mask)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y][x] {
				dst.SetRGBA(x, y, white)
			}
		}
	}

	return dst
}

// localVariance computes the variance of the grayscale values in the window
// centered on (x, y), clipped at the image borders.
func localVariance(gray [][]float64, x, y int) float64 {
	half := varianceWindow / 2
	var sum, sumSq float64
	n := 0

	for dy := -half; dy <= half; dy++ {
		yy := y + dy
		if yy < 0 || yy >= len(gray) {
			continue
		}
		row := gray[yy]
		for dx := -half; dx <= half; dx++ {
			xx := x + dx
			if xx < 0 || xx >= len(row) {
				continue
			}
			v := row[xx]
			sum += v
			sumSq += v * v
			n++
		}
	}

	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

// dilate grows the mask by one step of 4-connected binary dilation.
func dilate(mask [][]bool) [][]bool {
	h := len(mask)
	w := len(mask[0])
	out := make([][]bool, h)
	for y := 0; y < h; y++ {
		out[y] = make([]bool, w)
		for x := 0; x < w; x++ {
			if mask[y][x] ||
				(y > 0 && mask[y-1][x]) ||
				(y < h-1 && mask[y+1][x]) ||
				(x > 0 && mask[y][x-1]) ||
				(x < w-1 && mask[y][x+1]) {
				out[y][x] = true
			}
		}
	}
	return out
}
