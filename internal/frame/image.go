package frame

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadImage reads and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // paths come from CLI arguments
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// Resize scales an image to the specified dimensions.
func Resize(img image.Image, width, height int) *image.RGBA {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		if rgba, ok := img.(*image.RGBA); ok {
			return rgba
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// CenterCrop extracts the middle 50% of the image along both axes.
func CenterCrop(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	crop := image.Rect(0, 0, w/2, h/2)
	dst := image.NewRGBA(crop)
	src := bounds.Min.Add(image.Pt(w/4, h/4))
	draw.Draw(dst, crop, img, src, draw.Src)
	return dst
}

// Grayscale converts an image to a row-major grid of luma values (0-255)
// using the ITU-R BT.601 formula.
func Grayscale(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray[y][x] = luma
		}
	}

	return gray
}

// channelMeans converts an image to a row-major grid of per-pixel channel
// averages, i.e. (r+g+b)/3 brightness rather than perceptual luma.
func channelMeans(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	means := make([][]float64, height)
	for y := 0; y < height; y++ {
		means[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			means[y][x] = (float64(r>>8) + float64(g>>8) + float64(b>>8)) / 3
		}
	}

	return means
}
