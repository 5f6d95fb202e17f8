package frame

import (
	"image"
	"image/color"
	"testing"
)

func TestSuppressBackgroundWhitensFlatBright(t *testing.T) {
	// Bright uniform background with a dark subject block in the middle.
	img := newImage(100, 100, color.RGBA{230, 230, 230, 255})
	fillRect(img, image.Rect(40, 40, 61, 61), dark)

	out := SuppressBackground(img)

	rgba, ok := out.(*image.RGBA)
	if !ok {
		t.Fatalf("SuppressBackground returned %T; want *image.RGBA", out)
	}

	if c := rgba.RGBAAt(2, 2); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("far background pixel = %v; want white", c)
	}
	if c := rgba.RGBAAt(50, 50); c.R != 30 || c.G != 30 || c.B != 30 {
		t.Errorf("subject pixel = %v; want unchanged dark", c)
	}
}

func TestSuppressBackgroundKeepsDarkRegions(t *testing.T) {
	// A fully dark image is all subject; nothing gets painted over.
	img := newImage(50, 50, dark)

	out := SuppressBackground(img)
	rgba := out.(*image.RGBA)

	for _, pt := range []image.Point{{0, 0}, {25, 25}, {49, 49}} {
		if c := rgba.RGBAAt(pt.X, pt.Y); c.R != 30 {
			t.Errorf("dark pixel at %v = %v; want unchanged", pt, c)
		}
	}
}

func TestSuppressBackgroundDilatesAroundSubject(t *testing.T) {
	img := newImage(100, 100, color.RGBA{230, 230, 230, 255})
	fillRect(img, image.Rect(40, 40, 61, 61), dark)

	rgba := SuppressBackground(img).(*image.RGBA)

	// Pixels just outside the subject survive via mask dilation.
	if c := rgba.RGBAAt(38, 50); c.R != 230 {
		t.Errorf("dilated border pixel = %v; want original background value", c)
	}
}

func TestSuppressBackgroundUsesChannelMeanBrightness(t *testing.T) {
	// Blue-tinted background: channel mean (180+180+255)/3 = 205 is above the
	// darkness threshold, so a flat region of it gets whitened even though its
	// perceptual luma (~188) would fall below 200.
	img := newImage(100, 100, color.RGBA{180, 180, 255, 255})
	fillRect(img, image.Rect(40, 40, 61, 61), dark)

	rgba := SuppressBackground(img).(*image.RGBA)

	if c := rgba.RGBAAt(2, 2); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("flat blue-tinted background pixel = %v; want white", c)
	}
	if c := rgba.RGBAAt(50, 50); c.R != 30 {
		t.Errorf("subject pixel = %v; want unchanged dark", c)
	}
}

func TestSuppressBackgroundPreservesBounds(t *testing.T) {
	img := newImage(37, 53, white)
	out := SuppressBackground(img)
	if out.Bounds().Dx() != 37 || out.Bounds().Dy() != 53 {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
}

func TestSuppressBackgroundEmptyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if out := SuppressBackground(img); out == nil {
		t.Error("empty image must pass through, got nil")
	}
}
