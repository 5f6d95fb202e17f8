package frame

import (
	"fmt"
	"image"
	"math"
	"sort"
)

const (
	attrGridSize   = 100
	lensGridSize   = 50
	frameLumaLow   = 10
	frameLumaHigh  = 100
	lensLumaLow    = 30
	lensLumaHigh   = 200
	minFramePixels = 10
	minLensPixels  = 5

	silverBrightness = 150
	silverChromaStd  = 20
	goldBrightnessSD = 30
	metalChannelStd  = 25
	metalBrightSD    = 40

	metalnessSilver  = 0.7
	metalnessMetal   = 0.5
	metalnessPlastic = 0.1

	defaultLensColor  = "#3b82f6"
	defaultFrameColor = "#1a1a1a"
	defaultTint       = 0.5
)

// MaterialPlastic and MaterialMetal are the two frame material classes the
// renderer understands.
const (
	MaterialPlastic = "plastic"
	MaterialMetal   = "metal"
)

// ColorProfile parameterizes the downstream renderer. JSON field names match
// the wire format the renderer consumes.
type ColorProfile struct {
	LensColor      string  `json:"lensColor"`
	FrameColor     string  `json:"frameColor"`
	TintOpacity    float64 `json:"tintOpacity"`
	FrameScale     float64 `json:"frameScale"`
	FrameMaterial  string  `json:"frameMaterial"`
	FrameMetalness float64 `json:"frameMetalness"`
}

// DefaultColorProfile is used when no attributes can be extracted.
func DefaultColorProfile() ColorProfile {
	return ColorProfile{
		LensColor:      defaultLensColor,
		FrameColor:     defaultFrameColor,
		TintOpacity:    defaultTint,
		FrameScale:     1.0,
		FrameMaterial:  MaterialPlastic,
		FrameMetalness: metalnessPlastic,
	}
}

type pixel [3]float64

func (p pixel) brightness() float64 { return (p[0] + p[1] + p[2]) / 3 }

// ExtractAttributes derives lens color, frame color, tint opacity and frame
// material from raw pixel color statistics across all input images. It is
// independent of the embedding model and never fails; images that contribute
// too few qualifying pixels are skipped.
func ExtractAttributes(images []image.Image) ColorProfile {
	var framePixels, lensPixels []pixel

	for _, img := range images {
		if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
			continue
		}

		// Frame pixels: darker pixels across the whole (downscaled) image.
		dark := collectPixels(Resize(img, attrGridSize, attrGridSize), frameLumaLow, frameLumaHigh)
		if len(dark) > minFramePixels {
			framePixels = append(framePixels, dark...)
		}

		// Lens pixels: mid-brightness pixels from the central crop.
		tint := collectPixels(Resize(CenterCrop(img), lensGridSize, lensGridSize), lensLumaLow, lensLumaHigh)
		if len(tint) > minLensPixels {
			lensPixels = append(lensPixels, tint...)
		}
	}

	profile := DefaultColorProfile()

	if len(framePixels) > 0 {
		m := medianColor(framePixels)
		profile.FrameColor = hexColor(m[0], m[1], m[2])
	}

	profile.FrameMaterial, profile.FrameMetalness = classifyMaterial(framePixels)

	if len(lensPixels) > 0 {
		m := meanColor(lensPixels)
		r, g, b := int(m[0]), int(m[1]), int(m[2])
		profile.LensColor = hexColor(float64(r), float64(g), float64(b))
		s := rgbSaturation(float64(r)/255, float64(g)/255, float64(b)/255)
		profile.TintOpacity = math.Round(clamp(s*0.5+0.3, 0.25, 0.85)*100) / 100
	}

	return profile
}

// classifyMaterial decides plastic vs metal over the union of all collected
// frame pixels. Metal shows low per-channel color variance but high
// brightness variance; silver additionally reads bright and desaturated, gold
// reads warm with strong brightness spread.
func classifyMaterial(framePixels []pixel) (string, float64) {
	if len(framePixels) <= minFramePixels {
		return MaterialPlastic, metalnessPlastic
	}

	var avgChannelStd float64
	for c := 0; c < 3; c++ {
		avgChannelStd += channelStd(framePixels, c)
	}
	avgChannelStd /= 3

	brightness := make([]float64, len(framePixels))
	for i, p := range framePixels {
		brightness[i] = p.brightness()
	}
	brightnessStd := std(brightness)
	meanBrightness := mean(brightness)

	avg := meanColor(framePixels)
	r, g, b := avg[0], avg[1], avg[2]

	isSilver := meanBrightness > silverBrightness && std([]float64{r, g, b}) < silverChromaStd
	isGold := r > g && g > b && brightnessStd > goldBrightnessSD

	if isSilver {
		return MaterialMetal, metalnessSilver
	}
	if isGold || (avgChannelStd < metalChannelStd && brightnessStd > metalBrightSD) {
		return MaterialMetal, metalnessMetal
	}
	return MaterialPlastic, metalnessPlastic
}

// collectPixels gathers the pixels of an image whose channel-mean brightness
// falls strictly within (low, high).
func collectPixels(img *image.RGBA, low, high float64) []pixel {
	bounds := img.Bounds()
	var out []pixel
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			p := pixel{float64(c.R), float64(c.G), float64(c.B)}
			if b := p.brightness(); b > low && b < high {
				out = append(out, p)
			}
		}
	}
	return out
}

// medianColor computes the per-channel median across the pixel set.
func medianColor(pixels []pixel) pixel {
	var m pixel
	values := make([]float64, len(pixels))
	for c := 0; c < 3; c++ {
		for i, p := range pixels {
			values[i] = p[c]
		}
		sort.Float64s(values)
		n := len(values)
		if n%2 == 0 {
			m[c] = (values[n/2-1] + values[n/2]) / 2
		} else {
			m[c] = values[n/2]
		}
	}
	return m
}

// meanColor computes the per-channel mean across the pixel set.
func meanColor(pixels []pixel) pixel {
	var m pixel
	for _, p := range pixels {
		for c := 0; c < 3; c++ {
			m[c] += p[c]
		}
	}
	for c := 0; c < 3; c++ {
		m[c] /= float64(len(pixels))
	}
	return m
}

// channelStd computes the population standard deviation of one channel.
func channelStd(pixels []pixel, c int) float64 {
	values := make([]float64, len(pixels))
	for i, p := range pixels {
		values[i] = p[c]
	}
	return std(values)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func std(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// rgbSaturation returns the HSV saturation of an RGB color in [0, 1].
func rgbSaturation(r, g, b float64) float64 {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	if maxC == 0 {
		return 0
	}
	return (maxC - minC) / maxC
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func hexColor(r, g, b float64) string {
	return fmt.Sprintf("#%02x%02x%02x", int(r), int(g), int(b))
}
