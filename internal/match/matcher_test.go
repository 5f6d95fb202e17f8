package match

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/vitrio/glasses-match/internal/catalog"
	"github.com/vitrio/glasses-match/internal/clip"
	"github.com/vitrio/glasses-match/internal/config"
)

// fakeCapability is a scriptable in-process stand-in for the embedding
// server client.
type fakeCapability struct {
	pingErr    error
	embeddings [][]float32
	embedErr   error
	probs      []float64
	probsQueue [][]float64
	scoreErr   error
}

func (f *fakeCapability) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeCapability) EmbedImages(ctx context.Context, images []image.Image) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(images))
	for i := range images {
		src := f.embeddings[i%len(f.embeddings)]
		out[i] = append([]float32{}, src...)
	}
	return out, nil
}

func (f *fakeCapability) ScoreTexts(ctx context.Context, img image.Image, prompts []string) ([]float64, error) {
	if f.scoreErr != nil {
		return nil, f.scoreErr
	}
	if len(f.probsQueue) > 0 {
		next := f.probsQueue[0]
		f.probsQueue = f.probsQueue[1:]
		return next, nil
	}
	return f.probs, nil
}

// validationProbs builds a prompt probability vector with the given mass on
// the first eyewear prompt and the first non-eyewear prompt.
func validationProbs(eyewear, other float64) []float64 {
	p := make([]float64, len(prompts.Eyewear)+len(prompts.Other))
	p[0] = eyewear
	p[len(prompts.Eyewear)] = other
	return p
}

func whiteImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	fillImage(img, img.Bounds(), color.RGBA{255, 255, 255, 255})
	return img
}

// rectQueryImage draws a wide dark box (aspect 2.0) that the shape analyzer
// classifies as rectangular.
func rectQueryImage() *image.RGBA {
	img := whiteImage()
	fillImage(img, image.Rect(10, 30, 91, 71), color.RGBA{30, 30, 30, 255})
	return img
}

// roundQueryImage draws a square dark box (aspect 1.0) that classifies as
// round.
func roundQueryImage() *image.RGBA {
	img := whiteImage()
	fillImage(img, image.Rect(30, 30, 71, 71), color.RGBA{30, 30, 30, 255})
	return img
}

func fillImage(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Catalog: config.CatalogConfig{
			Dir:       filepath.Join(dir, "reference_images"),
			CachePath: filepath.Join(dir, "reference_embeddings.gob"),
		},
	}
}

func addCatalogFiles(t *testing.T, cfg *config.Config, names ...string) {
	t.Helper()
	if err := os.MkdirAll(cfg.Catalog.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(cfg.Catalog.Dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// saveTestStore persists a two-entry catalog whose raw similarities against a
// (1, 0) query vector are 0.9 and 0.85.
func saveTestStore(t *testing.T, cfg *config.Config) {
	t.Helper()
	store := &catalog.Store{
		Dim:       2,
		Filenames: []string{"classic.png", "wayfarer.png"},
		Embeddings: [][]float32{
			{0.9, float32(math.Sqrt(1 - 0.9*0.9))},
			{0.85, float32(math.Sqrt(1 - 0.85*0.85))},
		},
	}
	if err := store.Save(cfg.Catalog.CachePath); err != nil {
		t.Fatal(err)
	}
}

func TestMatchImagesNoImages(t *testing.T) {
	m := New(testConfig(t), clip.Unavailable{})

	res := m.MatchImages(context.Background(), nil)

	if res.Matched {
		t.Error("empty input must not match")
	}
	if res.Method != MethodValidationRejected {
		t.Errorf("Method = %s; want %s", res.Method, MethodValidationRejected)
	}
	if res.Error != "Could not load any images" {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestMatchImagesDefaultWhenEverythingMissing(t *testing.T) {
	// No capability, no catalog: the pipeline still produces a full record.
	m := New(testConfig(t), clip.Unavailable{})

	res := m.MatchImages(context.Background(), []image.Image{whiteImage()})

	if !res.Matched {
		t.Error("default path must still report a match")
	}
	if res.Method != MethodDefault {
		t.Errorf("Method = %s; want %s", res.Method, MethodDefault)
	}
	if res.BestModel != DefaultModel {
		t.Errorf("BestModel = %s; want %s", res.BestModel, DefaultModel)
	}
	if res.Confidence != 0.5 {
		t.Errorf("Confidence = %v; want 0.5", res.Confidence)
	}
	if res.SourceImage != "none" {
		t.Errorf("SourceImage = %q; want none", res.SourceImage)
	}
}

func TestMatchImagesFallbackToFirstCatalogEntry(t *testing.T) {
	cfg := testConfig(t)
	addCatalogFiles(t, cfg, "b_round.png", "a_classic.jpg")
	m := New(cfg, clip.Unavailable{})

	res := m.MatchImages(context.Background(), []image.Image{whiteImage()})

	if res.Method != MethodFallback {
		t.Errorf("Method = %s; want %s", res.Method, MethodFallback)
	}
	if res.BestModel != "a_classic.glb" {
		t.Errorf("BestModel = %s; want a_classic.glb", res.BestModel)
	}
	if res.SourceImage != "a_classic.jpg" {
		t.Errorf("SourceImage = %s; want a_classic.jpg", res.SourceImage)
	}
	if res.Confidence != 0.6 {
		t.Errorf("Confidence = %v; want 0.6", res.Confidence)
	}
}

func TestMatchImagesValidationRejected(t *testing.T) {
	cfg := testConfig(t)
	addCatalogFiles(t, cfg, "a.jpg")
	cap := &fakeCapability{probs: validationProbs(0.1, 0.7)}
	m := New(cfg, cap)

	res := m.MatchImages(context.Background(), []image.Image{whiteImage()})

	if res.Matched {
		t.Error("rejected input must not match")
	}
	if res.Method != MethodValidationRejected {
		t.Errorf("Method = %s; want %s", res.Method, MethodValidationRejected)
	}
	if res.Error != "Image does not appear to be eyeglasses (confidence: 10.0%)" {
		t.Errorf("Error = %q", res.Error)
	}
	if res.ValidationConfidence == nil || math.Abs(*res.ValidationConfidence-0.1) > 1e-9 {
		t.Errorf("ValidationConfidence = %v; want 0.1", res.ValidationConfidence)
	}
	if res.BestModel != "" {
		t.Errorf("rejected result must not name a model, got %s", res.BestModel)
	}
}

func TestMatchImagesCachedMatch(t *testing.T) {
	cfg := testConfig(t)
	addCatalogFiles(t, cfg, "classic.png", "wayfarer.png")
	saveTestStore(t, cfg)

	cap := &fakeCapability{
		probs:      validationProbs(0.9, 0.05),
		embeddings: [][]float32{{1, 0}},
	}
	m := New(cfg, cap)

	// Rectangular query: the lower-similarity "wayfarer" entry wins on the
	// keyword boost, but confidence reflects its raw score.
	res := m.MatchImages(context.Background(), []image.Image{rectQueryImage()})

	if res.Method != MethodClipCached {
		t.Fatalf("Method = %s; want %s", res.Method, MethodClipCached)
	}
	if !res.Matched {
		t.Error("cached match must report matched")
	}
	if res.BestModel != "wayfarer.glb" {
		t.Errorf("BestModel = %s; want wayfarer.glb", res.BestModel)
	}
	if res.SourceImage != "wayfarer.png" {
		t.Errorf("SourceImage = %s; want wayfarer.png", res.SourceImage)
	}
	if math.Abs(res.Confidence-0.925) > 1e-6 {
		t.Errorf("Confidence = %v; want 0.925", res.Confidence)
	}
}

func TestMatchImagesCacheMissingFallsBack(t *testing.T) {
	cfg := testConfig(t)
	addCatalogFiles(t, cfg, "a.jpg")
	cap := &fakeCapability{
		probs:      validationProbs(0.9, 0.05),
		embeddings: [][]float32{{1, 0}},
	}
	m := New(cfg, cap)

	res := m.MatchImages(context.Background(), []image.Image{rectQueryImage()})

	if res.Method != MethodFallback {
		t.Errorf("Method = %s; want %s", res.Method, MethodFallback)
	}
}

func TestMatchImagesEmbedErrorFallsBack(t *testing.T) {
	cfg := testConfig(t)
	addCatalogFiles(t, cfg, "a.jpg")
	saveTestStore(t, cfg)
	cap := &fakeCapability{
		probs:    validationProbs(0.9, 0.05),
		embedErr: context.DeadlineExceeded,
	}
	m := New(cfg, cap)

	res := m.MatchImages(context.Background(), []image.Image{rectQueryImage()})

	if res.Method != MethodFallback {
		t.Errorf("Method = %s; want %s", res.Method, MethodFallback)
	}
	if !res.Matched {
		t.Error("fallback must still report a match")
	}
}

func TestMatchSkipsUnreadablePaths(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "photo.jpg")
	f, err := os.Create(good)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(f, whiteImage(), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	m := New(testConfig(t), clip.Unavailable{})
	res := m.Match(context.Background(), []string{good, filepath.Join(dir, "missing.jpg")})

	// The good image survives the load, so the pipeline proceeds past the
	// empty-input rejection.
	if res.Method != MethodDefault {
		t.Errorf("Method = %s; want %s", res.Method, MethodDefault)
	}
}

func TestMatchAllPathsUnreadable(t *testing.T) {
	m := New(testConfig(t), clip.Unavailable{})
	res := m.Match(context.Background(), []string{filepath.Join(t.TempDir(), "missing.jpg")})

	if res.Method != MethodValidationRejected {
		t.Errorf("Method = %s; want %s", res.Method, MethodValidationRejected)
	}
	if res.Error != "Could not load any images" {
		t.Errorf("Error = %q", res.Error)
	}
}
