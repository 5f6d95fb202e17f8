package match

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/vitrio/glasses-match/internal/catalog"
)

func twoEntryStore(names [2]string, shapes []catalog.ShapeClass) *catalog.Store {
	return &catalog.Store{
		Dim:       2,
		Filenames: names[:],
		Embeddings: [][]float32{
			{0.9, float32(math.Sqrt(1 - 0.9*0.9))},
			{0.85, float32(math.Sqrt(1 - 0.85*0.85))},
		},
		Shapes: shapes,
	}
}

func TestFindBestMatchKeywordBoostOverturnsRawScore(t *testing.T) {
	// Raw similarities are 0.9 and 0.85; the rectangular query boosts the
	// "wayfarer" entry past the leader while the reported raw score stays its
	// own.
	store := twoEntryStore([2]string{"classic.png", "wayfarer.png"}, nil)
	cap := &fakeCapability{embeddings: [][]float32{{1, 0}}}

	best, err := findBestMatch(context.Background(), cap, store, []image.Image{rectQueryImage()})
	if err != nil {
		t.Fatalf("findBestMatch failed: %v", err)
	}

	if best.Filename != "wayfarer.png" {
		t.Errorf("Filename = %s; want wayfarer.png", best.Filename)
	}
	if math.Abs(best.RawScore-0.85) > 1e-6 {
		t.Errorf("RawScore = %v; want 0.85", best.RawScore)
	}
	if math.Abs(best.Boosted-1.0) > 1e-6 {
		t.Errorf("Boosted = %v; want 1.0", best.Boosted)
	}
}

func TestFindBestMatchShapeMetadataBeatsKeywords(t *testing.T) {
	// Filenames say round; build-time metadata says the second entry is
	// rectangular. Metadata must win.
	store := twoEntryStore([2]string{"oval.png", "circle.png"}, []catalog.ShapeClass{
		{Round: true},
		{Rectangular: true},
	})
	store.Embeddings = [][]float32{{1, 0}, {1, 0}}
	cap := &fakeCapability{embeddings: [][]float32{{1, 0}}}

	best, err := findBestMatch(context.Background(), cap, store, []image.Image{rectQueryImage()})
	if err != nil {
		t.Fatal(err)
	}
	if best.Filename != "circle.png" {
		t.Errorf("Filename = %s; want circle.png (metadata-rectangular entry)", best.Filename)
	}
}

func TestFindBestMatchRoundQueryBoostsRoundEntry(t *testing.T) {
	store := twoEntryStore([2]string{"wayfarer.png", "lennon.png"}, nil)
	store.Embeddings = [][]float32{{1, 0}, {1, 0}}
	cap := &fakeCapability{embeddings: [][]float32{{1, 0}}}

	best, err := findBestMatch(context.Background(), cap, store, []image.Image{roundQueryImage()})
	if err != nil {
		t.Fatal(err)
	}
	if best.Filename != "lennon.png" {
		t.Errorf("Filename = %s; want lennon.png", best.Filename)
	}
}

func TestFindBestMatchNoShapeSignal(t *testing.T) {
	// A blank query has neither classification; ranking is pure similarity
	// and the first of equal scores wins.
	store := twoEntryStore([2]string{"wayfarer.png", "lennon.png"}, nil)
	store.Embeddings = [][]float32{{1, 0}, {1, 0}}
	cap := &fakeCapability{embeddings: [][]float32{{1, 0}}}

	best, err := findBestMatch(context.Background(), cap, store, []image.Image{whiteImage()})
	if err != nil {
		t.Fatal(err)
	}
	if best.Index != 0 {
		t.Errorf("Index = %d; want 0 (first of equal scores)", best.Index)
	}
}

func TestFindBestMatchMeanOfMultipleQueries(t *testing.T) {
	// Two query embeddings pointing at different entries average out; the
	// entry nearest the mean wins.
	store := twoEntryStore([2]string{"a.png", "b.png"}, nil)
	store.Embeddings = [][]float32{{1, 0}, {0, 1}}
	cap := &fakeCapability{embeddings: [][]float32{{1, 0}, {0.6, 0.8}}}

	best, err := findBestMatch(context.Background(), cap, store, []image.Image{whiteImage(), whiteImage()})
	if err != nil {
		t.Fatal(err)
	}
	if best.Filename != "a.png" {
		t.Errorf("Filename = %s; want a.png", best.Filename)
	}
}

func TestFindBestMatchEmptyCatalog(t *testing.T) {
	cap := &fakeCapability{embeddings: [][]float32{{1, 0}}}
	_, err := findBestMatch(context.Background(), cap, &catalog.Store{}, []image.Image{whiteImage()})
	if err == nil {
		t.Error("expected error for empty catalog")
	}
}

func TestFindBestMatchEmbedError(t *testing.T) {
	store := twoEntryStore([2]string{"a.png", "b.png"}, nil)
	cap := &fakeCapability{embedErr: errors.New("server down")}
	_, err := findBestMatch(context.Background(), cap, store, []image.Image{whiteImage()})
	if err == nil {
		t.Error("expected embedding error to propagate")
	}
}

func TestKeywordShape(t *testing.T) {
	tests := []struct {
		filename string
		rect     bool
		round    bool
	}{
		{"ray_ban_clubmaster.png", true, false},
		{"wayfarer.jpg", true, false},
		{"metal_round.jpg", false, true},
		{"Vintage.PNG", false, true},
		{"round_square.png", true, false}, // rectangular keywords take priority
		{"aviator.png", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			rect, round := keywordShape(tc.filename)
			if rect != tc.rect || round != tc.round {
				t.Errorf("keywordShape(%q) = (%v, %v); want (%v, %v)",
					tc.filename, rect, round, tc.rect, tc.round)
			}
		})
	}
}
