package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/coder/hnsw"

	"github.com/vitrio/glasses-match/internal/clip"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

// Neighbor is one result of an approximate nearest-neighbor lookup.
type Neighbor struct {
	Filename   string  `json:"filename"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// Index wraps an HNSW graph over the catalog embeddings. It backs the
// diagnostic "catalog similar" lookup; the match pipeline itself uses exact
// brute-force scoring because shape re-ranking needs the full score vector.
type Index struct {
	graph *hnsw.Graph[int]
	store *Store
}

// BuildIndex builds an in-memory HNSW index from the store.
func BuildIndex(store *Store) (*Index, error) {
	if store.Len() == 0 {
		return nil, errors.New("cannot index an empty catalog")
	}

	g := hnsw.NewGraph[int]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	for i, emb := range store.Embeddings {
		if len(emb) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(i, emb))
	}

	return &Index{graph: g, store: store}, nil
}

// LoadIndex reads a previously exported graph from disk. The graph must cover
// exactly the store's entries; a stale index is an error so callers rebuild
// instead of mapping neighbors to the wrong filenames.
func LoadIndex(path string, store *Store) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no HNSW index at %s: %w", path, err)
	}

	saved, err := hnsw.LoadSavedGraph[int](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load HNSW index: %w", err)
	}
	if saved.Len() != store.Len() {
		return nil, fmt.Errorf("HNSW index has %d entries, catalog has %d; rebuild the cache", saved.Len(), store.Len())
	}

	return &Index{graph: saved.Graph, store: store}, nil
}

// Search finds the k nearest catalog entries to the query embedding.
func (idx *Index) Search(query []float32, k int) []Neighbor {
	nodes := idx.graph.Search(query, k)

	neighbors := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		sim := clip.CosineSimilarity(query, n.Value)
		neighbors = append(neighbors, Neighbor{
			Filename:   idx.store.Filenames[n.Key],
			Distance:   1 - sim,
			Similarity: sim,
		})
	}
	return neighbors
}

// Save persists the graph to disk for faster startup.
func (idx *Index) Save(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	defer f.Close()

	if err := idx.graph.Export(f); err != nil {
		return fmt.Errorf("failed to export HNSW graph: %w", err)
	}
	return nil
}
