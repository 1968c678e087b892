package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// DefaultMatchTolerance is the maximum Euclidean distance for a match.
const DefaultMatchTolerance = 0.6

// MatchOutcome is the result class of a face match.
type MatchOutcome int

const (
	Unmatched MatchOutcome = iota
	Matched
)

// MatchResult is returned by FaceIndex.Match.
type MatchResult struct {
	Outcome    MatchOutcome
	IdentityID string
	Distance   float64
}

// FaceIndex is an in-memory snapshot of enrolled embeddings. Readers load
// the current snapshot without locking; Rebuild publishes a new one.
type FaceIndex struct {
	repo      port.IdentityRepository
	tolerance float64

	rebuildMu sync.Mutex
	entries   atomic.Pointer[[]domain.FaceEntry]
}

// NewFaceIndex creates an empty index. A non-positive tolerance uses the default.
func NewFaceIndex(repo port.IdentityRepository, tolerance float64) *FaceIndex {
	if tolerance <= 0 {
		tolerance = DefaultMatchTolerance
	}
	idx := &FaceIndex{repo: repo, tolerance: tolerance}
	empty := []domain.FaceEntry{}
	idx.entries.Store(&empty)
	return idx
}

// Rebuild reloads every (cedula, embedding) pair from the store and swaps
// the snapshot in one step. On error the previous snapshot stays published.
func (f *FaceIndex) Rebuild(ctx context.Context) error {
	f.rebuildMu.Lock()
	defer f.rebuildMu.Unlock()

	entries, err := f.repo.ListFaceEntries(ctx)
	if err != nil {
		return fmt.Errorf("rebuild face index: %w", err)
	}
	if entries == nil {
		entries = []domain.FaceEntry{}
	}
	f.entries.Store(&entries)

	slog.Info("face index rebuilt", "identities", len(entries))
	return nil
}

// Len returns the number of entries in the current snapshot.
func (f *FaceIndex) Len() int {
	return len(*f.entries.Load())
}

// Match finds the nearest enrolled embedding. It matches only when that
// nearest entry also passes the tolerance check on its own.
func (f *FaceIndex) Match(query []float64) MatchResult {
	entries := *f.entries.Load()

	best := -1
	bestDist := math.Inf(1)
	for i, e := range entries {
		d, ok := euclidean(query, e.Embedding)
		if !ok {
			continue
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return MatchResult{Outcome: Unmatched, Distance: bestDist}
	}
	if !f.compare(bestDist) {
		return MatchResult{Outcome: Unmatched, Distance: bestDist}
	}
	return MatchResult{Outcome: Matched, IdentityID: entries[best].IdentityID, Distance: bestDist}
}

func (f *FaceIndex) compare(distance float64) bool {
	return distance <= f.tolerance
}

// euclidean returns the L2 distance; ok is false for mismatched or empty vectors.
func euclidean(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), true
}

// meanEmbedding averages equal-length embeddings. Vectors whose length
// differs from the first one are ignored.
func meanEmbedding(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	n := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += x
		}
		n++
	}
	for i := range sum {
		sum[i] /= float64(n)
	}
	return sum
}
