// Package scan surveys rectangular tile regions for caches. Because spawn
// and initial token count are pure functions of (seed, tile), a survey can
// evaluate arbitrarily large regions without instantiating any game state.
package scan

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MJE43/tokentrek-go/internal/cache"
	"github.com/MJE43/tokentrek-go/internal/grid"
)

// TargetOp represents comparison operations for surveying token counts.
type TargetOp string

const (
	OpEqual        TargetOp = "eq"
	OpGreater      TargetOp = "gt"
	OpGreaterEqual TargetOp = "ge"
	OpLess         TargetOp = "lt"
	OpLessEqual    TargetOp = "le"
	OpBetween      TargetOp = "between"
	OpOutside      TargetOp = "outside"
)

// Request describes a region survey: a tile index rectangle, the world
// seed and spawn probability, and a target condition on initial token
// counts. TargetOp may be empty to report every cache in the region.
type Request struct {
	Seed             string   `json:"seed"`
	SpawnProbability float64  `json:"spawn_probability"`
	IStart           int      `json:"i_start"`
	IEnd             int      `json:"i_end"`
	JStart           int      `json:"j_start"`
	JEnd             int      `json:"j_end"`
	TargetOp         TargetOp `json:"target_op,omitempty"`
	TargetVal        int      `json:"target_val,omitempty"`
	TargetVal2       int      `json:"target_val2,omitempty"` // for "between" and "outside"
	Limit            int      `json:"limit,omitempty"`
	TimeoutMs        int      `json:"timeout_ms,omitempty"`
}

// Hit is a cache whose initial count matches the target.
type Hit struct {
	Tile  grid.Tile `json:"tile"`
	Count int       `json:"count"`
}

// Summary contains aggregate statistics for the survey.
type Summary struct {
	TilesScanned uint64  `json:"tiles_scanned"`
	CachesFound  uint64  `json:"caches_found"`
	HitCount     int     `json:"hit_count"`
	MinCount     int     `json:"min_count"`
	MaxCount     int     `json:"max_count"`
	MeanCount    float64 `json:"mean_count"`
	TimedOut     bool    `json:"timed_out,omitempty"`
}

// Result contains the complete survey results. Hits are ordered row-major
// regardless of worker scheduling.
type Result struct {
	Hits    []Hit   `json:"hits"`
	Summary Summary `json:"summary"`
	Echo    Request `json:"echo"`
}

// TargetEvaluator checks an initial token count against the target
// condition. An empty op matches everything.
type TargetEvaluator struct {
	op   TargetOp
	val1 int
	val2 int
}

// NewTargetEvaluator creates a target evaluator.
func NewTargetEvaluator(op TargetOp, val1, val2 int) *TargetEvaluator {
	return &TargetEvaluator{op: op, val1: val1, val2: val2}
}

// Matches checks if a count matches the target criteria.
func (te *TargetEvaluator) Matches(count int) bool {
	switch te.op {
	case "":
		return true
	case OpEqual:
		return count == te.val1
	case OpGreater:
		return count > te.val1
	case OpGreaterEqual:
		return count >= te.val1
	case OpLess:
		return count < te.val1
	case OpLessEqual:
		return count <= te.val1
	case OpBetween:
		return count >= te.val1 && count <= te.val2
	case OpOutside:
		return count < te.val1 || count > te.val2
	default:
		return false
	}
}

// rowJob is one row of tiles to evaluate.
type rowJob struct {
	i      int
	jStart int
	jEnd   int
}

// Scanner performs parallel surveys across tile regions.
type Scanner struct {
	workerCount int
}

// NewScanner creates a scanner sized to the available CPUs.
func NewScanner() *Scanner {
	return &Scanner{workerCount: runtime.GOMAXPROCS(0)}
}

// Scan surveys the requested region. The scan respects ctx cancellation
// and the request's timeout; a timed-out scan returns the hits gathered so
// far with Summary.TimedOut set.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	evaluator := NewTargetEvaluator(req.TargetOp, req.TargetVal, req.TargetVal2)

	jobs := make(chan rowJob, s.workerCount*2)
	hitsCh := make(chan Hit, 1024)

	var tilesScanned, cachesFound uint64
	var wg sync.WaitGroup

	for w := 0; w < s.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job, ok := <-jobs:
					if !ok {
						return
					}
					s.processRow(ctx, job, req, evaluator, hitsCh, &tilesScanned, &cachesFound)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := req.IStart; i <= req.IEnd; i++ {
			select {
			case jobs <- rowJob{i: i, jStart: req.JStart, jEnd: req.JEnd}:
			case <-ctx.Done():
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var hits []Hit
	timedOut := false

collect:
	for {
		select {
		case hit := <-hitsCh:
			hits = append(hits, hit)
		case <-done:
			// Drain anything buffered after the workers finished.
			for {
				select {
				case hit := <-hitsCh:
					hits = append(hits, hit)
				default:
					break collect
				}
			}
		case <-ctx.Done():
			timedOut = true
			break collect
		}
	}

	// Row-major order independent of worker scheduling, then apply the
	// limit so truncation is deterministic too.
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Tile.I != hits[b].Tile.I {
			return hits[a].Tile.I < hits[b].Tile.I
		}
		return hits[a].Tile.J < hits[b].Tile.J
	})
	if req.Limit > 0 && len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}

	summary := Summary{
		TilesScanned: atomic.LoadUint64(&tilesScanned),
		CachesFound:  atomic.LoadUint64(&cachesFound),
		HitCount:     len(hits),
		TimedOut:     timedOut,
	}
	if len(hits) > 0 {
		minCount, maxCount, sum := math.MaxInt, 0, 0
		for _, h := range hits {
			if h.Count < minCount {
				minCount = h.Count
			}
			if h.Count > maxCount {
				maxCount = h.Count
			}
			sum += h.Count
		}
		summary.MinCount = minCount
		summary.MaxCount = maxCount
		summary.MeanCount = float64(sum) / float64(len(hits))
	}

	return &Result{Hits: hits, Summary: summary, Echo: req}, nil
}

func (s *Scanner) processRow(ctx context.Context, job rowJob, req Request, evaluator *TargetEvaluator, hitsCh chan<- Hit, tilesScanned, cachesFound *uint64) {
	for j := job.jStart; j <= job.jEnd; j++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		tile := grid.Tile{I: job.i, J: j}
		atomic.AddUint64(tilesScanned, 1)

		if !cache.Exists(req.Seed, tile, req.SpawnProbability) {
			continue
		}
		atomic.AddUint64(cachesFound, 1)

		count := cache.InitialCount(req.Seed, tile)
		if !evaluator.Matches(count) {
			continue
		}

		select {
		case hitsCh <- Hit{Tile: tile, Count: count}:
		case <-ctx.Done():
			return
		}
	}
}
