package selection

import (
	"math/rand"
	"sort"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
)

// Strategy picks one content item for a trigger. Implementations must
// return nil when the candidate list is empty, never panic.
type Strategy interface {
	Name() string
	Pick(items []*domain.ContentItem, rec *domain.SelectionRecord, now time.Time) *domain.ContentItem
}

// NewStrategy maps a config name to a strategy.
// Unknown names fall back to weighted random.
func NewStrategy(name string, rng *rand.Rand, avoidRecentDays int) Strategy {
	switch name {
	case "random":
		return &PureRandom{rng: rng}
	case "sequential":
		return &Sequential{}
	case "avoid-recent":
		return &AvoidRecent{
			days:     avoidRecentDays,
			weighted: &WeightedRandom{rng: rng},
		}
	default:
		return &WeightedRandom{rng: rng}
	}
}

// PureRandom picks uniformly among the available items.
type PureRandom struct {
	rng *rand.Rand
}

func (s *PureRandom) Name() string { return "random" }

func (s *PureRandom) Pick(items []*domain.ContentItem, _ *domain.SelectionRecord, _ time.Time) *domain.ContentItem {
	if len(items) == 0 {
		return nil
	}
	return items[s.rng.Intn(len(items))]
}

// WeightedRandom favors least-used items: weight = maxUsage - usage + 1,
// picked proportionally. If every weight degenerates to zero or below the
// pick falls back to uniform random.
type WeightedRandom struct {
	rng *rand.Rand
}

func (s *WeightedRandom) Name() string { return "weighted" }

func (s *WeightedRandom) Pick(items []*domain.ContentItem, _ *domain.SelectionRecord, _ time.Time) *domain.ContentItem {
	if len(items) == 0 {
		return nil
	}

	maxUsage := 0
	for _, item := range items {
		if item.UsageCount > maxUsage {
			maxUsage = item.UsageCount
		}
	}

	weights := make([]float64, len(items))
	total := 0.0
	for i, item := range items {
		w := float64(maxUsage - item.UsageCount + 1)
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}

	if total <= 0 {
		// Degenerate usage data: stay uniform rather than biased.
		return items[s.rng.Intn(len(items))]
	}

	r := s.rng.Float64() * total
	acc := 0.0
	for i, item := range items {
		acc += weights[i]
		if r <= acc {
			return item
		}
	}
	return items[len(items)-1]
}

// Sequential picks the smallest available number strictly greater than the
// last chosen one, wrapping to the smallest number when none is greater.
type Sequential struct{}

func (s *Sequential) Name() string { return "sequential" }

func (s *Sequential) Pick(items []*domain.ContentItem, rec *domain.SelectionRecord, _ time.Time) *domain.ContentItem {
	if len(items) == 0 {
		return nil
	}

	sorted := make([]*domain.ContentItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	last := 0
	if rec != nil {
		if n, ok := rec.Latest(); ok {
			last = n
		}
	}

	for _, item := range sorted {
		if item.Number > last {
			return item
		}
	}
	return sorted[0]
}

// AvoidRecent excludes items chosen within the last `days` days, then
// delegates to weighted random. When the exclusion empties the candidate
// set it falls back to weighted random over everything: exhausted history
// must never mean "no wake-up audio".
type AvoidRecent struct {
	days     int
	weighted *WeightedRandom
}

func (s *AvoidRecent) Name() string { return "avoid-recent" }

func (s *AvoidRecent) Pick(items []*domain.ContentItem, rec *domain.SelectionRecord, now time.Time) *domain.ContentItem {
	if len(items) == 0 {
		return nil
	}

	recent := make(map[int]struct{})
	if rec != nil {
		for _, n := range rec.Recent(now, s.days) {
			recent[n] = struct{}{}
		}
	}

	fresh := make([]*domain.ContentItem, 0, len(items))
	for _, item := range items {
		if _, seen := recent[item.Number]; !seen {
			fresh = append(fresh, item)
		}
	}

	if len(fresh) == 0 {
		return s.weighted.Pick(items, rec, now)
	}
	return s.weighted.Pick(fresh, rec, now)
}
