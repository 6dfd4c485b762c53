package selection

import (
	"math/rand"
	"testing"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
)

func items(usage ...int) []*domain.ContentItem {
	out := make([]*domain.ContentItem, len(usage))
	for i, u := range usage {
		out[i] = &domain.ContentItem{
			Number:     i + 1,
			Title:      "passage",
			Locator:    "/audio/passage.wav",
			Available:  true,
			UsageCount: u,
		}
	}
	return out
}

func testNow() time.Time {
	return time.Date(2026, time.August, 29, 7, 0, 0, 0, time.Local)
}

func TestAllStrategiesHandleEmptyInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	strategies := []Strategy{
		&PureRandom{rng: rng},
		&WeightedRandom{rng: rng},
		&Sequential{},
		&AvoidRecent{days: 7, weighted: &WeightedRandom{rng: rng}},
	}

	for _, s := range strategies {
		if got := s.Pick(nil, domain.NewSelectionRecord(), testNow()); got != nil {
			t.Errorf("%s.Pick(empty) = %v, want nil", s.Name(), got)
		}
	}
}

func TestPureRandomPicksFromList(t *testing.T) {
	s := &PureRandom{rng: rand.New(rand.NewSource(42))}
	list := items(0, 0, 0)
	for i := 0; i < 50; i++ {
		got := s.Pick(list, nil, testNow())
		if got == nil || got.Number < 1 || got.Number > 3 {
			t.Fatalf("Pick returned %v", got)
		}
	}
}

func TestWeightedRandomFavorsLeastUsed(t *testing.T) {
	s := &WeightedRandom{rng: rand.New(rand.NewSource(7))}
	// Item 1 heavily used, item 2 never.
	list := items(20, 0)

	counts := map[int]int{}
	for i := 0; i < 2000; i++ {
		counts[s.Pick(list, nil, testNow()).Number]++
	}

	// weight(1)=1, weight(2)=21: item 2 should dominate by a wide margin.
	if counts[2] <= counts[1]*5 {
		t.Errorf("least-used item not favored: counts = %v", counts)
	}
}

func TestWeightedRandomStaysUniformOnEqualUsage(t *testing.T) {
	s := &WeightedRandom{rng: rand.New(rand.NewSource(11))}

	// Every item maximally used: weights collapse to 1 each and the pick
	// must stay uniform rather than biased.
	list := items(5, 5, 5)
	counts := map[int]int{}
	n := 3000
	for i := 0; i < n; i++ {
		counts[s.Pick(list, nil, testNow()).Number]++
	}

	for num, c := range counts {
		ratio := float64(c) / float64(n)
		if ratio < 0.25 || ratio > 0.42 {
			t.Errorf("item %d picked with ratio %.3f, want roughly uniform", num, ratio)
		}
	}
}

func TestSequentialAdvancesAndWraps(t *testing.T) {
	s := &Sequential{}
	list := items(0, 0, 0) // numbers 1, 2, 3

	rec := domain.NewSelectionRecord()
	rec.Set("2026-08-28", 2)

	got := s.Pick(list, rec, testNow())
	if got == nil || got.Number != 3 {
		t.Fatalf("Pick after 2 = %v, want number 3", got)
	}

	rec.Set("2026-08-29", 3)
	got = s.Pick(list, rec, testNow())
	if got == nil || got.Number != 1 {
		t.Fatalf("Pick after 3 = %v, want wrap to 1", got)
	}
}

func TestSequentialWithoutHistoryStartsAtSmallest(t *testing.T) {
	s := &Sequential{}
	got := s.Pick(items(0, 0), domain.NewSelectionRecord(), testNow())
	if got == nil || got.Number != 1 {
		t.Fatalf("Pick without history = %v, want number 1", got)
	}
}

func TestAvoidRecentExcludesHistory(t *testing.T) {
	s := &AvoidRecent{days: 7, weighted: &WeightedRandom{rng: rand.New(rand.NewSource(3))}}
	list := items(0, 0, 0)

	rec := domain.NewSelectionRecord()
	now := testNow()
	rec.Set(now.AddDate(0, 0, -1).Format(domain.DateFormat), 1)
	rec.Set(now.AddDate(0, 0, -2).Format(domain.DateFormat), 2)

	for i := 0; i < 100; i++ {
		got := s.Pick(list, rec, now)
		if got == nil || got.Number != 3 {
			t.Fatalf("Pick = %v, want the only non-recent item 3", got)
		}
	}
}

func TestAvoidRecentFallsBackWhenHistoryExhausted(t *testing.T) {
	s := &AvoidRecent{days: 7, weighted: &WeightedRandom{rng: rand.New(rand.NewSource(5))}}
	list := items(0, 0)

	rec := domain.NewSelectionRecord()
	now := testNow()
	rec.Set(now.AddDate(0, 0, -1).Format(domain.DateFormat), 1)
	rec.Set(now.AddDate(0, 0, -2).Format(domain.DateFormat), 2)

	got := s.Pick(list, rec, now)
	if got == nil {
		t.Fatal("Pick = nil, want fallback over all items")
	}
}

func TestAvoidRecentIgnoresOldHistory(t *testing.T) {
	s := &AvoidRecent{days: 7, weighted: &WeightedRandom{rng: rand.New(rand.NewSource(9))}}
	list := items(0)

	rec := domain.NewSelectionRecord()
	now := testNow()
	rec.Set(now.AddDate(0, 0, -10).Format(domain.DateFormat), 1)

	got := s.Pick(list, rec, now)
	if got == nil || got.Number != 1 {
		t.Fatalf("Pick = %v, item outside window should be eligible", got)
	}
}
