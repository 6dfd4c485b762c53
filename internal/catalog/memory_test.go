package catalog

import (
	"testing"

	"github.com/wakebell/wakebell/internal/domain"
)

func testItems() []*domain.ContentItem {
	return []*domain.ContentItem{
		{Number: 1, Title: "One", Locator: "/audio/1.wav", Available: true},
		{Number: 2, Title: "Two", Locator: "/audio/2.wav", Available: false},
		{Number: 3, Title: "Three", Locator: "/audio/3.wav", Available: true},
	}
}

func TestMemoryListAvailable(t *testing.T) {
	c := NewMemory()
	c.Update(testItems())

	avail := c.ListAvailable()
	if len(avail) != 2 {
		t.Fatalf("ListAvailable() returned %d items, want 2", len(avail))
	}
	if avail[0].Number != 1 || avail[1].Number != 3 {
		t.Errorf("ListAvailable() order = [%d %d], want [1 3]", avail[0].Number, avail[1].Number)
	}
}

func TestMemoryMarkUsedPersistsViaHook(t *testing.T) {
	c := NewMemory()
	c.Update(testItems())

	var gotNumber, gotCount int
	var gotDate string
	c.OnUsagePersist(func(number, count int, lastUsed string) {
		gotNumber, gotCount, gotDate = number, count, lastUsed
	})

	c.MarkUsed(3, "2026-08-29")
	c.MarkUsed(3, "2026-08-30")

	if item := c.ByNumber(3); item.UsageCount != 2 || item.LastUsed != "2026-08-30" {
		t.Errorf("item 3 = %+v, want usage 2 last used 2026-08-30", item)
	}
	if gotNumber != 3 || gotCount != 2 || gotDate != "2026-08-30" {
		t.Errorf("persist hook got (%d, %d, %q)", gotNumber, gotCount, gotDate)
	}

	// Unknown number is a no-op.
	c.MarkUsed(99, "2026-08-30")
	if gotNumber != 3 {
		t.Error("persist hook fired for unknown number")
	}
}

func TestMemoryUpdatePreservesUsage(t *testing.T) {
	c := NewMemory()
	c.Update(testItems())
	c.MarkUsed(1, "2026-08-29")

	c.Update(testItems())
	if item := c.ByNumber(1); item.UsageCount != 1 || item.LastUsed != "2026-08-29" {
		t.Errorf("usage lost across reload: %+v", item)
	}
	if c.Count() != 3 {
		t.Errorf("Count() = %d, want 3", c.Count())
	}
}

func TestMemoryApplyUsage(t *testing.T) {
	c := NewMemory()
	c.Update(testItems())

	c.ApplyUsage(map[int]UsageStat{
		1:  {Count: 7, LastUsed: "2026-08-20"},
		99: {Count: 4, LastUsed: "2026-08-21"}, // not in catalog
	})

	if item := c.ByNumber(1); item.UsageCount != 7 || item.LastUsed != "2026-08-20" {
		t.Errorf("item 1 = %+v, want merged usage", item)
	}
	if c.ByNumber(99) != nil {
		t.Error("ApplyUsage must not invent catalog items")
	}
}
