package cartstate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestStoreRestore(t *testing.T) {
	a := lineWith("a", "1", "1", "1", 1)
	b := lineWith("b", "1", "1", "1", 2)
	c := lineWith("c", "1", "1", "1", 3)

	t.Run("removes optimistic insert", func(t *testing.T) {
		s := newStore()
		s.replace([]CartLine{a})
		prev, _, inserted := s.insert(b)
		assert.True(t, inserted)
		s.restore(b.ID(), prev)
		if diff := cmp.Diff([]CartLine{a}, s.Lines(), decimalEqual); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})

	t.Run("reinserts deleted line at its index", func(t *testing.T) {
		s := newStore()
		s.replace([]CartLine{a, b, c})
		prev, ok := s.delete(b.ID())
		assert.True(t, ok)
		s.restore(b.ID(), prev)
		if diff := cmp.Diff([]CartLine{a, b, c}, s.Lines(), decimalEqual); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})

	t.Run("keeps concurrent change to other line", func(t *testing.T) {
		s := newStore()
		s.replace([]CartLine{a, b})
		prev, _ := s.setQuantity(a.ID(), 10)
		s.setQuantity(b.ID(), 20)
		s.restore(a.ID(), prev)
		got := s.Lines()
		assert.Equal(t, 1, got[0].Quantity)
		assert.Equal(t, 20, got[1].Quantity)
	})

	t.Run("clamps index when cart shrank", func(t *testing.T) {
		s := newStore()
		s.replace([]CartLine{a, b, c})
		prev, _ := s.delete(c.ID())
		s.delete(a.ID())
		s.restore(c.ID(), prev)
		assert.Equal(t, []string{b.ID(), c.ID()}, []string{s.Lines()[0].ID(), s.Lines()[1].ID()})
	})
}

func TestStoreInsertExisting(t *testing.T) {
	a := lineWith("a", "1", "1", "1", 1)
	s := newStore()
	s.replace([]CartLine{a})
	_, existing, inserted := s.insert(lineWith("a", "1", "1", "1", 5))
	assert.False(t, inserted)
	assert.Equal(t, 1, existing.Quantity)
	assert.Equal(t, 1, s.Len())
}

func TestTrackerNested(t *testing.T) {
	tr := &Tracker{}
	assert.Empty(t, tr.Current())
	tr.begin("a")
	tr.begin("b")
	assert.Equal(t, "b", tr.Current())
	assert.True(t, tr.IsMutating("a"))
	tr.end("b")
	assert.Equal(t, "a", tr.Current())
	tr.end("a")
	assert.Empty(t, tr.Current())
	assert.False(t, tr.IsMutating("a"))
}
