package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func beerLine(qty int) Line {
	return Line{ProductID: 1, StoreID: 10, Name: "Pale Ale 330ml", PriceCents: 450, Quantity: qty}
}

func wineLine(qty int) Line {
	return Line{ProductID: 2, StoreID: 10, Name: "Malbec 750ml", PriceCents: 2900, Quantity: qty}
}

func TestAddMergesExistingLine(t *testing.T) {
	c := &Cart{}
	c.Add(beerLine(2))
	c.Add(beerLine(3))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, int64(5*450), c.TotalCents())
}

func TestAddCoercesQuantityToOne(t *testing.T) {
	c := &Cart{}
	c.Add(beerLine(0))
	c.Add(wineLine(-3))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	c := &Cart{}
	c.Add(beerLine(1))

	require.NoError(t, c.UpdateQuantity(1, 4))
	assert.Equal(t, int64(4*450), c.TotalCents())

	assert.ErrorIs(t, c.UpdateQuantity(1, 0), ErrBadQuantity)
	assert.ErrorIs(t, c.UpdateQuantity(1, -1), ErrBadQuantity)
	// Rejected updates leave the line untouched.
	assert.Equal(t, 4, c.Lines()[0].Quantity)

	assert.ErrorIs(t, c.UpdateQuantity(99, 2), ErrLineNotFound)
}

func TestRemove(t *testing.T) {
	c := &Cart{}
	c.Add(beerLine(1))
	c.Add(wineLine(1))

	require.NoError(t, c.Remove(1))
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint64(2), lines[0].ProductID)

	assert.ErrorIs(t, c.Remove(1), ErrLineNotFound)
}

func TestSingleStoreID(t *testing.T) {
	c := &Cart{}
	_, err := c.SingleStoreID()
	assert.ErrorIs(t, err, ErrEmpty)

	c.Add(beerLine(1))
	c.Add(wineLine(1))
	id, err := c.SingleStoreID()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), id)

	c.Add(Line{ProductID: 3, StoreID: 20, Name: "Gin 700ml", PriceCents: 5200, Quantity: 1})
	_, err = c.SingleStoreID()
	assert.ErrorIs(t, err, ErrMixedStores)
}

func TestClear(t *testing.T) {
	c := &Cart{}
	c.Add(beerLine(2))
	c.Clear()

	assert.Zero(t, c.Len())
	assert.Zero(t, c.TotalCents())
	_, err := c.SingleStoreID()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLinesReturnsSnapshot(t *testing.T) {
	c := &Cart{}
	c.Add(beerLine(1))

	lines := c.Lines()
	c.Clear()
	// The snapshot taken before Clear is unaffected.
	require.Len(t, lines, 1)
	assert.Equal(t, "Pale Ale 330ml", lines[0].Name)
}

func TestSnapshot(t *testing.T) {
	c := &Cart{}
	_, err := c.Snapshot()
	assert.ErrorIs(t, err, ErrEmpty)

	c.Add(beerLine(4))
	c.Add(wineLine(1))
	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), snap.StoreID)
	assert.Equal(t, int64(4*450+2900), snap.TotalCents)
	require.Len(t, snap.Lines, 2)

	c.Add(Line{ProductID: 3, StoreID: 20, PriceCents: 5200, Quantity: 1})
	_, err = c.Snapshot()
	assert.ErrorIs(t, err, ErrMixedStores)
}

func TestSnapshotIsImmutable(t *testing.T) {
	c := &Cart{}
	c.Add(beerLine(2))
	snap, err := c.Snapshot()
	require.NoError(t, err)

	// Later cart mutations must not bleed into an already-taken snapshot:
	// an order built from it stays single-store with a matching total.
	c.Add(Line{ProductID: 3, StoreID: 20, PriceCents: 5200, Quantity: 1})
	require.NoError(t, c.UpdateQuantity(1, 9))

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.Equal(t, uint64(10), snap.StoreID)
	assert.Equal(t, int64(2*450), snap.TotalCents)

	var sum int64
	for _, l := range snap.Lines {
		sum += l.PriceCents * int64(l.Quantity)
	}
	assert.Equal(t, snap.TotalCents, sum)
}

func TestStoreGetCreatesLazily(t *testing.T) {
	s := NewStore()
	a := s.Get(7)
	b := s.Get(7)
	assert.Same(t, a, b)
	assert.NotSame(t, a, s.Get(8))
}

func TestConcurrentAdds(t *testing.T) {
	c := &Cart{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(beerLine(1))
		}()
	}
	wg.Wait()

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 50, c.Lines()[0].Quantity)
}
