package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drained(c chan struct{}) bool {
	select {
	case <-c:
		return false
	default:
		return true
	}
}

func TestNotifyReachesSubscriber(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(1)
	defer sub.Cancel()

	h.Notify(1)
	select {
	case <-sub.C:
	default:
		t.Fatal("expected a pending signal")
	}
}

func TestNotifyIsScopedToStore(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(1)
	b := h.Subscribe(2)
	defer a.Cancel()
	defer b.Cancel()

	h.Notify(1)
	assert.False(t, drained(a.C))
	assert.True(t, drained(b.C))
}

func TestNotificationsCoalesce(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(1)
	defer sub.Cancel()

	// Publishers never block, even when the consumer lags.
	for i := 0; i < 10; i++ {
		h.Notify(1)
	}
	<-sub.C
	assert.True(t, drained(sub.C))
}

func TestCancelStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(1)
	sub.Cancel()
	sub.Cancel() // idempotent

	h.Notify(1)
	assert.True(t, drained(sub.C))
}

func TestMultipleSubscribersSameStore(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(1)
	b := h.Subscribe(1)
	defer a.Cancel()
	defer b.Cancel()

	h.Notify(1)
	require.False(t, drained(a.C))
	require.False(t, drained(b.C))
}
