package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPendingPaymentVerification))
	assert.True(t, ValidStatus(StatusAccepted))
	assert.True(t, ValidStatus(StatusCancelled))
	assert.True(t, ValidStatus(StatusDelivered))

	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("ACCEPTED"))
	assert.False(t, ValidStatus("shipped"))
}

func TestCanTransition(t *testing.T) {
	all := []string{
		StatusPendingPaymentVerification,
		StatusAccepted,
		StatusCancelled,
		StatusDelivered,
	}

	allowed := map[[2]string]bool{
		{StatusPendingPaymentVerification, StatusAccepted}:  true,
		{StatusPendingPaymentVerification, StatusCancelled}: true,
		{StatusAccepted, StatusDelivered}:                   true,
	}

	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			assert.Equal(t, allowed[[2]string{from, to}], got, "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesNeverReopen(t *testing.T) {
	for _, to := range []string{StatusPendingPaymentVerification, StatusAccepted, StatusDelivered} {
		assert.False(t, CanTransition(StatusCancelled, to))
		assert.False(t, CanTransition(StatusDelivered, to))
	}
}
