package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	allowed := map[[2]OrderStatus]StockEffect{
		{Pending, Paid}:      ReserveStock,
		{Pending, Cancelled}: NoStockEffect,
		{Paid, Shipped}:      NoStockEffect,
		{Paid, Cancelled}:    ReleaseStock,
		{Shipped, Delivered}: NoStockEffect,
	}

	for _, from := range orderStatuses {
		for _, to := range orderStatuses {
			effect, err := Transition(from, to)
			want, ok := allowed[[2]OrderStatus{from, to}]
			if ok {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, want, effect, "%s -> %s", from, to)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	_, err := Transition(Pending, OrderStatus("lost"))
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t, []OrderStatus{Paid, Cancelled}, NextStatuses(Pending))
	assert.ElementsMatch(t, []OrderStatus{Shipped, Cancelled}, NextStatuses(Paid))
	assert.Empty(t, NextStatuses(Delivered))
	assert.Empty(t, NextStatuses(Cancelled))
	assert.True(t, Delivered.Terminal())
	assert.False(t, Shipped.Terminal())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, Shipped, status)

	_, err = ParseOrderStatus("SHIPPED")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}
