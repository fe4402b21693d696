package model

// StockEffect is what a status transition does to the catalog stock of the order's items.
type StockEffect int

const (
	NoStockEffect StockEffect = iota
	ReserveStock
	ReleaseStock
)

func (e StockEffect) String() string {
	switch e {
	case ReserveStock:
		return "reserve"
	case ReleaseStock:
		return "release"
	default:
		return "none"
	}
}

type transitionKey struct {
	from OrderStatus
	to   OrderStatus
}

// Stock is reserved when an order leaves pending for paid and released when a paid
// order is cancelled. Pending orders never hold stock.
var orderTransitions = map[transitionKey]StockEffect{
	{Pending, Paid}:      ReserveStock,
	{Pending, Cancelled}: NoStockEffect,
	{Paid, Shipped}:      NoStockEffect,
	{Paid, Cancelled}:    ReleaseStock,
	{Shipped, Delivered}: NoStockEffect,
}

// Transition reports the stock effect of moving an order from one status to another,
// or ErrInvalidTransition when the edge is not in the table.
func Transition(from, to OrderStatus) (StockEffect, error) {
	if !to.Valid() {
		return NoStockEffect, ErrInvalidOrderStatus
	}
	effect, ok := orderTransitions[transitionKey{from: from, to: to}]
	if !ok {
		return NoStockEffect, ErrInvalidTransition
	}
	return effect, nil
}

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s OrderStatus) []OrderStatus {
	var next []OrderStatus
	for _, to := range orderStatuses {
		if _, ok := orderTransitions[transitionKey{from: s, to: to}]; ok {
			next = append(next, to)
		}
	}
	return next
}
