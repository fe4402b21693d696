package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderStatusConflict = errors.New("order has been modified by another request")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrInvalidTransition   = errors.New("order status transition is not allowed")
	ErrEmptyCart           = errors.New("cannot place an empty order")
)

type OrderStatus string

const (
	Pending   OrderStatus = "pending"
	Paid      OrderStatus = "paid"
	Shipped   OrderStatus = "shipped"
	Delivered OrderStatus = "delivered"
	Cancelled OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{Pending, Paid, Shipped, Delivered, Cancelled}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range orderStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", ErrInvalidOrderStatus
}

func (s OrderStatus) Valid() bool {
	_, err := ParseOrderStatus(string(s))
	return err == nil
}

func (s OrderStatus) Terminal() bool {
	return s == Delivered || s == Cancelled
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	BuyerID         uuid.UUID       `json:"buyerId"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentProof    string          `json:"paymentProof,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type Item struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type OrderRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, order *Order) error
	Find(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	ListRecent(ctx context.Context, limit int) ([]Order, error)
	Count(ctx context.Context) (int, error)

	// Revenue sums totals of non-cancelled orders created in [from, to).
	// A zero bound leaves that side of the range open.
	Revenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)

	// CompareAndSetStatus writes next only if the stored status still equals expected
	// and returns the status it replaced.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next OrderStatus) (OrderStatus, error)
}
