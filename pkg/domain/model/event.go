package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderPlaced struct {
	OrderID     uuid.UUID       `json:"orderId"`
	BuyerID     uuid.UUID       `json:"buyerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func (e OrderPlaced) Type() string { return "OrderPlaced" }

type OrderStatusChanged struct {
	OrderID   uuid.UUID   `json:"orderId"`
	BuyerID   uuid.UUID   `json:"buyerId"`
	OldStatus OrderStatus `json:"oldStatus"`
	NewStatus OrderStatus `json:"newStatus"`
	ChangedBy uuid.UUID   `json:"changedBy"`
}

func (e OrderStatusChanged) Type() string { return "OrderStatusChanged" }

type ProductCreated struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
}

func (e ProductCreated) Type() string { return "ProductCreated" }

type ProductUpdated struct {
	ProductID uuid.UUID `json:"productId"`
}

func (e ProductUpdated) Type() string { return "ProductUpdated" }

type ProductDeleted struct {
	ProductID uuid.UUID `json:"productId"`
}

func (e ProductDeleted) Type() string { return "ProductDeleted" }

type ProductStockChanged struct {
	ProductID    uuid.UUID `json:"productId"`
	ChangeAmount int       `json:"changeAmount"` // positive on release, negative on reservation
	OrderID      uuid.UUID `json:"orderId"`
}

func (e ProductStockChanged) Type() string { return "ProductStockChanged" }

type UserRegistered struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

func (e UserRegistered) Type() string { return "UserRegistered" }
