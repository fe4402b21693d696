package model

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock quantity")
	ErrInvalidQuantity   = errors.New("quantity must be a positive number")
	ErrInvalidProduct    = errors.New("product name is required and price and stock cannot be negative")
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
	Stock       int             `json:"stock"`
	IsDeal      bool            `json:"isDeal"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductFields are the admin-editable attributes of a product.
type ProductFields struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
	Stock       int             `json:"stock"`
	IsDeal      bool            `json:"isDeal"`
}

func (f ProductFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" || f.Price.IsNegative() || f.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}

type ProductFilter struct {
	Category  string
	DealsOnly bool
}

type ProductRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Product, error)
	FindMany(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	Count(ctx context.Context) (int, error)

	// DecrementStock subtracts qty only if the current stock covers it.
	// Implementations must do this as one conditional write, never read-then-write.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}
