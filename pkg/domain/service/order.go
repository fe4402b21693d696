package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"novacart/pkg/domain/model"
)

// MaxLineQuantity bounds the quantity of one product in an order, after duplicate lines are merged.
const MaxLineQuantity = 10000

type LineItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type BuyerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type ItemDetails struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Deleted     bool            `json:"deleted,omitempty"`
}

type OrderDetails struct {
	model.Order
	Buyer       *BuyerSummary `json:"buyer"`
	ItemDetails []ItemDetails `json:"itemDetails"`
}

type OrderService interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, items []LineItem, address model.ShippingAddress, paymentProof string) (*model.Order, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, newStatus model.OrderStatus, actingAdmin uuid.UUID) (*model.Order, error)

	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error)
	ListAllOrders(ctx context.Context) ([]OrderDetails, error)
}

func NewOrderService(
	orders model.OrderRepository,
	products model.ProductRepository,
	users model.UserRepository,
	notifications NotificationService,
	dispatcher EventDispatcher,
	logger logrus.FieldLogger,
) OrderService {
	return &orderService{
		orders:        orders,
		products:      products,
		users:         users,
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

type orderService struct {
	orders        model.OrderRepository
	products      model.ProductRepository
	users         model.UserRepository
	notifications NotificationService
	dispatcher    EventDispatcher
	logger        logrus.FieldLogger
}

func (s *orderService) PlaceOrder(ctx context.Context, buyerID uuid.UUID, lineItems []LineItem, address model.ShippingAddress, paymentProof string) (*model.Order, error) {
	lineItems, err := mergeLineItems(lineItems)
	if err != nil {
		return nil, err
	}

	// Stock is only checked here; it is reserved when an admin marks the order paid.
	items := make([]model.Item, 0, len(lineItems))
	total := decimal.Zero
	for _, line := range lineItems {
		product, err := s.products.Find(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: %s has %d left", model.ErrInsufficientStock, product.Name, product.Stock)
		}
		items = append(items, model.Item{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	orderID, err := s.orders.NextID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	order := &model.Order{
		ID:              orderID,
		BuyerID:         buyerID,
		Items:           items,
		TotalAmount:     total,
		Status:          model.Pending,
		ShippingAddress: address,
		PaymentProof:    paymentProof,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("New order #%s placed for %s.", shortID(order.ID), order.TotalAmount.StringFixed(2))
	if _, err := s.notifications.NotifyAdmins(ctx, model.NewOrderNotification, message, "/admin/orders/"+order.ID.String()); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to notify admins about new order")
	}

	dispatchEvent(s.logger, s.dispatcher, model.OrderPlaced{OrderID: order.ID, BuyerID: buyerID, TotalAmount: total})
	return order, nil
}

func (s *orderService) SetStatus(ctx context.Context, orderID uuid.UUID, newStatus model.OrderStatus, actingAdmin uuid.UUID) (*model.Order, error) {
	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}

	effect, err := model.Transition(order.Status, newStatus)
	if err != nil {
		return nil, err
	}

	// Releasing against a stale status would return the same units twice.
	if effect == model.ReleaseStock {
		if err := s.ensureStatusUnchanged(ctx, order); err != nil {
			return nil, err
		}
	}

	if err := s.applyStockEffect(ctx, order, effect); err != nil {
		// A stock failure caused by a concurrent transition of this order is a conflict.
		if serr := s.ensureStatusUnchanged(ctx, order); errors.Is(serr, model.ErrOrderStatusConflict) {
			return nil, serr
		}
		return nil, err
	}

	// The status write is the commit point; everything before it has been compensated on failure.
	previous, err := s.orders.CompareAndSetStatus(ctx, order.ID, order.Status, newStatus)
	if err != nil {
		s.revertStockEffect(ctx, order, effect)
		return nil, err
	}

	order.Status = newStatus
	order.UpdatedAt = time.Now().UTC()

	s.logger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"old_status": previous,
		"new_status": newStatus,
		"admin_id":   actingAdmin,
		"stock":      effect.String(),
	}).Info("order status changed")

	message := fmt.Sprintf("Your order #%s is now %s.", shortID(order.ID), newStatus)
	if _, err := s.notifications.Notify(ctx, order.BuyerID, model.OrderStatusNotification, message, "/orders"); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to notify buyer about status change")
	}

	dispatchEvent(s.logger, s.dispatcher, model.OrderStatusChanged{
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		OldStatus: previous,
		NewStatus: newStatus,
		ChangedBy: actingAdmin,
	})
	if effect != model.NoStockEffect {
		sign := -1
		if effect == model.ReleaseStock {
			sign = 1
		}
		for _, item := range order.Items {
			dispatchEvent(s.logger, s.dispatcher, model.ProductStockChanged{
				ProductID:    item.ProductID,
				ChangeAmount: sign * item.Quantity,
				OrderID:      order.ID,
			})
		}
	}
	return order, nil
}

func (s *orderService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

func (s *orderService) ListAllOrders(ctx context.Context) ([]OrderDetails, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}

	buyerIDs := make([]uuid.UUID, 0, len(orders))
	productIDs := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		buyerIDs = append(buyerIDs, order.BuyerID)
		for _, item := range order.Items {
			productIDs = append(productIDs, item.ProductID)
		}
	}

	buyers, err := s.users.FindMany(ctx, buyerIDs)
	if err != nil {
		return nil, err
	}
	buyersByID := make(map[uuid.UUID]model.User, len(buyers))
	for _, buyer := range buyers {
		buyersByID[buyer.ID] = buyer
	}

	products, err := s.products.FindMany(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productsByID := make(map[uuid.UUID]model.Product, len(products))
	for _, product := range products {
		productsByID[product.ID] = product
	}

	details := make([]OrderDetails, 0, len(orders))
	for _, order := range orders {
		d := OrderDetails{Order: order, ItemDetails: make([]ItemDetails, 0, len(order.Items))}
		if buyer, ok := buyersByID[order.BuyerID]; ok {
			d.Buyer = &BuyerSummary{ID: buyer.ID, Name: buyer.Name, Email: buyer.Email}
		}
		for _, item := range order.Items {
			line := ItemDetails{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
			if product, ok := productsByID[item.ProductID]; ok {
				line.ProductName = product.Name
			} else {
				line.Deleted = true
			}
			d.ItemDetails = append(d.ItemDetails, line)
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *orderService) ensureStatusUnchanged(ctx context.Context, order *model.Order) error {
	current, err := s.orders.Find(ctx, order.ID)
	if err != nil {
		return err
	}
	if current.Status != order.Status {
		return model.ErrOrderStatusConflict
	}
	return nil
}

type stockOp func(ctx context.Context, id uuid.UUID, qty int) error

func (s *orderService) applyStockEffect(ctx context.Context, order *model.Order, effect model.StockEffect) error {
	switch effect {
	case model.ReserveStock:
		return s.applyToItems(ctx, order, s.products.DecrementStock, s.products.IncrementStock, false)
	case model.ReleaseStock:
		return s.applyToItems(ctx, order, s.products.IncrementStock, s.products.DecrementStock, true)
	default:
		return nil
	}
}

func (s *orderService) revertStockEffect(ctx context.Context, order *model.Order, effect model.StockEffect) {
	switch effect {
	case model.ReserveStock:
		s.compensate(ctx, order.ID, order.Items, s.products.IncrementStock)
	case model.ReleaseStock:
		s.compensate(ctx, order.ID, order.Items, s.products.DecrementStock)
	}
}

// applyToItems runs apply for every line of the order. If one line fails, the lines already
// applied are undone before the error is returned, so stock is never left partially changed.
// With skipMissing, lines whose product has been deleted are ignored.
func (s *orderService) applyToItems(ctx context.Context, order *model.Order, apply, undo stockOp, skipMissing bool) error {
	applied := make([]model.Item, 0, len(order.Items))
	for _, item := range order.Items {
		err := apply(ctx, item.ProductID, item.Quantity)
		if err == nil {
			applied = append(applied, item)
			continue
		}
		if skipMissing && errors.Is(err, model.ErrProductNotFound) {
			s.logger.WithFields(logrus.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
			}).Warn("product no longer exists, skipping stock release")
			continue
		}
		s.compensate(ctx, order.ID, applied, undo)
		return err
	}
	return nil
}

func (s *orderService) compensate(ctx context.Context, orderID uuid.UUID, items []model.Item, undo stockOp) {
	for _, item := range items {
		if err := undo(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"order_id":   orderID,
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
			}).Error("failed to compensate stock change")
		}
	}
}

func mergeLineItems(lineItems []LineItem) ([]LineItem, error) {
	if len(lineItems) == 0 {
		return nil, model.ErrEmptyCart
	}
	merged := make([]LineItem, 0, len(lineItems))
	index := make(map[uuid.UUID]int, len(lineItems))
	for _, line := range lineItems {
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return nil, model.ErrInvalidQuantity
		}
		if i, ok := index[line.ProductID]; ok {
			if merged[i].Quantity > MaxLineQuantity-line.Quantity {
				return nil, model.ErrInvalidQuantity
			}
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
