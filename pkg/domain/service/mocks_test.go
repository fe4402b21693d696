package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"novacart/pkg/domain/model"
	"novacart/pkg/domain/service"
)

var _ model.ProductRepository = &mockProductRepository{}

type mockProductRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*model.Product
	// failDecrementFor makes DecrementStock fail with an infrastructure error for that product.
	failDecrementFor uuid.UUID
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{store: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepository) add(name string, price int64, stock int) *model.Product {
	p := &model.Product{ID: uuid.New(), Name: name, Price: decimal.NewFromInt(price), Stock: stock}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.ID] = p
	clone := *p
	return &clone
}

func (m *mockProductRepository) stock(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id].Stock
}

func (m *mockProductRepository) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (m *mockProductRepository) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.store[p.ID] = &clone
	return nil
}

func (m *mockProductRepository) Update(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.ID]; !ok {
		return model.ErrProductNotFound
	}
	clone := *p
	m.store[p.ID] = &clone
	return nil
}

func (m *mockProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockProductRepository) Find(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.store[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, model.ErrProductNotFound
}

func (m *mockProductRepository) FindMany(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Product
	for _, id := range ids {
		if p, ok := m.store[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockProductRepository) List(_ context.Context, filter model.ProductFilter) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Product
	for _, p := range m.store {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.DealsOnly && !p.IsDeal {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockProductRepository) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *mockProductRepository) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == m.failDecrementFor {
		return errors.New("connection reset")
	}
	p, ok := m.store[id]
	if !ok {
		return model.ErrProductNotFound
	}
	if p.Stock < qty {
		return model.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (m *mockProductRepository) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return model.ErrProductNotFound
	}
	p.Stock += qty
	return nil
}

var _ model.OrderRepository = &mockOrderRepository{}

type mockOrderRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*model.Order
	// beforeSwap runs inside CompareAndSetStatus before the status check to simulate a racing writer.
	beforeSwap func(order *model.Order)
	// afterFind runs once, outside the lock, after the next Find has taken its snapshot.
	afterFind func()
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{store: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepository) status(id uuid.UUID) model.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id].Status
}

func (m *mockOrderRepository) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (m *mockOrderRepository) Create(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[order.ID]; exists {
		return errors.New("order with this ID already exists")
	}
	clone := *order
	m.store[order.ID] = &clone
	return nil
}

func (m *mockOrderRepository) Find(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	order, ok := m.store[id]
	var clone model.Order
	if ok {
		clone = *order
	}
	hook := m.afterFind
	m.afterFind = nil
	m.mu.Unlock()

	if !ok {
		return nil, model.ErrOrderNotFound
	}
	if hook != nil {
		hook()
	}
	return &clone, nil
}

func (m *mockOrderRepository) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	var result []model.Order
	for _, order := range m.sorted() {
		if order.BuyerID == buyerID {
			result = append(result, order)
		}
	}
	return result, nil
}

func (m *mockOrderRepository) List(_ context.Context) ([]model.Order, error) {
	return m.sorted(), nil
}

func (m *mockOrderRepository) ListRecent(_ context.Context, limit int) ([]model.Order, error) {
	orders := m.sorted()
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (m *mockOrderRepository) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *mockOrderRepository) Revenue(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, order := range m.sorted() {
		if order.Status == model.Cancelled {
			continue
		}
		if !from.IsZero() && order.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !order.CreatedAt.Before(to) {
			continue
		}
		total = total.Add(order.TotalAmount)
	}
	return total, nil
}

func (m *mockOrderRepository) CompareAndSetStatus(_ context.Context, id uuid.UUID, expected, next model.OrderStatus) (model.OrderStatus, error) {
	if !next.Valid() {
		return "", model.ErrInvalidOrderStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.store[id]
	if !ok {
		return "", model.ErrOrderNotFound
	}
	if m.beforeSwap != nil {
		m.beforeSwap(order)
	}
	if order.Status != expected {
		return "", model.ErrOrderStatusConflict
	}
	previous := order.Status
	order.Status = next
	return previous, nil
}

func (m *mockOrderRepository) sorted() []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]model.Order, 0, len(m.store))
	for _, order := range m.store {
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

var _ model.UserRepository = &mockUserRepository{}

type mockUserRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*model.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{store: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepository) add(name string, role model.Role) *model.User {
	u := &model.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Role: role, PasswordHash: "secret-hashed"}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[u.ID] = u
	clone := *u
	return &clone
}

func (m *mockUserRepository) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (m *mockUserRepository) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Email == user.Email {
			return model.ErrEmailTaken
		}
	}
	clone := *user
	m.store[user.ID] = &clone
	return nil
}

func (m *mockUserRepository) Find(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.store[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) FindMany(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, id := range ids {
		if u, ok := m.store[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepository) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.store {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepository) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.store {
		if u.Role == role {
			result = append(result, *u)
		}
	}
	return result, nil
}

var _ model.NotificationRepository = &mockNotificationRepository{}

type mockNotificationRepository struct {
	mu    sync.Mutex
	store []*model.Notification
}

func newMockNotificationRepository() *mockNotificationRepository {
	return &mockNotificationRepository{}
}

func (m *mockNotificationRepository) forRecipient(recipientID uuid.UUID, notificationType model.NotificationType) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for _, n := range m.store {
		if n.RecipientID == recipientID && n.Type == notificationType {
			result = append(result, *n)
		}
	}
	return result
}

func (m *mockNotificationRepository) ofType(notificationType model.NotificationType) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for _, n := range m.store {
		if n.Type == notificationType {
			result = append(result, *n)
		}
	}
	return result
}

func (m *mockNotificationRepository) NextID() (uuid.UUID, error) { return uuid.New(), nil }

func (m *mockNotificationRepository) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *n
	m.store = append(m.store, &clone)
	return nil
}

func (m *mockNotificationRepository) ListForRecipient(_ context.Context, recipientID uuid.UUID, limit int) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for i := len(m.store) - 1; i >= 0 && len(result) < limit; i-- {
		if m.store[i].RecipientID == recipientID {
			result = append(result, *m.store[i])
		}
	}
	return result, nil
}

func (m *mockNotificationRepository) UnreadCount(_ context.Context, recipientID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.store {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepository) MarkRead(_ context.Context, recipientID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.store {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return model.ErrNotificationNotFound
}

func (m *mockNotificationRepository) MarkAllRead(_ context.Context, recipientID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.store {
		if n.RecipientID == recipientID {
			n.Read = true
		}
	}
	return nil
}

type mockPasswordManager struct{}

func (m *mockPasswordManager) Hash(p string) (string, error) { return p + "-hashed", nil }
func (m *mockPasswordManager) Check(h, p string) (bool, error) {
	return h == p+"-hashed", nil
}

type mockTokens struct {
	// tokens maps issued token strings to the user they were issued for.
	tokens map[string]uuid.UUID
}

func newMockTokens() *mockTokens {
	return &mockTokens{tokens: make(map[string]uuid.UUID)}
}

func (m *mockTokens) Issue(userID uuid.UUID) (string, error) {
	token := "token-" + userID.String()
	m.tokens[token] = userID
	return token, nil
}

func (m *mockTokens) Verify(token string) (model.Identity, error) {
	userID, ok := m.tokens[token]
	if !ok {
		return model.Identity{}, model.NewAuthError(model.AuthInvalid, errors.New("unknown token"))
	}
	return model.Identity{UserID: userID}, nil
}

var _ service.EventDispatcher = &mockEventDispatcher{}

type mockEventDispatcher struct {
	mu     sync.Mutex
	events []service.Event
}

func (m *mockEventDispatcher) Dispatch(event service.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
