package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"novacart/pkg/domain/model"
)

const orderColumns = `id, buyer_id, total_amount, status, shipping_address, payment_proof, created_at, updated_at`

type orderRow struct {
	ID              uuid.UUID                         `db:"id"`
	BuyerID         uuid.UUID                         `db:"buyer_id"`
	TotalAmount     decimal.Decimal                   `db:"total_amount"`
	Status          string                            `db:"status"`
	ShippingAddress jsonColumn[model.ShippingAddress] `db:"shipping_address"`
	PaymentProof    string                            `db:"payment_proof"`
	CreatedAt       time.Time                         `db:"created_at"`
	UpdatedAt       time.Time                         `db:"updated_at"`
}

type orderItemRow struct {
	OrderID   uuid.UUID       `db:"order_id"`
	Position  int             `db:"position"`
	ProductID uuid.UUID       `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

func NewOrderRepository(connector *Connector) model.OrderRepository {
	return &orderRepository{connector: connector}
}

type orderRepository struct {
	connector *Connector
}

func (r *orderRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	if !order.Status.Valid() {
		return model.ErrInvalidOrderStatus
	}
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin order transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :buyer_id, :total_amount, :status, :shipping_address, :payment_proof, :created_at, :updated_at)`,
		orderRow{
			ID:              order.ID,
			BuyerID:         order.BuyerID,
			TotalAmount:     order.TotalAmount,
			Status:          string(order.Status),
			ShippingAddress: jsonColumn[model.ShippingAddress]{V: order.ShippingAddress},
			PaymentProof:    order.PaymentProof,
			CreatedAt:       order.CreatedAt,
			UpdatedAt:       order.UpdatedAt,
		})
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for i, item := range order.Items {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, quantity, unit_price)
			VALUES (:order_id, :position, :product_id, :quantity, :unit_price)`,
			orderItemRow{
				OrderID:   order.ID,
				Position:  i,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}

	return errors.Wrap(tx.Commit(), "commit order")
}

func (r *orderRepository) Find(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	var row orderRow
	err = db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find order")
	}
	orders, err := r.withItems(ctx, db, []orderRow{row})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	return r.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE buyer_id = ? ORDER BY created_at DESC`, buyerID)
}

func (r *orderRepository) List(ctx context.Context) ([]model.Order, error) {
	return r.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	return r.selectOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
}

func (r *orderRepository) Count(ctx context.Context) (int, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	err = db.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders`)
	return count, errors.Wrap(err, "count orders")
}

func (r *orderRepository) Revenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	query := `SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> ?`
	args := []interface{}{string(model.Cancelled)}
	if !from.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, to.UTC())
	}

	var revenue decimal.Decimal
	if err := db.GetContext(ctx, &revenue, query, args...); err != nil {
		return decimal.Zero, errors.Wrap(err, "sum revenue")
	}
	return revenue, nil
}

func (r *orderRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next model.OrderStatus) (model.OrderStatus, error) {
	if !next.Valid() {
		return "", model.ErrInvalidOrderStatus
	}
	db, err := r.connector.DB(ctx)
	if err != nil {
		return "", err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(next), time.Now().UTC(), id, string(expected))
	if err != nil {
		return "", errors.Wrap(err, "update order status")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", errors.Wrap(err, "update order status")
	}
	if affected > 0 {
		return expected, nil
	}

	var current string
	err = db.GetContext(ctx, &current, `SELECT status FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrOrderNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "read order status")
	}
	return "", model.ErrOrderStatusConflict
}

func (r *orderRepository) selectOrders(ctx context.Context, query string, args ...interface{}) ([]model.Order, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []orderRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	return r.withItems(ctx, db, rows)
}

func (r *orderRepository) withItems(ctx context.Context, db *sqlx.DB, rows []orderRow) ([]model.Order, error) {
	orders := make([]model.Order, 0, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	query, args, err := sqlx.In(`
		SELECT order_id, position, product_id, quantity, unit_price
		FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build order items lookup")
	}
	var itemRows []orderItemRow
	if err := db.SelectContext(ctx, &itemRows, db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	items := make(map[uuid.UUID][]model.Item, len(rows))
	for _, item := range itemRows {
		items[item.OrderID] = append(items[item.OrderID], model.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	for _, row := range rows {
		status, err := model.ParseOrderStatus(row.Status)
		if err != nil {
			return nil, errors.Wrapf(err, "order %s", row.ID)
		}
		orderItems := items[row.ID]
		if orderItems == nil {
			orderItems = []model.Item{}
		}
		orders = append(orders, model.Order{
			ID:              row.ID,
			BuyerID:         row.BuyerID,
			Items:           orderItems,
			TotalAmount:     row.TotalAmount,
			Status:          status,
			ShippingAddress: row.ShippingAddress.V,
			PaymentProof:    row.PaymentProof,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		})
	}
	return orders, nil
}
