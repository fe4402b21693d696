package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"novacart/pkg/domain/model"
)

const productColumns = `id, name, description, price, category, images, stock, is_deal, created_at, updated_at`

type productRow struct {
	ID          uuid.UUID            `db:"id"`
	Name        string               `db:"name"`
	Description string               `db:"description"`
	Price       decimal.Decimal      `db:"price"`
	Category    string               `db:"category"`
	Images      jsonColumn[[]string] `db:"images"`
	Stock       int                  `db:"stock"`
	IsDeal      bool                 `db:"is_deal"`
	CreatedAt   time.Time            `db:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at"`
}

func (r productRow) toModel() model.Product {
	images := r.Images.V
	if images == nil {
		images = []string{}
	}
	return model.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Images:      images,
		Stock:       r.Stock,
		IsDeal:      r.IsDeal,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func productToRow(p *model.Product) productRow {
	return productRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Images:      jsonColumn[[]string]{V: p.Images},
		Stock:       p.Stock,
		IsDeal:      p.IsDeal,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductRepository(connector *Connector) model.ProductRepository {
	return &productRepository{connector: connector}
}

type productRepository struct {
	connector *Connector
}

func (r *productRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (:id, :name, :description, :price, :category, :images, :stock, :is_deal, :created_at, :updated_at)`,
		productToRow(product))
	return errors.Wrap(err, "insert product")
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.NamedExecContext(ctx, `
		UPDATE products
		SET name = :name, description = :description, price = :price, category = :category,
		    images = :images, stock = :stock, is_deal = :is_deal, updated_at = :updated_at
		WHERE id = :id`,
		productToRow(product))
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	return requireAffected(res, model.ErrProductNotFound)
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	return requireAffected(res, model.ErrProductNotFound)
}

func (r *productRepository) Find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	var row productRow
	err = db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	product := row.toModel()
	return &product, nil
}

func (r *productRepository) FindMany(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build product lookup")
	}
	return r.selectProducts(ctx, db, db.Rebind(query), args...)
}

func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.DealsOnly {
		conditions = append(conditions, "is_deal = TRUE")
	}
	query := `SELECT ` + productColumns + ` FROM products`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	return r.selectProducts(ctx, db, query, args...)
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	err = db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`)
	return count, errors.Wrap(err, "count products")
}

// DecrementStock relies on the WHERE clause as the serialization point: of two concurrent
// decrements only those that still fit the remaining stock match a row.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		qty, time.Now().UTC(), id, qty)
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, id)
	if err != nil {
		return errors.Wrap(err, "check product")
	}
	if !exists {
		return model.ErrProductNotFound
	}
	return model.ErrInsufficientStock
}

func (r *productRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
		qty, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "increment stock")
	}
	return requireAffected(res, model.ErrProductNotFound)
}

func (r *productRepository) selectProducts(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) ([]model.Product, error) {
	var rows []productRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select products")
	}
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products, nil
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
