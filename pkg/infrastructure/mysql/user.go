package mysql

import (
	"context"
	"database/sql"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"novacart/pkg/domain/model"
)

const (
	userColumns       = `id, name, email, password_hash, role, created_at, updated_at`
	errDuplicateEntry = 1062
)

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         model.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func NewUserRepository(connector *Connector) model.UserRepository {
	return &userRepository{connector: connector}
}

type userRepository struct {
	connector *Connector
}

func (r *userRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :email, :password_hash, :role, :created_at, :updated_at)`,
		userRow{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			PasswordHash: user.PasswordHash,
			Role:         string(user.Role),
			CreatedAt:    user.CreatedAt,
			UpdatedAt:    user.UpdatedAt,
		})
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry {
		return model.ErrEmailTaken
	}
	return errors.Wrap(err, "insert user")
}

func (r *userRepository) Find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *userRepository) FindMany(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build user lookup")
	}
	return r.selectUsers(ctx, db.Rebind(query), args...)
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	return r.selectUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
}

func (r *userRepository) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	return r.selectUsers(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at`, string(role))
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	var row userRow
	err = db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	user := row.toModel()
	return &user, nil
}

func (r *userRepository) selectUsers(ctx context.Context, query string, args ...interface{}) ([]model.User, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}
