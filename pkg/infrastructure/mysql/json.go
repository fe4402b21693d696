package mysql

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// jsonColumn stores a value in a MySQL JSON column.
type jsonColumn[T any] struct {
	V T
}

func (c jsonColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *jsonColumn[T]) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		var zero T
		c.V = zero
		return nil
	case []byte:
		return json.Unmarshal(v, &c.V)
	case string:
		return json.Unmarshal([]byte(v), &c.V)
	default:
		return errors.Errorf("unsupported JSON column type %T", src)
	}
}
