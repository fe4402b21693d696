package mysql

import (
	"context"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to the latest embedded version.
func Migrate(ctx context.Context, connector *Connector, logger logrus.FieldLogger) error {
	db, err := connector.DB(ctx)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "open embedded migrations")
	}
	driver, err := migratemysql.WithInstance(db.DB, &migratemysql.Config{})
	if err != nil {
		return errors.Wrap(err, "create migrate driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "mysql", driver)
	if err != nil {
		return errors.Wrap(err, "create migrator")
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema is up to date")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "apply migrations")
	}

	version, _, _ := m.Version()
	logger.WithField("version", version).Info("schema migrated")
	return nil
}
