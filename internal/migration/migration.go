package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	accountdomain "github.com/smallbiznis/collections/internal/account/domain"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	errorlogdomain "github.com/smallbiznis/collections/internal/errorlog/domain"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
	locationdomain "github.com/smallbiznis/collections/internal/location/domain"
	nonrentabledomain "github.com/smallbiznis/collections/internal/nonrentable/domain"
	renterdomain "github.com/smallbiznis/collections/internal/renter/domain"
	sectiondomain "github.com/smallbiznis/collections/internal/section/domain"
	stalldomain "github.com/smallbiznis/collections/internal/stall/domain"
	dbpkg "github.com/smallbiznis/collections/pkg/db"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in creation order.
func Models() []any {
	return []any{
		&accountdomain.Account{},
		&accountdomain.SystemAccess{},
		&locationdomain.Location{},
		&sectiondomain.Section{},
		&renterdomain.Renter{},
		&stalldomain.Stall{},
		&nonrentabledomain.Nonrentable{},
		&invoicedomain.Invoice{},
		&invoicedomain.GenerationRecord{},
		&changelogdomain.ChangeLog{},
		&errorlogdomain.ErrorLog{},
	}
}

// Apply runs the embedded SQL migrations on PostgreSQL and gorm AutoMigrate
// on every other dialect.
func Apply(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if !dbpkg.IsPostgres(conn) {
		return conn.AutoMigrate(Models()...)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
