package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	productdomain "github.com/smallbiznis/barberdesk/internal/product/domain"
	salondomain "github.com/smallbiznis/barberdesk/internal/salonservice/domain"
	staffdomain "github.com/smallbiznis/barberdesk/internal/staff/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&customerdomain.Customer{},
		&staffdomain.Staff{},
		&salondomain.SalonService{},
		&productdomain.Product{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceServiceLine{},
		&invoicedomain.InvoiceProductLine{},
		&invoicedomain.TaxComponent{},
		&auditdomain.AuditLog{},
	}
}

// RunMigrations applies the embedded postgres migrations.
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

// AutoMigrate builds the schema from the gorm models. sqlite and mysql use it
// in place of the SQL migrations.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(Models()...)
}
