package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"labreserve/internal/domain"
)

func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Info("connecting to PostgreSQL")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.Info("using SQLite", zap.String("dsn", dsn))

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
}

// Migrate creates the schema, including the partial unique index that keeps
// at most one PENDING edit proposal per reservation.
func Migrate(db *gorm.DB) error {
	models := []interface{}{
		&domain.User{},
		&domain.Lab{},
		&domain.Workstation{},
		&domain.LabOperatingHours{},
		&domain.LabClosedDay{},
		&domain.LabManager{},
		&domain.Reservation{},
		&domain.ReservationWorkstation{},
		&domain.ReservationEditProposal{},
		&domain.Notification{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}

	// Postgres and SQLite both accept partial indexes.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_pending_proposal
ON reservation_edit_proposals (reservation_id)
WHERE resolution = 'PENDING'`).Error
}
