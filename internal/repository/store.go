package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one database handle, so a
// workflow step can run all of its writes inside a single transaction.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Catalog       CatalogRepository
	Reservations  ReservationRepository
	Proposals     ProposalRepository
	Notifications NotificationRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Catalog:       NewCatalogRepository(db),
		Reservations:  NewReservationRepository(db),
		Proposals:     NewProposalRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTx runs fn against a Store bound to one transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
