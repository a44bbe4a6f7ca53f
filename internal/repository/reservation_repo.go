package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"labreserve/internal/domain"
)

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	Update(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	ListByGroup(ctx context.Context, groupID string) ([]domain.Reservation, error)
	ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error)
	ListByStatusInLabs(ctx context.Context, status domain.ReservationStatus, labIDs []int64) ([]domain.Reservation, error)
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	normalizeTimes(res)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(res).Error; err != nil {
		return translate(err)
	}
	return r.replaceWorkstations(db, res)
}

// Update writes every column and replaces the workstation set.
func (r *reservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	normalizeTimes(res)
	db := r.db.WithContext(ctx)
	err := db.Model(res).
		Select("start_time", "end_time", "description", "status", "whole_lab",
			"recurring_group_id", "recurrence_pattern", "decision_reason", "updated_at").
		Omit(clause.Associations).
		Updates(res).Error
	if err != nil {
		return translate(err)
	}
	return r.replaceWorkstations(db, res)
}

// normalizeTimes stores instants in UTC so that SQLite, which keeps them as
// text, orders them correctly.
func normalizeTimes(res *domain.Reservation) {
	res.StartTime = res.StartTime.UTC()
	res.EndTime = res.EndTime.UTC()
}

func (r *reservationRepository) replaceWorkstations(db *gorm.DB, res *domain.Reservation) error {
	if err := db.Where("reservation_id = ?", res.ID).Delete(&domain.ReservationWorkstation{}).Error; err != nil {
		return translate(err)
	}
	if res.WholeLab || len(res.WorkstationIDs) == 0 {
		return nil
	}
	rows := make([]domain.ReservationWorkstation, 0, len(res.WorkstationIDs))
	for _, id := range res.WorkstationIDs {
		rows = append(rows, domain.ReservationWorkstation{ReservationID: res.ID, WorkstationID: id})
	}
	return translate(db.Create(&rows).Error)
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Lab").
		Where("id = ?", id).
		First(&res).Error
	if err != nil {
		return nil, translate(err)
	}
	out := []domain.Reservation{res}
	if err := r.loadWorkstations(ctx, out); err != nil {
		return nil, translate(err)
	}
	return &out[0], nil
}

func (r *reservationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return r.list(ctx, r.db.Where("user_id = ?", userID))
}

func (r *reservationRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.Reservation, error) {
	return r.list(ctx, r.db.Where("recurring_group_id = ?", groupID))
}

func (r *reservationRepository) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.list(ctx, r.db.Where("status = ?", status))
}

func (r *reservationRepository) ListByStatusInLabs(ctx context.Context, status domain.ReservationStatus, labIDs []int64) ([]domain.Reservation, error) {
	if len(labIDs) == 0 {
		return []domain.Reservation{}, nil
	}
	return r.list(ctx, r.db.Where("status = ? AND lab_id IN ?", status, labIDs))
}

func (r *reservationRepository) list(ctx context.Context, scope *gorm.DB) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := scope.WithContext(ctx).
		Preload("User").
		Preload("Lab").
		Order("start_time, id").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	if err := r.loadWorkstations(ctx, rows); err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (r *reservationRepository) loadWorkstations(ctx context.Context, rows []domain.Reservation) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, 0, len(rows))
	for _, res := range rows {
		ids = append(ids, res.ID)
	}

	var links []domain.ReservationWorkstation
	err := r.db.WithContext(ctx).
		Where("reservation_id IN ?", ids).
		Order("workstation_id").
		Find(&links).Error
	if err != nil {
		return translate(err)
	}

	byReservation := make(map[string][]int64, len(rows))
	for _, l := range links {
		byReservation[l.ReservationID] = append(byReservation[l.ReservationID], l.WorkstationID)
	}
	for i := range rows {
		rows[i].WorkstationIDs = byReservation[rows[i].ID]
		if rows[i].WorkstationIDs == nil {
			rows[i].WorkstationIDs = []int64{}
		}
	}
	return nil
}
