package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"labreserve/internal/domain"
)

// CatalogRepository serves lab reference data: labs, workstations,
// operating hours, closed days and manager assignments.
type CatalogRepository interface {
	GetLab(ctx context.Context, id int64) (*domain.Lab, error)
	ListLabs(ctx context.Context) ([]domain.Lab, error)
	ListLabsByIDs(ctx context.Context, ids []int64) ([]domain.Lab, error)
	GetOperatingHours(ctx context.Context, labID int64, dayOfWeek int) (*domain.LabOperatingHours, error)
	ListClosedDays(ctx context.Context, labID int64) ([]domain.LabClosedDay, error)
	GetWorkstation(ctx context.Context, id int64) (*domain.Workstation, error)
	ListWorkstations(ctx context.Context, labID int64) ([]domain.Workstation, error)

	IsActiveManager(ctx context.Context, userID, labID int64) (bool, error)
	ManagedLabIDs(ctx context.Context, userID int64) ([]int64, error)
	ListManagers(ctx context.Context, labID int64) ([]domain.User, error)

	SaveLab(ctx context.Context, lab *domain.Lab) error
	SaveWorkstation(ctx context.Context, ws *domain.Workstation) error
	SaveOperatingHours(ctx context.Context, h *domain.LabOperatingHours) error
	SaveClosedDay(ctx context.Context, d *domain.LabClosedDay) error
	AssignManager(ctx context.Context, userID, labID int64) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetLab(ctx context.Context, id int64) (*domain.Lab, error) {
	var lab domain.Lab
	if err := r.db.WithContext(ctx).First(&lab, id).Error; err != nil {
		return nil, translate(err)
	}
	return &lab, nil
}

func (r *catalogRepository) ListLabs(ctx context.Context) ([]domain.Lab, error) {
	var labs []domain.Lab
	if err := r.db.WithContext(ctx).Order("name").Find(&labs).Error; err != nil {
		return nil, translate(err)
	}
	return labs, nil
}

func (r *catalogRepository) ListLabsByIDs(ctx context.Context, ids []int64) ([]domain.Lab, error) {
	if len(ids) == 0 {
		return []domain.Lab{}, nil
	}
	var labs []domain.Lab
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&labs).Error; err != nil {
		return nil, translate(err)
	}
	return labs, nil
}

// GetOperatingHours returns nil, nil when the weekday has no specific record.
func (r *catalogRepository) GetOperatingHours(ctx context.Context, labID int64, dayOfWeek int) (*domain.LabOperatingHours, error) {
	var rows []domain.LabOperatingHours
	err := r.db.WithContext(ctx).
		Where("lab_id = ? AND day_of_week = ?", labID, dayOfWeek).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *catalogRepository) ListClosedDays(ctx context.Context, labID int64) ([]domain.LabClosedDay, error) {
	var days []domain.LabClosedDay
	if err := r.db.WithContext(ctx).Where("lab_id = ?", labID).Find(&days).Error; err != nil {
		return nil, translate(err)
	}
	return days, nil
}

func (r *catalogRepository) GetWorkstation(ctx context.Context, id int64) (*domain.Workstation, error) {
	var ws domain.Workstation
	if err := r.db.WithContext(ctx).First(&ws, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}

func (r *catalogRepository) ListWorkstations(ctx context.Context, labID int64) ([]domain.Workstation, error) {
	var out []domain.Workstation
	if err := r.db.WithContext(ctx).Where("lab_id = ?", labID).Order("name").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *catalogRepository) IsActiveManager(ctx context.Context, userID, labID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.LabManager{}).
		Where("user_id = ? AND lab_id = ? AND is_active = ?", userID, labID, true).
		Count(&cnt).Error
	if err != nil {
		return false, translate(err)
	}
	return cnt > 0, nil
}

func (r *catalogRepository) ManagedLabIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&domain.LabManager{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("lab_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

func (r *catalogRepository) ListManagers(ctx context.Context, labID int64) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Table("users u").
		Select("u.*").
		Joins("JOIN lab_managers lm ON lm.user_id = u.id").
		Where("lm.lab_id = ? AND lm.is_active = ?", labID, true).
		Order("u.id").
		Scan(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *catalogRepository) SaveLab(ctx context.Context, lab *domain.Lab) error {
	return translate(r.db.WithContext(ctx).Save(lab).Error)
}

func (r *catalogRepository) SaveWorkstation(ctx context.Context, ws *domain.Workstation) error {
	return translate(r.db.WithContext(ctx).Save(ws).Error)
}

func (r *catalogRepository) SaveOperatingHours(ctx context.Context, h *domain.LabOperatingHours) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lab_id"}, {Name: "day_of_week"}},
			DoUpdates: clause.AssignmentColumns([]string{"open_time", "close_time", "is_closed"}),
		}).
		Create(h).Error)
}

func (r *catalogRepository) SaveClosedDay(ctx context.Context, d *domain.LabClosedDay) error {
	return translate(r.db.WithContext(ctx).Save(d).Error)
}

func (r *catalogRepository) AssignManager(ctx context.Context, userID, labID int64) error {
	lm := &domain.LabManager{UserID: userID, LabID: labID, IsActive: true}
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lab_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true}),
		}).
		Create(lm).Error)
}
