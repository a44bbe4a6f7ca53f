package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"labreserve/internal/domain"
)

type ProposalRepository interface {
	// Create returns ErrDuplicate when a PENDING proposal already exists.
	Create(ctx context.Context, p *domain.ReservationEditProposal) error
	Resolve(ctx context.Context, p *domain.ReservationEditProposal) error
	GetPending(ctx context.Context, reservationID string) (*domain.ReservationEditProposal, error)
	HasPending(ctx context.Context, reservationID string) (bool, error)
	ListByReservation(ctx context.Context, reservationID string) ([]domain.ReservationEditProposal, error)
}

type proposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) Create(ctx context.Context, p *domain.ReservationEditProposal) error {
	for _, snap := range []*domain.FieldSnapshot{&p.Original, &p.Proposed} {
		snap.StartTime = snap.StartTime.UTC()
		snap.EndTime = snap.EndTime.UTC()
	}
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

// Resolve only touches rows still PENDING, so a proposal is resolved once.
func (r *proposalRepository) Resolve(ctx context.Context, p *domain.ReservationEditProposal) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.ReservationEditProposal{}).
		Where("id = ? AND resolution = ?", p.ID, domain.ProposalPending).
		Updates(map[string]interface{}{
			"resolution":        p.Resolution,
			"resolved_by_id":    p.ResolvedByID,
			"resolved_at":       p.ResolvedAt,
			"resolution_reason": p.ResolutionReason,
		})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *proposalRepository) GetPending(ctx context.Context, reservationID string) (*domain.ReservationEditProposal, error) {
	var p domain.ReservationEditProposal
	err := r.db.WithContext(ctx).
		Preload("EditedBy").
		Where("reservation_id = ? AND resolution = ?", reservationID, domain.ProposalPending).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *proposalRepository) HasPending(ctx context.Context, reservationID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.ReservationEditProposal{}).
		Where("reservation_id = ? AND resolution = ?", reservationID, domain.ProposalPending).
		Count(&cnt).Error
	if err != nil {
		return false, translate(err)
	}
	return cnt > 0, nil
}

func (r *proposalRepository) ListByReservation(ctx context.Context, reservationID string) ([]domain.ReservationEditProposal, error) {
	var out []domain.ReservationEditProposal
	err := r.db.WithContext(ctx).
		Preload("EditedBy").
		Where("reservation_id = ?", reservationID).
		Order("created_at, id").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
