package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Sspartak/football-app/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UpsertDesireParams carries a user's expressed intent for a match. When the
// user has no slot yet, one is inserted with InitialStatus (or a default
// derived from the desire); otherwise only the desire field is updated and
// the reconciliation pass settles the rest.
type UpsertDesireParams struct {
	MatchID       string
	UserID        string
	Nickname      string
	Desire        models.SlotDesire
	InitialStatus models.SlotStatus
}

type SlotRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	GetSlots(ctx context.Context, tx *gorm.DB, matchID string) ([]models.MatchSlot, error)
	GetUserSlot(ctx context.Context, tx *gorm.DB, matchID, userID string) (*models.MatchSlot, error)
	GetSlotByID(ctx context.Context, tx *gorm.DB, slotID string) (*models.MatchSlot, error)
	Insert(ctx context.Context, tx *gorm.DB, slot *models.MatchSlot) error
	UpsertUserDesire(ctx context.Context, tx *gorm.DB, p UpsertDesireParams) error
	UpdateSlotState(ctx context.Context, tx *gorm.DB, slotID string, patch map[string]any) error
	RemoveUserSlot(ctx context.Context, tx *gorm.DB, matchID, userID string) error
	RemoveSlotByID(ctx context.Context, tx *gorm.DB, slotID string) error
}

type slotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) SlotRepository {
	return &slotRepository{db: db}
}

func (r *slotRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *slotRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// GetSlots returns every slot of the match ordered by creation time. Callers
// rely on this ordering as the default queue tie-break.
func (r *slotRepository) GetSlots(ctx context.Context, tx *gorm.DB, matchID string) ([]models.MatchSlot, error) {
	var slots []models.MatchSlot
	err := r.conn(tx).WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *slotRepository) GetUserSlot(ctx context.Context, tx *gorm.DB, matchID, userID string) (*models.MatchSlot, error) {
	var slot models.MatchSlot
	err := r.conn(tx).WithContext(ctx).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) GetSlotByID(ctx context.Context, tx *gorm.DB, slotID string) (*models.MatchSlot, error) {
	var slot models.MatchSlot
	err := r.conn(tx).WithContext(ctx).First(&slot, "id = ?", slotID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) Insert(ctx context.Context, tx *gorm.DB, slot *models.MatchSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	return r.conn(tx).WithContext(ctx).Create(slot).Error
}

func (r *slotRepository) UpsertUserDesire(ctx context.Context, tx *gorm.DB, p UpsertDesireParams) error {
	existing, err := r.GetUserSlot(ctx, tx, p.MatchID, p.UserID)
	if err != nil {
		return err
	}

	if existing != nil {
		return r.UpdateSlotState(ctx, tx, existing.ID, map[string]any{"desire": p.Desire})
	}

	status := p.InitialStatus
	if status == "" {
		if p.Desire == models.DesireNotGoing {
			status = models.StatusNotGoing
		} else {
			status = models.StatusReserve
		}
	}

	userID := p.UserID
	desire := p.Desire
	return r.Insert(ctx, tx, &models.MatchSlot{
		MatchID:  p.MatchID,
		UserID:   &userID,
		Nickname: p.Nickname,
		Status:   status,
		Desire:   &desire,
	})
}

// UpdateSlotState applies a partial patch; only the listed columns change.
// A nil value clears the column.
func (r *slotRepository) UpdateSlotState(ctx context.Context, tx *gorm.DB, slotID string, patch map[string]any) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.MatchSlot{}).
		Where("id = ?", slotID).
		Updates(patch).Error
}

func (r *slotRepository) RemoveUserSlot(ctx context.Context, tx *gorm.DB, matchID, userID string) error {
	return r.conn(tx).WithContext(ctx).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Delete(&models.MatchSlot{}).Error
}

func (r *slotRepository) RemoveSlotByID(ctx context.Context, tx *gorm.DB, slotID string) error {
	return r.conn(tx).WithContext(ctx).
		Where("id = ?", slotID).
		Delete(&models.MatchSlot{}).Error
}
