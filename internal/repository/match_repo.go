package repository

import (
	"context"

	"github.com/Sspartak/football-app/internal/models"
	"gorm.io/gorm"
)

type MatchRepository interface {
	FindByID(ctx context.Context, id string) (*models.Match, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Match, error)
	UpdateLimitEverReached(ctx context.Context, tx *gorm.DB, id string, value bool) error
}

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *matchRepository) FindByID(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// FindByIDForUpdate acquires a row-level lock on the match within the given
// transaction, serializing concurrent voting operations on the same match.
func (r *matchRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Match, error) {
	var match models.Match
	if err := r.conn(tx).WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		First(&match, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) UpdateLimitEverReached(ctx context.Context, tx *gorm.DB, id string, value bool) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ?", id).
		Update("limit_ever_reached", value).Error
}
