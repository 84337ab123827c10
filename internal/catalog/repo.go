package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchkit/quotes-backend/pkg/db/models"
)

// Repository reads the reference data quotes are priced against. Lookups
// used for snapshotting tolerate soft-deleted rows; tier reads do not,
// a retired tier must never price a new quote.
type Repository interface {
	ActiveCostScaleTiers(ctx context.Context) ([]models.CostScaleTier, error)
	ActiveIncrementTiers(ctx context.Context) ([]models.ComponentIncrementTier, error)
	FindPaymentCondition(ctx context.Context, id uuid.UUID) (*models.PaymentCondition, error)
	FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	FindBoxes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Box, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveCostScaleTiers(ctx context.Context) ([]models.CostScaleTier, error) {
	var tiers []models.CostScaleTier
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("quantity_from ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) ActiveIncrementTiers(ctx context.Context) ([]models.ComponentIncrementTier, error) {
	var tiers []models.ComponentIncrementTier
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("components_from ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

// FindPaymentCondition returns the condition even when soft-deleted, so a
// stale reference still snapshots its last known values. Returns nil when
// the row never existed.
func (r *repository) FindPaymentCondition(ctx context.Context, id uuid.UUID) (*models.PaymentCondition, error) {
	var cond models.PaymentCondition
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&cond).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cond, nil
}

func (r *repository) FindClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Product{}, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

func (r *repository) FindBoxes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Box, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Box{}, nil
	}
	var rows []models.Box
	err := r.db.WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Box, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}
