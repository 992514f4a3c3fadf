package catalog

import (
	"context"
	"database/sql"
	"errors"

	"pos-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	FindProductByExternalID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindVariationItemByExternalID(ctx context.Context, id uuid.UUID) (*VariationItem, error)
	FindOfferByExternalID(ctx context.Context, id uuid.UUID) (*Offer, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindProductByExternalID(ctx context.Context, id uuid.UUID) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FindProductByExternalID"),
		zap.String("product_id", id.String()),
	)

	var p Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, external_id, name, price, type
		FROM products
		WHERE external_id = $1
	`, id).Scan(&p.ID, &p.ExternalID, &p.Name, &p.Price, &p.Type)

	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("product not found")
		return nil, ErrProductNotFound
	}
	if err != nil {
		log.Error("failed to query product", zap.Error(err))
		return nil, err
	}

	return &p, nil
}

func (r *repository) FindVariationItemByExternalID(ctx context.Context, id uuid.UUID) (*VariationItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FindVariationItemByExternalID"),
		zap.String("variation_item_id", id.String()),
	)

	var v VariationItem
	err := r.db.QueryRowContext(ctx, `
		SELECT id, external_id, name
		FROM variation_items
		WHERE external_id = $1
	`, id).Scan(&v.ID, &v.ExternalID, &v.Name)

	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("variation item not found")
		return nil, ErrVariationItemNotFound
	}
	if err != nil {
		log.Error("failed to query variation item", zap.Error(err))
		return nil, err
	}

	return &v, nil
}

func (r *repository) FindOfferByExternalID(ctx context.Context, id uuid.UUID) (*Offer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FindOfferByExternalID"),
		zap.String("offer_id", id.String()),
	)

	var o Offer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, external_id, name
		FROM offers
		WHERE external_id = $1
	`, id).Scan(&o.ID, &o.ExternalID, &o.Name)

	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("offer not found")
		return nil, ErrOfferNotFound
	}
	if err != nil {
		log.Error("failed to query offer", zap.Error(err))
		return nil, err
	}

	return &o, nil
}
