package order

import (
	"context"
	"errors"
	"fmt"

	"pos-be/internal/catalog"
	"pos-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Builder materialises new line subtrees from validated input, resolving
// external references through the catalog.
type Builder struct {
	catalog catalog.Repository
}

func NewBuilder(c catalog.Repository) *Builder {
	return &Builder{catalog: c}
}

// Build creates an unsaved line. Children are only attached to MENU and
// SPECIAL lines and are always plain products.
func (b *Builder) Build(ctx context.Context, in LineInput) (*Item, error) {
	item, err := b.newItem(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.ProductID == nil {
		item.Type = ItemTypeDiverseOther
		if in.Type != nil {
			item.Type = *in.Type
		}
		item.DiversePrice = in.DiversePrice
		return item, nil
	}

	product, err := b.product(ctx, *in.ProductID)
	if err != nil {
		return nil, err
	}
	item.Product = product
	item.Type = itemTypeFor(product.Type)
	if in.Type != nil {
		item.Type = *in.Type
	}

	if !item.Type.IsComposite() {
		return item, nil
	}
	if item.Type == ItemTypeSpecial && len(in.Children) > 1 {
		return nil, newValidationError(fieldError("orderItems", "%s lines take at most one child", ItemTypeSpecial))
	}

	for _, childIn := range in.Children {
		child, err := b.buildChild(ctx, childIn)
		if err != nil {
			return nil, err
		}
		item.Children = append(item.Children, child)
	}

	return item, nil
}

func (b *Builder) buildChild(ctx context.Context, in LineInput) (*Item, error) {
	if in.ProductID == nil {
		return nil, catalog.ErrProductNotFound
	}

	child, err := b.newItem(ctx, in)
	if err != nil {
		return nil, err
	}
	child.Type = ItemTypeProduct
	child.Product, err = b.product(ctx, *in.ProductID)
	if err != nil {
		return nil, err
	}
	return child, nil
}

// newItem fills the fields shared by every line type.
func (b *Builder) newItem(ctx context.Context, in LineInput) (*Item, error) {
	externalID, err := clientID(in.ID)
	if err != nil {
		return nil, err
	}

	item := &Item{
		ExternalID: externalID,
		Count:      in.Count,
		Discount:   in.Discount,
		Notes:      in.Notes,
		TakeAway:   in.TakeAway,
		Course:     in.Course,
	}

	if item.Offer, err = b.offer(ctx, in.OfferID); err != nil {
		return nil, err
	}

	for _, vIn := range in.Variations {
		v, err := b.BuildVariation(ctx, vIn)
		if err != nil {
			return nil, err
		}
		item.Variations = append(item.Variations, v)
	}

	return item, nil
}

// BuildVariation resolves every variation item of a new variation.
func (b *Builder) BuildVariation(ctx context.Context, in VariationInput) (*Variation, error) {
	externalID, err := clientID(in.ID)
	if err != nil {
		return nil, err
	}

	v := &Variation{ExternalID: externalID, Count: in.Count}
	for _, raw := range in.VariationItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", catalog.ErrVariationItemNotFound, raw)
		}
		vi, err := b.catalog.FindVariationItemByExternalID(ctx, id)
		if err != nil {
			return nil, err
		}
		v.Items = append(v.Items, *vi)
	}
	return v, nil
}

func (b *Builder) product(ctx context.Context, raw string) (*catalog.Product, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", catalog.ErrProductNotFound, raw)
	}
	return b.catalog.FindProductByExternalID(ctx, id)
}

// offer resolves best effort: an unknown offer means no offer.
func (b *Builder) offer(ctx context.Context, raw *string) (*catalog.Offer, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, nil
	}

	o, err := b.catalog.FindOfferByExternalID(ctx, id)
	if errors.Is(err, catalog.ErrOfferNotFound) {
		logger.FromCtx(ctx).Warn("ignoring unknown offer", zap.String("offer_id", *raw))
		return nil, nil
	}
	return o, err
}

func clientID(raw *string) (uuid.UUID, error) {
	if raw == nil {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return uuid.Nil, newValidationError(fieldError("id", "must be a UUID"))
	}
	return id, nil
}
