package order

import (
	"context"
	"database/sql"
	"errors"

	"pos-be/internal/catalog"
	"pos-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// GetOrderByExternalID loads the order with its whole item forest.
	GetOrderByExternalID(ctx context.Context, id uuid.UUID) (*Order, error)

	// Apply persists a changeset in a single transaction.
	Apply(ctx context.Context, orderID int64, cs *Changeset) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrderByExternalID(ctx context.Context, id uuid.UUID) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetOrderByExternalID"),
		zap.String("order_id", id.String()),
	)

	var (
		o         Order
		companyID int64
		tableID   sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, o.external_id, r.company_id, o.table_id, o.created_at, o.updated_at
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		WHERE o.external_id = $1
	`, id).Scan(&o.ID, &o.ExternalID, &companyID, &tableID, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("order not found")
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to query order", zap.Error(err))
		return nil, err
	}

	o.CompanyID = uint(companyID)
	if tableID.Valid {
		o.TableID = &tableID.Int64
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, err
	}
	if err := r.loadVariations(ctx, o.ID, items); err != nil {
		log.Error("failed to load order item variations", zap.Error(err))
		return nil, err
	}

	o.Items = buildForest(items)
	return &o, nil
}

func (r *repository) loadItems(ctx context.Context, orderID int64) ([]*Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.external_id, oi.parent_id, oi.type, oi.count, oi.discount,
		       oi.diverse_price, oi.notes, oi.take_away, oi.course,
		       p.id, p.external_id, p.name, p.price, p.type,
		       f.id, f.external_id, f.name
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		LEFT JOIN offers f ON f.id = oi.offer_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var (
			item         Item
			parentID     sql.NullInt64
			diversePrice sql.NullInt64
			notes        sql.NullString
			course       sql.NullInt64

			productID    sql.NullInt64
			productExtID uuid.NullUUID
			productName  sql.NullString
			productPrice sql.NullInt64
			productType  sql.NullString

			offerID    sql.NullInt64
			offerExtID uuid.NullUUID
			offerName  sql.NullString
		)

		if err := rows.Scan(
			&item.ID, &item.ExternalID, &parentID, &item.Type, &item.Count, &item.Discount,
			&diversePrice, &notes, &item.TakeAway, &course,
			&productID, &productExtID, &productName, &productPrice, &productType,
			&offerID, &offerExtID, &offerName,
		); err != nil {
			return nil, err
		}

		if parentID.Valid {
			item.ParentID = &parentID.Int64
		}
		if diversePrice.Valid {
			v := int(diversePrice.Int64)
			item.DiversePrice = &v
		}
		if notes.Valid {
			item.Notes = &notes.String
		}
		if course.Valid {
			v := int(course.Int64)
			item.Course = &v
		}
		if productID.Valid {
			item.Product = &catalog.Product{
				ID:         productID.Int64,
				ExternalID: productExtID.UUID,
				Name:       productName.String,
				Price:      int(productPrice.Int64),
				Type:       catalog.ProductType(productType.String),
			}
		}
		if offerID.Valid {
			item.Offer = &catalog.Offer{
				ID:         offerID.Int64,
				ExternalID: offerExtID.UUID,
				Name:       offerName.String,
			}
		}

		items = append(items, &item)
	}

	return items, rows.Err()
}

func (r *repository) loadVariations(ctx context.Context, orderID int64, items []*Item) error {
	byID := make(map[int64]*Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.external_id, v.order_item_id, v.count,
		       vi.id, vi.external_id, vi.name
		FROM order_item_variations v
		JOIN order_items oi ON oi.id = v.order_item_id
		LEFT JOIN order_item_variation_items l ON l.order_item_variation_id = v.id
		LEFT JOIN variation_items vi ON vi.id = l.variation_item_id
		WHERE oi.order_id = $1
		ORDER BY v.id, vi.id
	`, orderID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var current *Variation
	for rows.Next() {
		var (
			v       Variation
			itemID  int64
			viID    sql.NullInt64
			viExtID uuid.NullUUID
			viName  sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.ExternalID, &itemID, &v.Count, &viID, &viExtID, &viName); err != nil {
			return err
		}

		if current == nil || current.ID != v.ID {
			current = &v
			if owner, ok := byID[itemID]; ok {
				owner.Variations = append(owner.Variations, current)
			}
		}
		if viID.Valid {
			current.Items = append(current.Items, catalog.VariationItem{
				ID:         viID.Int64,
				ExternalID: viExtID.UUID,
				Name:       viName.String,
			})
		}
	}

	return rows.Err()
}

// buildForest attaches children to their parents and returns the roots in
// id order.
func buildForest(items []*Item) []*Item {
	byID := make(map[int64]*Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var roots []*Item
	for _, item := range items {
		if item.ParentID == nil {
			roots = append(roots, item)
			continue
		}
		if parent, ok := byID[*item.ParentID]; ok {
			parent.Children = append(parent.Children, item)
		}
	}
	return roots
}

func (r *repository) Apply(ctx context.Context, orderID int64, cs *Changeset) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Apply"),
		zap.Int64("order_id", orderID),
		zap.Int("inserts", len(cs.Inserts)),
		zap.Int("updates", len(cs.Updates)),
		zap.Int("deletes", len(cs.Deletes)),
	)

	if cs.Empty() {
		log.Debug("nothing to apply")
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			} else {
				log.Debug("transaction rolled back")
			}
		}
	}()

	for _, item := range cs.Updates {
		if _, err := tx.ExecContext(ctx, `
			UPDATE order_items SET count = $1, discount = $2 WHERE id = $3
		`, item.Count, item.Discount, item.ID); err != nil {
			log.Error("failed to update order item", zap.Int64("item_id", item.ID), zap.Error(err))
			return err
		}
	}

	for _, v := range cs.VariationUpdates {
		if _, err := tx.ExecContext(ctx, `
			UPDATE order_item_variations SET count = $1 WHERE id = $2
		`, v.Count, v.ID); err != nil {
			log.Error("failed to update variation", zap.Int64("variation_id", v.ID), zap.Error(err))
			return err
		}
	}

	for _, vi := range cs.VariationInserts {
		if err := insertVariation(ctx, tx, vi.Item.ID, vi.Variation); err != nil {
			log.Error("failed to insert variation", zap.Int64("item_id", vi.Item.ID), zap.Error(err))
			return err
		}
	}

	for _, item := range cs.Inserts {
		if err := insertItem(ctx, tx, orderID, item.ParentID, item); err != nil {
			log.Error("failed to insert order item", zap.Error(err))
			return err
		}
	}

	// Deletes go last and in one statement each; children, variations and
	// links follow through ON DELETE CASCADE.
	if len(cs.VariationDeletes) > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM order_item_variations WHERE id = ANY($1)
		`, pq.Array(cs.VariationDeletes)); err != nil {
			log.Error("failed to delete variations", zap.Error(err))
			return err
		}
	}
	if len(cs.Deletes) > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM order_items WHERE id = ANY($1)
		`, pq.Array(cs.Deletes)); err != nil {
			log.Error("failed to delete order items", zap.Error(err))
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET updated_at = NOW() WHERE id = $1
	`, orderID); err != nil {
		log.Error("failed to touch order", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit changeset", zap.Error(err))
		return err
	}

	committed = true
	log.Info("changeset applied")
	return nil
}

// insertItem writes the item and its subtree, assigning database ids.
func insertItem(ctx context.Context, tx *sql.Tx, orderID int64, parentID *int64, item *Item) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO order_items (
			external_id, order_id, parent_id, product_id, offer_id, type,
			count, discount, diverse_price, notes, take_away, course
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`,
		item.ExternalID,
		orderID,
		parentID,
		item.productID(),
		item.offerID(),
		item.Type,
		item.Count,
		item.Discount,
		item.DiversePrice,
		item.Notes,
		item.TakeAway,
		item.Course,
	).Scan(&item.ID)
	if err != nil {
		return err
	}
	item.ParentID = parentID

	for _, v := range item.Variations {
		if err := insertVariation(ctx, tx, item.ID, v); err != nil {
			return err
		}
	}

	for _, child := range item.Children {
		if err := insertItem(ctx, tx, orderID, &item.ID, child); err != nil {
			return err
		}
	}

	return nil
}

func insertVariation(ctx context.Context, tx *sql.Tx, itemID int64, v *Variation) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO order_item_variations (external_id, order_item_id, count)
		VALUES ($1,$2,$3)
		RETURNING id
	`, v.ExternalID, itemID, v.Count).Scan(&v.ID)
	if err != nil {
		return err
	}

	for _, vi := range v.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_item_variation_items (order_item_variation_id, variation_item_id)
			VALUES ($1,$2)
		`, v.ID, vi.ID); err != nil {
			return err
		}
	}

	return nil
}
