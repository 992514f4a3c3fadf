package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Reconcile converges the order's lines to exactly the target list. Target
// lines are paired with existing lines by client id only. Paired lines get
// their count and variations brought in line, the rest of the target is
// built fresh and every unpaired existing line is deleted.
func Reconcile(ctx context.Context, b *Builder, o *Order, targets []LineInput) (*Changeset, error) {
	x := newOrderIndex(o.Items)

	keep := make(map[int64]bool, len(o.Items))
	var created []*Item
	var variationDeletes []int64

	for _, t := range targets {
		if t.ID != nil {
			id, err := uuid.Parse(*t.ID)
			if err != nil {
				return nil, newValidationError(fieldError("id", "must be a UUID"))
			}
			if existing, ok := x.top[id]; ok {
				keep[existing.ID] = true
				if existing.Count != t.Count {
					existing.Count = t.Count
					existing.changed = true
				}
				deleted, err := reconcileVariations(ctx, b, existing, t.Variations, x.owners)
				if err != nil {
					return nil, err
				}
				variationDeletes = append(variationDeletes, deleted...)
				continue
			}
		}

		if err := x.claim(t); err != nil {
			return nil, err
		}
		item, err := b.Build(ctx, t)
		if err != nil {
			return nil, err
		}
		x.add(item)
		created = append(created, item)
	}

	var remaining []*Item
	var deletes []int64
	for _, item := range o.Items {
		if keep[item.ID] {
			remaining = append(remaining, item)
			continue
		}
		deletes = append(deletes, item.ID)
	}
	o.Items = append(remaining, created...)

	cs := collectChanges(o.Items)
	cs.Deletes = deletes
	cs.VariationDeletes = variationDeletes
	return cs, nil
}

// orderIndex maps the external ids already taken by an order's lines and
// variations.
type orderIndex struct {
	top    map[uuid.UUID]*Item
	lines  map[uuid.UUID]bool
	owners map[uuid.UUID]*Item
}

func newOrderIndex(items []*Item) *orderIndex {
	x := &orderIndex{
		top:    make(map[uuid.UUID]*Item, len(items)),
		lines:  make(map[uuid.UUID]bool),
		owners: make(map[uuid.UUID]*Item),
	}
	for _, item := range items {
		x.top[item.ExternalID] = item
		x.add(item)
	}
	return x
}

func (x *orderIndex) add(item *Item) {
	x.lines[item.ExternalID] = true
	for _, v := range item.Variations {
		x.owners[v.ExternalID] = item
	}
	for _, child := range item.Children {
		x.add(child)
	}
}

// claim rejects a line about to be built when its client id, or that of any
// of its variations or children, already belongs to the order.
func (x *orderIndex) claim(in LineInput) error {
	if id, ok := parseClientID(in.ID); ok && x.lines[id] {
		return fmt.Errorf("%w: %s", ErrOrderItemNotFound, id)
	}
	for _, v := range in.Variations {
		if id, ok := parseClientID(v.ID); ok && x.owners[id] != nil {
			return fmt.Errorf("%w: %s", ErrOrderItemVariationNotFound, id)
		}
	}
	for _, child := range in.Children {
		if err := x.claim(child); err != nil {
			return err
		}
	}
	return nil
}

func parseClientID(raw *string) (uuid.UUID, bool) {
	if raw == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(*raw)
	return id, err == nil
}

// reconcileVariations pairs target variations with the item's variations by
// client id and returns the ids of the existing variations left unpaired.
func reconcileVariations(ctx context.Context, b *Builder, item *Item, targets []VariationInput, owners map[uuid.UUID]*Item) ([]int64, error) {
	kept := make(map[int64]bool, len(item.Variations))
	var added []*Variation

	for _, t := range targets {
		if t.ID != nil {
			id, err := uuid.Parse(*t.ID)
			if err != nil {
				return nil, newValidationError(fieldError("variations.id", "must be a UUID"))
			}
			if v := findVariation(item.Variations, id); v != nil {
				kept[v.ID] = true
				if v.Count != t.Count {
					v.Count = t.Count
					v.changed = true
				}
				continue
			}
			if owner, ok := owners[id]; ok && owner != item {
				return nil, fmt.Errorf("%w: %s", ErrOrderItemVariationNotFound, id)
			}
		}

		v, err := b.BuildVariation(ctx, t)
		if err != nil {
			return nil, err
		}
		added = append(added, v)
	}

	var remaining []*Variation
	var deleted []int64
	for _, v := range item.Variations {
		if kept[v.ID] {
			remaining = append(remaining, v)
			continue
		}
		deleted = append(deleted, v.ID)
	}
	item.Variations = append(remaining, added...)

	return deleted, nil
}

func findVariation(variations []*Variation, externalID uuid.UUID) *Variation {
	for _, v := range variations {
		if v.ExternalID == externalID {
			return v
		}
	}
	return nil
}
