package order

import (
	"context"
	"fmt"

	"pos-be/internal/utils"

	"github.com/google/uuid"
)

// AddResult tells how many incoming lines were merged versus created.
type AddResult struct {
	Merged  int
	Created int
}

// AddLines merges each line into the first matching top-level line of the
// same product, or appends it as a new line. Lines added earlier in the
// same call are candidates for later ones. Client ids already used in the
// order are rejected.
func AddLines(ctx context.Context, b *Builder, o *Order, lines []LineInput) (*Changeset, AddResult, error) {
	var res AddResult
	x := newOrderIndex(o.Items)
	for _, in := range lines {
		if err := x.claim(in); err != nil {
			return nil, res, err
		}
		incoming, err := b.Build(ctx, in)
		if err != nil {
			return nil, res, err
		}
		x.add(incoming)

		target, err := findMergeTarget(o.Items, incoming)
		if err != nil {
			return nil, res, err
		}
		if target != nil {
			Merge(target, incoming)
			res.Merged++
			continue
		}

		o.Items = append(o.Items, incoming)
		res.Created++
	}

	return collectChanges(o.Items), res, nil
}

func findMergeTarget(items []*Item, incoming *Item) (*Item, error) {
	for _, candidate := range items {
		if !utils.EqualPtr(candidate.productID(), incoming.productID()) {
			continue
		}
		ok, err := Matches(candidate, incoming)
		if err != nil {
			return nil, err
		}
		if ok {
			return candidate, nil
		}
	}
	return nil, nil
}

// Removal takes Count units of a resolved catalog product off an order.
type Removal struct {
	ProductID int64
	Count     int
}

// RemoveLines decrements the first top-level line of each product, deleting
// it once the removal consumes its whole count.
func RemoveLines(o *Order, removals []Removal) (*Changeset, error) {
	var deletes []int64
	for _, r := range removals {
		idx := -1
		for k, item := range o.Items {
			if p := item.productID(); p != nil && *p == r.ProductID {
				idx = k
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %d", ErrProductNotInOrder, r.ProductID)
		}

		item := o.Items[idx]
		if item.Count <= r.Count {
			deletes = append(deletes, item.ID)
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			continue
		}
		item.Count -= r.Count
		item.changed = true
	}

	cs := collectChanges(o.Items)
	cs.Deletes = deletes
	return cs, nil
}

// RemoveItem deletes a single top-level line by its external id.
func RemoveItem(o *Order, externalID uuid.UUID) (*Changeset, error) {
	for k, item := range o.Items {
		if item.ExternalID == externalID {
			o.Items = append(o.Items[:k], o.Items[k+1:]...)
			return &Changeset{Deletes: []int64{item.ID}}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderItemNotFound, externalID)
}
