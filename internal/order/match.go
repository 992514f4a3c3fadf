package order

import (
	"slices"

	"pos-be/internal/utils"
)

// Matches reports whether incoming describes the same line as existing, so
// that it can be merged instead of added as a sibling. Count and discount
// never take part in the decision.
func Matches(existing, incoming *Item) (bool, error) {
	if !basicEqual(existing, incoming) {
		return false, nil
	}

	switch existing.Type {
	case ItemTypeSpecial:
		return sameChoice(existing, incoming), nil
	case ItemTypeMenu:
		return proportionalForest(existing.Children, incoming.Children, existing.Count, incoming.Count)
	default:
		return true, nil
	}
}

// basicEqual compares the fields that identify a line of a given type.
func basicEqual(a, b *Item) bool {
	if a.Type != b.Type ||
		a.TakeAway != b.TakeAway ||
		!utils.EqualPtr(a.Notes, b.Notes) ||
		!utils.EqualPtr(a.Course, b.Course) ||
		!utils.EqualPtr(a.offerID(), b.offerID()) {
		return false
	}

	switch a.Type {
	case ItemTypeDiverseFood, ItemTypeDiverseDrink, ItemTypeDiverseOther:
		return utils.EqualPtr(a.DiversePrice, b.DiversePrice)
	case ItemTypeProduct, ItemTypeMenu, ItemTypeSpecial:
		return utils.EqualPtr(a.productID(), b.productID())
	default:
		return false
	}
}

// sameChoice requires the chosen option of two SPECIAL lines to be the same
// product.
func sameChoice(a, b *Item) bool {
	if len(a.Children) == 0 || len(b.Children) == 0 {
		return len(a.Children) == len(b.Children)
	}
	return utils.EqualPtr(a.Children[0].productID(), b.Children[0].productID())
}

// proportional reports a/aParent == b/bParent without dividing.
func proportional(a, aParent, b, bParent int) bool {
	return a*bParent == b*aParent
}

func proportionalForest(existing, incoming []*Item, eParent, iParent int) (bool, error) {
	slots, err := pairForest(existing, incoming, eParent, iParent)
	return slots != nil, err
}

// pairForest returns, for each incoming child, the index of the existing
// child it is proportional to, or nil when no one-to-one pairing exists.
func pairForest(existing, incoming []*Item, eParent, iParent int) ([]int, error) {
	if eParent <= 0 || iParent <= 0 {
		return nil, ErrInvalidCount
	}
	return bijection(existing, incoming, func(e, i *Item) (bool, error) {
		return proportionalChild(e, i, eParent, iParent)
	})
}

func proportionalChild(e, i *Item, eParent, iParent int) (bool, error) {
	if !basicEqual(e, i) || !proportional(e.Count, eParent, i.Count, iParent) {
		return false, nil
	}
	if e.Count <= 0 || i.Count <= 0 {
		return false, ErrInvalidCount
	}

	slots, err := bijection(e.Variations, i.Variations, func(ev, iv *Variation) (bool, error) {
		return sameVariationSet(ev, iv) && proportional(ev.Count, e.Count, iv.Count, i.Count), nil
	})
	if err != nil || slots == nil {
		return false, err
	}

	return proportionalForest(e.Children, i.Children, e.Count, i.Count)
}

// sameVariationSet compares the linked variation item ids, ignoring order.
func sameVariationSet(a, b *Variation) bool {
	return slices.Equal(a.ItemIDs(), b.ItemIDs())
}

// bijection searches for a one-to-one pairing of incoming to existing
// elements under match and returns the existing index chosen for each
// incoming element, or nil when there is none. Forests are at most two
// levels deep with a handful of slots, so exhaustive backtracking is fine.
func bijection[T any](existing, incoming []T, match func(e, i T) (bool, error)) ([]int, error) {
	if len(existing) != len(incoming) {
		return nil, nil
	}

	used := make([]bool, len(existing))
	slots := make([]int, len(incoming))
	var assign func(n int) (bool, error)
	assign = func(n int) (bool, error) {
		if n == len(incoming) {
			return true, nil
		}
		for k, e := range existing {
			if used[k] {
				continue
			}
			ok, err := match(e, incoming[n])
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
			used[k] = true
			slots[n] = k
			if done, err := assign(n + 1); err != nil || done {
				return done, err
			}
			used[k] = false
		}
		return false, nil
	}

	done, err := assign(0)
	if err != nil || !done {
		return nil, err
	}
	return slots, nil
}
