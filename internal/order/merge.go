package order

// Merge folds incoming into existing. Callers must have confirmed the pair
// with Matches. Merging only adds or increments, it never removes.
func Merge(existing, incoming *Item) {
	var slots []int
	if existing.Type == ItemTypeMenu {
		// Children follow the pairing Matches accepted, not input order.
		slots, _ = pairForest(existing.Children, incoming.Children, existing.Count, incoming.Count)
	}

	existing.Count += incoming.Count
	existing.Discount += incoming.Discount
	existing.changed = true
	mergeVariations(existing, incoming.Variations)

	switch existing.Type {
	case ItemTypeSpecial:
		if len(existing.Children) > 0 && len(incoming.Children) > 0 {
			mergeChild(existing.Children[0], incoming.Children[0])
		}
	case ItemTypeMenu:
		for n, k := range slots {
			mergeChild(existing.Children[k], incoming.Children[n])
		}
	}
}

func mergeChild(existing, incoming *Item) {
	existing.Count += incoming.Count
	existing.changed = true
	mergeVariations(existing, incoming.Variations)
}

// mergeVariations accumulates counts of identical variation sets and
// appends the rest as new variations.
func mergeVariations(item *Item, incoming []*Variation) {
	for _, iv := range incoming {
		if ev := findVariationSet(item.Variations, iv); ev != nil {
			ev.Count += iv.Count
			ev.changed = true
			continue
		}
		item.Variations = append(item.Variations, iv.clone())
	}
}

func findVariationSet(variations []*Variation, target *Variation) *Variation {
	for _, v := range variations {
		if sameVariationSet(v, target) {
			return v
		}
	}
	return nil
}
