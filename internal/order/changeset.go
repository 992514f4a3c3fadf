package order

// Changeset is everything a single operation has to persist. Inserted
// items carry their whole subtree.
type Changeset struct {
	Inserts          []*Item
	Updates          []*Item
	VariationInserts []VariationInsert
	VariationUpdates []*Variation
	Deletes          []int64
	VariationDeletes []int64
}

// VariationInsert is a new variation on an already persisted item.
type VariationInsert struct {
	Item      *Item
	Variation *Variation
}

func (c *Changeset) Empty() bool {
	return len(c.Inserts) == 0 &&
		len(c.Updates) == 0 &&
		len(c.VariationInserts) == 0 &&
		len(c.VariationUpdates) == 0 &&
		len(c.Deletes) == 0 &&
		len(c.VariationDeletes) == 0
}

// collectChanges walks the forest and records new and modified nodes.
func collectChanges(items []*Item) *Changeset {
	cs := &Changeset{}
	for _, item := range items {
		cs.collect(item)
	}
	return cs
}

func (c *Changeset) collect(item *Item) {
	if item.ID == 0 {
		c.Inserts = append(c.Inserts, item)
		return
	}
	if item.changed {
		c.Updates = append(c.Updates, item)
	}
	for _, v := range item.Variations {
		switch {
		case v.ID == 0:
			c.VariationInserts = append(c.VariationInserts, VariationInsert{Item: item, Variation: v})
		case v.changed:
			c.VariationUpdates = append(c.VariationUpdates, v)
		}
	}
	for _, child := range item.Children {
		if child.ID == 0 && child.ParentID == nil {
			id := item.ID
			child.ParentID = &id
		}
		c.collect(child)
	}
}
