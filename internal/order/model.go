package order

import (
	"sort"
	"time"

	"pos-be/internal/catalog"

	"github.com/google/uuid"
)

type ItemType string

const (
	ItemTypeProduct      ItemType = "PRODUCT"
	ItemTypeMenu         ItemType = "MENU"
	ItemTypeSpecial      ItemType = "SPECIAL"
	ItemTypeDiverseFood  ItemType = "DIVERSE_FOOD"
	ItemTypeDiverseDrink ItemType = "DIVERSE_DRINK"
	ItemTypeDiverseOther ItemType = "DIVERSE_OTHER"
)

func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeProduct, ItemTypeMenu, ItemTypeSpecial,
		ItemTypeDiverseFood, ItemTypeDiverseDrink, ItemTypeDiverseOther:
		return true
	}
	return false
}

// IsDiverse reports whether lines of this type are priced ad hoc instead of
// referencing a catalog product.
func (t ItemType) IsDiverse() bool {
	switch t {
	case ItemTypeDiverseFood, ItemTypeDiverseDrink, ItemTypeDiverseOther:
		return true
	}
	return false
}

// IsComposite reports whether lines of this type own child lines.
func (t ItemType) IsComposite() bool {
	return t == ItemTypeMenu || t == ItemTypeSpecial
}

// itemTypeFor maps a catalog product type to the line type it produces.
func itemTypeFor(p catalog.ProductType) ItemType {
	switch p {
	case catalog.ProductTypeMenu:
		return ItemTypeMenu
	case catalog.ProductTypeSpecial:
		return ItemTypeSpecial
	default:
		return ItemTypeProduct
	}
}

type Order struct {
	ID         int64
	ExternalID uuid.UUID
	CompanyID  uint
	TableID    *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Items holds the top-level lines; children hang off each line.
	Items []*Item
}

// Item is one order line together with its variations and child lines.
// Depth is bounded: children of MENU/SPECIAL lines never have children.
// An Item with ID 0 has not been persisted yet.
type Item struct {
	ID           int64
	ExternalID   uuid.UUID
	ParentID     *int64
	Type         ItemType
	Count        int
	Discount     int
	DiversePrice *int
	Notes        *string
	TakeAway     bool
	Course       *int

	Product *catalog.Product
	Offer   *catalog.Offer

	Variations []*Variation
	Children   []*Item

	changed bool
}

func (i *Item) productID() *int64 {
	if i.Product == nil {
		return nil
	}
	return &i.Product.ID
}

func (i *Item) offerID() *int64 {
	if i.Offer == nil {
		return nil
	}
	return &i.Offer.ID
}

// UnitPrice is the diverse price when set, the product price otherwise.
func (i *Item) UnitPrice() int {
	if i.DiversePrice != nil {
		return *i.DiversePrice
	}
	if i.Product != nil {
		return i.Product.Price
	}
	return 0
}

// Variation is a counted combination of variation items on a line.
type Variation struct {
	ID         int64
	ExternalID uuid.UUID
	Count      int
	Items      []catalog.VariationItem

	changed bool
}

// ItemIDs returns the sorted ids of the linked variation items. The set is
// the variation's identity when lines are matched.
func (v *Variation) ItemIDs() []int64 {
	ids := make([]int64, 0, len(v.Items))
	for _, vi := range v.Items {
		ids = append(ids, vi.ID)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

func (v *Variation) clone() *Variation {
	items := make([]catalog.VariationItem, len(v.Items))
	copy(items, v.Items)
	return &Variation{
		ExternalID: v.ExternalID,
		Count:      v.Count,
		Items:      items,
	}
}
