package order

import (
	"context"

	"pos-be/internal/catalog"

	"github.com/google/uuid"
)

var (
	pizza = &catalog.Product{
		ID: 1, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Name: "Pizza", Price: 900, Type: catalog.ProductTypeFood,
	}
	drink = &catalog.Product{
		ID: 2, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		Name: "Cola", Price: 300, Type: catalog.ProductTypeDrink,
	}
	combo = &catalog.Product{
		ID: 3, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000003"),
		Name: "Combo", Price: 1500, Type: catalog.ProductTypeMenu,
	}
	dessert = &catalog.Product{
		ID: 4, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000004"),
		Name: "Dessert of the day", Price: 500, Type: catalog.ProductTypeSpecial,
	}
	tiramisu = &catalog.Product{
		ID: 5, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000005"),
		Name: "Tiramisu", Price: 0, Type: catalog.ProductTypeFood,
	}
	panna = &catalog.Product{
		ID: 6, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000006"),
		Name: "Panna cotta", Price: 0, Type: catalog.ProductTypeFood,
	}

	large = catalog.VariationItem{ID: 10, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000010"), Name: "Large"}
	half  = catalog.VariationItem{ID: 11, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000011"), Name: "0.5L"}
	spicy = catalog.VariationItem{ID: 12, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000012"), Name: "Spicy"}

	happyHour = &catalog.Offer{ID: 20, ExternalID: uuid.MustParse("00000000-0000-0000-0000-000000000020"), Name: "Happy hour"}
)

type fakeCatalog struct {
	products       map[uuid.UUID]*catalog.Product
	variationItems map[uuid.UUID]catalog.VariationItem
	offers         map[uuid.UUID]*catalog.Offer
	offerErr       error
}

func newFakeCatalog() *fakeCatalog {
	f := &fakeCatalog{
		products:       make(map[uuid.UUID]*catalog.Product),
		variationItems: make(map[uuid.UUID]catalog.VariationItem),
		offers:         make(map[uuid.UUID]*catalog.Offer),
	}
	for _, p := range []*catalog.Product{pizza, drink, combo, dessert, tiramisu, panna} {
		f.products[p.ExternalID] = p
	}
	for _, vi := range []catalog.VariationItem{large, half, spicy} {
		f.variationItems[vi.ExternalID] = vi
	}
	f.offers[happyHour.ExternalID] = happyHour
	return f
}

func (f *fakeCatalog) FindProductByExternalID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) FindVariationItemByExternalID(_ context.Context, id uuid.UUID) (*catalog.VariationItem, error) {
	vi, ok := f.variationItems[id]
	if !ok {
		return nil, catalog.ErrVariationItemNotFound
	}
	return &vi, nil
}

func (f *fakeCatalog) FindOfferByExternalID(_ context.Context, id uuid.UUID) (*catalog.Offer, error) {
	if f.offerErr != nil {
		return nil, f.offerErr
	}
	o, ok := f.offers[id]
	if !ok {
		return nil, catalog.ErrOfferNotFound
	}
	return o, nil
}

func variation(id int64, count int, items ...catalog.VariationItem) *Variation {
	return &Variation{ID: id, ExternalID: uuid.New(), Count: count, Items: items}
}

func productLine(id int64, p *catalog.Product, count int, variations ...*Variation) *Item {
	t := itemTypeFor(p.Type)
	return &Item{
		ID:         id,
		ExternalID: uuid.New(),
		Type:       t,
		Count:      count,
		Product:    p,
		Variations: variations,
	}
}

func withChildren(item *Item, children ...*Item) *Item {
	item.Children = children
	for _, c := range children {
		if item.ID != 0 {
			parent := item.ID
			c.ParentID = &parent
		}
	}
	return item
}

func ids(items ...catalog.VariationItem) []string {
	out := make([]string, 0, len(items))
	for _, vi := range items {
		out = append(out, vi.ExternalID.String())
	}
	return out
}

func ref(p *catalog.Product) *string {
	s := p.ExternalID.String()
	return &s
}

func strID(id uuid.UUID) *string {
	s := id.String()
	return &s
}

// persist mimics Apply: new nodes get ids and change flags are cleared.
func persist(o *Order) {
	next := int64(1000)
	var walk func(items []*Item, parent *int64)
	walk = func(items []*Item, parent *int64) {
		for _, item := range items {
			if item.ID == 0 {
				next++
				item.ID = next
				item.ParentID = parent
			}
			item.changed = false
			for _, v := range item.Variations {
				if v.ID == 0 {
					next++
					v.ID = next
				}
				v.changed = false
			}
			id := item.ID
			walk(item.Children, &id)
		}
	}
	walk(o.Items, nil)
}
