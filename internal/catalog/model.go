package catalog

import "github.com/google/uuid"

type ProductType string

const (
	ProductTypeFood    ProductType = "FOOD"
	ProductTypeDrink   ProductType = "DRINK"
	ProductTypeSpecial ProductType = "SPECIAL"
	ProductTypeMenu    ProductType = "MENU"
)

type Product struct {
	ID         int64
	ExternalID uuid.UUID
	Name       string
	Price      int
	Type       ProductType
}

// VariationItem is a selectable option such as "Large" or "0.5L".
type VariationItem struct {
	ID         int64
	ExternalID uuid.UUID
	Name       string
}

type Offer struct {
	ID         int64
	ExternalID uuid.UUID
	Name       string
}
