package model

type OrderItemType string

const (
	OrderItemTypeProduct      OrderItemType = "PRODUCT"
	OrderItemTypeMenu         OrderItemType = "MENU"
	OrderItemTypeSpecial      OrderItemType = "SPECIAL"
	OrderItemTypeDiverseFood  OrderItemType = "DIVERSE_FOOD"
	OrderItemTypeDiverseDrink OrderItemType = "DIVERSE_DRINK"
	OrderItemTypeDiverseOther OrderItemType = "DIVERSE_OTHER"
)

type ProductType string

type Product struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price int32       `json:"price"`
	Type  ProductType `json:"type"`
}

type VariationItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type OrderItemVariation struct {
	ID             string           `json:"id"`
	Count          int32            `json:"count"`
	VariationItems []*VariationItem `json:"variationItems"`
}

type OrderItem struct {
	ID           string                `json:"id"`
	Type         OrderItemType         `json:"type"`
	Count        int32                 `json:"count"`
	Discount     int32                 `json:"discount"`
	DiversePrice *int32                `json:"diversePrice"`
	Notes        *string               `json:"notes"`
	TakeAway     bool                  `json:"takeAway"`
	Course       *int32                `json:"course"`
	OfferID      *string               `json:"offerId"`
	Product      *Product              `json:"product"`
	Variations   []*OrderItemVariation `json:"variations"`
	OrderItems   []*OrderItem          `json:"orderItems"`
}

type Order struct {
	ID         string       `json:"id"`
	TableID    *string      `json:"tableId"`
	TotalPrice int32        `json:"totalPrice"`
	OrderItems []*OrderItem `json:"orderItems"`
}

type OrderItemVariationInput struct {
	ID               *string  `json:"id,omitempty"`
	VariationItemIds []string `json:"variationItemIds"`
	Count            int32    `json:"count"`
}

type OrderItemInput struct {
	ID           *string                    `json:"id,omitempty"`
	ProductID    *string                    `json:"productId,omitempty"`
	Type         *OrderItemType             `json:"type,omitempty"`
	DiversePrice *int32                     `json:"diversePrice,omitempty"`
	Count        int32                      `json:"count"`
	Discount     *int32                     `json:"discount,omitempty"`
	Notes        *string                    `json:"notes,omitempty"`
	TakeAway     *bool                      `json:"takeAway,omitempty"`
	Course       *int32                     `json:"course,omitempty"`
	OfferID      *string                    `json:"offerId,omitempty"`
	Variations   []*OrderItemVariationInput `json:"variations,omitempty"`
	OrderItems   []*OrderItemInput          `json:"orderItems,omitempty"`
}

type RemoveProductInput struct {
	ProductID string `json:"productId"`
	Count     int32  `json:"count"`
}
