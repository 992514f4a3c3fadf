package graph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"pos-be/internal/graph/model"
	"pos-be/internal/order"

	"go.uber.org/multierr"
)

type orderItemsArgs struct {
	ID         string                  `json:"id"`
	OrderItems []*model.OrderItemInput `json:"orderItems"`
}

type removeProductsArgs struct {
	ID       string                      `json:"id"`
	Products []*model.RemoveProductInput `json:"products"`
}

// --- MAPPER HELPERS ---

var errIntRange = errors.New("value outside the GraphQL Int range")

// toInt32 narrows v to a GraphQL Int, which is a signed 32-bit integer.
func toInt32(v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %d", errIntRange, v)
	}
	return int32(v), nil
}

func int32Ptr(v *int) (*int32, error) {
	if v == nil {
		return nil, nil
	}
	n, err := toInt32(*v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func toLineInputs(in []*model.OrderItemInput) []order.LineInput {
	lines := make([]order.LineInput, 0, len(in))
	for _, item := range in {
		lines = append(lines, toLineInput(item))
	}
	return lines
}

func toLineInput(in *model.OrderItemInput) order.LineInput {
	line := order.LineInput{
		ID:           in.ID,
		ProductID:    in.ProductID,
		DiversePrice: intPtr(in.DiversePrice),
		Count:        int(in.Count),
		Notes:        in.Notes,
		TakeAway:     in.TakeAway != nil && *in.TakeAway,
		Course:       intPtr(in.Course),
		OfferID:      in.OfferID,
		Children:     toLineInputs(in.OrderItems),
	}
	if in.Discount != nil {
		line.Discount = int(*in.Discount)
	}
	if in.Type != nil {
		t := order.ItemType(*in.Type)
		line.Type = &t
	}
	for _, v := range in.Variations {
		line.Variations = append(line.Variations, order.VariationInput{
			ID:               v.ID,
			VariationItemIDs: v.VariationItemIds,
			Count:            int(v.Count),
		})
	}
	return line
}

func toGraphQLOrder(o *order.Order) (*model.Order, error) {
	if o == nil {
		return nil, nil
	}

	total, err := toInt32(order.TotalPrice(o))
	if err != nil {
		return nil, fmt.Errorf("order %s total: %w", o.ExternalID, err)
	}
	items, err := toGraphQLOrderItems(o.Items)
	if err != nil {
		return nil, err
	}

	out := &model.Order{
		ID:         o.ExternalID.String(),
		TotalPrice: total,
		OrderItems: items,
	}
	if o.TableID != nil {
		tableID := strconv.FormatInt(*o.TableID, 10)
		out.TableID = &tableID
	}
	return out, nil
}

func toGraphQLOrderItems(items []*order.Item) ([]*model.OrderItem, error) {
	out := make([]*model.OrderItem, 0, len(items))
	for _, item := range items {
		mi, err := toGraphQLOrderItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, mi)
	}
	return out, nil
}

func toGraphQLOrderItem(item *order.Item) (*model.OrderItem, error) {
	var errs error
	narrow := func(v int) int32 {
		n, err := toInt32(v)
		errs = multierr.Append(errs, err)
		return n
	}
	narrowPtr := func(v *int) *int32 {
		n, err := int32Ptr(v)
		errs = multierr.Append(errs, err)
		return n
	}

	children, err := toGraphQLOrderItems(item.Children)
	if err != nil {
		return nil, err
	}

	out := &model.OrderItem{
		ID:           item.ExternalID.String(),
		Type:         model.OrderItemType(item.Type),
		Count:        narrow(item.Count),
		Discount:     narrow(item.Discount),
		DiversePrice: narrowPtr(item.DiversePrice),
		Notes:        item.Notes,
		TakeAway:     item.TakeAway,
		Course:       narrowPtr(item.Course),
		Variations:   make([]*model.OrderItemVariation, 0, len(item.Variations)),
		OrderItems:   children,
	}

	if item.Product != nil {
		out.Product = &model.Product{
			ID:    item.Product.ExternalID.String(),
			Name:  item.Product.Name,
			Price: narrow(item.Product.Price),
			Type:  model.ProductType(item.Product.Type),
		}
	}
	if item.Offer != nil {
		offerID := item.Offer.ExternalID.String()
		out.OfferID = &offerID
	}

	for _, v := range item.Variations {
		mv := &model.OrderItemVariation{
			ID:             v.ExternalID.String(),
			Count:          narrow(v.Count),
			VariationItems: make([]*model.VariationItem, 0, len(v.Items)),
		}
		for _, vi := range v.Items {
			mv.VariationItems = append(mv.VariationItems, &model.VariationItem{
				ID:   vi.ExternalID.String(),
				Name: vi.Name,
			})
		}
		out.Variations = append(out.Variations, mv)
	}

	if errs != nil {
		return nil, fmt.Errorf("order item %s: %w", item.ExternalID, errs)
	}
	return out, nil
}

// --- QUERIES ---

func (r *queryResolver) Order(ctx context.Context, id string) (*model.Order, error) {
	o, err := r.OrderSvc.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return toGraphQLOrder(o)
}

// --- MUTATIONS ---

func (r *mutationResolver) UpdateOrder(ctx context.Context, id string, orderItems []*model.OrderItemInput) (*model.Order, error) {
	o, err := r.OrderSvc.UpdateOrder(ctx, id, toLineInputs(orderItems))
	if err != nil {
		return nil, err
	}
	return toGraphQLOrder(o)
}

func (r *mutationResolver) AddProductsToOrder(ctx context.Context, id string, orderItems []*model.OrderItemInput) (*model.Order, error) {
	o, err := r.OrderSvc.AddProductsToOrder(ctx, id, toLineInputs(orderItems))
	if err != nil {
		return nil, err
	}
	return toGraphQLOrder(o)
}

func (r *mutationResolver) RemoveProductsFromOrder(ctx context.Context, id string, products []*model.RemoveProductInput) (*model.Order, error) {
	lines := make([]order.RemoveInput, 0, len(products))
	for _, p := range products {
		lines = append(lines, order.RemoveInput{ProductID: p.ProductID, Count: int(p.Count)})
	}

	o, err := r.OrderSvc.RemoveProductsFromOrder(ctx, id, lines)
	if err != nil {
		return nil, err
	}
	return toGraphQLOrder(o)
}

func (r *mutationResolver) RemoveOrderItem(ctx context.Context, orderID string, orderItemID string) (*model.Order, error) {
	o, err := r.OrderSvc.RemoveOrderItem(ctx, orderID, orderItemID)
	if err != nil {
		return nil, err
	}
	return toGraphQLOrder(o)
}
