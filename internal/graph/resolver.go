package graph

import (
	"context"
	"fmt"

	"pos-be/internal/order"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/go-viper/mapstructure/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

type Resolver struct {
	OrderSvc order.Service
}

type queryResolver struct{ *Resolver }

type mutationResolver struct{ *Resolver }

func (r *Resolver) Query() *queryResolver { return &queryResolver{r} }

func (r *Resolver) Mutation() *mutationResolver { return &mutationResolver{r} }

func NewSchema(r *Resolver) graphql.ExecutableSchema {
	return NewExecutableSchema(Config{Resolvers: r, Directives: DirectiveRoot{Auth: AuthDirective}})
}

// NewServer serves the schema over HTTP POST with introspection enabled for
// the playground.
func NewServer(es graphql.ExecutableSchema) *handler.Server {
	srv := handler.New(es)
	srv.AddTransport(transport.POST{})
	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.Use(extension.Introspection{})
	srv.SetErrorPresenter(ErrorPresenter)
	srv.SetRecoverFunc(RecoverPanic)
	return srv
}

// fieldFunc resolves one root field from its coerced arguments.
type fieldFunc func(ctx context.Context, args map[string]any) (any, error)

func (r *Resolver) queryFields() map[string]fieldFunc {
	q := r.Query()
	return map[string]fieldFunc{
		"order": func(ctx context.Context, args map[string]any) (any, error) {
			var in struct {
				ID string `json:"id"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return q.Order(ctx, in.ID)
		},
	}
}

func (r *Resolver) mutationFields() map[string]fieldFunc {
	m := r.Mutation()
	return map[string]fieldFunc{
		"updateOrder": func(ctx context.Context, args map[string]any) (any, error) {
			var in orderItemsArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return m.UpdateOrder(ctx, in.ID, in.OrderItems)
		},
		"addProductsToOrder": func(ctx context.Context, args map[string]any) (any, error) {
			var in orderItemsArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return m.AddProductsToOrder(ctx, in.ID, in.OrderItems)
		},
		"removeProductsFromOrder": func(ctx context.Context, args map[string]any) (any, error) {
			var in removeProductsArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return m.RemoveProductsFromOrder(ctx, in.ID, in.Products)
		},
		"removeOrderItem": func(ctx context.Context, args map[string]any) (any, error) {
			var in struct {
				OrderID     string `json:"orderId"`
				OrderItemID string `json:"orderItemId"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return m.RemoveOrderItem(ctx, in.OrderID, in.OrderItemID)
		},
	}
}

// decodeArgs copies coerced GraphQL arguments into a struct keyed by json
// tags.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%w: %s", order.ErrValidationFailed, err)
	}
	return nil
}
