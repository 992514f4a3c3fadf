package graph

import (
	"context"

	"pos-be/internal/order"
	"pos-be/internal/utils"

	"github.com/99designs/gqlgen/graphql"
)

// AuthDirective guards fields marked @auth: the request must carry an
// authenticated principal.
func AuthDirective(ctx context.Context, obj any, next graphql.Resolver) (res any, err error) {
	if _, ok := utils.GetUserIDFromContext(ctx); !ok {
		return nil, order.ErrNotAuthenticated
	}
	return next(ctx)
}
