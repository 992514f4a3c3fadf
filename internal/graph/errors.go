package graph

import (
	"context"
	"errors"

	"pos-be/internal/catalog"
	"pos-be/internal/logger"
	"pos-be/internal/order"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
)

const CodeUnexpected = "UNEXPECTED_ERROR"

var errorCodes = []struct {
	err  error
	code string
}{
	{order.ErrNotAuthenticated, "NOT_AUTHENTICATED"},
	{order.ErrActionNotAllowed, "ACTION_NOT_ALLOWED"},
	{order.ErrValidationFailed, "VALIDATION_FAILED"},
	{order.ErrOrderNotFound, "ORDER_DOES_NOT_EXIST"},
	{order.ErrProductNotInOrder, "PRODUCT_NOT_IN_ORDER"},
	{order.ErrOrderItemNotFound, "ORDER_ITEM_DOES_NOT_EXIST"},
	{order.ErrOrderItemVariationNotFound, "ORDER_ITEM_VARIATION_DOES_NOT_EXIST"},
	{catalog.ErrProductNotFound, "PRODUCT_DOES_NOT_EXIST"},
	{catalog.ErrVariationItemNotFound, "VARIATION_ITEM_DOES_NOT_EXIST"},
}

func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeUnexpected
}

// ErrorPresenter attaches extensions.code to resolver errors. Errors raised
// by the executor itself, such as parse or validation failures, pass through.
func ErrorPresenter(ctx context.Context, err error) *gqlerror.Error {
	var gqlErr *gqlerror.Error
	if !errors.As(err, &gqlErr) {
		return presentError(ctx, err, graphql.GetPath(ctx))
	}
	if gqlErr.Err == nil {
		return gqlErr
	}
	return presentError(ctx, gqlErr.Err, gqlErr.Path)
}

// RecoverPanic logs a resolver panic and reports it as an unexpected error.
func RecoverPanic(ctx context.Context, rec any) error {
	logger.FromCtx(ctx).Error("resolver panic",
		zap.Any("panic", rec),
		zap.Stack("stack"),
	)

	err := gqlerror.Errorf("unexpected error")
	err.Extensions = map[string]interface{}{"code": CodeUnexpected}
	return err
}

// presentError turns a resolver error into a GraphQL error carrying
// extensions.code. Unknown errors are logged and their message hidden.
func presentError(ctx context.Context, err error, path ast.Path) *gqlerror.Error {
	code := errorCode(err)
	msg := err.Error()
	if code == CodeUnexpected {
		logger.FromCtx(ctx).Error("unexpected resolver error",
			zap.String("path", path.String()),
			zap.Error(err),
		)
		msg = "unexpected error"
	}

	out := &gqlerror.Error{
		Err:        err,
		Message:    msg,
		Path:       path,
		Extensions: map[string]interface{}{"code": code},
	}

	var verr *order.ValidationError
	if errors.As(err, &verr) {
		fields := make([]string, 0)
		for _, fe := range verr.Errors() {
			fields = append(fields, fe.Error())
		}
		out.Extensions["fields"] = fields
	}

	return out
}
