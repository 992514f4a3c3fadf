package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pos-be/internal/catalog"
	"pos-be/internal/order"
	"pos-be/internal/utils"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// --- Mocks ---

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) result(args mock.Arguments) (*order.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	return m.result(m.Called(ctx, orderID))
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, orderID string, lines []order.LineInput) (*order.Order, error) {
	return m.result(m.Called(ctx, orderID, lines))
}

func (m *MockOrderService) AddProductsToOrder(ctx context.Context, orderID string, lines []order.LineInput) (*order.Order, error) {
	return m.result(m.Called(ctx, orderID, lines))
}

func (m *MockOrderService) RemoveProductsFromOrder(ctx context.Context, orderID string, lines []order.RemoveInput) (*order.Order, error) {
	return m.result(m.Called(ctx, orderID, lines))
}

func (m *MockOrderService) RemoveOrderItem(ctx context.Context, orderID, orderItemID string) (*order.Order, error) {
	return m.result(m.Called(ctx, orderID, orderItemID))
}

// --- Helpers ---

type gqlResponse struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func newTestServer(t *testing.T) (http.Handler, *MockOrderService) {
	t.Helper()
	svc := new(MockOrderService)
	return NewServer(NewSchema(&Resolver{OrderSvc: svc})), svc
}

func post(t *testing.T, h http.Handler, ctx context.Context, body string) (*httptest.ResponseRecorder, gqlResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	var resp gqlResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func request(query string, vars map[string]any) string {
	raw, _ := json.Marshal(map[string]any{"query": query, "variables": vars})
	return string(raw)
}

func authed() context.Context {
	return utils.SetUserContext(context.Background(), 1, 1, "STAFF")
}

func sampleOrder() *order.Order {
	tableID := int64(4)
	return &order.Order{
		ExternalID: uuid.New(),
		TableID:    &tableID,
		Items: []*order.Item{{
			ExternalID: uuid.New(),
			Type:       order.ItemTypeProduct,
			Count:      2,
			Discount:   100,
			Product:    &catalog.Product{ID: 1, ExternalID: uuid.New(), Name: "Pizza", Price: 900, Type: catalog.ProductTypeFood},
			Variations: []*order.Variation{{
				ExternalID: uuid.New(),
				Count:      2,
				Items:      []catalog.VariationItem{{ID: 10, ExternalID: uuid.New(), Name: "Large"}},
			}},
		}},
	}
}

// --- Tests ---

func TestServer_Query(t *testing.T) {
	srv, svc := newTestServer(t)
	o := sampleOrder()
	svc.On("GetOrder", mock.Anything, o.ExternalID.String()).Return(o, nil)

	query := `
		query Get($id: ID!) {
			__typename
			o: order(id: $id) {
				id
				totalPrice
				...Lines
			}
		}
		fragment Lines on Order {
			orderItems {
				__typename
				count
				product { name }
				variations { count variationItems { name } }
			}
		}`

	w, resp := post(t, srv, authed(), request(query, map[string]any{"id": o.ExternalID.String()}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, "Query", resp.Data["__typename"])
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"o":{"id":"%s","totalPrice":1800`, o.ExternalID))

	got := resp.Data["o"].(map[string]any)
	items := got["orderItems"].([]any)
	require.Len(t, items, 1)

	line := items[0].(map[string]any)
	assert.Equal(t, "OrderItem", line["__typename"])
	assert.EqualValues(t, 2, line["count"])
	assert.Equal(t, "Pizza", line["product"].(map[string]any)["name"])
	assert.NotContains(t, line, "discount")

	variation := line["variations"].([]any)[0].(map[string]any)
	assert.Equal(t, "Large", variation["variationItems"].([]any)[0].(map[string]any)["name"])
}

func TestServer_Auth(t *testing.T) {
	srv, svc := newTestServer(t)

	w, resp := post(t, srv, context.Background(), request(`{ order(id: "x") { id } }`, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "NOT_AUTHENTICATED", resp.Errors[0].Extensions["code"])
	assert.Equal(t, []any{"order"}, resp.Errors[0].Path)
	assert.Nil(t, resp.Data["order"])
	svc.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}

func TestServer_UpdateOrder(t *testing.T) {
	srv, svc := newTestServer(t)
	o := sampleOrder()
	lineID := uuid.NewString()

	svc.On("UpdateOrder", mock.Anything, o.ExternalID.String(), mock.MatchedBy(func(lines []order.LineInput) bool {
		if len(lines) != 1 {
			return false
		}
		l := lines[0]
		return *l.ID == lineID &&
			*l.ProductID == "p-1" &&
			l.Count == 3 &&
			l.Discount == 50 &&
			l.TakeAway &&
			*l.Type == order.ItemTypeMenu &&
			len(l.Variations) == 1 &&
			l.Variations[0].Count == 3 &&
			l.Variations[0].VariationItemIDs[0] == "vi-1" &&
			len(l.Children) == 1 &&
			l.Children[0].Count == 1
	})).Return(o, nil)

	query := `mutation U($id: ID!, $items: [OrderItemInput!]!) {
		updateOrder(id: $id, orderItems: $items) { id orderItems { count } }
	}`
	vars := map[string]any{
		"id": o.ExternalID.String(),
		"items": []any{map[string]any{
			"id":         lineID,
			"productId":  "p-1",
			"type":       "MENU",
			"count":      3,
			"discount":   50,
			"takeAway":   true,
			"variations": []any{map[string]any{"variationItemIds": []any{"vi-1"}, "count": 3}},
			"orderItems": []any{map[string]any{"productId": "p-2", "count": 1}},
		}},
	}

	w, resp := post(t, srv, authed(), request(query, vars))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, o.ExternalID.String(), resp.Data["updateOrder"].(map[string]any)["id"])
	svc.AssertExpectations(t)
}

func TestServer_MutationErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"Domain error", fmt.Errorf("%w: abc", order.ErrOrderItemNotFound), "ORDER_ITEM_DOES_NOT_EXIST", "order item does not exist: abc"},
		{"Catalog error", catalog.ErrProductNotFound, "PRODUCT_DOES_NOT_EXIST", "product does not exist"},
		{"Unknown error", errors.New("pq: connection refused"), "UNEXPECTED_ERROR", "unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svc := newTestServer(t)
			svc.On("RemoveOrderItem", mock.Anything, "o-1", "i-1").Return(nil, tt.err)

			_, resp := post(t, srv, authed(), request(`mutation { removeOrderItem(orderId: "o-1", orderItemId: "i-1") { id } }`, nil))

			require.Len(t, resp.Errors, 1)
			assert.Equal(t, tt.code, resp.Errors[0].Extensions["code"])
			assert.Equal(t, tt.message, resp.Errors[0].Message)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestServer_ValidationFields(t *testing.T) {
	srv, svc := newTestServer(t)
	verr := order.ValidateLines([]order.LineInput{{Count: 0}})
	svc.On("AddProductsToOrder", mock.Anything, "o-1", mock.Anything).Return(nil, verr)

	_, resp := post(t, srv, authed(), request(
		`mutation { addProductsToOrder(id: "o-1", orderItems: [{count: 0}]) { id } }`, nil))

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "VALIDATION_FAILED", resp.Errors[0].Extensions["code"])
	assert.Len(t, resp.Errors[0].Extensions["fields"], 2)
}

func TestServer_RemoveProducts(t *testing.T) {
	srv, svc := newTestServer(t)
	o := sampleOrder()
	svc.On("RemoveProductsFromOrder", mock.Anything, "o-1", []order.RemoveInput{{ProductID: "p-1", Count: 2}}).Return(o, nil)

	_, resp := post(t, srv, authed(), request(
		`mutation { removeProductsFromOrder(id: "o-1", products: [{productId: "p-1", count: 2}]) { totalPrice } }`, nil))

	assert.Empty(t, resp.Errors)
	assert.EqualValues(t, 1800, resp.Data["removeProductsFromOrder"].(map[string]any)["totalPrice"])
}

func TestServer_RequestErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("Invalid query", func(t *testing.T) {
		w, resp := post(t, srv, authed(), request(`{ order(id: "1") { nope } }`, nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.NotEmpty(t, resp.Errors)
		assert.Nil(t, resp.Data)
	})

	t.Run("Missing variable", func(t *testing.T) {
		w, resp := post(t, srv, authed(), request(`query Q($id: ID!) { order(id: $id) { id } }`, nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.NotEmpty(t, resp.Errors)
	})

	t.Run("Malformed body", func(t *testing.T) {
		w, resp := post(t, srv, authed(), `{"query":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEmpty(t, resp.Errors)
	})

	t.Run("Wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/query", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "transport not supported")
	})
}

func TestServer_SkipInclude(t *testing.T) {
	srv, svc := newTestServer(t)
	o := sampleOrder()
	svc.On("GetOrder", mock.Anything, "o-1").Return(o, nil)

	_, resp := post(t, srv, authed(), request(
		`query Q($full: Boolean!) { order(id: "o-1") { id @skip(if: $full) totalPrice @include(if: $full) } }`,
		map[string]any{"full": true}))

	got := resp.Data["order"].(map[string]any)
	assert.NotContains(t, got, "id")
	assert.Contains(t, got, "totalPrice")
}

func TestServer_Introspection(t *testing.T) {
	srv, svc := newTestServer(t)

	t.Run("Schema root types", func(t *testing.T) {
		w, resp := post(t, srv, context.Background(), request(
			`{ __schema { queryType { name } mutationType { name } } }`, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, resp.Errors)
		schema := resp.Data["__schema"].(map[string]any)
		assert.Equal(t, "Query", schema["queryType"].(map[string]any)["name"])
		assert.Equal(t, "Mutation", schema["mutationType"].(map[string]any)["name"])
	})

	t.Run("Type fields", func(t *testing.T) {
		_, resp := post(t, srv, context.Background(), request(
			`{ __type(name: "Order") { kind name fields { name type { kind ofType { name } } } } }`, nil))

		require.Empty(t, resp.Errors)
		typ := resp.Data["__type"].(map[string]any)
		assert.Equal(t, "OBJECT", typ["kind"])
		assert.Equal(t, "Order", typ["name"])

		byName := map[string]map[string]any{}
		for _, f := range typ["fields"].([]any) {
			field := f.(map[string]any)
			byName[field["name"].(string)] = field["type"].(map[string]any)
		}
		require.Contains(t, byName, "totalPrice")
		assert.Equal(t, "NON_NULL", byName["totalPrice"]["kind"])
		assert.Equal(t, "Int", byName["totalPrice"]["ofType"].(map[string]any)["name"])
		assert.Equal(t, "SCALAR", byName["tableId"]["kind"])
	})

	t.Run("Enum values", func(t *testing.T) {
		_, resp := post(t, srv, context.Background(), request(
			`{ __type(name: "OrderItemType") { enumValues { name } } }`, nil))

		require.Empty(t, resp.Errors)
		values := resp.Data["__type"].(map[string]any)["enumValues"].([]any)
		require.Len(t, values, 6)
		assert.Equal(t, "PRODUCT", values[0].(map[string]any)["name"])
	})

	t.Run("Unknown type", func(t *testing.T) {
		_, resp := post(t, srv, context.Background(), request(`{ __type(name: "Nope") { name } }`, nil))

		assert.Empty(t, resp.Errors)
		assert.Nil(t, resp.Data["__type"])
	})

	svc.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}

func TestServer_IntrospectionDisabled(t *testing.T) {
	srv := handler.New(NewSchema(&Resolver{OrderSvc: new(MockOrderService)}))
	srv.AddTransport(transport.POST{})
	srv.SetErrorPresenter(ErrorPresenter)

	_, resp := post(t, srv, context.Background(), request(`{ __schema { queryType { name } } }`, nil))

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "introspection disabled", resp.Errors[0].Message)
}

func TestServer_RecoversPanic(t *testing.T) {
	srv, svc := newTestServer(t)
	svc.On("GetOrder", mock.Anything, "o-1").Run(func(mock.Arguments) {
		panic("nil map write")
	}).Return(nil, nil)

	w, resp := post(t, srv, authed(), request(`{ order(id: "o-1") { id } }`, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "unexpected error", resp.Errors[0].Message)
	assert.Equal(t, CodeUnexpected, resp.Errors[0].Extensions["code"])
	assert.Equal(t, []any{"order"}, resp.Errors[0].Path)
	assert.Nil(t, resp.Data["order"])
}

func TestErrorPresenter(t *testing.T) {
	ctx := context.Background()
	path := ast.Path{ast.PathName("updateOrder")}

	t.Run("Resolver error on path", func(t *testing.T) {
		err := ErrorPresenter(ctx, gqlerror.WrapPath(path, fmt.Errorf("%w: x", order.ErrOrderNotFound)))

		assert.Equal(t, "ORDER_DOES_NOT_EXIST", err.Extensions["code"])
		assert.Equal(t, path, err.Path)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("Executor error passes through", func(t *testing.T) {
		in := gqlerror.Errorf("must not be null")

		assert.Same(t, in, ErrorPresenter(ctx, in))
	})

	t.Run("Bare error", func(t *testing.T) {
		err := ErrorPresenter(ctx, order.ErrNotAuthenticated)

		assert.Equal(t, "NOT_AUTHENTICATED", err.Extensions["code"])
	})
}
