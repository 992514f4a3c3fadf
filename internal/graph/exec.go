package graph

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"reflect"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

//go:embed schema.graphqls
var schemaSource string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSource})

type Config struct {
	Resolvers  *Resolver
	Directives DirectiveRoot
}

type DirectiveRoot struct {
	Auth func(ctx context.Context, obj any, next graphql.Resolver) (res any, err error)
}

// NewExecutableSchema binds the schema to the resolvers. Root fields dispatch
// through the resolver field tables, object fields are read from the model
// structs by their json tags.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{
		schema:     parsedSchema,
		directives: cfg.Directives,
		roots: map[ast.Operation]map[string]fieldFunc{
			ast.Query:    cfg.Resolvers.queryFields(),
			ast.Mutation: cfg.Resolvers.mutationFields(),
		},
	}
}

type executableSchema struct {
	schema     *ast.Schema
	directives DirectiveRoot
	roots      map[ast.Operation]map[string]fieldFunc
}

func (e *executableSchema) Schema() *ast.Schema {
	return e.schema
}

func (e *executableSchema) Complexity(ctx context.Context, typeName, field string, childComplexity int, rawArgs map[string]any) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	ec := executionContext{opCtx, e}

	var root string
	switch opCtx.Operation.Operation {
	case ast.Query:
		root = "Query"
	case ast.Mutation:
		root = "Mutation"
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false

		data := ec.executeRoot(ctx, root, opCtx.Operation.SelectionSet)
		var buf bytes.Buffer
		data.MarshalGQL(&buf)

		return &graphql.Response{Data: buf.Bytes()}
	}
}

type executionContext struct {
	*graphql.OperationContext
	*executableSchema
}

// executeRoot runs root fields one after another in document order, which
// mutations require.
func (ec *executionContext) executeRoot(ctx context.Context, root string, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{root})
	ctx = graphql.WithFieldContext(ctx, &graphql.FieldContext{Object: root})

	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		if field.Name == "__typename" {
			out.Values[i] = graphql.MarshalString(root)
			continue
		}

		innerCtx := graphql.WithRootFieldContext(ctx, &graphql.RootFieldContext{Object: root, Field: field})
		out.Values[i] = ec.RootResolverMiddleware(innerCtx, func(ctx context.Context) graphql.Marshaler {
			return ec.resolveField(ctx, root, nil, field)
		})
		if out.Values[i] == graphql.Null && field.Definition.Type.NonNull {
			out.Invalids++
		}
	}
	out.Dispatch(ctx)

	if out.Invalids > 0 {
		return graphql.Null
	}
	return out
}

func (ec *executionContext) executeObject(ctx context.Context, sel ast.SelectionSet, typeName string, obj any) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, []string{typeName})

	out := graphql.NewFieldSet(fields)
	for i, field := range fields {
		if field.Name == "__typename" {
			out.Values[i] = graphql.MarshalString(typeName)
			continue
		}

		out.Values[i] = ec.resolveField(ctx, typeName, obj, field)
		if out.Values[i] == graphql.Null && field.Definition.Type.NonNull {
			out.Invalids++
		}
	}
	out.Dispatch(ctx)

	if out.Invalids > 0 {
		return graphql.Null
	}
	return out
}

// resolveField runs one field through the resolver middleware and the @auth
// directive, then marshals the result against the field's schema type.
func (ec *executionContext) resolveField(ctx context.Context, object string, obj any, field graphql.CollectedField) graphql.Marshaler {
	def := field.Definition

	return graphql.ResolveField[any](
		ctx,
		ec.OperationContext,
		field,
		func(ctx context.Context, field graphql.CollectedField) (*graphql.FieldContext, error) {
			return &graphql.FieldContext{
				Object:     object,
				Field:      field,
				Args:       field.ArgumentMap(ec.Variables),
				IsMethod:   obj == nil,
				IsResolver: obj == nil,
			}, nil
		},
		func(ctx context.Context) (any, error) {
			return ec.fieldValue(ctx, obj, field.Name)
		},
		func(ctx context.Context, next graphql.Resolver) graphql.Resolver {
			if def.Directives.ForName("auth") == nil || ec.directives.Auth == nil {
				return next
			}
			return func(ctx context.Context) (any, error) {
				return ec.directives.Auth(ctx, obj, next)
			}
		},
		func(ctx context.Context, sel ast.SelectionSet, v any) graphql.Marshaler {
			return ec.marshal(ctx, sel, def.Type, v)
		},
		true,
		def.Type.NonNull,
	)
}

func (ec *executionContext) fieldValue(ctx context.Context, obj any, name string) (any, error) {
	args := graphql.GetFieldContext(ctx).Args

	if obj == nil {
		return ec.rootField(ctx, name, args)
	}
	if v, ok := introspect(obj, name, args); ok {
		return v, nil
	}
	return structField(obj, name)
}

func (ec *executionContext) rootField(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "__schema":
		if ec.DisableIntrospection {
			return nil, gqlerror.Errorf("introspection disabled")
		}
		return introspection.WrapSchema(ec.Schema()), nil
	case "__type":
		if ec.DisableIntrospection {
			return nil, gqlerror.Errorf("introspection disabled")
		}
		typeName, _ := args["name"].(string)
		return introspection.WrapTypeFromDef(ec.Schema(), ec.Schema().Types[typeName]), nil
	}

	resolve, ok := ec.roots[ec.Operation.Operation][name]
	if !ok {
		return nil, fmt.Errorf("field %s is not supported", name)
	}
	return resolve(ctx, args)
}

// structField reads the field of a model struct whose json tag matches the
// GraphQL field name.
func structField(obj any, name string) (any, error) {
	v := reflect.Indirect(reflect.ValueOf(obj))
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot read %s from %T", name, obj)
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ","); tag == name {
			return v.Field(i).Interface(), nil
		}
	}
	return nil, fmt.Errorf("%s has no field %s", t.Name(), name)
}

func introspect(obj any, name string, args map[string]any) (any, bool) {
	includeDeprecated, _ := args["includeDeprecated"].(bool)

	switch o := obj.(type) {
	case *introspection.Schema:
		switch name {
		case "description":
			return o.Description(), true
		case "types":
			return o.Types(), true
		case "queryType":
			return o.QueryType(), true
		case "mutationType":
			return o.MutationType(), true
		case "subscriptionType":
			return o.SubscriptionType(), true
		case "directives":
			return o.Directives(), true
		}
	case *introspection.Type:
		switch name {
		case "kind":
			return o.Kind(), true
		case "name":
			return o.Name(), true
		case "description":
			return o.Description(), true
		case "specifiedByURL":
			return o.SpecifiedByURL(), true
		case "fields":
			return o.Fields(includeDeprecated), true
		case "interfaces":
			return o.Interfaces(), true
		case "possibleTypes":
			return o.PossibleTypes(), true
		case "enumValues":
			return o.EnumValues(includeDeprecated), true
		case "inputFields":
			return o.InputFields(), true
		case "ofType":
			return o.OfType(), true
		case "isOneOf":
			return o.IsOneOf(), true
		}
	case *introspection.Field:
		switch name {
		case "name":
			return o.Name, true
		case "description":
			return o.Description(), true
		case "args":
			return o.Args, true
		case "type":
			return o.Type, true
		case "isDeprecated":
			return o.IsDeprecated(), true
		case "deprecationReason":
			return o.DeprecationReason(), true
		}
	case *introspection.InputValue:
		switch name {
		case "name":
			return o.Name, true
		case "description":
			return o.Description(), true
		case "type":
			return o.Type, true
		case "defaultValue":
			return o.DefaultValue, true
		case "isDeprecated":
			return o.IsDeprecated(), true
		case "deprecationReason":
			return o.DeprecationReason(), true
		}
	case *introspection.EnumValue:
		switch name {
		case "name":
			return o.Name, true
		case "description":
			return o.Description(), true
		case "isDeprecated":
			return o.IsDeprecated(), true
		case "deprecationReason":
			return o.DeprecationReason(), true
		}
	case *introspection.Directive:
		switch name {
		case "name":
			return o.Name, true
		case "description":
			return o.Description(), true
		case "locations":
			return o.Locations, true
		case "args":
			return o.Args, true
		case "isRepeatable":
			return o.IsRepeatable, true
		}
	}
	return nil, false
}

func (ec *executionContext) marshal(ctx context.Context, sel ast.SelectionSet, typ *ast.Type, v any) graphql.Marshaler {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() == reflect.Ptr && rv.IsNil()) {
		if typ.NonNull {
			graphql.AddErrorf(ctx, "must not be null")
		}
		return graphql.Null
	}

	if typ.Elem != nil {
		return ec.marshalList(ctx, sel, typ, rv)
	}

	def := ec.Schema().Types[typ.Name()]
	if def == nil {
		graphql.AddErrorf(ctx, "unknown type %s", typ.Name())
		return graphql.Null
	}
	if def.Kind == ast.Object {
		return ec.executeObject(ctx, sel, def.Name, v)
	}

	rv = reflect.Indirect(rv)
	switch rv.Kind() {
	case reflect.String:
		return graphql.MarshalString(rv.String())
	case reflect.Bool:
		return graphql.MarshalBoolean(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return graphql.MarshalInt64(rv.Int())
	}

	graphql.AddErrorf(ctx, "cannot marshal %T as %s", v, typ.Name())
	return graphql.Null
}

func (ec *executionContext) marshalList(ctx context.Context, sel ast.SelectionSet, typ *ast.Type, rv reflect.Value) graphql.Marshaler {
	if rv.Kind() != reflect.Slice {
		graphql.AddErrorf(ctx, "cannot marshal %s as a list", rv.Type())
		return graphql.Null
	}
	if rv.IsNil() && !typ.NonNull {
		return graphql.Null
	}

	ret := make(graphql.Array, rv.Len())
	for i := range ret {
		item := rv.Index(i)
		if item.Kind() == reflect.Struct {
			item = item.Addr()
		}

		fc := &graphql.FieldContext{Index: &i, Result: item.Interface()}
		ctx := graphql.WithFieldContext(ctx, fc)

		ret[i] = ec.marshal(ctx, sel, typ.Elem, item.Interface())
		if ret[i] == graphql.Null && typ.Elem.NonNull {
			return graphql.Null
		}
	}
	return ret
}
