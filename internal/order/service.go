package order

import (
	"context"
	"errors"
	"fmt"

	"pos-be/internal/catalog"
	"pos-be/internal/logger"
	"pos-be/internal/metrics"
	"pos-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// UpdateOrder replaces the order's lines with exactly the given lines.
	UpdateOrder(ctx context.Context, orderID string, lines []LineInput) (*Order, error)

	AddProductsToOrder(ctx context.Context, orderID string, lines []LineInput) (*Order, error)
	RemoveProductsFromOrder(ctx context.Context, orderID string, lines []RemoveInput) (*Order, error)
	RemoveOrderItem(ctx context.Context, orderID, orderItemID string) (*Order, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	builder *Builder
	metrics *metrics.Registry
}

func NewService(repo Repository, catalogRepo catalog.Repository, registry *metrics.Registry) Service {
	return &service{
		repo:    repo,
		catalog: catalogRepo,
		builder: NewBuilder(catalogRepo),
		metrics: registry,
	}
}

// load fetches the order and checks the caller may touch it.
func (s *service) load(ctx context.Context, orderID string) (*Order, error) {
	companyID, ok := utils.GetCompanyIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	o, err := s.repo.GetOrderByExternalID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.CompanyID != companyID && !utils.IsAdmin(ctx) {
		return nil, ErrActionNotAllowed
	}
	return o, nil
}

// commit persists cs and returns the reloaded order.
func (s *service) commit(ctx context.Context, o *Order, cs *Changeset) (*Order, error) {
	if err := s.repo.Apply(ctx, o.ID, cs); err != nil {
		return nil, err
	}

	s.metrics.Counter("order_lines_created_total").Add(uint64(len(cs.Inserts)))
	s.metrics.Counter("order_lines_updated_total").Add(uint64(len(cs.Updates)))
	s.metrics.Counter("order_lines_deleted_total").Add(uint64(len(cs.Deletes)))

	return s.repo.GetOrderByExternalID(ctx, o.ExternalID)
}

func (s *service) observe(log *zap.Logger, timer *metrics.Timer, err error) {
	s.metrics.Counter("order_operations_total").Inc()
	if err == nil {
		log.Info("order operation completed", zap.Duration("duration", timer.Duration()))
		return
	}

	s.metrics.Counter("order_operation_errors_total").Inc()
	if isDomainError(err) {
		log.Warn("order operation rejected", zap.Error(err))
		return
	}
	log.Error("order operation failed", zap.Error(err))
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrNotAuthenticated,
		ErrActionNotAllowed,
		ErrValidationFailed,
		ErrOrderNotFound,
		ErrProductNotInOrder,
		ErrOrderItemNotFound,
		ErrOrderItemVariationNotFound,
		catalog.ErrProductNotFound,
		catalog.ErrVariationItemNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetOrder"),
		zap.String("order_id", orderID),
	)

	o, err := s.load(ctx, orderID)
	if err != nil {
		log.Warn("failed to get order", zap.Error(err))
		return nil, err
	}
	return o, nil
}

func (s *service) UpdateOrder(ctx context.Context, orderID string, lines []LineInput) (o *Order, err error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrder"),
		zap.String("order_id", orderID),
		zap.Int("line_count", len(lines)),
	)
	timer := metrics.StartTimer()
	defer func() { s.observe(log, timer, err) }()

	log.Debug("reconciling order")

	if err := ValidateLines(lines); err != nil {
		return nil, err
	}

	o, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cs, err := Reconcile(ctx, s.builder, o, lines)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, o, cs)
}

func (s *service) AddProductsToOrder(ctx context.Context, orderID string, lines []LineInput) (o *Order, err error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddProductsToOrder"),
		zap.String("order_id", orderID),
		zap.Int("line_count", len(lines)),
	)
	timer := metrics.StartTimer()
	defer func() { s.observe(log, timer, err) }()

	if err := ValidateLines(lines); err != nil {
		return nil, err
	}

	o, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cs, res, err := AddLines(ctx, s.builder, o, lines)
	if err != nil {
		return nil, err
	}
	log.Debug("lines added", zap.Int("merged", res.Merged), zap.Int("created", res.Created))
	s.metrics.Counter("order_lines_merged_total").Add(uint64(res.Merged))

	return s.commit(ctx, o, cs)
}

func (s *service) RemoveProductsFromOrder(ctx context.Context, orderID string, lines []RemoveInput) (o *Order, err error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RemoveProductsFromOrder"),
		zap.String("order_id", orderID),
		zap.Int("line_count", len(lines)),
	)
	timer := metrics.StartTimer()
	defer func() { s.observe(log, timer, err) }()

	if err := ValidateRemovals(lines); err != nil {
		return nil, err
	}

	o, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	removals := make([]Removal, 0, len(lines))
	for _, l := range lines {
		product, err := s.catalog.FindProductByExternalID(ctx, uuid.MustParse(l.ProductID))
		if err != nil {
			return nil, err
		}
		removals = append(removals, Removal{ProductID: product.ID, Count: l.Count})
	}

	cs, err := RemoveLines(o, removals)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, o, cs)
}

func (s *service) RemoveOrderItem(ctx context.Context, orderID, orderItemID string) (o *Order, err error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RemoveOrderItem"),
		zap.String("order_id", orderID),
		zap.String("order_item_id", orderItemID),
	)
	timer := metrics.StartTimer()
	defer func() { s.observe(log, timer, err) }()

	itemID, err := uuid.Parse(orderItemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderItemNotFound, orderItemID)
	}

	o, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	cs, err := RemoveItem(o, itemID)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, o, cs)
}
