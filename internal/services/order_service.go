package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"digimall/internal/caching"
	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxOrderLines       = 100
	maxLineQuantity     = 10000
	orderNumberAttempts = 3
	orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type OrderLine struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

type PlaceOrderRequest struct {
	Items           []OrderLine     `json:"items"`
	ShippingAddress *models.Address `json:"shipping_address,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type OrderService interface {
	// Customer
	Place(ctx context.Context, tenant *models.Tenant, userID uuid.UUID, req *PlaceOrderRequest) (*models.Order, error)
	ListForCustomer(ctx context.Context, tenantID, userID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error)
	GetForCustomer(ctx context.Context, tenantID, userID, id uuid.UUID) (*models.Order, error)
	CancelForCustomer(ctx context.Context, tenant *models.Tenant, userID, id uuid.UUID) (*models.Order, error)

	// Vendor
	ListForVendor(ctx context.Context, tenantID, userID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error)
	GetForVendor(ctx context.Context, tenantID, userID, id uuid.UUID) (*models.Order, error)

	// Administration
	List(ctx context.Context, tenantID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	Transition(ctx context.Context, tenant *models.Tenant, id uuid.UUID, to string) (*models.Order, error)

	// ExpireStale cancels pending orders placed before the cutoff across all tenants.
	ExpireStale(ctx context.Context, placedBefore time.Time, batchSize int) (int, error)
}

type orderService struct {
	orderRepo    repositories.OrderRepository
	variantRepo  repositories.VariantRepository
	customerRepo repositories.CustomerRepository
	vendorRepo   repositories.VendorRepository
	tenantRepo   repositories.TenantRepository
	cache        caching.CacheService
	webhooks     WebhookNotifier
	logger       *zap.Logger
	now          func() time.Time
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	variantRepo repositories.VariantRepository,
	customerRepo repositories.CustomerRepository,
	vendorRepo repositories.VendorRepository,
	tenantRepo repositories.TenantRepository,
	cache caching.CacheService,
	webhooks WebhookNotifier,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		variantRepo:  variantRepo,
		customerRepo: customerRepo,
		vendorRepo:   vendorRepo,
		tenantRepo:   tenantRepo,
		cache:        cache,
		webhooks:     webhooks,
		logger:       logger,
		now:          time.Now,
	}
}

// GenerateOrderNumber returns a number of the form DM-YYYYMMDD-XXXXXX.
func GenerateOrderNumber(at time.Time) (string, error) {
	suffix := make([]byte, 6)
	base := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("failed to generate order number: %w", err)
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("DM-%s-%s", at.UTC().Format("20060102"), suffix), nil
}

// MergeOrderLines validates lines, folds duplicate variants together and
// orders the result by variant id so concurrent orders lock stock rows in
// the same order.
func MergeOrderLines(lines []OrderLine) ([]OrderLine, error) {
	v := common.NewValidationError()
	if len(lines) == 0 {
		v.Add("items", "at least one item is required")
	}
	if len(lines) > maxOrderLines {
		v.Add("items", fmt.Sprintf("an order cannot have more than %d lines", maxOrderLines))
	}

	totals := make(map[uuid.UUID]int, len(lines))
	for i, line := range lines {
		if line.VariantID == uuid.Nil {
			v.Add(fmt.Sprintf("items[%d].variant_id", i), "variant_id is required")
			continue
		}
		if line.Quantity <= 0 {
			v.Add(fmt.Sprintf("items[%d].quantity", i), "quantity must be greater than zero")
			continue
		}
		if line.Quantity > maxLineQuantity {
			v.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("quantity cannot exceed %d", maxLineQuantity))
			continue
		}
		totals[line.VariantID] += line.Quantity
	}
	for id, qty := range totals {
		if qty > maxLineQuantity {
			v.Add("items", fmt.Sprintf("quantity for variant %s cannot exceed %d", id, maxLineQuantity))
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	merged := make([]OrderLine, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, OrderLine{VariantID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].VariantID.String() < merged[j].VariantID.String()
	})
	return merged, nil
}

func (s *orderService) customerFor(ctx context.Context, tenantID, userID uuid.UUID) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, tenantID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user has no customer profile: %w", common.ErrForbidden)
		}
		return nil, err
	}
	return customer, nil
}

func (s *orderService) Place(ctx context.Context, tenant *models.Tenant, userID uuid.UUID, req *PlaceOrderRequest) (*models.Order, error) {
	customer, err := s.customerFor(ctx, tenant.ID, userID)
	if err != nil {
		return nil, err
	}

	lines, err := MergeOrderLines(req.Items)
	if err != nil {
		return nil, err
	}

	v := common.NewValidationError()
	address := req.ShippingAddress
	if address.IsZero() {
		address = customer.ShippingAddress
	}
	if address.IsZero() {
		v.Add("shipping_address", "a shipping address is required")
	} else {
		addr := *address
		ValidateAddress(v, "shipping_address", &addr)
		address = &addr
	}
	v.Check("notes", common.ValidateOptionalString(req.Notes, "notes", 1000))
	v.Check("notes", common.ValidateFreeText(req.Notes, "notes"))
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.VariantID
	}
	forSale, err := s.variantRepo.GetForSale(ctx, tenant.ID, ids)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              uuid.New(),
		TenantID:        tenant.ID,
		CustomerID:      customer.ID,
		Status:          models.OrderStatusPending,
		Currency:        tenant.Currency,
		Subtotal:        decimal.Zero,
		ShippingAddress: address,
		Notes:           req.Notes,
	}

	for _, line := range lines {
		field := "items." + line.VariantID.String()
		sale, ok := forSale[line.VariantID]
		if !ok {
			v.Add(field, "variant does not exist")
			continue
		}
		if sale.ProductStatus != models.ProductStatusPublished || sale.VendorStatus != models.VendorStatusApproved {
			v.Add(field, "variant is not available for sale")
			continue
		}
		price, ok := models.UnitPriceFor(sale.Variant.Prices, tenant.Currency, line.Quantity)
		if !ok {
			v.Add(field, fmt.Sprintf("variant has no price in %s", tenant.Currency))
			continue
		}
		if sale.Variant.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: %s has %d left", common.ErrInsufficientStock, sale.Variant.SKU, sale.Variant.Stock)
		}

		lineTotal := price.Amount.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, &models.OrderItem{
			ID:        uuid.New(),
			TenantID:  tenant.ID,
			OrderID:   order.ID,
			ProductID: sale.Variant.ProductID,
			VariantID: sale.Variant.ID,
			VendorID:  sale.VendorID,
			SKU:       sale.Variant.SKU,
			Name:      itemName(sale),
			Quantity:  line.Quantity,
			UnitPrice: price.Amount,
			LineTotal: lineTotal,
		})
		order.Subtotal = order.Subtotal.Add(lineTotal)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if order.Subtotal.GreaterThanOrEqual(maxMoneyAmount) {
		return nil, common.FieldError("items", "order total is too large")
	}
	order.Total = order.Subtotal

	for attempt := 1; ; attempt++ {
		if order.Number, err = GenerateOrderNumber(s.now()); err != nil {
			return nil, err
		}
		err = s.orderRepo.Create(ctx, order)
		if err == nil {
			break
		}
		if errors.Is(err, common.ErrConflict) && attempt < orderNumberAttempts {
			continue
		}
		if errors.Is(err, common.ErrInsufficientStock) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
		zap.String("total", order.Total.StringFixed(2)))
	s.dropCachedProducts(ctx, order)
	s.announce(tenant, order, "order.placed", "")
	return order, nil
}

func itemName(sale *models.VariantForSale) string {
	if sale.Variant.Name == "" || sale.Variant.Name == sale.ProductName {
		return sale.ProductName
	}
	return sale.ProductName + " - " + sale.Variant.Name
}

func (s *orderService) ListForCustomer(ctx context.Context, tenantID, userID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error) {
	customer, err := s.customerFor(ctx, tenantID, userID)
	if err != nil {
		return nil, 0, err
	}
	filter.CustomerID = &customer.ID
	filter.VendorID = nil
	return s.List(ctx, tenantID, filter)
}

func (s *orderService) GetForCustomer(ctx context.Context, tenantID, userID, id uuid.UUID) (*models.Order, error) {
	customer, err := s.customerFor(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customer.ID {
		return nil, common.ErrNotFound
	}
	return order, nil
}

func (s *orderService) CancelForCustomer(ctx context.Context, tenant *models.Tenant, userID, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetForCustomer(ctx, tenant.ID, userID, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, tenant, order, models.OrderStatusCancelled)
}

func (s *orderService) ListForVendor(ctx context.Context, tenantID, userID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error) {
	vendor, err := s.vendorRepo.GetByUserID(ctx, tenantID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, fmt.Errorf("user is not a vendor: %w", common.ErrForbidden)
		}
		return nil, 0, err
	}
	filter.VendorID = &vendor.ID
	filter.CustomerID = nil
	return s.List(ctx, tenantID, filter)
}

// GetForVendor returns the order with only the vendor's own items.
func (s *orderService) GetForVendor(ctx context.Context, tenantID, userID, id uuid.UUID) (*models.Order, error) {
	vendor, err := s.vendorRepo.GetByUserID(ctx, tenantID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user is not a vendor: %w", common.ErrForbidden)
		}
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	own := make([]*models.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.VendorID == vendor.ID {
			own = append(own, item)
		}
	}
	if len(own) == 0 {
		return nil, common.ErrNotFound
	}
	order.Items = own
	return order, nil
}

func (s *orderService) List(ctx context.Context, tenantID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error) {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, common.FieldError("offset", err.Error())
	}
	filter.Limit, filter.Offset = limit, offset
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status != "" && !isOrderStatus(filter.Status) {
		return nil, 0, common.FieldError("status", "unknown order status")
	}
	return s.orderRepo.List(ctx, tenantID, filter)
}

func isOrderStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusProcessing,
		models.OrderStatusShipped, models.OrderStatusDelivered, models.OrderStatusCancelled:
		return true
	}
	return false
}

func (s *orderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, tenantID, id)
}

func (s *orderService) Transition(ctx context.Context, tenant *models.Tenant, id uuid.UUID, to string) (*models.Order, error) {
	to = strings.ToLower(strings.TrimSpace(to))
	if !isOrderStatus(to) {
		return nil, common.FieldError("status", "unknown order status")
	}
	order, err := s.orderRepo.GetByID(ctx, tenant.ID, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, tenant, order, to)
}

func (s *orderService) transition(ctx context.Context, tenant *models.Tenant, order *models.Order, to string) (*models.Order, error) {
	from := order.Status
	if !models.CanOrderTransition(from, to) {
		return nil, fmt.Errorf("order cannot move from %s to %s: %w", from, to, common.ErrInvalidTransition)
	}

	restoreStock := to == models.OrderStatusCancelled
	if err := s.orderRepo.Transition(ctx, tenant.ID, order.ID, from, to, restoreStock); err != nil {
		return nil, err
	}
	order.Status = to
	order.UpdatedAt = s.now().UTC()
	if restoreStock {
		s.dropCachedProducts(ctx, order)
	}

	s.logger.Info("order status changed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("from", from),
		zap.String("to", to))
	s.announce(tenant, order, "order.status_changed", from)
	return order, nil
}

func (s *orderService) ExpireStale(ctx context.Context, placedBefore time.Time, batchSize int) (int, error) {
	orders, err := s.orderRepo.ListStalePending(ctx, placedBefore, batchSize)
	if err != nil {
		return 0, err
	}

	tenants := make(map[uuid.UUID]*models.Tenant)
	expired := 0
	for _, order := range orders {
		err := s.orderRepo.Transition(ctx, order.TenantID, order.ID, models.OrderStatusPending, models.OrderStatusCancelled, true)
		if err != nil {
			if errors.Is(err, common.ErrConflict) {
				continue
			}
			return expired, fmt.Errorf("failed to expire order %s: %w", order.Number, err)
		}
		expired++
		s.dropCachedProducts(ctx, order)

		tenant, ok := tenants[order.TenantID]
		if !ok {
			tenant, err = s.tenantRepo.GetByID(ctx, order.TenantID)
			if err != nil {
				s.logger.Warn("failed to load tenant for expired order", zap.String("order_id", order.ID.String()), zap.Error(err))
				continue
			}
			tenants[order.TenantID] = tenant
		}
		order.Status = models.OrderStatusCancelled
		s.announce(tenant, order, "order.status_changed", models.OrderStatusPending)
	}
	return expired, nil
}

// dropCachedProducts evicts the cached detail of every product whose stock
// the order moved. Orders listed without items are reloaded first.
func (s *orderService) dropCachedProducts(ctx context.Context, order *models.Order) {
	items := order.Items
	if items == nil {
		full, err := s.orderRepo.GetByID(ctx, order.TenantID, order.ID)
		if err != nil {
			s.logger.Warn("failed to load order items for cache eviction", zap.String("order_id", order.ID.String()), zap.Error(err))
			return
		}
		items = full.Items
	}

	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		if err := s.cache.DeleteProduct(ctx, order.TenantID, item.ProductID); err != nil {
			s.logger.Warn("failed to invalidate product cache", zap.String("product_id", item.ProductID.String()), zap.Error(err))
		}
	}
}

func (s *orderService) announce(tenant *models.Tenant, order *models.Order, event, prevStatus string) {
	if s.webhooks == nil || tenant.WebhookURL == nil {
		return
	}
	s.webhooks.Notify(tenant, &models.OrderEvent{
		Event:      event,
		TenantID:   tenant.ID,
		OrderID:    order.ID,
		Number:     order.Number,
		Status:     order.Status,
		PrevStatus: prevStatus,
		Total:      order.Total.StringFixed(2),
		Currency:   order.Currency,
		OccurredAt: s.now().UTC(),
	})
}
