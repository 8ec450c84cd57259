package repositories

import (
	"context"
	"fmt"
	"time"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error)
	Transition(ctx context.Context, tenantID, id uuid.UUID, from, to string, restoreStock bool) error
	ListStalePending(ctx context.Context, placedBefore time.Time, limit int) ([]*models.Order, error)
}

const orderColumns = `o.id, o.tenant_id, o.customer_id, o.number, o.status, o.currency, o.subtotal, o.total, o.shipping_address, o.notes, o.placed_at, o.updated_at`

type orderRepo struct {
	db database.DBTX
}

func NewOrderRepo(db database.DBTX) OrderRepository {
	return &orderRepo{db: db}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.TenantID, &o.CustomerID, &o.Number, &o.Status, &o.Currency, &o.Subtotal, &o.Total,
		&o.ShippingAddress, &o.Notes, &o.PlacedAt, &o.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

// Create writes the order and its items and takes the ordered quantities out
// of stock, all in one transaction. If any variant lacks stock nothing is
// written and ErrInsufficientStock is returned.
func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, item := range order.Items {
			tag, err := tx.Exec(ctx, `
				UPDATE product_variants SET stock = stock - $1, updated_at = NOW()
				WHERE id = $2 AND tenant_id = $3 AND stock >= $1
			`, item.Quantity, item.VariantID, order.TenantID)
			if err != nil {
				return mapError(err)
			}
			if tag.RowsAffected() != 1 {
				return fmt.Errorf("%w: %s", common.ErrInsufficientStock, item.SKU)
			}
		}

		query := `
			INSERT INTO orders (id, tenant_id, customer_id, number, status, currency, subtotal, total, shipping_address, notes, placed_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			RETURNING placed_at, updated_at
		`
		err := tx.QueryRow(ctx, query, order.ID, order.TenantID, order.CustomerID, order.Number, order.Status,
			order.Currency, order.Subtotal, order.Total, order.ShippingAddress, order.Notes).
			Scan(&order.PlacedAt, &order.UpdatedAt)
		if err != nil {
			return mapError(err)
		}

		for _, item := range order.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO order_items (id, tenant_id, order_id, product_id, variant_id, vendor_id, sku, name, quantity, unit_price, line_total)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			`, item.ID, order.TenantID, order.ID, item.ProductID, item.VariantID, item.VendorID, item.SKU, item.Name,
				item.Quantity, item.UnitPrice, item.LineTotal)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

func (r *orderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.tenant_id = $1 AND o.id = $2`
	order, err := scanOrder(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, err
	}

	rows, err := database.Conn(ctx, r.db).Query(ctx, `
		SELECT id, tenant_id, order_id, product_id, variant_id, vendor_id, sku, name, quantity, unit_price, line_total
		FROM order_items WHERE tenant_id = $1 AND order_id = $2 ORDER BY sku
	`, tenantID, id)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.TenantID, &item.OrderID, &item.ProductID, &item.VariantID, &item.VendorID,
			&item.SKU, &item.Name, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

func (r *orderRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error) {
	where := ` WHERE o.tenant_id = $1`
	args := []interface{}{tenantID}
	argCount := 1

	if filter.Status != "" {
		argCount++
		where += fmt.Sprintf(` AND o.status = $%d`, argCount)
		args = append(args, filter.Status)
	}
	if filter.CustomerID != nil {
		argCount++
		where += fmt.Sprintf(` AND o.customer_id = $%d`, argCount)
		args = append(args, *filter.CustomerID)
	}
	if filter.VendorID != nil {
		argCount++
		where += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.vendor_id = $%d)`, argCount)
		args = append(args, *filter.VendorID)
	}

	var total int
	if err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders o` + where +
		fmt.Sprintf(` ORDER BY o.placed_at DESC LIMIT $%d OFFSET $%d`, argCount+1, argCount+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// Transition moves the order from one status to another, optionally putting
// its item quantities back into stock in the same transaction.
func (r *orderRepo) Transition(ctx context.Context, tenantID, id uuid.UUID, from, to string, restoreStock bool) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET status = $4, updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2 AND status = $3
		`, tenantID, id, from, to)
		if err != nil {
			return mapError(err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: order is no longer %s", common.ErrConflict, from)
		}
		if !restoreStock {
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE product_variants v SET stock = v.stock + oi.quantity, updated_at = NOW()
			FROM order_items oi
			WHERE oi.order_id = $2 AND oi.tenant_id = $1 AND v.id = oi.variant_id AND v.tenant_id = $1
		`, tenantID, id)
		return mapError(err)
	})
}

// ListStalePending returns pending orders of every tenant placed before the cutoff.
func (r *orderRepo) ListStalePending(ctx context.Context, placedBefore time.Time, limit int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.status = 'pending' AND o.placed_at < $1 ORDER BY o.placed_at LIMIT $2`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, placedBefore, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
