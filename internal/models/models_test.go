package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanVendorTransition(t *testing.T) {
	assert.True(t, CanVendorTransition(VendorStatusPending, VendorStatusApproved))
	assert.True(t, CanVendorTransition(VendorStatusPending, VendorStatusRejected))
	assert.True(t, CanVendorTransition(VendorStatusApproved, VendorStatusSuspended))
	assert.True(t, CanVendorTransition(VendorStatusSuspended, VendorStatusApproved))

	assert.False(t, CanVendorTransition(VendorStatusRejected, VendorStatusApproved))
	assert.False(t, CanVendorTransition(VendorStatusPending, VendorStatusSuspended))
	assert.False(t, CanVendorTransition(VendorStatusApproved, VendorStatusRejected))
	assert.False(t, CanVendorTransition(VendorStatusApproved, VendorStatusApproved))
}

func TestCanOrderTransition(t *testing.T) {
	assert.True(t, CanOrderTransition(OrderStatusPending, OrderStatusPaid))
	assert.True(t, CanOrderTransition(OrderStatusPaid, OrderStatusCancelled))
	assert.True(t, CanOrderTransition(OrderStatusShipped, OrderStatusDelivered))

	assert.False(t, CanOrderTransition(OrderStatusShipped, OrderStatusCancelled))
	assert.False(t, CanOrderTransition(OrderStatusDelivered, OrderStatusPending))
	assert.False(t, CanOrderTransition(OrderStatusPending, OrderStatusShipped))
}

func TestUnitPriceFor(t *testing.T) {
	prices := []*Price{
		{Currency: "USD", Amount: decimal.RequireFromString("10.00"), MinQuantity: 1},
		{Currency: "USD", Amount: decimal.RequireFromString("9.00"), MinQuantity: 10},
		{Currency: "USD", Amount: decimal.RequireFromString("7.50"), MinQuantity: 100},
		{Currency: "EUR", Amount: decimal.RequireFromString("8.00"), MinQuantity: 1},
	}

	p, ok := UnitPriceFor(prices, "USD", 1)
	assert.True(t, ok)
	assert.Equal(t, "10", p.Amount.String())

	p, ok = UnitPriceFor(prices, "USD", 99)
	assert.True(t, ok)
	assert.Equal(t, "9", p.Amount.String())

	p, ok = UnitPriceFor(prices, "USD", 100)
	assert.True(t, ok)
	assert.Equal(t, "7.5", p.Amount.String())

	_, ok = UnitPriceFor(prices, "GBP", 5)
	assert.False(t, ok)

	_, ok = UnitPriceFor(prices[1:2], "USD", 3)
	assert.False(t, ok)
}

func TestTenantIsServing(t *testing.T) {
	tenant := &Tenant{Status: TenantStatusActive}
	assert.True(t, tenant.IsServing())

	tenant.Status = TenantStatusInactive
	assert.False(t, tenant.IsServing())

	tenant.Status = TenantStatusActive
	tenant.DeletedAt = new(time.Time)
	assert.False(t, tenant.IsServing())
}

func TestAddressIsZero(t *testing.T) {
	var a *Address
	assert.True(t, a.IsZero())
	assert.True(t, (&Address{}).IsZero())
	assert.False(t, (&Address{City: "Lyon"}).IsZero())
}
