package models

import (
	"context"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalCustomers     int64           `json:"total_customers"`
	ActiveCustomers    int64           `json:"active_customers"`
	SuspendedCustomers int64           `json:"suspended_customers"`
	UnpaidInvoices     int64           `json:"unpaid_invoices"`
	UnpaidAmount       decimal.Decimal `json:"unpaid_amount"`
	OverdueInvoices    int64           `json:"overdue_invoices"`
	MonthRevenue       decimal.Decimal `json:"month_revenue"`
	MonthPayments      int64           `json:"month_payments"`
}

// GetDashboardStats aggregates the landing-page counters in one call.
func GetDashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	db := config.GetDB()
	stats := &DashboardStats{
		UnpaidAmount: decimal.Zero,
		MonthRevenue: decimal.Zero,
	}

	if err := db.WithContext(ctx).Model(&Customer{}).
		Count(&stats.TotalCustomers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Customer{}).
		Where("status = ?", CustomerStatusActive).
		Count(&stats.ActiveCustomers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Customer{}).
		Where("status = ?", CustomerStatusSuspended).
		Count(&stats.SuspendedCustomers).Error; err != nil {
		return nil, err
	}

	var unpaidAmount decimal.NullDecimal
	if err := db.WithContext(ctx).Model(&Invoice{}).
		Where("status = ?", InvoiceStatusUnpaid).
		Count(&stats.UnpaidInvoices).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Invoice{}).
		Select("SUM(amount)").
		Where("status = ?", InvoiceStatusUnpaid).
		Scan(&unpaidAmount).Error; err != nil {
		return nil, err
	}
	if unpaidAmount.Valid {
		stats.UnpaidAmount = unpaidAmount.Decimal
	}

	if err := db.WithContext(ctx).Model(&Invoice{}).
		Where("status = ? AND due_date < ?", InvoiceStatusUnpaid, now).
		Count(&stats.OverdueInvoices).Error; err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	var monthRevenue decimal.NullDecimal
	if err := db.WithContext(ctx).Model(&Payment{}).
		Where("payment_date >= ? AND payment_date < ? AND status = ?", monthStart, monthEnd, PaymentStatusSuccess).
		Count(&stats.MonthPayments).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Payment{}).
		Select("SUM(amount)").
		Where("payment_date >= ? AND payment_date < ? AND status = ?", monthStart, monthEnd, PaymentStatusSuccess).
		Scan(&monthRevenue).Error; err != nil {
		return nil, err
	}
	if monthRevenue.Valid {
		stats.MonthRevenue = monthRevenue.Decimal
	}

	return stats, nil
}
