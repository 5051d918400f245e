package models

type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusInactive  CustomerStatus = "inactive"
	CustomerStatusSuspended CustomerStatus = "suspended"
)

func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusActive, CustomerStatusInactive, CustomerStatusSuspended:
		return true
	}
	return false
}

type InvoiceStatus string

// InvoiceStatusOverdue is descriptive only; nothing transitions invoices to
// it automatically. The overdue engine keys off status=unpaid + due date.
const (
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

type PackageType string

const (
	PackageTypeHome     PackageType = "home"
	PackageTypeBusiness PackageType = "business"
)

func (t PackageType) IsValid() bool {
	return t == PackageTypeHome || t == PackageTypeBusiness
}

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodEwallet  PaymentMethod = "e-wallet"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodEwallet:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type WhatsappProvider string

const (
	WhatsappProviderWablas WhatsappProvider = "wablas"
	WhatsappProviderKirimi WhatsappProvider = "kirimi"
)

func (p WhatsappProvider) IsValid() bool {
	return p == WhatsappProviderWablas || p == WhatsappProviderKirimi
}

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleOperator UserRole = "operator"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleOperator
}
