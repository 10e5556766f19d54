package model

import "time"

// TransactionType tags the kind of credit-granting event
type TransactionType string

const (
	TransactionCreditPurchase    TransactionType = "credit_purchase"
	TransactionQuickCredit       TransactionType = "quick_credit"
	TransactionBalanceAdjustment TransactionType = "balance_adjustment"
)

// Payment method labels. They are free text with no integration behind them.
const (
	PaymentCash            = "Cash"
	PaymentCreditCard      = "Credit Card"
	PaymentDebitCard       = "Debit Card"
	PaymentVenmo           = "Venmo"
	PaymentPayPal          = "PayPal"
	PaymentZelle           = "Zelle"
	PaymentGiftCard        = "Gift Card"
	PaymentAdminAdjustment = "Admin Adjustment"
	PaymentAdminQuickAdd   = "Admin Quick Add"
)

// PaymentMethods returns the methods a cashier may select for a credit purchase
func PaymentMethods() []string {
	return []string{
		PaymentCash,
		PaymentCreditCard,
		PaymentDebitCard,
		PaymentVenmo,
		PaymentPayPal,
		PaymentZelle,
		PaymentGiftCard,
	}
}

// IsValidPaymentMethod returns true if method is a selectable payment method
func IsValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// Transaction is an append-only record of a credit-granting or
// balance-adjustment event
type Transaction struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Amount        int64           `json:"amount"` // signed
	PaymentMethod string          `json:"payment_method"`
	Type          TransactionType `json:"transaction_type"`
	Timestamp     time.Time       `json:"timestamp"`
	Admin         string          `json:"admin"` // acting operator
}
