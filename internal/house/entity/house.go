package entity

import "time"

// Payment statuses.
const (
	PaymentAlDia     = "al_dia"
	PaymentMoroso    = "moroso"
	PaymentEnArreglo = "en_arreglo"
)

// ValidPaymentStatus reports whether s is one of the known payment statuses.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentAlDia, PaymentMoroso, PaymentEnArreglo:
		return true
	}
	return false
}

// House is a row in the `houses` table.
type House struct {
	ID            int64     `db:"id" json:"id"`
	HouseNumber   string    `db:"house_number" json:"house_number"`
	PaymentStatus string    `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
