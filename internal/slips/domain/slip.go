package slips

import "time"

// PaymentSlip is an uploaded proof-of-payment pointer. The engine only
// stores the blob reference; bytes live in the blob store.
type PaymentSlip struct {
	ID         string
	PaymentID  string
	StayID     string
	UserID     string
	SlipURL    string
	UploadedAt time.Time
}
