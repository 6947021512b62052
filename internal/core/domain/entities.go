package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one international payment submission. RecipientAccount and
// SwiftCode hold envelopes.
type Payment struct {
	ID               uint
	OwnerID          uint
	Amount           decimal.Decimal
	Currency         string
	RecipientAccount string
	SwiftCode        string
	Status           Status
	Version          uint
	CreatedAt        time.Time
}

// AdvanceStatus applies transition to the payment. On error the payment is
// left unchanged.
func (p *Payment) AdvanceStatus(t Transition) error {
	next, err := Advance(p.Status, t)
	if err != nil {
		return err
	}
	p.Status = next
	return nil
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SwiftInstruction is the plaintext hand-off of a submitted payment to the
// SWIFT network collaborator.
type SwiftInstruction struct {
	PaymentID        uint      `json:"paymentId"`
	Amount           string    `json:"amount"`
	Currency         string    `json:"currency"`
	RecipientAccount string    `json:"recipientAccount"`
	SwiftCode        string    `json:"swiftCode"`
	SubmittedAt      time.Time `json:"submittedAt"`
}
