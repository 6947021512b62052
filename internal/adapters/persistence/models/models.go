package models

import (
	"time"

	"payportal/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Principals & sessions
// ============================================================

// User represents users table. IDNumber and AccountNumber hold field
// envelopes; the *Index columns hold blind indexes and stay NULL for rows
// written before indexing existed.
type User struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	Username           string      `gorm:"uniqueIndex;size:50;not null" json:"username"`
	FullName           string      `gorm:"size:100;not null" json:"full_name"`
	Password           string      `gorm:"size:255;not null" json:"-"`
	Role               domain.Role `gorm:"size:20;not null;index" json:"role"`
	IDNumber           string      `gorm:"type:text;not null" json:"-"`
	IDNumberIndex      *string     `gorm:"uniqueIndex;size:64" json:"-"`
	AccountNumber      string      `gorm:"type:text;not null" json:"-"`
	AccountNumberIndex *string     `gorm:"uniqueIndex;size:64" json:"-"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	FullName  string      `json:"full_name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Payments
// ============================================================

// Payment represents payments table. RecipientAccount and SwiftCode hold
// field envelopes. Version is bumped on every status write.
type Payment struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency         string          `gorm:"size:3;not null" json:"currency"`
	RecipientAccount string          `gorm:"type:text;not null" json:"-"`
	SwiftCode        string          `gorm:"type:text;not null" json:"-"`
	Status           domain.Status   `gorm:"size:32;not null;index;default:'Pending'" json:"status"`
	Version          uint            `gorm:"not null;default:1" json:"-"`
	DispatchedAt     *time.Time      `gorm:"index" json:"dispatched_at,omitempty"`
	DispatchAttempts uint            `gorm:"not null;default:0" json:"-"`
	NextDispatchAt   *time.Time      `gorm:"index" json:"-"`
	DispatchFailedAt *time.Time      `json:"dispatch_failed_at,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// ToDomain converts the row to a domain payment
func (p *Payment) ToDomain() *domain.Payment {
	return &domain.Payment{
		ID:               p.ID,
		OwnerID:          p.UserID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		RecipientAccount: p.RecipientAccount,
		SwiftCode:        p.SwiftCode,
		Status:           p.Status,
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
	}
}

// PaymentSummary is the customer-facing view of a payment
type PaymentSummary struct {
	ID       uint          `json:"id"`
	Date     time.Time     `json:"date"`
	Amount   string        `json:"amount"`
	Currency string        `json:"currency"`
	Status   domain.Status `json:"status"`
}

func (p *Payment) ToSummary() *PaymentSummary {
	return &PaymentSummary{
		ID:       p.ID,
		Date:     p.CreatedAt,
		Amount:   p.Amount.StringFixed(2),
		Currency: p.Currency,
		Status:   p.Status,
	}
}

// PaymentEvent represents payment_events table (history)
type PaymentEvent struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	PaymentID   uint          `gorm:"not null;index" json:"payment_id"`
	EventType   string        `gorm:"size:20;not null" json:"event_type"`
	FromStatus  domain.Status `gorm:"size:32" json:"from_status,omitempty"`
	ToStatus    domain.Status `gorm:"size:32" json:"to_status,omitempty"`
	PerformedBy *uint         `json:"performed_by,omitempty"`
	IPAddress   string        `gorm:"size:50" json:"ip_address,omitempty"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}

// Payment event types
const (
	EventCreate   = "CREATE"
	EventVerify   = "VERIFY"
	EventSubmit   = "SUBMIT"
	EventDispatch = "DISPATCH"
	// EventDispatchFailed parks a payment that can never be handed off
	EventDispatchFailed = "DISPATCH_FAILED"
)

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Payment{},
		&PaymentEvent{},
	)
}
