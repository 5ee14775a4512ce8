package domain

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name                  string    `gorm:"size:50" json:"name,omitempty"`
	Email                 string    `gorm:"size:320;not null;uniqueIndex" json:"email"`
	PasswordHash          string    `gorm:"not null" json:"-"`
	Role                  Role      `gorm:"size:16;not null" json:"role"`
	Address               string    `gorm:"size:200;not null" json:"address"`
	Phone                 string    `gorm:"size:11;not null" json:"phone"`
	Age                   *int      `json:"age,omitempty"`
	AvailableForReceiving bool      `gorm:"not null" json:"availableForReceiving"`
	Active                bool      `gorm:"not null" json:"active"`
	CreditBalance         int64     `gorm:"not null" json:"creditBalance"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (Account) TableName() string { return "accounts" }

// Sanitized returns a copy without the password hash.
func (a *Account) Sanitized() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.PasswordHash = ""
	return &cp
}

// IsActiveReceiver reports whether the account should appear in receiver searches.
func (a *Account) IsActiveReceiver() bool {
	return a != nil && a.Active && a.AvailableForReceiving && a.Role.CanReceive()
}
