package dto

import "strings"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

type RegisterRequest struct {
	Name                  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Email                 string `json:"email" validate:"required,email"`
	Password              string `json:"password" validate:"required,min=6,maxbytes=72"`
	Age                   *int   `json:"age,omitempty" validate:"omitempty,min=0,max=120"`
	Phone                 string `json:"phone" validate:"required,number,min=10,max=11"`
	Role                  string `json:"role" validate:"required,role"`
	Address               string `json:"address" validate:"required,min=10,max=200"`
	AvailableForReceiving *bool  `json:"availableForReceiving,omitempty"`
	CreditBalance         *int64 `json:"creditBalance,omitempty" validate:"omitempty,min=0"`
}

// Normalize trims free-text fields and lower-cases the email.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.Address = strings.TrimSpace(r.Address)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
