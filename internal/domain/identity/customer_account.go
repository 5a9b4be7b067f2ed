package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

// CustomerAccount is the customer-side profile of an auth identity.
// Its ID is the identity id, so a booking's customer reference is the identity itself.
type CustomerAccount struct {
	shared.BaseAggregateRoot
	Email    string
	Phone    string
	FullName string
}

// NewCustomerAccount creates a customer account for the given identity
func NewCustomerAccount(identityID uuid.UUID, email, phone, fullName string) (*CustomerAccount, error) {
	if identityID == uuid.Nil {
		return nil, shared.InvalidInput("identity id is required")
	}
	email = NormalizeEmail(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, shared.InvalidInput("email is not valid")
		}
	}
	if len(phone) > 50 {
		return nil, shared.InvalidInput("phone cannot exceed 50 characters")
	}
	if email == "" && NormalizePhone(phone) == "" {
		return nil, shared.InvalidInput("email or phone is required")
	}

	account := &CustomerAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Phone:             strings.TrimSpace(phone),
		FullName:          strings.TrimSpace(fullName),
	}
	account.ID = identityID
	return account, nil
}

// UpdateProfile changes contact details
func (a *CustomerAccount) UpdateProfile(fullName, phone string) {
	a.FullName = strings.TrimSpace(fullName)
	a.Phone = strings.TrimSpace(phone)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number, so "555-0100" and
// "(555) 0100" compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
