package auth

import (
	"crypto/sha256"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// TokenTypePendingBooking marks a pending-booking handle
const TokenTypePendingBooking TokenType = "pending_booking"

const handleKeyInfo = "slotbook/pending-booking-handle/v1"

var (
	ErrInvalidHandle = errors.New("invalid booking handle")
	ErrExpiredHandle = errors.New("booking handle has expired")
)

type handleClaims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"typ"`
}

// DeriveHandleKey derives a 32-byte signing key for booking handles from the
// platform master secret, so handles and sessions never share a key.
func DeriveHandleKey(masterSecret string) ([]byte, error) {
	if masterSecret == "" {
		return nil, errors.New("master secret is empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(masterSecret), nil, []byte(handleKeyInfo)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// HandleSigner issues and verifies pending-booking handles: HS256 tokens over
// the booking id and issue time, valid for a fixed TTL.
type HandleSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewHandleSigner creates a signer with key and ttl
func NewHandleSigner(key []byte, ttl time.Duration) *HandleSigner {
	return &HandleSigner{key: key, ttl: ttl, now: time.Now}
}

// WithClock replaces the signer's clock
func (s *HandleSigner) WithClock(now func() time.Time) *HandleSigner {
	s.now = now
	return s
}

// TTL returns how long a handle stays valid
func (s *HandleSigner) TTL() time.Duration {
	return s.ttl
}

// Issue signs a handle for bookingID
func (s *HandleSigner) Issue(bookingID uuid.UUID) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := handleClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   bookingID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: TokenTypePendingBooking,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks signature, type and expiry and returns the booking id
func (s *HandleSigner) Verify(handle string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(handle, &handleClaims{}, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredHandle
		}
		return uuid.Nil, ErrInvalidHandle
	}

	claims, ok := token.Claims.(*handleClaims)
	if !ok || !token.Valid || claims.TokenType != TokenTypePendingBooking {
		return uuid.Nil, ErrInvalidHandle
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidHandle
	}
	return id, nil
}
