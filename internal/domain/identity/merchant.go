package identity

import (
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/backend/internal/domain/shared"
)

// Layout keys understood by the public booking page
const (
	LayoutBaseline = "classic"
	LayoutKey      = "layout"
)

// Merchant is the tenant root. Everything a visitor can book belongs to one merchant.
type Merchant struct {
	shared.BaseAggregateRoot
	OwnerID          uuid.UUID // auth identity that operates the merchant
	Slug             string
	BusinessName     string
	CustomDomain     string // empty when the merchant has no custom domain
	Email            string
	Phone            string
	Active           bool
	DirectoryVisible bool
	Theme            map[string]any
	Settings         map[string]any
}

// NewMerchant creates an active merchant with the given slug.
// Slug negotiation happens in the application layer; the slug here must already be valid.
func NewMerchant(ownerID uuid.UUID, businessName, slug string) (*Merchant, error) {
	if ownerID == uuid.Nil {
		return nil, shared.InvalidInput("owner identity is required")
	}
	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		return nil, shared.InvalidInput("business name is required")
	}
	if len(businessName) > 200 {
		return nil, shared.InvalidInput("business name cannot exceed 200 characters")
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	return &Merchant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Slug:              slug,
		BusinessName:      businessName,
		Active:            true,
		DirectoryVisible:  true,
		Theme:             map[string]any{LayoutKey: LayoutBaseline},
		Settings:          map[string]any{},
	}, nil
}

// SetCustomDomain assigns (or clears, with "") the merchant's custom domain.
// It returns the previous value so callers can invalidate anything keyed on it.
func (m *Merchant) SetCustomDomain(domain string) (string, error) {
	previous := m.CustomDomain
	if strings.TrimSpace(domain) == "" {
		m.CustomDomain = ""
		m.touch()
		return previous, nil
	}

	normalized := NormalizeHost(domain)
	if err := validateCustomDomain(normalized); err != nil {
		return previous, err
	}

	m.CustomDomain = normalized
	m.touch()
	return previous, nil
}

// Activate re-enables a soft-disabled merchant
func (m *Merchant) Activate() {
	if m.Active {
		return
	}
	m.Active = true
	m.touch()
}

// Deactivate soft-disables the merchant. Merchants are never hard-deleted here.
func (m *Merchant) Deactivate() {
	if !m.Active {
		return
	}
	m.Active = false
	m.touch()
}

// SetDirectoryVisible toggles the public directory listing
func (m *Merchant) SetDirectoryVisible(visible bool) {
	m.DirectoryVisible = visible
	m.touch()
}

// StoredLayout returns the layout recorded in the theme, or the baseline
func (m *Merchant) StoredLayout() string {
	if m.Theme == nil {
		return LayoutBaseline
	}
	if layout, ok := m.Theme[LayoutKey].(string); ok && layout != "" {
		return layout
	}
	return LayoutBaseline
}

// SetTheme replaces the theme blob
func (m *Merchant) SetTheme(theme map[string]any) {
	if theme == nil {
		theme = map[string]any{}
	}
	m.Theme = theme
	m.touch()
}

func (m *Merchant) touch() {
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
}

// NormalizeHost lower-cases a hostname and strips scheme, port, path and a trailing dot.
func NormalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	return strings.TrimSuffix(h, ".")
}

func validateCustomDomain(domain string) error {
	if len(domain) > 253 {
		return shared.InvalidInput("custom domain cannot exceed 253 characters")
	}
	if !strings.Contains(domain, ".") {
		return shared.InvalidInput("custom domain must contain at least one dot")
	}
	if net.ParseIP(domain) != nil {
		return shared.InvalidInput("custom domain cannot be an IP address")
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 {
			return shared.InvalidInput("custom domain has an invalid label")
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return shared.InvalidInput("custom domain labels cannot start or end with '-'")
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
				return shared.InvalidInput("custom domain contains invalid characters")
			}
		}
	}
	return nil
}
