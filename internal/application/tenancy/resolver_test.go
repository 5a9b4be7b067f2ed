package tenancy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/cache"
)

// mockMerchantLookup implements the custom domain lookup; other repository
// methods are unused by the resolver.
type mockMerchantLookup struct {
	identity.MerchantRepository
	mock.Mock
}

func (m *mockMerchantLookup) FindActiveByCustomDomain(ctx context.Context, domain string) (*identity.Merchant, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Merchant), args.Error(1)
}

func merchantWithSlug(slug string) *identity.Merchant {
	return &identity.Merchant{Slug: slug, Active: true}
}

func testConfig() Config {
	return Config{
		MainDomains:         []string{"slotbook.app"},
		PreviewDomainSuffix: ".vercel.app",
		LookupTimeout:       50 * time.Millisecond,
	}
}

func newTestResolver(repo *mockMerchantLookup, c identity.CustomDomainCache) *Resolver {
	return NewResolver(repo, c, testConfig(), zap.NewNop())
}

func TestIsReservedPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/bookings", true},
		{"/api", true},
		{"/_next/static/chunk.js", true},
		{"/auth/callback", true},
		{"/login", true},
		{"/signup/merchant", true},
		{"/legal/terms", true},
		{"/privacy", true},
		{"/terms", true},
		{"/health", true},
		{"/healthz", true},
		{"/favicon.ico", true},
		{"/images/logo.png", true},
		{"/", false},
		{"/services", false},
		{"/apiary", false},
		{"/login-help", false},
		{"/book/today", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReservedPath(tt.path))
		})
	}
}

func TestResolve_ReservedPathNeverLooksUp(t *testing.T) {
	repo := new(mockMerchantLookup)
	r := newTestResolver(repo, nil)

	d := r.Resolve(context.Background(), "book.acme.com", "/api/v1/me")

	assert.False(t, d.Rewrite)
	assert.Equal(t, "/api/v1/me", d.Path)
	assert.Equal(t, ReasonReservedPath, d.Reason)
	repo.AssertNotCalled(t, "FindActiveByCustomDomain", mock.Anything, mock.Anything)
}

func TestResolve_MainDomain(t *testing.T) {
	repo := new(mockMerchantLookup)
	r := newTestResolver(repo, nil)
	ctx := context.Background()

	tests := []struct {
		host, path, reason string
	}{
		{"slotbook.app", "/", ReasonMainDomainExempt},
		{"www.slotbook.app", "/", ReasonMainDomainExempt},
		{"SlotBook.app:443", "/blog/launch", ReasonMainDomainExempt},
		{"slotbook.app", "/admin", ReasonMainDomainExempt},
		{"slotbook.app", "/acme", ReasonMainDomain},
	}
	for _, tt := range tests {
		t.Run(tt.host+tt.path, func(t *testing.T) {
			d := r.Resolve(ctx, tt.host, tt.path)
			assert.False(t, d.Rewrite)
			assert.Equal(t, tt.path, d.Path)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
	repo.AssertNotCalled(t, "FindActiveByCustomDomain", mock.Anything, mock.Anything)
}

func TestResolve_IgnoredHosts(t *testing.T) {
	repo := new(mockMerchantLookup)
	r := newTestResolver(repo, nil)

	for _, host := range []string{"localhost:3000", "127.0.0.1", "[::1]:8080", "feature-x.vercel.app", "intranet", ""} {
		t.Run(host, func(t *testing.T) {
			d := r.Resolve(context.Background(), host, "/services")
			assert.False(t, d.Rewrite)
			assert.Equal(t, ReasonIgnoredHost, d.Reason)
		})
	}
	repo.AssertNotCalled(t, "FindActiveByCustomDomain", mock.Anything, mock.Anything)
}

func TestResolve_CustomDomainExactMatch(t *testing.T) {
	repo := new(mockMerchantLookup)
	repo.On("FindActiveByCustomDomain", mock.MatchedBy(shared.HasElevatedAccess), "book.acme.com").
		Return(merchantWithSlug("acme"), nil)
	r := newTestResolver(repo, nil)

	d := r.Resolve(context.Background(), "Book.Acme.com:443", "/services")

	assert.True(t, d.Rewrite)
	assert.Equal(t, "/acme/services", d.Path)
	assert.Equal(t, "acme", d.Slug)
	assert.Equal(t, ReasonCustomDomain, d.Reason)

	root := r.Resolve(context.Background(), "book.acme.com", "/")
	assert.Equal(t, "/acme", root.Path)
}

func TestResolve_WWWFallback(t *testing.T) {
	repo := new(mockMerchantLookup)
	repo.On("FindActiveByCustomDomain", mock.Anything, "www.acme.com").Return(nil, shared.ErrNotFound).Once()
	repo.On("FindActiveByCustomDomain", mock.Anything, "acme.com").Return(merchantWithSlug("acme"), nil).Once()
	r := newTestResolver(repo, nil)

	d := r.Resolve(context.Background(), "www.acme.com", "/book")

	assert.True(t, d.Rewrite)
	assert.Equal(t, "/acme/book", d.Path)
	assert.Equal(t, ReasonCustomDomainWWW, d.Reason)
	repo.AssertExpectations(t)
}

func TestResolve_UnknownDomainPassesThrough(t *testing.T) {
	repo := new(mockMerchantLookup)
	repo.On("FindActiveByCustomDomain", mock.Anything, "www.unknown.io").Return(nil, shared.ErrNotFound)
	repo.On("FindActiveByCustomDomain", mock.Anything, "unknown.io").Return(nil, shared.ErrNotFound)
	r := newTestResolver(repo, nil)

	d := r.Resolve(context.Background(), "www.unknown.io", "/x")

	assert.False(t, d.Rewrite)
	assert.Equal(t, "/x", d.Path)
	assert.Equal(t, ReasonUnknownDomain, d.Reason)
	repo.AssertNumberOfCalls(t, "FindActiveByCustomDomain", 2)
}

func TestResolve_LookupFailureFailsOpen(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	repo := new(mockMerchantLookup)
	repo.On("FindActiveByCustomDomain", mock.Anything, "book.acme.com").Return(nil, shared.Upstream(assert.AnError))
	r := NewResolver(repo, nil, testConfig(), zap.New(core))

	d := r.Resolve(context.Background(), "book.acme.com", "/services")

	assert.False(t, d.Rewrite)
	assert.Equal(t, "/services", d.Path)
	assert.Equal(t, ReasonLookupError, d.Reason)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "book.acme.com", logs.All()[0].ContextMap()["domain"])
}

func TestResolve_LookupIsBoundedByTimeout(t *testing.T) {
	repo := new(mockMerchantLookup)
	repo.On("FindActiveByCustomDomain", mock.Anything, "slow.example.com").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)
	r := newTestResolver(repo, nil)

	start := time.Now()
	d := r.Resolve(context.Background(), "slow.example.com", "/")

	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, d.Rewrite)
	assert.Equal(t, ReasonLookupError, d.Reason)
}

func TestResolve_CachesPositiveAndNegativeLookups(t *testing.T) {
	domainCache := cache.NewInMemoryDomainCache()
	defer domainCache.Close()

	repo := new(mockMerchantLookup)
	repo.On("FindActiveByCustomDomain", mock.Anything, "book.acme.com").Return(merchantWithSlug("acme"), nil).Once()
	repo.On("FindActiveByCustomDomain", mock.Anything, "nobody.io").Return(nil, shared.ErrNotFound).Once()
	r := newTestResolver(repo, domainCache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := r.Resolve(ctx, "book.acme.com", "/")
		assert.Equal(t, "/acme", d.Path)

		miss := r.Resolve(ctx, "nobody.io", "/")
		assert.False(t, miss.Rewrite)
	}
	repo.AssertExpectations(t)

	require.NoError(t, domainCache.Invalidate(ctx, "book.acme.com"))
	repo.On("FindActiveByCustomDomain", mock.Anything, "book.acme.com").Return(merchantWithSlug("acme-renamed"), nil).Once()

	d := r.Resolve(ctx, "book.acme.com", "/")
	assert.Equal(t, "/acme-renamed", d.Path)
}

func TestResolve_LookupErrorsAreNotCached(t *testing.T) {
	domainCache := cache.NewInMemoryDomainCache()
	defer domainCache.Close()

	repo := new(mockMerchantLookup)
	repo.On("FindActiveByCustomDomain", mock.Anything, "book.acme.com").Return(nil, shared.Upstream(assert.AnError)).Once()
	repo.On("FindActiveByCustomDomain", mock.Anything, "book.acme.com").Return(merchantWithSlug("acme"), nil).Once()
	r := newTestResolver(repo, domainCache)

	first := r.Resolve(context.Background(), "book.acme.com", "/")
	second := r.Resolve(context.Background(), "book.acme.com", "/")

	assert.False(t, first.Rewrite)
	assert.True(t, second.Rewrite)
}

func TestResolve_MainDomainConfiguredAsCustomDomainIsIgnored(t *testing.T) {
	repo := new(mockMerchantLookup)
	repo.On("FindActiveByCustomDomain", mock.Anything, mock.Anything).Return(merchantWithSlug("squatter"), nil)
	r := newTestResolver(repo, nil)

	d := r.Resolve(context.Background(), "www.slotbook.app", "/pricing")

	assert.False(t, d.Rewrite)
	repo.AssertNotCalled(t, "FindActiveByCustomDomain", mock.Anything, mock.Anything)
}
