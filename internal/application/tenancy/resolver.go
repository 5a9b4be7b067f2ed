// Package tenancy maps an inbound host and path to the merchant whose public
// page should serve the request.
package tenancy

import (
	"context"
	"errors"
	"net"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/telemetry"
)

// Reasons reported on a Decision
const (
	ReasonReservedPath     = "reserved_path"
	ReasonMainDomainExempt = "main_domain_exempt"
	ReasonMainDomain       = "main_domain"
	ReasonIgnoredHost      = "ignored_host"
	ReasonCustomDomain     = "custom_domain"
	ReasonCustomDomainWWW  = "custom_domain_www"
	ReasonUnknownDomain    = "unknown_domain"
	ReasonLookupError      = "lookup_error"
)

const (
	defaultLookupTimeout    = 1500 * time.Millisecond
	defaultCacheTTL         = 5 * time.Minute
	defaultNegativeCacheTTL = time.Minute
)

// reservedPrefixes are never tenant-resolved. Each matches the exact path or
// anything below it.
var reservedPrefixes = []string{
	"/api", "/_next", "/static", "/assets", "/auth", "/login", "/signup",
	"/legal", "/privacy", "/terms",
}

// Decision is the routing outcome for one request
type Decision struct {
	Rewrite bool
	Path    string
	Slug    string
	Reason  string
}

// Config configures a Resolver
type Config struct {
	MainDomains         []string
	PreviewDomainSuffix string
	LookupTimeout       time.Duration
	CacheTTL            time.Duration
	NegativeCacheTTL    time.Duration
}

// Resolver resolves custom domains to merchant slugs. It never fails a
// request: lookup errors degrade to default routing.
type Resolver struct {
	merchants   identity.MerchantRepository
	cache       identity.CustomDomainCache
	mainDomains map[string]struct{}
	cfg         Config
	logger      *zap.Logger
	metrics     *telemetry.BusinessMetrics
}

// NewResolver creates a Resolver. cache may be nil to always hit the repository.
func NewResolver(merchants identity.MerchantRepository, cache identity.CustomDomainCache, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = defaultLookupTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.NegativeCacheTTL <= 0 {
		cfg.NegativeCacheTTL = defaultNegativeCacheTTL
	}
	cfg.PreviewDomainSuffix = strings.ToLower(cfg.PreviewDomainSuffix)

	mains := make(map[string]struct{}, len(cfg.MainDomains)*2)
	for _, d := range cfg.MainDomains {
		d = identity.NormalizeHost(d)
		if d == "" {
			continue
		}
		d = strings.TrimPrefix(d, "www.")
		mains[d] = struct{}{}
		mains["www."+d] = struct{}{}
	}

	return &Resolver{
		merchants:   merchants,
		cache:       cache,
		mainDomains: mains,
		cfg:         cfg,
		logger:      logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (r *Resolver) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	r.metrics = bm
}

// Resolve decides whether the request for host and urlPath must be rewritten
// to a merchant page.
func (r *Resolver) Resolve(ctx context.Context, host, urlPath string) Decision {
	if urlPath == "" {
		urlPath = "/"
	}
	d := r.resolve(ctx, identity.NormalizeHost(host), urlPath)
	if r.metrics != nil {
		outcome := telemetry.ResolutionPassThrough
		switch {
		case d.Rewrite:
			outcome = telemetry.ResolutionRewrite
		case d.Reason == ReasonLookupError:
			outcome = telemetry.ResolutionLookupError
		}
		r.metrics.RecordTenantResolution(ctx, outcome, d.Reason)
	}
	return d
}

func (r *Resolver) resolve(ctx context.Context, host, urlPath string) Decision {
	pass := func(reason string) Decision {
		return Decision{Path: urlPath, Reason: reason}
	}

	if IsReservedPath(urlPath) {
		return pass(ReasonReservedPath)
	}
	if r.IsMainDomain(host) {
		if isMainDomainExempt(urlPath) {
			return pass(ReasonMainDomainExempt)
		}
		return pass(ReasonMainDomain)
	}
	if r.isIgnoredHost(host) {
		return pass(ReasonIgnoredHost)
	}

	slug, err := r.lookup(ctx, host)
	if err != nil {
		return pass(ReasonLookupError)
	}
	reason := ReasonCustomDomain
	if slug == "" {
		stripped, ok := strings.CutPrefix(host, "www.")
		if !ok || r.isIgnoredHost(stripped) {
			return pass(ReasonUnknownDomain)
		}
		if slug, err = r.lookup(ctx, stripped); err != nil {
			return pass(ReasonLookupError)
		}
		if slug == "" {
			return pass(ReasonUnknownDomain)
		}
		reason = ReasonCustomDomainWWW
	}

	return Decision{
		Rewrite: true,
		Path:    rewritePath(slug, urlPath),
		Slug:    slug,
		Reason:  reason,
	}
}

// lookup returns the slug for domain, or "" when no active merchant uses it
func (r *Resolver) lookup(ctx context.Context, domain string) (string, error) {
	start := time.Now()

	if r.cache != nil {
		slug, hit, err := r.cache.Get(ctx, domain)
		if err != nil {
			r.logger.Warn("Custom domain cache read failed", zap.String("domain", domain), zap.Error(err))
		} else if hit {
			r.recordLookup(ctx, start, true)
			return slug, nil
		}
	}

	lookupCtx, cancel := context.WithTimeout(shared.WithElevatedAccess(ctx), r.cfg.LookupTimeout)
	defer cancel()

	merchant, err := r.merchants.FindActiveByCustomDomain(lookupCtx, domain)
	r.recordLookup(ctx, start, false)
	switch {
	case err == nil:
		r.store(ctx, domain, merchant.Slug, r.cfg.CacheTTL)
		return merchant.Slug, nil
	case errors.Is(err, shared.ErrNotFound):
		r.store(ctx, domain, "", r.cfg.NegativeCacheTTL)
		return "", nil
	default:
		r.logger.Warn("Custom domain lookup failed, falling back to default routing",
			zap.String("domain", domain),
			zap.Duration("timeout", r.cfg.LookupTimeout),
			zap.Error(err),
		)
		return "", err
	}
}

func (r *Resolver) store(ctx context.Context, domain, slug string, ttl time.Duration) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, domain, slug, ttl); err != nil {
		r.logger.Warn("Custom domain cache write failed", zap.String("domain", domain), zap.Error(err))
	}
}

func (r *Resolver) recordLookup(ctx context.Context, start time.Time, cached bool) {
	if r.metrics != nil {
		r.metrics.RecordTenantLookup(ctx, time.Since(start).Seconds(), cached)
	}
}

// IsMainDomain reports whether host is one of the platform's own hosts
func (r *Resolver) IsMainDomain(host string) bool {
	_, ok := r.mainDomains[identity.NormalizeHost(host)]
	return ok
}

func (r *Resolver) isIgnoredHost(host string) bool {
	switch {
	case host == "", host == "localhost", strings.HasSuffix(host, ".localhost"):
		return true
	case net.ParseIP(strings.Trim(host, "[]")) != nil:
		return true
	case r.cfg.PreviewDomainSuffix != "" && strings.HasSuffix(host, r.cfg.PreviewDomainSuffix):
		return true
	case !strings.Contains(host, "."):
		return true
	default:
		return false
	}
}

// IsReservedPath reports whether urlPath belongs to platform routes or is a
// static file, neither of which is ever tenant-resolved.
func IsReservedPath(urlPath string) bool {
	if strings.HasPrefix(urlPath, "/health") {
		return true
	}
	for _, prefix := range reservedPrefixes {
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	return strings.Contains(path.Base(urlPath), ".")
}

func isMainDomainExempt(urlPath string) bool {
	if urlPath == "/" {
		return true
	}
	for _, prefix := range []string{"/blog", "/admin"} {
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	return false
}

func rewritePath(slug, urlPath string) string {
	if urlPath == "/" {
		return "/" + slug
	}
	return "/" + slug + urlPath
}
