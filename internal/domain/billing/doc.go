// Package billing provides the subscription and quota model of the booking platform.
//
// Key types:
//   - SubscriptionTier: catalog entry (free, pro) carrying per-resource limits
//   - MerchantSubscription: a merchant's current tier assignment and expiry
//   - ResourceKind: the quota-gated resources (services, products, gallery images)
//   - UsageSnapshot: the display-only usage cache, never used for decisions
//   - ExceededError: the typed "limit reached" condition surfaced to callers
//
// A missing subscription is equivalent to the free tier.
package billing
