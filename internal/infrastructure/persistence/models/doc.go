// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: base models and the list of merchant-scoped tables
//   - identity.go: merchants, customer accounts, role tags, favorites
//   - billing.go: tier catalog, current subscriptions, the usage cache
//   - catalog.go: services, products, gallery images
//   - booking.go: bookings and their line items
package models
