// Package models contains the GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts to and from its
// domain type with ToDomain and <Model>FromDomain.
//
// Files:
// - base.go: shared identity, version and organization columns
// - organization.go: organizations and services
// - queue.go: queues and tickets
// - appointment.go, payment.go, identity.go, notification.go
// - outbox.go: outbox rows for event delivery
package models
