// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models hold the table mappings and indexes
// 3. ToDomain/FromDomain convert between the two
// 4. Repositories read and write models only
//
// Structure:
// - base.go: shared id/timestamp/version columns
// - inventory.go: items, batches, ledger entries, lab recipes
// - sales.go: pharmacy sales, sale lines and returns
// - purchasing.go: purchase invoices and their lines
package models
