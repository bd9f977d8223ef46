// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel shared by uuid-keyed tables
//   - catalog.go: products
//   - inventory.go: stock_movements (append-only ledger, bigint identity key)
//   - quicksales.go: quick_sales_sessions, quick_sales_lines
//   - trade.go: invoices, invoice_lines, invoice_payments, receipt_sequences,
//     sales_returns, sales_return_lines
//   - identity.go: operators
package models
