// Package store provides SQLite-backed durable storage for shadestore
// elements.
//
// Every persisted record is an element: a class id, a serialized payload
// and an optional unique name, addressed by a generational ir.Tag.
//
// # Critical Patterns
//
// Name uniqueness is decided by the commit:
//   - UNIQUE(name) plus INSERT ... ON CONFLICT(name) DO NOTHING
//   - The loser of a race gets a *NameTakenError naming the winner
//
// Atomic module commit:
//   - A module and its definitions are written in one SQL transaction
//   - Either all become visible or none do
//
// Shared resources:
//   - resource_index maps a content key to one element
//   - Insert-if-absent and select run in one transaction
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection: SQLite has a single writer
package store
