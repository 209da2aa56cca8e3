// Package database provides the PostgreSQL connection pool for the notification archive.
//
// The archive is optional. When enabled, every notification the console
// accepts is persisted to a single table keyed by notification ID, so
// duplicate deliveries across restarts collapse to one row.
package database
