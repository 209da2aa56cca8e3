// Package model defines the payload shapes carried by inbound real-time events.
//
// All types mirror the JSON emitted by the support backend.
//
// Conventions:
//   - IDs: int64 (database serial keys)
//   - Timestamps: ISO 8601 strings as sent by the server; they are display-only here
//   - Enum values: lowercase snake_case strings
package model
