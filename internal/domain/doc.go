// Package domain provides the café record types shared by every other
// cafesync package.
//
// This package contains type definitions, validation and identity helpers
// only. All other internal packages import domain; domain imports nothing
// internal.
//
// Key design constraints:
//   - Money is int64 rupiah, never float
//   - Remote records use snake_case JSON (the backend's column names)
//   - Mailbox payloads use camelCase JSON (written by the customer-facing flow)
//   - Remote identifiers are int64 and monotonic per table
package domain
