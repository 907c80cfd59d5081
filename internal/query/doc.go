// Package query describes backend-neutral reads against the café tables
// and compiles them for the two backends cafesync talks to: a PostgREST
// HTTP endpoint and a direct SQL connection.
//
// A Query is a flat table scan with conjunctive filters, an ordering and a
// limit. Joins and aggregates are out of scope; callers fetch child rows
// (order items) with a second query. PostgREST embeds are carried for the
// HTTP backend only. InsertSQL, UpdateSQL and DeleteSQL cover single-row
// writes for the SQL backend.
//
// Compilation rules shared by every backend:
//   - Values are always parameters, never interpolated into SQL
//   - Identifiers must match [a-z_][a-z0-9_]* and are checked by Validate
//   - Every compiled query has a deterministic order, with id as the final
//     tiebreaker
//   - Floating point values are rejected; money is integer rupiah
package query
