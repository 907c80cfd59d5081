// Package remote defines the café backend that owns the authoritative
// orders, reservations, menu, customers and tables.
//
// Two implementations exist:
//   - rest.Client talks to a hosted PostgREST endpoint with its auth and
//     storage services
//   - sqlrepo.Repository talks to the same schema directly over
//     database/sql (Postgres through pgx, or MySQL)
//
// Both build their reads from the shared queries in this package, so a
// listing filters and orders identically whichever backend serves it.
package remote
