// Package database provides the Postgres connection pool the indexer
// writes blocks and action traces into.
package database
