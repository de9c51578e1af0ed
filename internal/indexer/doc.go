// Package indexer consumes the state-history block stream and batches
// block rows into Postgres. Each run is tagged with a UUID so partial
// backfills can be told apart and resumed.
package indexer
