// Package storage hands deduplicated events to downstream persistence.
//
// Every backend follows the same import contract: an event whose ID is
// already stored is skipped, never overwritten. Re-running an import over
// the same export therefore stores nothing new.
//
// Backends:
//   - FileStore keeps a JSON snapshot keyed by event ID (snapshot.json).
//     The default location is ~/.discovr-events/.
//   - MongoStore upserts into a collection with $setOnInsert.
//   - RedisStore claims event:<id> keys with SETNX and announces new events
//     on a capped stream for downstream consumers.
package storage
