package store

import "strings"

// Fact is a key/value statement a user made about themselves. Keys are
// normalized and unique per user: saving an existing key replaces its value
// in place, a new key appends.
type Fact struct {
	ID        int32
	CreatorID int32
	Key       string
	Value     string
	CreatedTs int64
	UpdatedTs int64
}

type FindFact struct {
	CreatorID *int32
	Key       *string
}

// UpsertFact is applied atomically at the database level so concurrent saves
// of the same new key cannot both append.
type UpsertFact struct {
	CreatorID int32
	Key       string
	Value     string
}

type DeleteFact struct {
	CreatorID int32
	Key       string
}

// NormalizeFactKey canonicalizes a fact key: lowercase, underscores become
// spaces, surrounding whitespace trimmed.
func NormalizeFactKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(key, "_", " ")
}
