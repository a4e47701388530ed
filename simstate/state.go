// Package simstate owns the simulated service databases for one
// conversation replay. Each domain (Account, Calendar, Alarm, ...) is a
// key-value store keyed by identity: username for personal services,
// location for weather. Stores are loaded fresh from immutable snapshots,
// mutated in place by tool execution, and discarded at conversation end.
//
// Single-threaded by design: a State is exclusively owned by one replay
// pass and is never shared across conversations, so no locking is needed.
package simstate

import (
	"encoding/json"
	"fmt"
)

// AccountDatabase is the distinguished domain holding user records. Its
// records carry a session_token field whose non-null value is the sole
// indicator of "logged in".
const AccountDatabase = "Account"

// Database is one domain's store: identity key → domain-specific nested
// value (account record, id-keyed event map, date-keyed weather map, ...).
type Database map[string]any

// Record returns the identity's value as a nested object. The second
// return is false when the identity is absent or the value is not an
// object; read operations must treat absence as an empty result.
func (d Database) Record(key string) (map[string]any, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// State maps domain names to their databases for one conversation.
type State struct {
	snapshots map[string]json.RawMessage
	databases map[string]Database
}

// New creates a State from per-domain JSON snapshots and performs the
// initial load. The account database snapshot is required.
func New(snapshots map[string]json.RawMessage) (*State, error) {
	if _, ok := snapshots[AccountDatabase]; !ok {
		return nil, fmt.Errorf("account database %q not found in snapshots", AccountDatabase)
	}
	s := &State{snapshots: snapshots}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards all mutations and reloads every database from its
// snapshot. Unmarshaling fresh from the raw snapshot bytes guarantees no
// aliasing between passes.
func (s *State) Reset() error {
	databases := make(map[string]Database, len(s.snapshots))
	for name, raw := range s.snapshots {
		var db Database
		if err := json.Unmarshal(raw, &db); err != nil {
			return fmt.Errorf("failed to load database %q: %w", name, err)
		}
		databases[name] = db
	}
	s.databases = databases
	return nil
}

// Database returns the named domain store. The second return is false
// when no snapshot declared that domain; callers then operate on a
// private empty store.
func (s *State) Database(name string) (Database, bool) {
	db, ok := s.databases[name]
	return db, ok
}

// Accounts returns the account database.
func (s *State) Accounts() Database {
	return s.databases[AccountDatabase]
}

// ForceSessionToken installs a session token on a user record, creating
// the record if the dataset forgot it. Used to apply conversation user
// fixtures; a missing user here is a dataset defect, not a runtime error.
func (s *State) ForceSessionToken(username, token string) {
	s.forceAccountField(username, "session_token", token)
}

// ForceVerificationCode installs a pending password-reset verification
// code on a user record. Fixture semantics match ForceSessionToken.
func (s *State) ForceVerificationCode(username, code string) {
	s.forceAccountField(username, "verification_code", code)
}

func (s *State) forceAccountField(username, field string, value any) {
	accounts := s.Accounts()
	record, ok := accounts.Record(username)
	if !ok {
		record = map[string]any{"username": username}
		accounts[username] = record
	}
	record[field] = value
}
