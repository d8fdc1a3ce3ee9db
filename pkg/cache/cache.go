// Package cache provides a tiered key/value cache with TTL: a fast,
// capacity-bounded in-memory tier in front of a durable tier, with
// load-through population on slow-tier hits. The cache is never a source
// of truth; every failure on a read or maintenance path degrades to a
// miss and is only logged.
package cache

import (
	"errors"
	"fmt"
	"time"
)

// DefaultLoadThroughTTL bounds how long a value promoted from a slower
// tier lives in the faster tiers. The originating tier keeps its own TTL.
const DefaultLoadThroughTTL = 5 * time.Minute

// ErrValueTooLarge is returned by a durable tier when the serialized
// payload exceeds its per-entry size ceiling. It is an expected rejection,
// not a failure: callers log it and move on.
var ErrValueTooLarge = errors.New("cache value exceeds size ceiling")

// Scope selects which durable namespace an entry is written to.
type Scope string

const (
	// ScopeProcess shares entries across all subjects of the process.
	ScopeProcess Scope = "process"

	// ScopeSubject isolates entries per subject (OwnerID must be set).
	ScopeSubject Scope = "subject"
)

// Options tune a single cache operation.
type Options struct {
	// Scope selects the durable namespace; defaults to ScopeProcess.
	Scope Scope

	// OwnerID identifies the subject for ScopeSubject operations.
	OwnerID string

	// MemoryOnly restricts the operation to the fast tier.
	MemoryOnly bool

	// DurableOnly restricts the operation to the durable tier.
	DurableOnly bool

	// SkipLoadThrough disables populating faster tiers on a slow-tier hit.
	SkipLoadThrough bool
}

func (o Options) scopedKey(key string) string {
	if o.Scope == ScopeSubject && o.OwnerID != "" {
		return "subject:" + o.OwnerID + ":" + key
	}

	return "global:" + key
}

// Error wraps a tier failure with operation context. It never crosses the
// package boundary on read or maintenance paths; it exists for logging.
type Error struct {
	Op   string // Operation being performed (e.g. "Get", "Set", "Cleanup")
	Tier string // Tier that failed
	Key  string // Key if applicable
	Err  error  // Underlying error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s failed on tier %s: %v", e.Op, e.Tier, e.Err)
	}

	return fmt.Sprintf("cache %s failed on tier %s for key %s: %v", e.Op, e.Tier, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return errors.Is(e.Err, target) }
