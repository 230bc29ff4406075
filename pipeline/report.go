package pipeline

import (
	"sync/atomic"
	"time"
)

// State names one point in a run's lifecycle.
type State string

const (
	StateFetching    State = "FETCHING"
	StateTranslating State = "TRANSLATING"
	StateEmbedding   State = "EMBEDDING"
	StateClustering  State = "CLUSTERING"
	StatePublishing  State = "PUBLISHING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// RunReport accounts for one run. Counters are safe for concurrent
// increments from stage workers; the remaining fields are written only
// by the orchestrator goroutine.
type RunReport struct {
	RunID    string
	State    State
	Started  time.Time
	Finished time.Time

	fetched        atomic.Int64
	stored         atomic.Int64
	translated     atomic.Int64
	embedded       atomic.Int64
	deferred       atomic.Int64
	skippedSources atomic.Int64

	// Groups and Sections describe the assembled digest.
	Groups   int
	Sections int

	// ArtifactPath is where the rendered digest was written, kept even
	// when publishing fails.
	ArtifactPath string

	// DeliveryID is the publisher's receipt, empty if nothing was sent.
	DeliveryID string

	// Err is the fatal error of a FAILED run.
	Err error
}

// Fetched is the number of raw items delivered by connectors.
func (r *RunReport) Fetched() int { return int(r.fetched.Load()) }

// Stored is the number of newly inserted items.
func (r *RunReport) Stored() int { return int(r.stored.Load()) }

// Translated is the number of items advanced past translation this run.
func (r *RunReport) Translated() int { return int(r.translated.Load()) }

// Embedded is the number of items advanced past embedding this run.
func (r *RunReport) Embedded() int { return int(r.embedded.Load()) }

// Deferred is the number of items left at their prior stage after
// retries were exhausted; they stay eligible for the next run.
func (r *RunReport) Deferred() int { return int(r.deferred.Load()) }

// SkippedSources is the number of sources that could not be fetched.
func (r *RunReport) SkippedSources() int { return int(r.skippedSources.Load()) }
