// Package progress provides the ambient run-observability layer for
// long reachability checks: a bbolt-backed checkpoint of a CheckBlocks
// run's step, violation index and completion flag (it stores no Phi^k
// and cannot restart a run part-way), and an op/go-logging sink reporting
// step progress to the same logger every other package in this module
// uses. Adapted from checkpoint.CheckpointIO, generalized from
// "likelihood optimization iteration" to "reachability step".
package progress

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/reach/reach"
)

var log = logging.MustGetLogger("progress")

// MAIN is the bucket all checkpoint keys live under.
var MAIN = []byte("main")

// RunState is the resumable state of a single CheckBlocks invocation.
type RunState struct {
	Step           int
	ViolationIndex int
	Final          bool
}

// CheckpointIO saves and loads RunState to/from a bbolt database,
// rate-limited the way checkpoint.CheckpointIO rate-limits likelihood
// checkpoints: a caller calls Old() before each expensive Save.
type CheckpointIO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewCheckpointIO builds a CheckpointIO over db, keyed by key, saving
// no more often than once every seconds.
func NewCheckpointIO(db *bolt.DB, key []byte, seconds float64) *CheckpointIO {
	return &CheckpointIO{db: db, key: key, seconds: seconds}
}

// Save serializes state and writes it to the database.
func (c *CheckpointIO) Save(state *RunState) error {
	c.SetNow()
	data, err := json.Marshal(state)
	if err != nil {
		log.Error("error serializing checkpoint", err)
		return err
	}
	if err := saveData(c.db, c.key, data); err != nil {
		log.Error("error saving checkpoint", err)
		return err
	}
	return nil
}

// Load reads the last saved RunState, or nil if none exists.
func (c *CheckpointIO) Load() (*RunState, error) {
	b, err := loadData(c.db, c.key)
	if err != nil || b == nil {
		return nil, err
	}
	var state *RunState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}
	if state.Final {
		log.Noticef("found finished check_blocks checkpoint (step=%d, violation_index=%d)", state.Step, state.ViolationIndex)
	} else {
		log.Noticef("found unfinished check_blocks checkpoint (step=%d)", state.Step)
	}
	return state, nil
}

// Old reports whether the last save happened too long ago to skip
// another one.
func (c *CheckpointIO) Old() bool {
	return time.Since(c.last).Seconds() > c.seconds
}

// SetNow marks the last save time as now.
func (c *CheckpointIO) SetNow() { c.last = time.Now() }

func saveData(db *bolt.DB, key, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func loadData(db *bolt.DB, key []byte) ([]byte, error) {
	if db == nil {
		return nil, nil
	}
	var data []byte
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// LoggingSink implements reach.Sink by logging every update at
// Info level, throttled to minInterval the way the specification's
// write-only progress observer requires.
type LoggingSink struct {
	minInterval time.Duration
	label       string
	total       int
	last        time.Time
}

// Start records the total step count and label for subsequent Update
// calls.
func (s *LoggingSink) Start(total int, minInterval time.Duration, label string) {
	s.total = total
	s.minInterval = minInterval
	s.label = label
	s.last = time.Time{}
}

// Update logs progress at most once per minInterval, always logging
// the final step.
func (s *LoggingSink) Update(k int) {
	if k < s.total && !s.last.IsZero() && time.Since(s.last) < s.minInterval {
		return
	}
	s.last = time.Now()
	log.Infof("%s: step %d/%d", s.label, k, s.total)
}

var _ reach.Sink = (*LoggingSink)(nil)
