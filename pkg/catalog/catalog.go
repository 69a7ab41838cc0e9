// Package catalog stores per-upload metadata and enforces sliding-window
// upload quotas on top of a bbolt database.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// DB centralizes the catalog's interaction with its Bolt database.
type DB struct {
	DB *bbolt.DB

	err  error
	once sync.Once
}

func (d *DB) init() error {
	d.once.Do(d._init)
	return d.err
}

var (
	bEntries = []byte("entries")
	bStats   = []byte("stats")

	buckets = [...][]byte{
		bEntries,
		bStats,
	}
)

func (d *DB) _init() {
	err := d.DB.Update(func(tx *bbolt.Tx) error {
		for _, buck := range buckets {
			if _, err := tx.CreateBucketIfNotExists(buck); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		d.err = fmt.Errorf("catalog: initialization error: %w", err)
	}
}

// Entry
// -----------------------------------------------------------------------------

// Entry records when a diff object was created and the content hash it was
// stored under, so a repeat upload of the same content can be deduplicated.
type Entry struct {
	CreatedAt time.Time `json:"created_at"`
	Sum       string    `json:"sum"`
}

func (e Entry) IsZero() bool {
	return e.Sum == ""
}

// VerifySum reports whether name's stored Entry has full content hash sum.
// diffkit's object ids are truncated to 40 bits of SHA-256 for readability
// (see store.IDForSum), so two unrelated uploads can in rare cases collide
// on the same id; VerifySum lets the upload handler detect that and reject
// the write instead of silently serving someone else's diff under it.
func (d *DB) VerifySum(name, sum string) (bool, error) {
	e, err := d.GetEntry(name)
	if err != nil {
		return false, err
	}
	if e.IsZero() {
		return false, nil
	}
	return e.Sum == sum, nil
}

func (d *DB) HasEntry(name string) (bool, error) {
	if err := d.init(); err != nil {
		return false, err
	}

	var has bool
	err := d.DB.View(func(tx *bbolt.Tx) error {
		has = tx.Bucket(bEntries).Get([]byte(name)) != nil
		return nil
	})
	return has, err
}

func (d *DB) PutEntry(name string, e Entry) error {
	if err := d.init(); err != nil {
		return err
	}

	encoded, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return d.DB.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(bEntries).Put([]byte(name), encoded)
	})
}

func (d *DB) GetEntry(name string) (Entry, error) {
	if err := d.init(); err != nil {
		return Entry{}, err
	}

	var buf []byte
	err := d.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bEntries).Get([]byte(name))
		buf = append(buf, data...)
		return nil
	})
	if err != nil || len(buf) == 0 {
		return Entry{}, err
	}

	var e Entry
	err = json.Unmarshal(buf, &e)
	return e, err
}

// UsageStat / UploadLimits
// -----------------------------------------------------------------------------

// UsageStat is a sliding-window (one bucket per Period, e.g. an ISO week)
// accumulator of upload volume for one caller.
type UsageStat struct {
	Period   string `json:"p"`
	NumBytes uint64 `json:"nb"`
	NumCalls uint64 `json:"nc"`
}

// UploadLimits caps a caller's UsageStat within the current period.
type UploadLimits struct {
	MaxBytes uint64
	MaxCalls uint64
}

// ErrLimitsExceeded is returned by AddAmountsAndCompare when applying
// deltaStat would push the caller's usage for its period past limits.
var ErrLimitsExceeded = errors.New("catalog: limits exceeded")

// AddAmountsAndCompare increases the usage stats for name by deltaStat, and
// ensures the updated stats stay within limits. If name's stored period
// differs from deltaStat.Period, the stat resets to deltaStat instead of
// accumulating (i.e. the sliding window rolls over). If the limits are
// exceeded, the update is still rejected and ErrLimitsExceeded is returned —
// the caller's stored usage is left at its pre-call value.
func (d *DB) AddAmountsAndCompare(name string, deltaStat UsageStat, limits UploadLimits) error {
	if err := d.init(); err != nil {
		return err
	}
	return d.DB.Batch(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(bStats)
		val := bk.Get([]byte(name))
		var stat UsageStat
		if len(val) != 0 {
			if err := json.Unmarshal(val, &stat); err != nil {
				return err
			}
		}

		if stat.Period == deltaStat.Period {
			stat.NumCalls += deltaStat.NumCalls
			stat.NumBytes += deltaStat.NumBytes
		} else {
			stat = deltaStat
		}

		if stat.NumBytes > limits.MaxBytes || stat.NumCalls > limits.MaxCalls {
			return ErrLimitsExceeded
		}

		res, err := json.Marshal(stat)
		if err != nil {
			return err
		}
		return bk.Put([]byte(name), res)
	})
}
