// Package journal persists terminal workflow outcomes in a WAL so the
// activity feed survives restarts.
package journal

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/gridmarket/internal/domain"
)

const (
	DefaultDir   = "./wal/activity"
	segmentLimit = 1000
	maxSegments  = 10

	entryKeyPrefix = "activity_"
)

// Entry is one recorded workflow outcome.
type Entry struct {
	Time    time.Time      `json:"ts"`
	Kind    string         `json:"kind"` // approve, create_sale, purchase
	Account domain.Account `json:"account"`
	Asset   string         `json:"asset,omitempty"`
	SaleID  *uint64        `json:"sale_id,omitempty"`
	Amount  string         `json:"amount,omitempty"`
	Price   string         `json:"price,omitempty"`
	TxHash  string         `json:"tx_hash,omitempty"`
	Outcome string         `json:"outcome"` // confirmed or failed
	Message string         `json:"message,omitempty"`
}

// Record bundles an entry with its WAL index for incremental reads.
type Record struct {
	Index uint64
	Entry Entry
}

// Journal is a WAL-backed activity log.
type Journal struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// New opens the journal under the provided directory.
func New(dir string) (*Journal, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "activity_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init activity WAL")
	}

	return &Journal{wal: wal}, nil
}

// Record appends the entry.
func (j *Journal) Record(entry Entry) error {
	if j == nil || j.wal == nil {
		return errors.New("journal is not initialized")
	}
	if entry.Kind == "" {
		return errors.New("journal entry kind is required")
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal journal entry")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	nextIndex := j.wal.CurrentIndex() + 1
	return j.wal.Write(nextIndex, entryKeyPrefix+entry.Kind, payload)
}

// EntriesAfter returns every entry written after the given WAL index.
func (j *Journal) EntriesAfter(index uint64) ([]Record, error) {
	if j == nil || j.wal == nil {
		return nil, errors.New("journal is not initialized")
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	current := j.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]Record, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		_, payload, err := j.wal.Get(idx)
		if err != nil || payload == nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, errors.Wrap(err, "decode journal entry")
		}
		records = append(records, Record{Index: idx, Entry: entry})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index written.
func (j *Journal) CurrentIndex() uint64 {
	if j == nil || j.wal == nil {
		return 0
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	if j == nil || j.wal == nil {
		return nil
	}
	return j.wal.Close()
}
