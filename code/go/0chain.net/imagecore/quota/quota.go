// Package quota tracks per-user upload usage and admits or denies new
// uploads against the free-tier limits. It is the single source of truth
// for admission control.
package quota

import (
	"sync"
	"time"

	"github.com/0chain/errors"
	"go.uber.org/zap"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
	"github.com/0chain/imagestore/code/go/0chain.net/core/logging"
)

// AnonymousUser is the bucket charged when no user id is supplied.
const AnonymousUser = "anonymous"

const dayFormat = "2006-01-02"

var (
	ErrByteQuotaExceeded  = errors.New("quota_exceeded", "byte quota exceeded")
	ErrCountQuotaExceeded = errors.New("quota_exceeded", "daily upload limit reached")
)

// Info is a snapshot of one user's counters.
type Info struct {
	UserID           string `json:"user_id"`
	UsedBytes        int64  `json:"used_bytes"`
	MaxBytes         int64  `json:"max_bytes"`
	UploadsToday     int64  `json:"uploads_today"`
	MaxUploadsPerDay int64  `json:"max_uploads_per_day"`
}

type record struct {
	usedBytes     int64
	uploadsToday  int64
	reservedBytes int64
	reservedCount int64
	day           string
}

// Ledger holds the per-user counters behind a single mutex. Reserve is the
// lock-protected check-and-act entry point; the read-only Check exists for
// the advisory /quota surface.
type Ledger struct {
	mu      sync.RWMutex
	users   map[string]*record
	maxB    int64
	maxPerD int64

	now func() time.Time
}

func NewLedger(maxBytes, maxUploadsPerDay int64) *Ledger {
	return &Ledger{
		users:   make(map[string]*record),
		maxB:    maxBytes,
		maxPerD: maxUploadsPerDay,
		now:     time.Now,
	}
}

func normalize(userID string) string {
	if userID == "" {
		return AnonymousUser
	}
	return userID
}

// get returns the record for userID, creating it lazily and rolling the
// daily counter when the wall-clock day has changed. Callers hold mu.
func (l *Ledger) get(userID string) *record {
	rec := l.users[userID]
	if rec == nil {
		rec = &record{day: l.now().Format(dayFormat)}
		l.users[userID] = rec
	}
	if today := l.now().Format(dayFormat); rec.day != today {
		rec.day = today
		rec.uploadsToday = 0
	}
	return rec
}

func (l *Ledger) admit(rec *record, incomingBytes int64) error {
	// Byte quota first, then the daily count, per the admission contract.
	if rec.usedBytes+rec.reservedBytes+incomingBytes > l.maxB {
		return errors.Throw(common.ErrQuotaExceeded, ErrByteQuotaExceeded.Msg)
	}
	if rec.uploadsToday+rec.reservedCount >= l.maxPerD {
		return errors.Throw(common.ErrQuotaExceeded, ErrCountQuotaExceeded.Msg)
	}
	return nil
}

// Check is the read-only admission probe. It does not reserve anything, so
// two concurrent checks can both pass; callers that go on to upload must
// use Reserve instead.
func (l *Ledger) Check(userID string, incomingBytes int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admit(l.get(normalize(userID)), incomingBytes)
}

// Reserve atomically admits an upload and holds its bytes and upload slot
// until the caller either Commits or Releases the reservation. This closes
// the check-then-act window between admission and commit.
func (l *Ledger) Reserve(userID string, incomingBytes int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.get(normalize(userID))
	if err := l.admit(rec, incomingBytes); err != nil {
		return err
	}
	rec.reservedBytes += incomingBytes
	rec.reservedCount++
	return nil
}

// Commit converts a reservation into durable usage. Called exactly once
// per successfully completed upload, never on a failed or replayed one.
func (l *Ledger) Commit(userID string, bytes int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.get(normalize(userID))
	rec.usedBytes += bytes
	rec.uploadsToday++
	if rec.reservedBytes >= bytes {
		rec.reservedBytes -= bytes
	} else {
		rec.reservedBytes = 0
	}
	if rec.reservedCount > 0 {
		rec.reservedCount--
	}
}

// Release drops a reservation after a failed upload.
func (l *Ledger) Release(userID string, bytes int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.get(normalize(userID))
	if rec.reservedBytes >= bytes {
		rec.reservedBytes -= bytes
	} else {
		logging.Logger.Warn("quota release exceeds reservation",
			zap.String("user_id", normalize(userID)), zap.Int64("bytes", bytes))
		rec.reservedBytes = 0
	}
	if rec.reservedCount > 0 {
		rec.reservedCount--
	}
}

// Get returns the current counters, creating a fresh zeroed-but-capped
// record for unseen users.
func (l *Ledger) Get(userID string) Info {
	l.mu.Lock()
	defer l.mu.Unlock()

	userID = normalize(userID)
	rec := l.get(userID)
	return Info{
		UserID:           userID,
		UsedBytes:        rec.usedBytes,
		MaxBytes:         l.maxB,
		UploadsToday:     rec.uploadsToday,
		MaxUploadsPerDay: l.maxPerD,
	}
}
