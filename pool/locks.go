package pool

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"

	"cosmossdk.io/log"
)

const (
	// DefaultMaxSenders bounds the number of tracked sender locks.
	DefaultMaxSenders = 1000
	// DefaultLockTTL evicts idle sender locks.
	DefaultLockTTL = 15 * time.Minute
	// DefaultAcquireTimeout bounds how long a submission waits for its
	// sender's lock.
	DefaultAcquireTimeout = 300 * time.Second
)

// ErrLockTimeout is returned when the sender's lock could not be acquired
// within the registry's acquire timeout.
var ErrLockTimeout = errors.New("timed out waiting for sender lock")

// senderLock serializes submissions for one sender. The semaphore channel
// carries the mutex role so acquisition can race a timeout; sessions holds
// the token of the current holder (at most one).
type senderLock struct {
	sem      chan struct{}
	mu       sync.Mutex
	sessions map[string]struct{}
	evicted  bool
}

func newSenderLock() *senderLock {
	return &senderLock{
		sem:      make(chan struct{}, 1),
		sessions: make(map[string]struct{}),
	}
}

// LockRegistry hands out per-sender locks, evicting idle ones by LRU and
// TTL. Eviction of a held lock force-releases it; waiters detect this and
// retry against the replacement entry rather than trusting the released
// slot.
type LockRegistry struct {
	mtx            sync.Mutex
	locks          *expirable.LRU[common.Address, *senderLock]
	acquireTimeout time.Duration
	logger         log.Logger
}

// NewLockRegistry creates a registry with the given capacity, TTL and
// acquire timeout. Zero values select the defaults.
func NewLockRegistry(maxSenders int, ttl, acquireTimeout time.Duration, logger log.Logger) *LockRegistry {
	if maxSenders <= 0 {
		maxSenders = DefaultMaxSenders
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}

	r := &LockRegistry{
		acquireTimeout: acquireTimeout,
		logger:         logger.With(log.ModuleKey, "sender_locks"),
	}
	r.locks = expirable.NewLRU[common.Address, *senderLock](maxSenders, r.onEvict, ttl)
	return r
}

// onEvict force-releases an evicted lock so no waiter deadlocks on an
// entry the registry no longer tracks.
func (r *LockRegistry) onEvict(sender common.Address, sl *senderLock) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.evicted = true
	held := len(sl.sessions) > 0
	for token := range sl.sessions {
		delete(sl.sessions, token)
	}
	select {
	case <-sl.sem:
	default:
	}
	if held {
		r.logger.Warn("evicted sender lock while held, force releasing", "sender", sender.Hex())
	}
}

func (r *LockRegistry) getOrCreate(sender common.Address) *senderLock {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if sl, ok := r.locks.Get(sender); ok {
		return sl
	}
	sl := newSenderLock()
	r.locks.Add(sender, sl)
	return sl
}

// Acquire blocks until the sender's lock is held, the registry timeout
// fires, or ctx is done. It returns the session token tying the eventual
// release to this acquisition.
func (r *LockRegistry) Acquire(ctx context.Context, sender common.Address) (string, error) {
	deadline := time.NewTimer(r.acquireTimeout)
	defer deadline.Stop()

	for {
		sl := r.getOrCreate(sender)

		select {
		case sl.sem <- struct{}{}:
			sl.mu.Lock()
			if sl.evicted {
				// Lost the entry to eviction between lookup and acquire.
				// The slot we grabbed belongs to an orphan; retry against
				// the registry's current entry.
				sl.mu.Unlock()
				select {
				case <-sl.sem:
				default:
				}
				continue
			}
			token := uuid.NewString()
			sl.sessions[token] = struct{}{}
			sl.mu.Unlock()
			return token, nil

		case <-deadline.C:
			return "", ErrLockTimeout

		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Release frees the sender's lock if token matches the active session.
// Unknown tokens are ignored so double-release cannot free a lock that has
// since been reissued to another session.
func (r *LockRegistry) Release(sender common.Address, token string) {
	r.mtx.Lock()
	sl, ok := r.locks.Peek(sender)
	r.mtx.Unlock()
	if !ok {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if _, active := sl.sessions[token]; !active {
		return
	}
	delete(sl.sessions, token)
	select {
	case <-sl.sem:
	default:
	}
}

// ActiveSessions returns the number of active session tokens for sender.
func (r *LockRegistry) ActiveSessions(sender common.Address) int {
	r.mtx.Lock()
	sl, ok := r.locks.Peek(sender)
	r.mtx.Unlock()
	if !ok {
		return 0
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return len(sl.sessions)
}

// Len returns the number of tracked sender locks.
func (r *LockRegistry) Len() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.locks.Len()
}
