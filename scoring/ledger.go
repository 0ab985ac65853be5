package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrJudgeBusy is returned when a judge taps again while their previous
// submission is still in flight. The second action is rejected, not
// queued, so a slow network write cannot double-count.
var ErrJudgeBusy = errors.New("judge has a score submission in flight")

// ErrSubmissionInFlight is returned by Reload while any judge's
// submission is pending. The reload is deferred, never applied over
// unacknowledged state: a storage read taken before the pending commit
// would roll the ledger back and the judge's next tap would overwrite
// the committed increment.
var ErrSubmissionInFlight = errors.New("score submission in flight, reload deferred")

// ErrReloading is returned when a tap arrives while the ledger is being
// rebuilt from storage.
var ErrReloading = errors.New("ledger reload in progress")

// Ledger owns the score entries of one match for the lifetime of a
// scoring session. Entries are keyed by (judge, participant), so judges
// never contend with each other; same-judge actions are serialized by an
// in-flight guard.
type Ledger struct {
	store   Store
	matchID string
	now     func() time.Time

	mu        sync.Mutex
	entries   map[EntryKey]*Entry
	inflight  map[string]bool // judgeID → submission pending
	reloading bool
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock overrides the ledger's time source.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger creates an empty ledger for a match backed by the given store.
func NewLedger(store Store, matchID string, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:    store,
		matchID:  matchID,
		now:      time.Now,
		entries:  make(map[EntryKey]*Entry),
		inflight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MatchID returns the match this ledger scores.
func (l *Ledger) MatchID() string { return l.matchID }

// Load replaces the ledger contents with the stored scores for the match.
// Entries absent from storage are synthesized all-zero for every
// (judge, participant) pair passed in, so an unscored match loads clean
// rather than failing. Live push events re-run Load rather than merging
// deltas.
func (l *Ledger) Load(ctx context.Context, judgeIDs, participantIDs []string) error {
	stored, err := l.store.GetMatchScores(ctx, l.matchID)
	if err != nil {
		return fmt.Errorf("load scores for match %s: %w", l.matchID, err)
	}

	entries := buildEntries(stored, judgeIDs, participantIDs)

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	return nil
}

// Reload refreshes a live ledger from storage without replacing it.
// While any judge's submission is in flight the refresh is refused with
// ErrSubmissionInFlight, and taps arriving during the storage read get
// ErrReloading, so a refresh can never interleave with a submission and
// lose its increment.
func (l *Ledger) Reload(ctx context.Context, judgeIDs, participantIDs []string) error {
	l.mu.Lock()
	if len(l.inflight) > 0 {
		l.mu.Unlock()
		return ErrSubmissionInFlight
	}
	l.reloading = true
	l.mu.Unlock()

	stored, err := l.store.GetMatchScores(ctx, l.matchID)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.reloading = false
	if err != nil {
		return fmt.Errorf("load scores for match %s: %w", l.matchID, err)
	}
	l.entries = buildEntries(stored, judgeIDs, participantIDs)
	return nil
}

func buildEntries(stored []StoredScore, judgeIDs, participantIDs []string) map[EntryKey]*Entry {
	entries := make(map[EntryKey]*Entry)
	for _, jid := range judgeIDs {
		for _, pid := range participantIDs {
			e := &Entry{JudgeID: jid, ParticipantID: pid}
			entries[EntryKey{JudgeID: jid, ParticipantID: pid}] = e
		}
	}
	for _, s := range stored {
		e := entryFromStored(s)
		entries[EntryKey{JudgeID: s.JudgeID, ParticipantID: s.ParticipantID}] = &e
	}
	return entries
}

// RecordAction applies a judge's action optimistically, then persists the
// updated entry through the store. If persistence fails the local
// increment is rolled back and the error returned; the ledger stays
// consistent and the action can be retried. Returns the updated entry.
func (l *Ledger) RecordAction(ctx context.Context, judgeID, participantID string, action Action, delta int) (Entry, error) {
	key := EntryKey{JudgeID: judgeID, ParticipantID: participantID}

	l.mu.Lock()
	if l.reloading {
		l.mu.Unlock()
		return Entry{}, ErrReloading
	}
	if l.inflight[judgeID] {
		l.mu.Unlock()
		return Entry{}, ErrJudgeBusy
	}
	l.inflight[judgeID] = true

	e, ok := l.entries[key]
	if !ok {
		e = &Entry{JudgeID: judgeID, ParticipantID: participantID}
		l.entries[key] = e
	}
	prev := *e
	e.Apply(action, delta, l.now())
	submit := e.stored(l.matchID)
	l.mu.Unlock()

	err := l.store.SubmitScore(ctx, submit)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, judgeID)
	if err != nil {
		*e = prev
		return Entry{}, fmt.Errorf("submit score for match %s: %w", l.matchID, err)
	}
	return *e, nil
}

// Entry returns a copy of one judge's tallies for a participant, zeroed
// when nothing has been recorded.
func (l *Ledger) Entry(judgeID, participantID string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[EntryKey{JudgeID: judgeID, ParticipantID: participantID}]; ok {
		return *e
	}
	return Entry{JudgeID: judgeID, ParticipantID: participantID}
}

// Snapshot returns a copy of every entry, suitable for Aggregate.
func (l *Ledger) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	return out
}
