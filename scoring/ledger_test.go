package scoring_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"karate-tournament-system/scoring"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeStore is an in-memory score-storage collaborator.
type fakeStore struct {
	mu         sync.Mutex
	scores     map[string]map[scoring.EntryKey]scoring.StoredScore
	failing    bool
	submits    int
	release    chan struct{} // when set, the first SubmitScore blocks until closed
	blocked    bool
	getRelease chan struct{} // when set, the first GetMatchScores blocks until closed
	getBlocked bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{scores: make(map[string]map[scoring.EntryKey]scoring.StoredScore)}
}

func (f *fakeStore) GetMatchScores(_ context.Context, matchID string) ([]scoring.StoredScore, error) {
	f.mu.Lock()
	wait := f.getRelease != nil && !f.getBlocked
	if wait {
		f.getBlocked = true
	}
	f.mu.Unlock()
	if wait {
		<-f.getRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []scoring.StoredScore
	for _, s := range f.scores[matchID] {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) SubmitScore(_ context.Context, s scoring.StoredScore) error {
	f.mu.Lock()
	wait := f.release != nil && !f.blocked
	if wait {
		f.blocked = true
	}
	f.mu.Unlock()
	if wait {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.failing {
		return errors.New("storage unavailable")
	}
	if f.scores[s.MatchID] == nil {
		f.scores[s.MatchID] = make(map[scoring.EntryKey]scoring.StoredScore)
	}
	f.scores[s.MatchID][scoring.EntryKey{JudgeID: s.JudgeID, ParticipantID: s.ParticipantID}] = s
	return nil
}

func fixedClock() func() time.Time {
	base := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	var n int
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger over an empty store", t, func() {
		store := newFakeStore()
		ledger := scoring.NewLedger(store, "match-1", scoring.WithClock(fixedClock()))

		Convey("Load synthesizes zero entries for every pair", func() {
			err := ledger.Load(ctx, []string{"j1", "j2"}, []string{"aka", "ao"})
			So(err, ShouldBeNil)
			So(ledger.Snapshot(), ShouldHaveLength, 4)
			e := ledger.Entry("j1", "aka")
			So(e.Yuko, ShouldEqual, 0)
			So(e.FirstScoreAt, ShouldBeNil)
		})

		Convey("RecordAction increments and persists", func() {
			a, err := scoring.ParseAction("ippon")
			So(err, ShouldBeNil)

			e, err := ledger.RecordAction(ctx, "j1", "aka", a, 1)
			So(err, ShouldBeNil)
			So(e.Ippon, ShouldEqual, 1)
			So(e.FirstScoreAt, ShouldNotBeNil)
			So(store.submits, ShouldEqual, 1)

			Convey("And a reload round-trips the increment exactly once", func() {
				fresh := scoring.NewLedger(store, "match-1")
				So(fresh.Load(ctx, []string{"j1"}, []string{"aka", "ao"}), ShouldBeNil)
				got := fresh.Entry("j1", "aka")
				So(got.Ippon, ShouldEqual, 1)
				So(got.FirstScoreAt, ShouldNotBeNil)
				So(got.FirstScoreAt.Equal(*e.FirstScoreAt), ShouldBeTrue)
			})
		})

		Convey("FirstScoreAt is set once and only by point actions", func() {
			penalty, _ := scoring.ParseAction("penalty:1:keikoku")
			e, err := ledger.RecordAction(ctx, "j1", "ao", penalty, 1)
			So(err, ShouldBeNil)
			So(e.Penalties[0].Keikoku, ShouldEqual, 1)
			So(e.FirstScoreAt, ShouldBeNil)

			yuko, _ := scoring.ParseAction("yuko")
			first, err := ledger.RecordAction(ctx, "j1", "ao", yuko, 1)
			So(err, ShouldBeNil)
			So(first.FirstScoreAt, ShouldNotBeNil)

			second, err := ledger.RecordAction(ctx, "j1", "ao", yuko, 1)
			So(err, ShouldBeNil)
			So(second.Yuko, ShouldEqual, 2)
			So(second.FirstScoreAt.Equal(*first.FirstScoreAt), ShouldBeTrue)
		})

		Convey("A failed submission rolls the entry back", func() {
			yuko, _ := scoring.ParseAction("yuko")
			_, err := ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
			So(err, ShouldBeNil)

			store.failing = true
			_, err = ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
			So(err, ShouldNotBeNil)

			e := ledger.Entry("j1", "aka")
			So(e.Yuko, ShouldEqual, 1)

			Convey("And the guard is released so a retry succeeds", func() {
				store.failing = false
				e, err := ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
				So(err, ShouldBeNil)
				So(e.Yuko, ShouldEqual, 2)
			})
		})

		Convey("A second tap from the same judge while one is in flight is rejected", func() {
			store.release = make(chan struct{})
			yuko, _ := scoring.ParseAction("yuko")

			done := make(chan error, 1)
			go func() {
				_, err := ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
				done <- err
			}()

			// Wait for the first submission to reach the store.
			time.Sleep(20 * time.Millisecond)
			_, err := ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
			So(errors.Is(err, scoring.ErrJudgeBusy), ShouldBeTrue)

			Convey("But a different judge records concurrently", func() {
				_, err := ledger.RecordAction(ctx, "j2", "aka", yuko, 1)
				So(err, ShouldBeNil)
			})

			close(store.release)
			So(<-done, ShouldBeNil)
			So(ledger.Entry("j1", "aka").Yuko, ShouldEqual, 1)
		})
	})
}

func TestLedgerReload(t *testing.T) {
	ctx := context.Background()

	Convey("Given a judge's tap stalled mid-submission", t, func() {
		store := newFakeStore()
		ledger := scoring.NewLedger(store, "match-3", scoring.WithClock(fixedClock()))
		So(ledger.Load(ctx, []string{"j1"}, []string{"aka", "ao"}), ShouldBeNil)

		yuko, _ := scoring.ParseAction("yuko")
		store.release = make(chan struct{})

		done := make(chan error, 1)
		go func() {
			_, err := ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
			done <- err
		}()

		// Wait for the submission to reach the store.
		time.Sleep(20 * time.Millisecond)

		Convey("A live refresh is deferred rather than applied over the pending tap", func() {
			err := ledger.Reload(ctx, []string{"j1"}, []string{"aka", "ao"})
			So(errors.Is(err, scoring.ErrSubmissionInFlight), ShouldBeTrue)

			close(store.release)
			So(<-done, ShouldBeNil)

			// The judge's next tap builds on the committed increment.
			_, err = ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
			So(err, ShouldBeNil)

			Convey("So both acknowledged taps survive the round trip", func() {
				fresh := scoring.NewLedger(store, "match-3")
				So(fresh.Load(ctx, []string{"j1"}, []string{"aka", "ao"}), ShouldBeNil)
				So(fresh.Entry("j1", "aka").Yuko, ShouldEqual, 2)

				So(ledger.Reload(ctx, []string{"j1"}, []string{"aka", "ao"}), ShouldBeNil)
				So(ledger.Entry("j1", "aka").Yuko, ShouldEqual, 2)
			})
		})

		Convey("A spectator snapshot over the same store leaves the scoring ledger alone", func() {
			readOnly := scoring.NewLedger(store, "match-3")
			So(readOnly.Load(ctx, []string{"j1"}, []string{"aka", "ao"}), ShouldBeNil)
			So(readOnly.Entry("j1", "aka").Yuko, ShouldEqual, 0)

			close(store.release)
			So(<-done, ShouldBeNil)

			_, err := ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
			So(err, ShouldBeNil)

			fresh := scoring.NewLedger(store, "match-3")
			So(fresh.Load(ctx, []string{"j1"}, []string{"aka", "ao"}), ShouldBeNil)
			So(fresh.Entry("j1", "aka").Yuko, ShouldEqual, 2)
		})
	})

	Convey("Given a reload blocked in the storage read", t, func() {
		store := newFakeStore()
		ledger := scoring.NewLedger(store, "match-4", scoring.WithClock(fixedClock()))
		So(ledger.Load(ctx, []string{"j1"}, []string{"aka", "ao"}), ShouldBeNil)

		store.getRelease = make(chan struct{})
		reloaded := make(chan error, 1)
		go func() {
			reloaded <- ledger.Reload(ctx, []string{"j1"}, []string{"aka", "ao"})
		}()
		time.Sleep(20 * time.Millisecond)

		Convey("A tap arriving mid-reload is rejected, not interleaved", func() {
			yuko, _ := scoring.ParseAction("yuko")
			_, err := ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
			So(errors.Is(err, scoring.ErrReloading), ShouldBeTrue)

			close(store.getRelease)
			So(<-reloaded, ShouldBeNil)

			Convey("And lands once the reload finishes", func() {
				e, err := ledger.RecordAction(ctx, "j1", "aka", yuko, 1)
				So(err, ShouldBeNil)
				So(e.Yuko, ShouldEqual, 1)
			})
		})
	})
}

func TestLedgerAggregationFlow(t *testing.T) {
	ctx := context.Background()

	Convey("Given two judges scoring AKA", t, func() {
		store := newFakeStore()
		ledger := scoring.NewLedger(store, "match-2", scoring.WithClock(fixedClock()))
		So(ledger.Load(ctx, []string{"j1", "j2"}, []string{"aka", "ao"}), ShouldBeNil)

		ippon, _ := scoring.ParseAction("ippon")
		wazaAri, _ := scoring.ParseAction("wazaAri")
		_, err := ledger.RecordAction(ctx, "j1", "aka", ippon, 1)
		So(err, ShouldBeNil)
		_, err = ledger.RecordAction(ctx, "j2", "aka", wazaAri, 1)
		So(err, ShouldBeNil)

		Convey("The aggregate and outcome follow the rule book", func() {
			snap := ledger.Snapshot()
			akaAgg := scoring.Aggregate(snap, "aka")
			aoAgg := scoring.Aggregate(snap, "ao")

			So(akaAgg.Points, ShouldEqual, 5)
			So(aoAgg.Points, ShouldEqual, 0)

			out := scoring.Resolve(akaAgg, aoAgg)
			So(out.WinnerID, ShouldEqual, "aka")
			So(out.Undetermined, ShouldBeFalse)
		})
	})
}
