package services

import (
	"testing"
	"time"

	"karate-tournament-system/scoring"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEvictIdleLedgers(t *testing.T) {
	Convey("Given cached scoring sessions of mixed age", t, func() {
		s := NewScoreService(nil)
		s.ledgers["stale"] = &cachedLedger{
			ledger:   scoring.NewLedger(s, "stale"),
			lastUsed: time.Now().Add(-3 * time.Hour),
		}
		s.ledgers["fresh"] = &cachedLedger{
			ledger:   scoring.NewLedger(s, "fresh"),
			lastUsed: time.Now(),
		}

		Convey("Eviction drops only the idle session", func() {
			So(s.EvictIdleLedgers(2*time.Hour), ShouldEqual, 1)

			_, ok := s.ledgers["stale"]
			So(ok, ShouldBeFalse)
			_, ok = s.ledgers["fresh"]
			So(ok, ShouldBeTrue)
		})

		Convey("A recently touched session never qualifies", func() {
			So(s.EvictIdleLedgers(4*time.Hour), ShouldEqual, 0)
			So(s.ledgers, ShouldHaveLength, 2)
		})
	})
}
