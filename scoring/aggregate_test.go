package scoring_test

import (
	"math/rand"
	"testing"
	"time"

	"karate-tournament-system/scoring"

	. "github.com/smartystreets/goconvey/convey"
)

func ts(sec int) *time.Time {
	t := time.Date(2025, 6, 14, 10, 0, sec, 0, time.UTC)
	return &t
}

func TestAggregate(t *testing.T) {
	Convey("Given entries from two judges for AKA and one for AO", t, func() {
		entries := []scoring.Entry{
			{
				JudgeID: "j1", ParticipantID: "aka",
				Yuko: 2, WazaAri: 1, Ippon: 1,
				Penalties: [2]scoring.PenaltyCounts{
					{Chukoku: 1, Keikoku: 1},
					{Keikoku: 2, Hansoku: 0},
				},
				FirstScoreAt: ts(30),
			},
			{
				JudgeID: "j2", ParticipantID: "aka",
				Yuko:         1,
				FirstScoreAt: ts(12),
			},
			{
				JudgeID: "j1", ParticipantID: "ao",
				Penalties: [2]scoring.PenaltyCounts{{}, {Hansoku: 1}},
			},
		}

		Convey("When aggregating AKA", func() {
			agg := scoring.Aggregate(entries, "aka")

			Convey("Then point counts sum across judges", func() {
				So(agg.Yuko, ShouldEqual, 3)
				So(agg.WazaAri, ShouldEqual, 1)
				So(agg.Ippon, ShouldEqual, 1)
				So(agg.Points, ShouldEqual, 3*1+1*2+1*3)
			})

			Convey("Then penalties sum across both categories", func() {
				So(agg.Chukoku, ShouldEqual, 1)
				So(agg.Keikoku, ShouldEqual, 3)
				So(agg.Hansoku, ShouldEqual, 0)
				So(agg.Disqualified, ShouldBeFalse)
			})

			Convey("Then the earliest first-score time wins", func() {
				So(agg.FirstScoreAt, ShouldNotBeNil)
				So(agg.FirstScoreAt.Equal(*ts(12)), ShouldBeTrue)
			})
		})

		Convey("When aggregating AO", func() {
			agg := scoring.Aggregate(entries, "ao")

			Convey("Then a category-2 hansoku disqualifies", func() {
				So(agg.Hansoku, ShouldEqual, 1)
				So(agg.Disqualified, ShouldBeTrue)
				So(agg.Points, ShouldEqual, 0)
				So(agg.FirstScoreAt, ShouldBeNil)
			})
		})

		Convey("When shuffling the entry order", func() {
			want := scoring.Aggregate(entries, "aka")
			for i := 0; i < 20; i++ {
				shuffled := make([]scoring.Entry, len(entries))
				copy(shuffled, entries)
				rand.Shuffle(len(shuffled), func(a, b int) {
					shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
				})
				So(scoring.Aggregate(shuffled, "aka"), ShouldResemble, want)
			}
		})

		Convey("When aggregating a participant with no entries", func() {
			agg := scoring.Aggregate(entries, "ghost")
			So(agg.Points, ShouldEqual, 0)
			So(agg.Disqualified, ShouldBeFalse)
			So(agg.FirstScoreAt, ShouldBeNil)
		})
	})
}
