package scoring_test

import (
	"testing"

	"karate-tournament-system/scoring"

	. "github.com/smartystreets/goconvey/convey"
)

func aka(points int) scoring.AggregatedScore {
	return scoring.AggregatedScore{ParticipantID: "aka", Points: points}
}

func ao(points int) scoring.AggregatedScore {
	return scoring.AggregatedScore{ParticipantID: "ao", Points: points}
}

func TestResolve(t *testing.T) {
	Convey("Given two participants' aggregated scores", t, func() {
		Convey("Disqualification overrides any point total", func() {
			dq := ao(20)
			dq.Hansoku = 1
			dq.Disqualified = true

			out := scoring.Resolve(aka(0), dq)
			So(out.WinnerID, ShouldEqual, "aka")
			So(out.Undetermined, ShouldBeFalse)

			out = scoring.Resolve(dqCopyAs("aka"), ao(0))
			So(out.WinnerID, ShouldEqual, "ao")
		})

		Convey("Both disqualified is undetermined", func() {
			a, b := dqCopyAs("aka"), dqCopyAs("ao")
			out := scoring.Resolve(a, b)
			So(out.Undetermined, ShouldBeTrue)
			So(out.WinnerID, ShouldBeEmpty)
		})

		Convey("Keikoku carries over to the opponent's final score", func() {
			// AKA lands an ippon; AO picks up one keikoku in category 1.
			a := aka(3)
			b := ao(0)
			b.Keikoku = 1

			out := scoring.Resolve(a, b)
			So(out.RedFinal, ShouldEqual, 4)
			So(out.BlueFinal, ShouldEqual, 0)
			So(out.WinnerID, ShouldEqual, "aka")
		})

		Convey("An eight-point gap wins outright", func() {
			out := scoring.Resolve(aka(10), ao(1))
			So(out.WinnerID, ShouldEqual, "aka")

			out = scoring.Resolve(aka(1), ao(10))
			So(out.WinnerID, ShouldEqual, "ao")
		})

		Convey("Higher score wins below the gap", func() {
			out := scoring.Resolve(aka(5), ao(0))
			So(out.WinnerID, ShouldEqual, "aka")
			So(out.RedFinal, ShouldEqual, 5)
			So(out.BlueFinal, ShouldEqual, 0)
		})

		Convey("Equal scores fall to the earlier first score", func() {
			a, b := aka(5), ao(5)
			a.FirstScoreAt = ts(10)
			b.FirstScoreAt = ts(25)
			So(scoring.Resolve(a, b).WinnerID, ShouldEqual, "aka")

			Convey("And a sole scorer wins the tie", func() {
				b.FirstScoreAt = nil
				So(scoring.Resolve(a, b).WinnerID, ShouldEqual, "aka")
				So(scoring.Resolve(b, a).WinnerID, ShouldEqual, "aka")
			})
		})

		Convey("A scoreless tie is undetermined", func() {
			out := scoring.Resolve(aka(0), ao(0))
			So(out.Undetermined, ShouldBeTrue)
			So(out.WinnerID, ShouldBeEmpty)
		})

		Convey("Resolve is deterministic", func() {
			a, b := aka(5), ao(5)
			a.FirstScoreAt = ts(10)
			b.FirstScoreAt = ts(25)
			first := scoring.Resolve(a, b)
			for i := 0; i < 10; i++ {
				So(scoring.Resolve(a, b), ShouldResemble, first)
			}
		})

		Convey("Two judges scoring ippon and waza-ari beat an unscored opponent", func() {
			// Aggregated from judge1 ippon + judge2 waza-ari: 2+3 = 5 points.
			a := scoring.AggregatedScore{ParticipantID: "aka", WazaAri: 1, Ippon: 1, Points: 5}
			out := scoring.Resolve(a, ao(0))
			So(out.WinnerID, ShouldEqual, "aka")
			So(out.RedFinal-out.BlueFinal, ShouldBeLessThan, scoring.WinningGap)
		})
	})
}

func dqCopyAs(id string) scoring.AggregatedScore {
	return scoring.AggregatedScore{ParticipantID: id, Hansoku: 1, Disqualified: true}
}
