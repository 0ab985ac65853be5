package scoring_test

import (
	"testing"

	"karate-tournament-system/scoring"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseAction(t *testing.T) {
	Convey("Given the wire forms of scoring actions", t, func() {
		Convey("When parsing point actions", func() {
			for wire, want := range map[string]scoring.PointType{
				"yuko":    scoring.Yuko,
				"wazaAri": scoring.WazaAri,
				"ippon":   scoring.Ippon,
			} {
				a, err := scoring.ParseAction(wire)
				So(err, ShouldBeNil)
				pa, ok := a.(scoring.PointAction)
				So(ok, ShouldBeTrue)
				So(pa.Type, ShouldEqual, want)
				So(pa.String(), ShouldEqual, wire)
			}
		})

		Convey("When parsing penalty actions", func() {
			a, err := scoring.ParseAction("penalty:2:hansokuChui")
			So(err, ShouldBeNil)
			pa, ok := a.(scoring.PenaltyAction)
			So(ok, ShouldBeTrue)
			So(pa.Category, ShouldEqual, scoring.Category2)
			So(pa.Type, ShouldEqual, scoring.HansokuChui)
			So(pa.String(), ShouldEqual, "penalty:2:hansokuChui")
		})

		Convey("When parsing garbage", func() {
			for _, wire := range []string{
				"", "ippon ", "penalty", "penalty:3:keikoku",
				"penalty:1:redcard", "penalty:one:keikoku", "penalty:1",
			} {
				_, err := scoring.ParseAction(wire)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestPointValues(t *testing.T) {
	Convey("Point techniques carry their rule-book values", t, func() {
		So(scoring.Yuko.Points(), ShouldEqual, 1)
		So(scoring.WazaAri.Points(), ShouldEqual, 2)
		So(scoring.Ippon.Points(), ShouldEqual, 3)
	})
}
