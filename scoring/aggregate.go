package scoring

import "time"

// AggregatedScore is one participant's totals summed across all judges.
// Penalty totals fold both category tracks together.
type AggregatedScore struct {
	ParticipantID string `json:"participant_id"`

	Yuko    int `json:"yuko"`
	WazaAri int `json:"waza_ari"`
	Ippon   int `json:"ippon"`

	Chukoku     int `json:"chukoku"`
	Keikoku     int `json:"keikoku"`
	HansokuChui int `json:"hansoku_chui"`
	Hansoku     int `json:"hansoku"`

	// Points = yuko + 2*wazaAri + 3*ippon. Keikoku carry-over is applied
	// later, during resolution, not here.
	Points int `json:"points"`

	Disqualified bool `json:"disqualified"`

	// Earliest first-score time across all judges; nil when the
	// participant has not scored.
	FirstScoreAt *time.Time `json:"first_score_at,omitempty"`
}

// Aggregate reduces every judge's entry for the given participant into an
// AggregatedScore. Pure and order-independent: shuffling entries yields
// the same result.
func Aggregate(entries []Entry, participantID string) AggregatedScore {
	agg := AggregatedScore{ParticipantID: participantID}

	for i := range entries {
		e := &entries[i]
		if e.ParticipantID != participantID {
			continue
		}

		agg.Yuko += e.Yuko
		agg.WazaAri += e.WazaAri
		agg.Ippon += e.Ippon

		agg.Chukoku += e.PenaltyTotal(Chukoku)
		agg.Keikoku += e.PenaltyTotal(Keikoku)
		agg.HansokuChui += e.PenaltyTotal(HansokuChui)
		agg.Hansoku += e.PenaltyTotal(Hansoku)

		if e.FirstScoreAt != nil {
			if agg.FirstScoreAt == nil || e.FirstScoreAt.Before(*agg.FirstScoreAt) {
				t := *e.FirstScoreAt
				agg.FirstScoreAt = &t
			}
		}
	}

	agg.Points = agg.Yuko*Yuko.Points() + agg.WazaAri*WazaAri.Points() + agg.Ippon*Ippon.Points()
	agg.Disqualified = agg.Hansoku > 0

	return agg
}
