package scoring

// WinningGap is the point lead that ends the comparison outright
// (senshu-style rule).
const WinningGap = 8

// Outcome is the winner decision for one match state. When Undetermined is
// true no winner exists yet and the match cannot be finalized.
type Outcome struct {
	WinnerID     string `json:"winner_id,omitempty"`
	Undetermined bool   `json:"undetermined,omitempty"`

	// Final comparison scores after keikoku carry-over, for display.
	RedFinal  int `json:"red_final"`
	BlueFinal int `json:"blue_final"`
}

// Resolve decides the match winner from the two participants' aggregates,
// applying the Kumite rules in strict order:
//
//  1. disqualification (hansoku) — the opponent wins; both disqualified
//     is undetermined (no official rule covers double-hansoku)
//  2. keikoku carry-over — each keikoku awards the opponent one point
//     toward the final comparison
//  3. a lead of WinningGap or more wins outright
//  4. higher final score wins
//  5. equal scores fall to the earlier first score; neither having scored
//     is undetermined
//
// Resolve is pure and deterministic; it is recomputed from scratch after
// every scoring action.
func Resolve(red, blue AggregatedScore) Outcome {
	if red.Disqualified && blue.Disqualified {
		return Outcome{Undetermined: true}
	}
	if red.Disqualified {
		return Outcome{WinnerID: blue.ParticipantID}
	}
	if blue.Disqualified {
		return Outcome{WinnerID: red.ParticipantID}
	}

	// Opponent's keikoku counts toward one's own final score.
	redFinal := red.Points + blue.Keikoku
	blueFinal := blue.Points + red.Keikoku

	out := Outcome{RedFinal: redFinal, BlueFinal: blueFinal}

	gap := redFinal - blueFinal
	if gap >= WinningGap {
		out.WinnerID = red.ParticipantID
		return out
	}
	if -gap >= WinningGap {
		out.WinnerID = blue.ParticipantID
		return out
	}

	if redFinal > blueFinal {
		out.WinnerID = red.ParticipantID
		return out
	}
	if blueFinal > redFinal {
		out.WinnerID = blue.ParticipantID
		return out
	}

	// Tied on points: earliest first score wins.
	switch {
	case red.FirstScoreAt != nil && blue.FirstScoreAt == nil:
		out.WinnerID = red.ParticipantID
	case blue.FirstScoreAt != nil && red.FirstScoreAt == nil:
		out.WinnerID = blue.ParticipantID
	case red.FirstScoreAt != nil && blue.FirstScoreAt != nil:
		if red.FirstScoreAt.Before(*blue.FirstScoreAt) {
			out.WinnerID = red.ParticipantID
		} else if blue.FirstScoreAt.Before(*red.FirstScoreAt) {
			out.WinnerID = blue.ParticipantID
		} else {
			out.Undetermined = true
		}
	default:
		out.Undetermined = true
	}

	return out
}
