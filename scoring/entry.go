package scoring

import "time"

// PenaltyCounts holds the per-type penalty tallies of one category track.
type PenaltyCounts struct {
	Chukoku     int `json:"chukoku"`
	Keikoku     int `json:"keikoku"`
	HansokuChui int `json:"hansoku_chui"`
	Hansoku     int `json:"hansoku"`
}

func (p *PenaltyCounts) add(t PenaltyType, delta int) {
	switch t {
	case Chukoku:
		p.Chukoku += delta
	case Keikoku:
		p.Keikoku += delta
	case HansokuChui:
		p.HansokuChui += delta
	case Hansoku:
		p.Hansoku += delta
	}
}

// EntryKey addresses one judge's tallies for one participant.
type EntryKey struct {
	JudgeID       string
	ParticipantID string
}

// Entry is the atomic unit of the score ledger: one judge's raw point and
// penalty tallies for one participant. Counts are plain integers; the
// ledger does not validate deltas, so undo semantics stay a caller
// concern.
type Entry struct {
	JudgeID       string `json:"judge_id"`
	ParticipantID string `json:"participant_id"`

	Yuko    int `json:"yuko"`
	WazaAri int `json:"waza_ari"`
	Ippon   int `json:"ippon"`

	// Two penalty category tracks; index 0 is category 1.
	Penalties [2]PenaltyCounts `json:"penalties"`

	// Set when the first point-scoring action lands; never overwritten.
	FirstScoreAt *time.Time `json:"first_score_at,omitempty"`
}

// Apply increments the count addressed by the action. For point actions it
// fixes FirstScoreAt on first use.
func (e *Entry) Apply(a Action, delta int, now time.Time) {
	switch act := a.(type) {
	case PointAction:
		switch act.Type {
		case Yuko:
			e.Yuko += delta
		case WazaAri:
			e.WazaAri += delta
		case Ippon:
			e.Ippon += delta
		}
		if e.FirstScoreAt == nil {
			t := now
			e.FirstScoreAt = &t
		}
	case PenaltyAction:
		if act.Category == Category1 || act.Category == Category2 {
			e.Penalties[act.Category-1].add(act.Type, delta)
		}
	}
}

// PenaltyTotal sums one penalty type across both category tracks.
func (e *Entry) PenaltyTotal(t PenaltyType) int {
	var total int
	for i := range e.Penalties {
		switch t {
		case Chukoku:
			total += e.Penalties[i].Chukoku
		case Keikoku:
			total += e.Penalties[i].Keikoku
		case HansokuChui:
			total += e.Penalties[i].HansokuChui
		case Hansoku:
			total += e.Penalties[i].Hansoku
		}
	}
	return total
}
