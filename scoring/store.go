package scoring

import (
	"context"
	"time"
)

// StoredScore is the wire shape crossing the score-storage boundary. The
// two penalty category tracks are a data-entry concern only; they are
// collapsed into summed fields before submission and land in category 1
// on reload.
type StoredScore struct {
	MatchID       string
	JudgeID       string
	ParticipantID string

	Yuko    int
	WazaAri int
	Ippon   int

	Chukoku     int
	Keikoku     int
	HansokuChui int
	Hansoku     int

	FirstScoreAt *time.Time
}

// Store is the external score-storage collaborator. Implementations live
// outside this package (the service layer backs it with Postgres).
type Store interface {
	GetMatchScores(ctx context.Context, matchID string) ([]StoredScore, error)
	SubmitScore(ctx context.Context, score StoredScore) error
}

func (e *Entry) stored(matchID string) StoredScore {
	return StoredScore{
		MatchID:       matchID,
		JudgeID:       e.JudgeID,
		ParticipantID: e.ParticipantID,
		Yuko:          e.Yuko,
		WazaAri:       e.WazaAri,
		Ippon:         e.Ippon,
		Chukoku:       e.PenaltyTotal(Chukoku),
		Keikoku:       e.PenaltyTotal(Keikoku),
		HansokuChui:   e.PenaltyTotal(HansokuChui),
		Hansoku:       e.PenaltyTotal(Hansoku),
		FirstScoreAt:  e.FirstScoreAt,
	}
}

func entryFromStored(s StoredScore) Entry {
	e := Entry{
		JudgeID:       s.JudgeID,
		ParticipantID: s.ParticipantID,
		Yuko:          s.Yuko,
		WazaAri:       s.WazaAri,
		Ippon:         s.Ippon,
		FirstScoreAt:  s.FirstScoreAt,
	}
	e.Penalties[0] = PenaltyCounts{
		Chukoku:     s.Chukoku,
		Keikoku:     s.Keikoku,
		HansokuChui: s.HansokuChui,
		Hansoku:     s.Hansoku,
	}
	return e
}
