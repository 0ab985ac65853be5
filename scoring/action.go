// Package scoring implements the Kumite live-scoring engine: per-judge
// score ledgers, aggregation across judges, and winner resolution.
package scoring

import (
	"fmt"
	"strings"
)

// PointType is a point-scoring technique.
type PointType int

const (
	Yuko PointType = iota // 1 point
	WazaAri               // 2 points
	Ippon                 // 3 points
)

// Points returns the point value of the technique.
func (p PointType) Points() int {
	switch p {
	case Yuko:
		return 1
	case WazaAri:
		return 2
	case Ippon:
		return 3
	}
	return 0
}

func (p PointType) String() string {
	switch p {
	case Yuko:
		return "yuko"
	case WazaAri:
		return "wazaAri"
	case Ippon:
		return "ippon"
	}
	return "unknown"
}

// PenaltyType is one step of the escalating penalty ladder.
type PenaltyType int

const (
	Chukoku PenaltyType = iota
	Keikoku
	HansokuChui
	Hansoku
)

func (p PenaltyType) String() string {
	switch p {
	case Chukoku:
		return "chukoku"
	case Keikoku:
		return "keikoku"
	case HansokuChui:
		return "hansokuChui"
	case Hansoku:
		return "hansoku"
	}
	return "unknown"
}

// PenaltyCategory distinguishes the two penalty rule classes tracked
// separately at data entry. Aggregation sums both categories together.
type PenaltyCategory int

const (
	Category1 PenaltyCategory = 1
	Category2 PenaltyCategory = 2
)

// Action is a scoring action recorded by a judge: either a point technique
// or a categorized penalty. The concrete types are PointAction and
// PenaltyAction.
type Action interface {
	isAction()
	String() string
}

// PointAction awards a point technique (yuko/waza-ari/ippon).
type PointAction struct {
	Type PointType
}

func (PointAction) isAction() {}

func (a PointAction) String() string { return a.Type.String() }

// PenaltyAction records a penalty in one of the two categories.
type PenaltyAction struct {
	Category PenaltyCategory
	Type     PenaltyType
}

func (PenaltyAction) isAction() {}

func (a PenaltyAction) String() string {
	return fmt.Sprintf("penalty:%d:%s", a.Category, a.Type)
}

// ParseAction resolves the wire form of an action ("yuko", "wazaAri",
// "ippon", or "penalty:<category>:<type>") into its typed variant. It is
// meant to be called once at the HTTP boundary; everything downstream
// works with the typed Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "yuko":
		return PointAction{Type: Yuko}, nil
	case "wazaAri":
		return PointAction{Type: WazaAri}, nil
	case "ippon":
		return PointAction{Type: Ippon}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != "penalty" {
		return nil, fmt.Errorf("unknown action %q", s)
	}

	var cat PenaltyCategory
	switch parts[1] {
	case "1":
		cat = Category1
	case "2":
		cat = Category2
	default:
		return nil, fmt.Errorf("unknown penalty category %q in action %q", parts[1], s)
	}

	var typ PenaltyType
	switch parts[2] {
	case "chukoku":
		typ = Chukoku
	case "keikoku":
		typ = Keikoku
	case "hansokuChui":
		typ = HansokuChui
	case "hansoku":
		typ = Hansoku
	default:
		return nil, fmt.Errorf("unknown penalty type %q in action %q", parts[2], s)
	}

	return PenaltyAction{Category: cat, Type: typ}, nil
}
