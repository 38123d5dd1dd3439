package roster

import (
	"encoding/json"
	"fmt"
	"math"
)

// Appreciation is the qualitative label for a grade.
type Appreciation string

const (
	Outstanding      Appreciation = "outstanding"
	GoodWork         Appreciation = "good work"
	NeedsImprovement Appreciation = "needs improvement"
	Deficient        Appreciation = "deficient"
)

// Band lower bounds, closed.
const (
	OutstandingThreshold      = 6.5
	GoodWorkThreshold         = 5.6
	NeedsImprovementThreshold = 4.0

	// ExemptionThreshold splits the roster: below it a student must take the
	// exam, at or above it the student is exempted.
	ExemptionThreshold = 5.0
)

// NotApplicable is shown instead of an average for an empty roster.
const NotApplicable = "N/A"

// AppreciationFor evaluates the bands highest threshold first.
func AppreciationFor(grade float64) Appreciation {
	switch {
	case grade >= OutstandingThreshold:
		return Outstanding
	case grade >= GoodWorkThreshold:
		return GoodWork
	case grade >= NeedsImprovementThreshold:
		return NeedsImprovement
	default:
		return Deficient
	}
}

// Average is the class mean. Valid is false for an empty roster.
type Average struct {
	Value float64
	Valid bool
}

func (a Average) String() string {
	if !a.Valid {
		return NotApplicable
	}
	return fmt.Sprintf("%.2f", roundHalfUp(a.Value, 2))
}

// MarshalJSON renders the same text String does.
func (a Average) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// ComputeAverage is the arithmetic mean of all grades.
func ComputeAverage(r Roster) Average {
	if len(r) == 0 {
		return Average{}
	}
	var sum float64
	for _, s := range r {
		sum += s.Grade
	}
	return Average{Value: sum / float64(len(r)), Valid: true}
}

// Counts partitions the roster around ExemptionThreshold.
type Counts struct {
	Total        int `json:"total"`
	MustTakeExam int `json:"mustTakeExam"`
	Exempted     int `json:"exempted"`
}

func CountsFor(r Roster) Counts {
	c := Counts{Total: len(r)}
	for _, s := range r {
		if s.Grade < ExemptionThreshold {
			c.MustTakeExam++
		} else {
			c.Exempted++
		}
	}
	return c
}

// Row is one table line of the derived view.
type Row struct {
	Index int `json:"index"`
	Student
	GradeText    string       `json:"gradeText"`
	Appreciation Appreciation `json:"appreciation"`
}

// View is everything a presentation layer renders besides the form.
type View struct {
	Average Average `json:"average"`
	Counts  Counts  `json:"counts"`
	Rows    []Row   `json:"rows"`
	Empty   bool    `json:"empty"`
}

// EmptyPlaceholder is shown instead of the table when there are no students.
const EmptyPlaceholder = "No students added yet."

// FormatGrade renders a grade with one decimal, as the table shows it.
func FormatGrade(g float64) string {
	return fmt.Sprintf("%.1f", roundHalfUp(g, 1))
}

// roundHalfUp rounds ties away from zero (5.125 -> 5.13). fmt rounds exact
// binary ties to even.
func roundHalfUp(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// BuildView derives the read model from a roster snapshot. Nothing is cached;
// call it on every render.
func BuildView(r Roster) View {
	rows := make([]Row, 0, len(r))
	for i, s := range r {
		rows = append(rows, Row{
			Index:        i,
			Student:      s,
			GradeText:    FormatGrade(s.Grade),
			Appreciation: AppreciationFor(s.Grade),
		})
	}
	return View{
		Average: ComputeAverage(r),
		Counts:  CountsFor(r),
		Rows:    rows,
		Empty:   len(r) == 0,
	}
}
