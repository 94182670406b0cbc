package models

// Division is the difficulty tier derived from a contest title
type Division string

const (
	Div1     Division = "1"
	Div2     Division = "2"
	Div3     Division = "3"
	Div4     Division = "4"
	Div1And2 Division = "1+2"
)

// Divisions lists every division the presentation layer offers as a filter
var Divisions = []Division{Div1, Div2, Div3, Div4, Div1And2}

// Indices lists the problem index letters offered as filters
var Indices = []string{"A", "B", "C", "D", "E", "F", "G"}

// PhaseFinished is the only contest phase whose problems are browsable
const PhaseFinished = "FINISHED"

// Contest is a contest record as returned by contest.list, annotated with
// its classified division at ingestion
type Contest struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	Type             string   `json:"type,omitempty"`
	Phase            string   `json:"phase"`
	StartTimeSeconds int64    `json:"startTimeSeconds"`
	Division         Division `json:"division,omitempty"`
}

// RawProblem is a problem record as returned by problemset.problems
type RawProblem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Problem is a problem joined with its parent contest
type Problem struct {
	ContestID   int      `json:"contestId"`
	Index       string   `json:"index"`
	Name        string   `json:"name"`
	Rating      *int     `json:"rating,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ContestName string   `json:"contestName"`
	Division    Division `json:"division"`
	StartTime   int64    `json:"startTime"`
	Link        string   `json:"link"`
}

// Key returns the progress key of the problem
func (p Problem) Key() string {
	return ProgressKey(p.ContestID, p.Index)
}
