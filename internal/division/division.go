// Package division derives a contest's division from its display name.
package division

import (
	"strings"

	"github.com/terra-clan/problem-browser/internal/models"
)

type rule struct {
	division models.Division
	markers  []string
}

// rules are evaluated in order and the first match wins. Combined rounds
// must be checked before the single-division markers they contain.
var rules = []rule{
	{models.Div1And2, []string{"div. 1 + div. 2", "div. 1+div. 2", "div.1 + div.2", "(div. 1 + div. 2)"}},
	{models.Div4, []string{"div. 4", "(div.4)", "div 4"}},
	{models.Div3, []string{"div. 3", "(div.3)", "div 3"}},
	{models.Div2, []string{"div. 2", "(div.2)", "div 2"}},
	{models.Div1, []string{"div. 1", "(div.1)", "div 1"}},
	{models.Div2, []string{"educational"}},
	{models.Div1And2, []string{"global round"}},
}

// Classify returns the division of a contest name, or false when no rule
// matches.
func Classify(contestName string) (models.Division, bool) {
	name := strings.ToLower(contestName)
	for _, r := range rules {
		for _, m := range r.markers {
			if strings.Contains(name, m) {
				return r.division, true
			}
		}
	}
	return "", false
}

// Label returns the display text for a division
func Label(d models.Division) string {
	if d == models.Div1And2 {
		return "Div 1+2"
	}
	return "Div " + string(d)
}

// Known reports whether d is one of the divisions Classify can produce
func Known(d models.Division) bool {
	for _, k := range models.Divisions {
		if k == d {
			return true
		}
	}
	return false
}
