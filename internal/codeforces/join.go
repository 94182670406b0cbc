package codeforces

import (
	"fmt"

	"github.com/terra-clan/problem-browser/internal/division"
	"github.com/terra-clan/problem-browser/internal/models"
)

// Join attaches contest data to each problem. Problems whose contest is not
// finished or could not be classified are dropped. Source order is kept.
func Join(contests []models.Contest, raw []models.RawProblem, siteURL string) []models.Problem {
	finished := make(map[int]models.Contest, len(contests))
	for _, c := range contests {
		if c.Phase != models.PhaseFinished {
			continue
		}
		c.Division, _ = division.Classify(c.Name)
		finished[c.ID] = c
	}

	problems := make([]models.Problem, 0, len(raw))
	for _, p := range raw {
		contest, ok := finished[p.ContestID]
		if !ok || contest.Division == "" {
			continue
		}
		problems = append(problems, models.Problem{
			ContestID:   p.ContestID,
			Index:       p.Index,
			Name:        p.Name,
			Rating:      p.Rating,
			Tags:        p.Tags,
			ContestName: contest.Name,
			Division:    contest.Division,
			StartTime:   contest.StartTimeSeconds,
			Link:        ProblemLink(siteURL, p.ContestID, p.Index),
		})
	}
	return problems
}

// ProblemLink builds the public URL of a problem
func ProblemLink(siteURL string, contestID int, index string) string {
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	return fmt.Sprintf("%s/contest/%d/problem/%s", siteURL, contestID, index)
}
