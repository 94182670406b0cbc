package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/terra-clan/problem-browser/internal/models"
)

// csvRow is one exported line of the display list
type csvRow struct {
	ContestID   int    `csv:"contest_id"`
	Index       string `csv:"index"`
	Name        string `csv:"name"`
	Rating      *int   `csv:"rating,omitempty"`
	Tags        string `csv:"tags"`
	ContestName string `csv:"contest_name"`
	Division    string `csv:"division"`
	Date        string `csv:"date"`
	Link        string `csv:"link"`
	Done        bool   `csv:"done"`
	Notes       string `csv:"notes"`
}

// CSV writes the entries with a header row
func CSV(w io.Writer, entries []models.Entry) error {
	rows := make([]csvRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, csvRow{
			ContestID:   e.ContestID,
			Index:       e.Index,
			Name:        e.Name,
			Rating:      e.Rating,
			Tags:        strings.Join(e.Tags, ";"),
			ContestName: e.ContestName,
			Division:    string(e.Division),
			Date:        FormatDate(e.StartTime),
			Link:        e.Link,
			Done:        e.Progress.Done,
			Notes:       e.Progress.Notes,
		})
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode csv: %w", err)
	}
	_, err = w.Write(data)
	return err
}
