package session

import (
	"sort"
	"time"

	"curator/internal/pipeline"
)

const stage = "grouping"

// GroupOptions controls session grouping.
type GroupOptions struct {
	// StartDate, when set, excludes sessions whose date is not strictly after
	// it. Only the calendar date is compared.
	StartDate *time.Time
}

// GroupResult holds the accepted sessions of one subject plus the files that
// could not be placed.
type GroupResult struct {
	Sessions []Session
	// Unmatched lists files whose name has no date/time token.
	Unmatched []string
	// Excluded counts files dropped by the start-date bound.
	Excluded int
}

// Group buckets one subject's files into sessions sorted by date and time.
func Group(subject string, files []string, opts GroupOptions) (GroupResult, error) {
	var result GroupResult
	index := make(map[string]int)

	var bound time.Time
	if opts.StartDate != nil {
		bound = truncateDate(*opts.StartDate)
	}

	for _, file := range files {
		tok, ok, err := ParseToken(file)
		if err != nil {
			return GroupResult{}, pipeline.Wrap(pipeline.ErrParse, stage, "parse date/time token", subject, err)
		}
		if !ok {
			result.Unmatched = append(result.Unmatched, file)
			continue
		}
		if opts.StartDate != nil && !tok.Date.After(bound) {
			result.Excluded++
			continue
		}
		key := tok.DateToken + "T" + tok.TimeToken
		pos, exists := index[key]
		if !exists {
			pos = len(result.Sessions)
			index[key] = pos
			result.Sessions = append(result.Sessions, Session{
				Subject:   subject,
				Date:      tok.Date,
				DateToken: tok.DateToken,
				TimeToken: tok.TimeToken,
			})
		}
		result.Sessions[pos].Files = append(result.Sessions[pos].Files, file)
	}

	sort.SliceStable(result.Sessions, func(i, j int) bool {
		a, b := result.Sessions[i], result.Sessions[j]
		if a.DateToken != b.DateToken {
			return a.DateToken < b.DateToken
		}
		return a.TimeToken < b.TimeToken
	})
	return result, nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
