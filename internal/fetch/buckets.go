package fetch

import (
	"fmt"
	"time"
)

const ymdLayout = "20060102"

// Bucket is one inclusive date_started range, at most a calendar month wide.
type Bucket struct {
	Start string // YYYYMMDD
	End   string // YYYYMMDD
}

// Buckets splits an inclusive YYYYMMDD range into calendar-month buckets.
// Month-sized queries keep each bucket under the API's pagination ceiling.
func Buckets(start, end string) ([]Bucket, error) {
	cur, err := time.ParseInLocation(ymdLayout, start, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parsing start date %q: %w", start, err)
	}
	last, err := time.ParseInLocation(ymdLayout, end, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parsing end date %q: %w", end, err)
	}
	if last.Before(cur) {
		return nil, fmt.Errorf("end date %s before start date %s", end, start)
	}

	var out []Bucket
	for !cur.After(last) {
		monthEnd := endOfMonth(cur)
		if monthEnd.After(last) {
			monthEnd = last
		}
		out = append(out, Bucket{
			Start: cur.Format(ymdLayout),
			End:   monthEnd.Format(ymdLayout),
		})
		cur = monthEnd.AddDate(0, 0, 1)
	}
	return out, nil
}

func endOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
