package aggregate

import "strings"

// Query is the parsed form of the analyze argument list.
type Query struct {
	StartYear int
	// EndYear is 0 when the range is open-ended; the scan then resolves it
	// to the latest year observed in the data.
	EndYear int
	// Product is a case-insensitive substring filter on suspect product
	// names; empty means no product filter.
	Product string
}

// ParseQuery interprets a free-token argument list: tokens of exactly four
// digits are years (at most two are kept), everything else joins into the
// product filter. Zero years start the range at defaultStart, one year starts
// it there, two years form an inclusive range regardless of argument order.
func ParseQuery(args []string, defaultStart int) Query {
	var years []int
	var words []string
	for _, t := range args {
		if y, ok := fourDigitYear(strings.TrimSpace(t)); ok {
			years = append(years, y)
		} else {
			words = append(words, t)
		}
	}
	if len(years) > 2 {
		years = years[:2]
	}

	q := Query{Product: strings.TrimSpace(strings.Join(words, " "))}
	switch len(years) {
	case 0:
		q.StartYear = defaultStart
	case 1:
		q.StartYear = years[0]
	default:
		q.StartYear, q.EndYear = years[0], years[1]
		if q.StartYear > q.EndYear {
			q.StartYear, q.EndYear = q.EndYear, q.StartYear
		}
	}
	return q
}

func fourDigitYear(t string) (int, bool) {
	if len(t) != 4 {
		return 0, false
	}
	y := 0
	for i := 0; i < 4; i++ {
		if t[i] < '0' || t[i] > '9' {
			return 0, false
		}
		y = y*10 + int(t[i]-'0')
	}
	return y, true
}
