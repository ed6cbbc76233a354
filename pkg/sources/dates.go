package sources

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout selects how a normalized date string is assembled.
type DateLayout int

const (
	// DayMonthYear renders DD-MM-YYYY.
	DayMonthYear DateLayout = iota
	// YearMonthDay renders YYYY-MM-DD.
	YearMonthDay
)

// RussianMonths maps genitive Russian month names to their ordinals.
var RussianMonths = map[string]string{
	"января":   "01",
	"февраля":  "02",
	"марта":    "03",
	"апреля":   "04",
	"мая":      "05",
	"июня":     "06",
	"июля":     "07",
	"августа":  "08",
	"сентября": "09",
	"октября":  "10",
	"ноября":   "11",
	"декабря":  "12",
}

var (
	dateExpr = regexp.MustCompile(`(\d{1,2})\s+(\p{L}+),?\s+(\d{4})`)
	timeExpr = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

// ParseDate normalizes a free-text date such as "5 апреля, 2025" using the
// month table. It reports false when the text does not match or the month
// name is unknown.
func ParseDate(text string, months map[string]string, layout DateLayout) (string, bool) {
	m := dateExpr.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return "", false
	}
	month, ok := months[strings.ToLower(m[2])]
	if !ok {
		return "", false
	}
	year := m[3]

	if layout == YearMonthDay {
		return fmt.Sprintf("%s-%s-%02d", year, month, day), true
	}
	return fmt.Sprintf("%02d-%s-%s", day, month, year), true
}

// ParseTimestamp combines a normalized DD-MM-YYYY or YYYY-MM-DD date with an
// optional HH:MM found in clock, interpreted in loc.
func ParseTimestamp(date string, layout DateLayout, clock string, loc *time.Location) (time.Time, bool) {
	goLayout := "02-01-2006"
	if layout == YearMonthDay {
		goLayout = "2006-01-02"
	}
	if loc == nil {
		loc = time.UTC
	}

	value := date
	if m := timeExpr.FindStringSubmatch(clock); m != nil {
		if hour, err := strconv.Atoi(m[1]); err == nil {
			goLayout += " 15:04"
			value = fmt.Sprintf("%s %02d:%s", date, hour, m[2])
		}
	}

	t, err := time.ParseInLocation(goLayout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
