package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"optscan/pkg/contracts/domain"
)

// dateSuffixPattern captures the trailing DDMMYY run of an archive or folder
// name, after any dot extension has been stripped.
var dateSuffixPattern = regexp.MustCompile(`(\d{2})(\d{2})(\d{2})$`)

var monthCodes = [...]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// ExtractDateLabel extracts the trading date encoded in an archive or folder
// name ("fo010124.zip" -> "01-JAN-2024") and renders it as DD-MMM-YYYY.
// Two-digit years up to 50 map to 20xx, the rest to 19xx. Returns an empty
// string when the name carries no trailing 6-digit run or the month is not a
// calendar month; rows from such entries get an empty DATE.
func ExtractDateLabel(name string) string {
	base, _, _ := strings.Cut(name, ".")
	m := dateSuffixPattern.FindStringSubmatch(base)
	if m == nil {
		return ""
	}

	day, month, year := m[1], m[2], m[3]

	mm, _ := strconv.Atoi(month)
	if mm < 1 || mm > 12 {
		return ""
	}

	yy, _ := strconv.Atoi(year)
	if yy <= 50 {
		year = "20" + year
	} else {
		year = "19" + year
	}

	return day + "-" + monthCodes[mm-1] + "-" + year
}

// ExtractDate is ExtractDateLabel resolved to a time.Time. The zero time is
// returned when no date can be extracted or the digits do not form a real
// calendar date.
func ExtractDate(name string) time.Time {
	label := ExtractDateLabel(name)
	if label == "" {
		return time.Time{}
	}

	t, err := domain.ParseBhavDate(label)
	if err != nil {
		return time.Time{}
	}
	return t
}
