// Package dateutils provides the date handling used throughout the
// application, in particular the normalization of source-file dates into the
// database format.
package dateutils

import (
	"strconv"
	"time"
)

// Common date format constants.
const (
	DateLayoutISO    = "2006-01-02"
	DateLayoutSource = "02.01.2006"
)

// DefaultYearPivot decides the century for two-digit years: values above the
// pivot become 19xx, the rest 20xx. Historical constant, tunable via config.
const DefaultYearPivot = 50

// ToDBDate converts DD.MM.YYYY or DD.MM.YY into YYYY-MM-DD using
// DefaultYearPivot. Any other input shape passes through unmodified; this
// pass-through is deliberate and relied upon by the import pipeline, which
// re-feeds already-normalized dates.
func ToDBDate(dateStr string) string {
	return ToDBDateWithPivot(dateStr, DefaultYearPivot)
}

// ToDBDateWithPivot is ToDBDate with an explicit two-digit-year pivot.
func ToDBDateWithPivot(dateStr string, pivot int) string {
	if len(dateStr) == 10 && dateStr[2] == '.' && dateStr[5] == '.' { // DD.MM.YYYY
		return dateStr[6:10] + "-" + dateStr[3:5] + "-" + dateStr[0:2]
	}
	if len(dateStr) == 8 && dateStr[2] == '.' && dateStr[5] == '.' { // DD.MM.YY
		yearShort := dateStr[6:8]
		yearInt, err := strconv.Atoi(yearShort)
		if err != nil {
			return dateStr
		}
		fullYear := "20" + yearShort
		if yearInt > pivot {
			fullYear = "19" + yearShort
		}
		return fullYear + "-" + dateStr[3:5] + "-" + dateStr[0:2]
	}
	return dateStr
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// ToSourceFormat formats a time.Time as DD.MM.YYYY, the format used in the
// bank export files.
func ToSourceFormat(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutSource)
}
