package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToDBDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Four-digit year", "01.03.2024", "2024-03-01"},
		{"Four-digit year end of month", "31.12.1999", "1999-12-31"},
		{"Two-digit year below pivot", "15.06.49", "2049-06-15"},
		{"Two-digit year above pivot", "15.06.51", "1951-06-15"},
		{"Two-digit year at pivot", "15.06.50", "2050-06-15"},
		{"Already ISO passes through", "2024-03-01", "2024-03-01"},
		{"Empty passes through", "", ""},
		{"Garbage passes through", "не дата", "не дата"},
		{"Wrong separators pass through", "01/03/2024", "01/03/2024"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ToDBDate(tc.input))
		})
	}
}

func TestToDBDateWithPivot(t *testing.T) {
	// A pivot of 30 shifts the century boundary accordingly.
	assert.Equal(t, "2030-01-01", ToDBDateWithPivot("01.01.30", 30))
	assert.Equal(t, "1931-01-01", ToDBDateWithPivot("01.01.31", 30))
}

func TestToISODate(t *testing.T) {
	d := time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01", ToISODate(d))
}

func TestToSourceFormat(t *testing.T) {
	d := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "01.03.2024", ToSourceFormat(d))
	assert.Equal(t, "", ToSourceFormat(time.Time{}))
}
