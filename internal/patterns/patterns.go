// Package patterns implements the configurable text-pattern matching used to
// mine structured references out of free-text payment descriptions.
//
// Patterns are persisted, user-editable entities; nothing here assumes a
// particular pattern string survives across deployments. Compiled forms are
// cached keyed by the pattern text, so the import pipeline and the
// interactive tester share one implementation.
package patterns

import (
	"regexp"
	"sync"

	"avolkov/finaudit/internal/models"
	"avolkov/finaudit/internal/parsererror"
)

// Well-known pattern names the importer selects by. The rows behind them are
// editable; only the names are fixed.
const (
	NameContract         = "contract"
	NameInvoice          = "invoice"
	NameBudgetCode       = "budget_code"
	NameSubaccountAmount = "subaccount_amount"
)

// Defaults are the extraction rules the original application shipped with,
// seeded into the patterns table on database creation.
var Defaults = []models.Pattern{
	{Name: NameContract, Pattern: `(?:по контракту|по контр|Контракт|дог\.|К-т)(?: №)?\s*([^\s,]+)\s*(?:от\s*)?(\d{2}\.\d{2}\.(?:\d{2}|\d{4}))`},
	{Name: NameInvoice, Pattern: `(?:акт|сч\.?|сч-ф|счет на оплату|№)\s*([^\s,]+)\s*от\s*(\d{2}\.\d{2}\.(?:\d{2}|\d{4}))`},
	{Name: NameBudgetCode, Pattern: `К(\d{3})`},
	{Name: NameSubaccountAmount, Pattern: `\((?:\d{3}-\d{4}-\d{10}-\d{3}):\s*([\d=,.]+)\s*ЛС\)`},
}

var (
	cacheMu sync.RWMutex
	cache   = map[string]compiled{}
)

type compiled struct {
	re  *regexp.Regexp
	err error
}

// Compile returns the cached compiled form of a pattern, compiling lazily on
// first use. A malformed pattern is cached too, so repeated use stays cheap.
func Compile(pattern string) (*regexp.Regexp, error) {
	cacheMu.RLock()
	c, ok := cache[pattern]
	cacheMu.RUnlock()
	if !ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			err = &parsererror.PatternError{Pattern: pattern, Err: err}
		}
		c = compiled{re: re, err: err}
		cacheMu.Lock()
		cache[pattern] = c
		cacheMu.Unlock()
	}
	return c.re, c.err
}

// Match is a pure function of (text, pattern): the capture groups of the
// first match, or nil when there is no match or the pattern is malformed.
// It never panics, whatever the user typed into the pattern directory.
func Match(text, pattern string) []string {
	re, err := Compile(pattern)
	if err != nil {
		return nil
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return m[1:]
}

// MatchAll returns the capture groups of every match of the pattern in the
// text, or nil under the same conditions as Match.
func MatchAll(text, pattern string) [][]string {
	re, err := Compile(pattern)
	if err != nil {
		return nil
	}
	ms := re.FindAllStringSubmatch(text, -1)
	if ms == nil {
		return nil
	}
	groups := make([][]string, 0, len(ms))
	for _, m := range ms {
		groups = append(groups, m[1:])
	}
	return groups
}

// Test exercises a pattern against sample text for the interactive tester:
// it returns the first capture group, "No match", or an inline error
// description for a malformed pattern. It never fails the caller.
func Test(text, pattern string) string {
	re, err := Compile(pattern)
	if err != nil {
		return "Pattern error: " + err.Error()
	}
	m := re.FindStringSubmatch(text)
	if len(m) > 1 {
		return m[1]
	}
	return "No match"
}
