package patterns

import (
	"strings"

	"avolkov/finaudit/internal/dateutils"
	"avolkov/finaudit/internal/logging"
	"avolkov/finaudit/internal/models"
	"avolkov/finaudit/internal/parsererror"

	"github.com/shopspring/decimal"
)

// InlineMarker introduces the multi-code annotation inside a description:
// everything after it is scanned for CODE=AMOUNT tokens.
const InlineMarker = "; в т.ч."

// inlinePairPattern matches one КNNN=AMOUNT token of the inline annotation.
// Fixed by the annotation format itself, unlike the user-editable patterns.
const inlinePairPattern = `К(\d{3})=([\d.,]+)`

// Reference is an extracted contract or invoice reference with the date
// already normalized to YYYY-MM-DD.
type Reference struct {
	Number string
	Date   string
}

// Apportionment assigns a sub-amount to a budget code. An empty Code means
// "no classification".
type Apportionment struct {
	Code   string
	Amount decimal.Decimal
}

// Batch is the apportionment outcome for one payment description. Inline
// batches come from the multi-code annotation and are subject to the
// sum-vs-total validation; Sum is forced past the total when any member
// failed to parse, so a batch with an unparsed member is never applied.
type Batch struct {
	Pairs  []Apportionment
	Inline bool
	Sum    decimal.Decimal
}

// Extractor applies one set of configured patterns to payment descriptions.
type Extractor struct {
	contractPattern   string
	invoicePattern    string
	budgetCodePattern string
	subAmountPattern  string
	yearPivot         int
	logger            logging.Logger
}

// PatternSet names the configured pattern texts an Extractor runs with.
type PatternSet struct {
	Contract         string
	Invoice          string
	BudgetCode       string
	SubaccountAmount string
}

// DefaultSet returns the seeded pattern texts.
func DefaultSet() PatternSet {
	set := PatternSet{}
	for _, p := range Defaults {
		switch p.Name {
		case NameContract:
			set.Contract = p.Pattern
		case NameInvoice:
			set.Invoice = p.Pattern
		case NameBudgetCode:
			set.BudgetCode = p.Pattern
		case NameSubaccountAmount:
			set.SubaccountAmount = p.Pattern
		}
	}
	return set
}

// NewExtractor creates an Extractor for the given pattern set. A nil logger
// gets a default one.
func NewExtractor(set PatternSet, yearPivot int, logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if yearPivot <= 0 {
		yearPivot = dateutils.DefaultYearPivot
	}
	return &Extractor{
		contractPattern:   set.Contract,
		invoicePattern:    set.Invoice,
		budgetCodePattern: set.BudgetCode,
		subAmountPattern:  set.SubaccountAmount,
		yearPivot:         yearPivot,
		logger:            logger,
	}
}

// Contract extracts at most one contract reference from a description. The
// pattern must produce two capture groups: number and date in source format.
func (e *Extractor) Contract(description string) (Reference, bool) {
	return e.reference(description, e.contractPattern)
}

// Invoice extracts at most one invoice reference from a description.
func (e *Extractor) Invoice(description string) (Reference, bool) {
	return e.reference(description, e.invoicePattern)
}

func (e *Extractor) reference(description, pattern string) (Reference, bool) {
	groups := Match(description, pattern)
	if len(groups) < 2 {
		return Reference{}, false
	}
	return Reference{
		Number: groups[0],
		Date:   dateutils.ToDBDateWithPivot(groups[1], e.yearPivot),
	}, true
}

// Apportion decides how the payment total splits across budget codes, based
// on the description text. The result always contains at least one pair:
// absence of any classification yields a single (no code, full amount) pair.
func (e *Extractor) Apportion(description string, total decimal.Decimal) Batch {
	if idx := strings.Index(description, InlineMarker); idx >= 0 {
		tail := description[idx+len(InlineMarker):]
		if batch, ok := e.inlineBatch(tail, total); ok {
			return batch
		}
	}
	return e.implicitBatch(description, total)
}

// inlineBatch parses the multi-code annotation. ok is false when the marker
// was present but no token matched, in which case the caller falls through
// to the implicit handling.
func (e *Extractor) inlineBatch(tail string, total decimal.Decimal) (Batch, bool) {
	tokens := MatchAll(tail, inlinePairPattern)
	if len(tokens) == 0 {
		return Batch{}, false
	}

	batch := Batch{Inline: true}
	for _, token := range tokens {
		amount, err := decimal.NewFromString(strings.ReplaceAll(token[1], ",", "."))
		if err != nil {
			// One unparsable member poisons the whole batch: force the sum
			// past the total so validation rejects it deterministically.
			e.logger.WithError(&parsererror.DataExtractionError{
				FieldName: "sub-amount",
				Text:      token[1],
				Reason:    err.Error(),
			}).Warn("Unparsable inline sub-amount, rejecting batch")
			batch.Sum = total.Add(decimal.NewFromInt(1))
			return batch, true
		}
		batch.Pairs = append(batch.Pairs, Apportionment{Code: token[0], Amount: amount})
		batch.Sum = batch.Sum.Add(amount)
	}
	return batch, true
}

// implicitBatch handles descriptions without a usable inline annotation:
// codes referenced in passing, with an optional labeled subaccount amount
// when exactly one distinct code is present.
func (e *Extractor) implicitBatch(description string, total decimal.Decimal) Batch {
	codes := e.distinctCodes(description)
	if len(codes) == 0 {
		return Batch{
			Pairs: []Apportionment{{Amount: total}},
			Sum:   total,
		}
	}

	if len(codes) == 1 {
		amount := total
		if sub, ok := e.subaccountAmount(description); ok {
			amount = sub
		}
		return Batch{
			Pairs: []Apportionment{{Code: codes[0], Amount: amount}},
			Sum:   amount,
		}
	}

	// Several distinct codes but no per-code amounts: keep every reference,
	// put the full amount on the first so detail sums stay within the total.
	e.logger.WithField("codes", codes).Warn("Multiple budget codes without amounts, apportioning to first")
	batch := Batch{Sum: total}
	for i, code := range codes {
		amount := decimal.Zero
		if i == 0 {
			amount = total
		}
		batch.Pairs = append(batch.Pairs, Apportionment{Code: code, Amount: amount})
	}
	return batch
}

// distinctCodes returns the budget codes referenced in the description, in
// first-occurrence order.
func (e *Extractor) distinctCodes(description string) []string {
	var codes []string
	seen := map[string]bool{}
	for _, groups := range MatchAll(description, e.budgetCodePattern) {
		if len(groups) == 0 {
			continue
		}
		code := groups[0]
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// subaccountAmount extracts the labeled subaccount amount. The amount is the
// last capture group; an unparsable value counts as zero per the documented
// parse-level error policy.
func (e *Extractor) subaccountAmount(description string) (decimal.Decimal, bool) {
	groups := Match(description, e.subAmountPattern)
	if len(groups) == 0 {
		return decimal.Zero, false
	}
	raw := groups[len(groups)-1]
	return models.ParseAmount(raw), true
}
