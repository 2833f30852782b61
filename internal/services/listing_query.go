package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/isdelr/travel-listings-be/internal/database"
	"github.com/shopspring/decimal"
)

// Ordering is one sort key of a listing query.
type Ordering struct {
	Field string
	Desc  bool
}

// orderingColumns maps the public ordering names to SQL columns.
var orderingColumns = map[string]string{
	"price_per_night": "l.price_cents",
	"created_at":      "l.created_at",
}

// DefaultOrdering is newest first.
var DefaultOrdering = []Ordering{{Field: "created_at", Desc: true}}

// ListingQuery narrows, orders and pages the listing set. Nil filters and an
// empty Search impose no constraint.
type ListingQuery struct {
	Location      *string
	Availability  *bool
	PricePerNight *decimal.Decimal
	Search        []string
	Ordering      []Ordering
	Limit         int
	Offset        int
}

// ParseListingQuery reads filter, search and ordering parameters. Paging is
// left to the caller. Malformed filter values produce a *ValidationError.
func ParseListingQuery(values url.Values) (ListingQuery, error) {
	var q ListingQuery
	verr := &ValidationError{}

	if v, ok := lookup(values, "location"); ok {
		q.Location = &v
	}
	if v, ok := lookup(values, "availability"); ok {
		b, valid := ParseBool(v)
		if !valid {
			verr.Add("availability", "Select a valid choice. That choice is not one of the available choices.")
		} else {
			q.Availability = &b
		}
	}
	if v, ok := lookup(values, "price_per_night"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			verr.Add("price_per_night", "Enter a number.")
		} else if msg := CheckPrice(d); msg != "" {
			verr.Add("price_per_night", msg)
		} else {
			q.PricePerNight = &d
		}
	}

	q.Search = SearchTerms(values.Get("search"))
	q.Ordering = ParseOrdering(values.Get("ordering"))
	return q, verr.OrNil()
}

// lookup returns the first non-empty value of key.
func lookup(values url.Values, key string) (string, bool) {
	v := values.Get(key)
	return v, v != ""
}

// ParseBool accepts the boolean spellings clients commonly send.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on", "t", "y":
		return true, true
	case "false", "0", "no", "off", "f", "n":
		return false, true
	}
	return false, false
}

// SearchTerms splits a search parameter on whitespace and commas.
func SearchTerms(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ParseOrdering reads a comma-separated ordering parameter. Unknown fields
// are ignored; if nothing valid remains the default ordering applies.
func ParseOrdering(raw string) []Ordering {
	var out []Ordering
	seen := make(map[string]bool)
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		desc := strings.HasPrefix(term, "-")
		field := strings.TrimPrefix(term, "-")
		if _, ok := orderingColumns[field]; !ok || seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, Ordering{Field: field, Desc: desc})
	}
	if len(out) == 0 {
		return DefaultOrdering
	}
	return out
}

// searchClause matches one term against the searchable columns, folding
// both sides the same way.
var searchClause = fmt.Sprintf(
	`(%[1]s(l.title) LIKE ? ESCAPE '\' OR %[1]s(l.description) LIKE ? ESCAPE '\' OR %[1]s(l.location) LIKE ? ESCAPE '\')`,
	database.FoldFunc)

// where renders the WHERE clause (without the keyword) and its arguments.
func (q ListingQuery) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if q.Location != nil {
		clauses = append(clauses, "l.location = ?")
		args = append(args, *q.Location)
	}
	if q.Availability != nil {
		clauses = append(clauses, "l.availability = ?")
		args = append(args, *q.Availability)
	}
	if q.PricePerNight != nil {
		clauses = append(clauses, "l.price_cents = ?")
		args = append(args, PriceToCents(*q.PricePerNight))
	}
	for _, term := range q.Search {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		clauses = append(clauses, searchClause)
		args = append(args, pattern, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(clauses, " AND "), args
}

// orderBy renders the ORDER BY clause (without the keyword). Insertion order
// breaks ties, following the direction of created_at when it is a key.
func (q ListingQuery) orderBy() string {
	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}

	parts := make([]string, 0, len(ordering)+1)
	tiebreak := "l.rowid DESC"
	for _, o := range ordering {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, orderingColumns[o.Field]+" "+dir)
		if o.Field == "created_at" {
			tiebreak = "l.rowid " + dir
		}
	}
	return strings.Join(append(parts, tiebreak), ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Price limits: at most 10 digits, 2 of them after the decimal point.
const (
	priceMaxDigits     = 10
	priceDecimalPlaces = 2
)

// CheckPrice returns a field message when d is not a valid nightly price, or "".
func CheckPrice(d decimal.Decimal) string {
	digits := len(strings.TrimPrefix(d.Coefficient().String(), "-"))
	exp := int(d.Exponent())

	var total, places, whole int
	switch {
	case exp >= 0:
		total, places = digits+exp, 0
	case -exp > digits:
		total, places = -exp, -exp
	default:
		total, places = digits, -exp
	}
	whole = total - places

	switch {
	case total > priceMaxDigits:
		return "Ensure that there are no more than " + strconv.Itoa(priceMaxDigits) + " digits in total."
	case places > priceDecimalPlaces:
		return "Ensure that there are no more than " + strconv.Itoa(priceDecimalPlaces) + " decimal places."
	case whole > priceMaxDigits-priceDecimalPlaces:
		return "Ensure that there are no more than " + strconv.Itoa(priceMaxDigits-priceDecimalPlaces) + " digits before the decimal point."
	case d.IsNegative():
		return "Ensure this value is greater than or equal to 0."
	}
	return ""
}

// PriceToCents converts a validated price to its stored integer form.
func PriceToCents(d decimal.Decimal) int64 {
	return d.Shift(priceDecimalPlaces).Round(0).IntPart()
}

// PriceFromCents converts a stored price back to a decimal with two places.
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -priceDecimalPlaces)
}
