// Package soql builds Socrata query parameters ($where, $order, $limit)
// without interpolating caller input verbatim. String literals are quoted
// with doubled single quotes; control characters, backslashes and LIKE
// wildcards inside literals are rejected.
package soql

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnsafeValue is returned when a literal or column name cannot be
// represented safely.
var ErrUnsafeValue = errors.New("unsafe query value")

var columnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Query accumulates AND-ed conditions. The first invalid input poisons the
// query and is reported by Params or Values.
type Query struct {
	conds []string
	order string
	limit int
	err   error
}

// New starts an empty query.
func New() *Query { return &Query{} }

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

func (q *Query) add(cond string) *Query {
	q.conds = append(q.conds, cond)
	return q
}

// Eq adds col = 'val'.
func (q *Query) Eq(col, val string) *Query {
	lit, err := literal(col, val, false)
	if err != nil {
		return q.fail(err)
	}
	return q.add(col + " = " + lit)
}

// UpperEq adds a case-insensitive equality: UPPER(col) = 'VAL'.
func (q *Query) UpperEq(col, val string) *Query {
	lit, err := literal(col, strings.ToUpper(val), false)
	if err != nil {
		return q.fail(err)
	}
	return q.add("UPPER(" + col + ") = " + lit)
}

// Prefix adds a case-insensitive prefix match: UPPER(col) LIKE 'VAL%'.
func (q *Query) Prefix(col, val string) *Query {
	lit, err := likeLiteral(col, "", strings.ToUpper(val), "%")
	if err != nil {
		return q.fail(err)
	}
	return q.add("UPPER(" + col + ") LIKE " + lit)
}

// Contains adds a case-insensitive substring match: UPPER(col) LIKE '%VAL%'.
func (q *Query) Contains(col, val string) *Query {
	lit, err := likeLiteral(col, "%", strings.ToUpper(val), "%")
	if err != nil {
		return q.fail(err)
	}
	return q.add("UPPER(" + col + ") LIKE " + lit)
}

// OrderDesc sorts by col, newest or largest first.
func (q *Query) OrderDesc(col string) *Query {
	if !columnPattern.MatchString(col) {
		return q.fail(fmt.Errorf("%w: column %q", ErrUnsafeValue, col))
	}
	q.order = col + " DESC"
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	if n <= 0 {
		return q.fail(fmt.Errorf("%w: limit %d", ErrUnsafeValue, n))
	}
	q.limit = n
	return q
}

// Err reports the first invalid input, if any.
func (q *Query) Err() error { return q.err }

// Where renders the AND-ed condition list.
func (q *Query) Where() string {
	return strings.Join(q.conds, " AND ")
}

// Params returns the query as Socrata parameter names to values. It is also
// what debug traces show.
func (q *Query) Params() (map[string]string, error) {
	if q.err != nil {
		return nil, q.err
	}
	p := make(map[string]string, 3)
	if len(q.conds) > 0 {
		p["$where"] = q.Where()
	}
	if q.order != "" {
		p["$order"] = q.order
	}
	if q.limit > 0 {
		p["$limit"] = strconv.Itoa(q.limit)
	}
	return p, nil
}

// Values encodes Params for a request URL.
func (q *Query) Values() (url.Values, error) {
	p, err := q.Params()
	if err != nil {
		return nil, err
	}
	v := make(url.Values, len(p))
	for k, s := range p {
		v.Set(k, s)
	}
	return v, nil
}

func (q *Query) String() string {
	if q.err != nil {
		return "invalid query: " + q.err.Error()
	}
	v, _ := q.Values()
	return v.Encode()
}

// PrefixPattern quotes val as a LIKE prefix pattern, 'VAL%', for where
// clauses built outside a Query such as the ArcGIS geocoder's.
func PrefixPattern(val string) (string, error) {
	return likeLiteral("value", "", val, "%")
}

func literal(col, val string, like bool) (string, error) {
	if !columnPattern.MatchString(col) {
		return "", fmt.Errorf("%w: column %q", ErrUnsafeValue, col)
	}
	if err := checkValue(val, like); err != nil {
		return "", err
	}
	return "'" + strings.ReplaceAll(val, "'", "''") + "'", nil
}

func likeLiteral(col, before, val, after string) (string, error) {
	if strings.TrimSpace(val) == "" {
		return "", fmt.Errorf("%w: empty pattern", ErrUnsafeValue)
	}
	lit, err := literal(col, val, true)
	if err != nil {
		return "", err
	}
	return "'" + before + lit[1:len(lit)-1] + after + "'", nil
}

func checkValue(val string, like bool) error {
	for _, r := range val {
		switch {
		case unicode.IsControl(r):
			return fmt.Errorf("%w: control character %U", ErrUnsafeValue, r)
		case r == '\\':
			return fmt.Errorf("%w: backslash", ErrUnsafeValue)
		case like && (r == '%' || r == '_'):
			return fmt.Errorf("%w: wildcard %q in pattern", ErrUnsafeValue, r)
		}
	}
	return nil
}
