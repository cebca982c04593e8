// Package query composes the read-side predicates for clients and policies.
// The same predicates back the SQL repositories (Where) and the in-memory
// ones (Match), so both agree on filtering and ordering.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/and161185/policy-keeper/internal/model"
)

// Clients filters the client list by a free-text search term.
type Clients struct {
	Search string
}

// Term returns the trimmed, lower-cased search term ("" means no filter).
func (q Clients) Term() string { return strings.ToLower(strings.TrimSpace(q.Search)) }

// Match reports whether c contains the term in its identification number,
// full name or email (case-insensitive substring, OR semantics).
func (q Clients) Match(c model.Client) bool {
	t := q.Term()
	if t == "" {
		return true
	}
	return strings.Contains(c.IdentificationNumber, t) ||
		strings.Contains(strings.ToLower(c.FullName), t) ||
		strings.Contains(strings.ToLower(c.Email), t)
}

// Where renders the SQL predicate; arguments are numbered from $1.
func (q Clients) Where() (string, []any) {
	t := q.Term()
	if t == "" {
		return "", nil
	}
	return "WHERE strpos(identification_number, $1) > 0" +
		" OR strpos(lower(full_name), $1) > 0" +
		" OR strpos(lower(email), $1) > 0", []any{t}
}

// ClientOrder is the SQL rendering of SortClients. und-x-icu is the ICU root
// collation, the same CLDR root table collate.New(language.Und) uses.
const ClientOrder = `ORDER BY lower(full_name) COLLATE "und-x-icu" ASC, id ASC`

// SortClients orders by lower-cased full name under the root collation
// (accented letters sort next to their base letter), then by id.
func SortClients(cs []model.Client) {
	col := collate.New(language.Und)
	sort.SliceStable(cs, func(i, j int) bool {
		if d := col.CompareString(strings.ToLower(cs[i].FullName), strings.ToLower(cs[j].FullName)); d != 0 {
			return d < 0
		}
		return cs[i].ID < cs[j].ID
	})
}

// Policies is the AND-combined filter over policies. Nil fields are ignored;
// range bounds are inclusive.
type Policies struct {
	ClientID      *int64
	Type          *model.PolicyType
	Status        *model.PolicyStatus
	StartDateFrom *time.Time
	StartDateTo   *time.Time
	EndDateFrom   *time.Time
	EndDateTo     *time.Time
}

// Match reports whether p satisfies every supplied predicate.
func (q Policies) Match(p model.Policy) bool {
	if q.ClientID != nil && p.ClientID != *q.ClientID {
		return false
	}
	if q.Type != nil && p.Type != *q.Type {
		return false
	}
	if q.Status != nil && p.Status != *q.Status {
		return false
	}
	if q.StartDateFrom != nil && p.StartDate.Before(*q.StartDateFrom) {
		return false
	}
	if q.StartDateTo != nil && p.StartDate.After(*q.StartDateTo) {
		return false
	}
	if q.EndDateFrom != nil && p.EndDate.Before(*q.EndDateFrom) {
		return false
	}
	if q.EndDateTo != nil && p.EndDate.After(*q.EndDateTo) {
		return false
	}
	return true
}

// Where renders the SQL predicate; arguments are numbered from $1.
func (q Policies) Where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if q.ClientID != nil {
		add("client_id = $%d", *q.ClientID)
	}
	if q.Type != nil {
		add("type = $%d", string(*q.Type))
	}
	if q.Status != nil {
		add("status = $%d", string(*q.Status))
	}
	if q.StartDateFrom != nil {
		add("start_date >= $%d", *q.StartDateFrom)
	}
	if q.StartDateTo != nil {
		add("start_date <= $%d", *q.StartDateTo)
	}
	if q.EndDateFrom != nil {
		add("end_date >= $%d", *q.EndDateFrom)
	}
	if q.EndDateTo != nil {
		add("end_date <= $%d", *q.EndDateTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// SortPolicies orders by start date ascending; ties keep insertion (id) order.
func SortPolicies(ps []model.Policy) {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].StartDate.Equal(ps[j].StartDate) {
			return ps[i].StartDate.Before(ps[j].StartDate)
		}
		return ps[i].ID < ps[j].ID
	})
}
