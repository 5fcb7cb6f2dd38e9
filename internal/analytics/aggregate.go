package analytics

import (
	"fmt"
	"sort"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
)

// Summary holds send counts with their derived rates. Opened counts opened
// or clicked sends.
type Summary struct {
	Sent      int     `json:"sent"`
	Opened    int     `json:"opened"`
	Clicked   int     `json:"clicked"`
	OpenRate  float64 `json:"open_rate"`
	ClickRate float64 `json:"click_rate"`
}

type AggregateRow struct {
	Key string `json:"key"`
	Summary
}

type Attribute string

const (
	AttrGender  Attribute = "gender"
	AttrSegment Attribute = "segment"
)

func ParseAttribute(s string) (Attribute, error) {
	switch a := Attribute(s); a {
	case AttrGender, AttrSegment:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown attribute %q", campaign.ErrInvalidParameter, s)
}

type tally struct {
	sent, opened, clicked int
}

func (t *tally) add(r Row) {
	t.sent++
	if r.IsOpened {
		t.opened++
	}
	if r.IsClicked {
		t.clicked++
	}
}

func (t tally) summary() Summary {
	return Summary{
		Sent:      t.sent,
		Opened:    t.opened,
		Clicked:   t.clicked,
		OpenRate:  rate(t.opened, t.sent),
		ClickRate: rate(t.clicked, t.sent),
	}
}

func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func Totals(rows []Row) Summary {
	var t tally
	for _, r := range rows {
		t.add(r)
	}
	return t.summary()
}

// groupBy tallies rows per key, skipping rows for which key reports false.
// The result is ordered by key.
func groupBy(rows []Row, key func(Row) (string, bool)) []AggregateRow {
	groups := make(map[string]*tally)
	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		t, seen := groups[k]
		if !seen {
			t = &tally{}
			groups[k] = t
		}
		t.add(r)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]AggregateRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, AggregateRow{Key: k, Summary: groups[k].summary()})
	}
	return out
}

// ByCampaign groups by campaign name, largest campaigns first.
func ByCampaign(rows []Row) []AggregateRow {
	out := groupBy(rows, func(r Row) (string, bool) { return r.Campaign, true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sent > out[j].Sent })
	return out
}

// ByDay groups by send date in ascending order. Days without sends are
// not filled in.
func ByDay(rows []Row) []AggregateRow {
	return groupBy(rows, func(r Row) (string, bool) { return r.SentDate.String(), true })
}

// ByAttribute groups by a recipient attribute. Rows where the attribute is
// absent are left out.
func ByAttribute(rows []Row, attr Attribute) ([]AggregateRow, error) {
	var pick func(Row) *string
	switch attr {
	case AttrGender:
		pick = func(r Row) *string { return r.Gender }
	case AttrSegment:
		pick = func(r Row) *string { return r.Segment }
	default:
		return nil, fmt.Errorf("%w: unknown attribute %q", campaign.ErrInvalidParameter, attr)
	}
	return groupBy(rows, func(r Row) (string, bool) {
		v := pick(r)
		if v == nil {
			return "", false
		}
		return *v, true
	}), nil
}
