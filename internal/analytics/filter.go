package analytics

import "sort"

// Filter selects rows before aggregation. An empty Campaigns list selects
// nothing; use CampaignNames for "all campaigns". From and To bound the
// send date inclusively and are ignored when nil.
type Filter struct {
	Campaigns []string `json:"campaigns"`
	From      *Date    `json:"from,omitempty"`
	To        *Date    `json:"to,omitempty"`
}

// Apply returns the matching rows in their original order.
func (f Filter) Apply(rows []Row) []Row {
	allowed := make(map[string]struct{}, len(f.Campaigns))
	for _, c := range f.Campaigns {
		allowed[c] = struct{}{}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if _, ok := allowed[r.Campaign]; !ok {
			continue
		}
		if f.From != nil && r.SentDate.Before(*f.From) {
			continue
		}
		if f.To != nil && r.SentDate.After(*f.To) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CampaignNames lists the distinct campaign names in rows, sorted.
func CampaignNames(rows []Row) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, r := range rows {
		if _, ok := seen[r.Campaign]; ok {
			continue
		}
		seen[r.Campaign] = struct{}{}
		names = append(names, r.Campaign)
	}
	sort.Strings(names)
	return names
}

// DateBounds returns the earliest and latest send dates in rows.
// ok is false for no rows.
func DateBounds(rows []Row) (from, to Date, ok bool) {
	for i, r := range rows {
		if i == 0 || r.SentDate.Before(from) {
			from = r.SentDate
		}
		if i == 0 || r.SentDate.After(to) {
			to = r.SentDate
		}
	}
	return from, to, len(rows) > 0
}

// DefaultFilter selects every observed campaign over the observed dates.
func DefaultFilter(rows []Row) Filter {
	f := Filter{Campaigns: CampaignNames(rows)}
	if from, to, ok := DateBounds(rows); ok {
		f.From, f.To = &from, &to
	}
	return f
}
