package analytics

// Report is every section of the analytics page for one filter.
type Report struct {
	Campaigns  []string       `json:"campaigns"`
	Filter     Filter         `json:"filter"`
	Totals     Summary        `json:"totals"`
	ByCampaign []AggregateRow `json:"by_campaign"`
	ByDay      []AggregateRow `json:"by_day"`
	ByGender   []AggregateRow `json:"by_gender"`
	BySegment  []AggregateRow `json:"by_segment"`
}

// BuildReport filters rows with f and aggregates the result. Campaigns
// lists every campaign present before filtering.
func BuildReport(rows []Row, f Filter) Report {
	sel := f.Apply(rows)

	// attributes are known, so the errors are unreachable
	byGender, _ := ByAttribute(sel, AttrGender)
	bySegment, _ := ByAttribute(sel, AttrSegment)

	return Report{
		Campaigns:  CampaignNames(rows),
		Filter:     f,
		Totals:     Totals(sel),
		ByCampaign: ByCampaign(sel),
		ByDay:      ByDay(sel),
		ByGender:   byGender,
		BySegment:  bySegment,
	}
}

func (r Report) Empty() bool { return r.Totals.Sent == 0 }
