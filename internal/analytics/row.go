// Package analytics turns recipient-level send rows into campaign,
// daily and cohort engagement metrics.
package analytics

import (
	"fmt"
	"time"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
)

// Event is one send joined with its campaign and recipient attributes.
type Event struct {
	ID           int64
	CampaignName string
	SentAt       time.Time
	Status       string
	Gender       *string
	Segment      *string
}

// Row is an Event with its derived engagement flags and calendar date.
type Row struct {
	ID        int64
	Campaign  string
	SentAt    time.Time
	SentDate  Date
	Status    campaign.SendStatus
	IsOpened  bool
	IsClicked bool
	Gender    *string
	Segment   *string
}

// Prepare normalizes events for aggregation. Dates are taken in loc, which
// must be the zone reports are read in; nil means UTC.
func Prepare(events []Event, loc *time.Location) []Row {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]Row, 0, len(events))
	for _, e := range events {
		st := campaign.NormalizeStatus(e.Status)
		rows = append(rows, Row{
			ID:        e.ID,
			Campaign:  e.CampaignName,
			SentAt:    e.SentAt,
			SentDate:  DateOf(e.SentAt, loc),
			Status:    st,
			IsOpened:  st == campaign.StatusOpened || st == campaign.StatusClicked,
			IsClicked: st == campaign.StatusClicked,
			Gender:    e.Gender,
			Segment:   e.Segment,
		})
	}
	return rows
}

// Date is a calendar day without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q: %v", campaign.ErrInvalidParameter, s, err)
	}
	return DateOf(t, time.UTC), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool { return o.Before(d) }

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
