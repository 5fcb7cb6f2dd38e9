package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return Prepare([]Event{
		ev(1, "Spring", "OPENED", 0),
		ev(2, "Spring", "CLICKED", 1),
		ev(3, "Autumn", "SENT", 1),
		ev(4, "Autumn", "OPENED", 3),
		{ID: 5, CampaignName: "Winback", SentAt: base.AddDate(0, 0, 2), Status: "CLICKED", Gender: strp("f"), Segment: strp("lapsed")},
	}, time.UTC)
}

func date(t *testing.T, s string) *Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return &d
}

func TestFilter_EmptyCampaignsSelectsNothing(t *testing.T) {
	assert.Empty(t, Filter{}.Apply(sampleRows()))
}

func TestFilter_CampaignsAndDates(t *testing.T) {
	rows := sampleRows()

	got := Filter{Campaigns: []string{"Spring", "Autumn"}}.Apply(rows)
	assert.Len(t, got, 4)

	got = Filter{
		Campaigns: []string{"Spring", "Autumn", "Winback"},
		From:      date(t, "2025-10-03"),
		To:        date(t, "2025-10-04"),
	}.Apply(rows)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 3, 5}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestFilter_DoesNotMutate(t *testing.T) {
	rows := sampleRows()
	before := append([]Row(nil), rows...)
	Filter{Campaigns: []string{"Spring"}}.Apply(rows)
	assert.Equal(t, before, rows)
}

func TestDefaultFilter(t *testing.T) {
	rows := sampleRows()
	f := DefaultFilter(rows)

	assert.Equal(t, []string{"Autumn", "Spring", "Winback"}, f.Campaigns)
	assert.Equal(t, "2025-10-02", f.From.String())
	assert.Equal(t, "2025-10-05", f.To.String())
	assert.Len(t, f.Apply(rows), len(rows))

	empty := DefaultFilter(nil)
	assert.Empty(t, empty.Campaigns)
	assert.Nil(t, empty.From)
}

func TestBuildReport(t *testing.T) {
	rows := sampleRows()
	r := BuildReport(rows, Filter{Campaigns: []string{"Spring", "Winback"}})

	assert.Equal(t, []string{"Autumn", "Spring", "Winback"}, r.Campaigns)
	assert.Equal(t, Summary{Sent: 3, Opened: 3, Clicked: 2, OpenRate: 1, ClickRate: 2.0 / 3}, r.Totals)
	require.Len(t, r.ByCampaign, 2)
	assert.Equal(t, "Spring", r.ByCampaign[0].Key)
	assert.Len(t, r.ByDay, 3)
	require.Len(t, r.ByGender, 1)
	assert.Equal(t, "f", r.ByGender[0].Key)
	require.Len(t, r.BySegment, 1)
	assert.False(t, r.Empty())

	empty := BuildReport(rows, Filter{})
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.ByCampaign)
}

func TestDate_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{D: Date{Year: 2025, Month: time.March, Day: 7}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-03-07"}`, string(b))

	var out struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-02-29"}`), &out))
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, out.D)

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}
