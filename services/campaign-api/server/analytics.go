package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/analytics"
	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/store"
)

func toEvents(rows []store.JoinedRow) []analytics.Event {
	out := make([]analytics.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, analytics.Event{
			ID:           r.ID,
			CampaignName: r.CampaignName,
			SentAt:       r.SentAt,
			Status:       r.Status,
			Gender:       r.Gender,
			Segment:      r.Segment,
		})
	}
	return out
}

// filterFromQuery starts from every observed campaign and date and narrows
// it with the campaign, from and to parameters. A campaign parameter with
// only empty values selects no campaigns.
func filterFromQuery(c *gin.Context, rows []analytics.Row) (analytics.Filter, error) {
	f := analytics.DefaultFilter(rows)

	if values, ok := c.GetQueryArray("campaign"); ok {
		f.Campaigns = make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				f.Campaigns = append(f.Campaigns, v)
			}
		}
	}
	if raw := c.Query("from"); raw != "" {
		d, err := analytics.ParseDate(raw)
		if err != nil {
			return analytics.Filter{}, err
		}
		f.From = &d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := analytics.ParseDate(raw)
		if err != nil {
			return analytics.Filter{}, err
		}
		f.To = &d
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return analytics.Filter{}, fmt.Errorf("%w: from %s is after to %s", campaign.ErrInvalidParameter, f.From, f.To)
	}
	return f, nil
}

func (h *Handlers) loadRows(c *gin.Context) ([]analytics.Row, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	joined, err := h.Store.JoinedEvents(ctx)
	if err != nil {
		respondError(c, "joined_events_error", err)
		return nil, false
	}
	return analytics.Prepare(toEvents(joined), h.Loc), true
}

func (h *Handlers) Analytics(c *gin.Context) {
	rows, ok := h.loadRows(c)
	if !ok {
		return
	}
	f, err := filterFromQuery(c, rows)
	if err != nil {
		respondError(c, "analytics_params_error", err)
		return
	}
	c.JSON(http.StatusOK, analytics.BuildReport(rows, f))
}

func (h *Handlers) Cohorts(c *gin.Context) {
	attr, err := analytics.ParseAttribute(c.Param("attribute"))
	if err != nil {
		respondError(c, "analytics_params_error", err)
		return
	}
	rows, ok := h.loadRows(c)
	if !ok {
		return
	}
	f, err := filterFromQuery(c, rows)
	if err != nil {
		respondError(c, "analytics_params_error", err)
		return
	}
	out, err := analytics.ByAttribute(f.Apply(rows), attr)
	if err != nil {
		respondError(c, "analytics_cohorts_error", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
