package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/metrics"
)

type candidatesResp struct {
	InactiveDays int                              `json:"inactive_days"`
	Cutoff       time.Time                        `json:"cutoff"`
	Candidates   []campaign.ReactivationCandidate `json:"candidates"`
}

func (h *Handlers) inactiveDays(c *gin.Context) (int, error) {
	raw, ok := c.GetQuery("inactive_days")
	if !ok {
		return h.ReactivationDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: inactive_days %q is not an integer", campaign.ErrInvalidParameter, raw)
	}
	return n, nil
}

func (h *Handlers) ReactivationCandidates(c *gin.Context) {
	days, err := h.inactiveDays(c)
	if err != nil {
		respondError(c, "reactivation_params_error", err)
		return
	}
	cutoff, err := h.Selector.Cutoff(days)
	if err != nil {
		respondError(c, "reactivation_params_error", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	history, err := h.Store.ReactivationHistory(ctx)
	if err != nil {
		respondError(c, "reactivation_history_error", err)
		return
	}
	cands, err := h.Selector.Select(history, days)
	if err != nil {
		respondError(c, "reactivation_select_error", err)
		return
	}
	metrics.ReactivationCandidates.Set(float64(len(cands)))

	c.JSON(http.StatusOK, candidatesResp{InactiveDays: days, Cutoff: cutoff, Candidates: cands})
}

// Audience returns the default recipients for a template: reactivation
// candidates for win-back templates, nobody otherwise.
func (h *Handlers) Audience(c *gin.Context) {
	templateID, err := strconv.ParseInt(c.Query("template_id"), 10, 64)
	if err != nil || templateID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template_id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tpl, err := h.Store.GetTemplate(ctx, templateID)
	if err != nil {
		respondError(c, "get_template_error", err)
		return
	}

	resp := campaign.AudienceResp{TemplateID: tpl.ID, ClientIDs: []int64{}}
	if !campaign.IsWinback(tpl.Type) {
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Winback = true

	history, err := h.Store.ReactivationHistory(ctx)
	if err != nil {
		respondError(c, "reactivation_history_error", err)
		return
	}
	ids, err := h.Selector.SelectIDs(history, h.ReactivationDays)
	if err != nil {
		respondError(c, "reactivation_select_error", err)
		return
	}
	clients, err := h.Store.ListClients(ctx)
	if err != nil {
		respondError(c, "list_clients_error", err)
		return
	}
	for _, cl := range clients {
		if _, ok := ids[cl.ID]; ok {
			resp.ClientIDs = append(resp.ClientIDs, cl.ID)
		}
	}
	metrics.ReactivationCandidates.Set(float64(len(ids)))

	if len(resp.ClientIDs) > 0 {
		resp.Message = fmt.Sprintf("found %d clients to reactivate (no activity for %d+ days); they are preselected and can be changed",
			len(resp.ClientIDs), h.ReactivationDays)
	} else {
		resp.Message = "no clients match the reactivation rule yet; pick recipients manually"
	}
	c.JSON(http.StatusOK, resp)
}
