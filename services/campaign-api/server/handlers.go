package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/outcome"
	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/reactivation"
	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/store"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/logx"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/metrics"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/rmq"
)

type storeAPI interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	ListActiveTemplates(ctx context.Context) ([]campaign.Template, error)
	GetTemplate(ctx context.Context, id int64) (campaign.Template, error)
	ListClients(ctx context.Context) ([]campaign.Client, error)
	ReactivationHistory(ctx context.Context) ([]campaign.ClientHistory, error)
	InsertCampaign(ctx context.Context, tx *sql.Tx, name string, templateID int64, description string, now time.Time) (int64, error)
	InsertSendEvents(ctx context.Context, tx *sql.Tx, events []campaign.SendEvent) (int, error)
	JoinedEvents(ctx context.Context) ([]store.JoinedRow, error)
	GetCampaign(ctx context.Context, id int64) (store.CampaignRow, error)
	GetCampaignStats(ctx context.Context, id int64) (campaign.CampaignStats, error)
	ListCampaigns(ctx context.Context, limit, offset int) ([]store.CampaignRow, []campaign.CampaignStats, error)
}

type publisherAPI interface {
	PublishJSON(ctx context.Context, body []byte) error
}

type Options struct {
	ReportTZ         *time.Location
	ReactivationDays int
	Source           outcome.Source
}

type Handlers struct {
	Store            storeAPI
	Pub              publisherAPI
	Selector         *reactivation.Selector
	Simulator        *outcome.Simulator
	Loc              *time.Location
	ReactivationDays int
	Now              func() time.Time
}

func NewHandlers(s *store.Store, pub *rmq.Publisher, opts Options) *Handlers {
	src := opts.Source
	if src == nil {
		src = outcome.NewSource(uint64(time.Now().UnixNano()))
	}
	loc := opts.ReportTZ
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		Store:            s,
		Pub:              pub,
		Selector:         reactivation.NewSelector(time.Now),
		Simulator:        outcome.NewSimulator(outcome.NewLockedSource(src)),
		Loc:              loc,
		ReactivationDays: opts.ReactivationDays,
		Now:              time.Now,
	}
}

// respondError maps domain errors to status codes; anything unexpected is
// logged under event and reported as 500.
func respondError(c *gin.Context, event string, err error) {
	switch {
	case errors.Is(err, campaign.ErrInvalidParameter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, campaign.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logx.L().Errorw(event, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handlers) ListTemplates(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Store.ListActiveTemplates(ctx)
	if err != nil {
		respondError(c, "list_templates_error", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) ListClients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Store.ListClients(ctx)
	if err != nil {
		respondError(c, "list_clients_error", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) CreateCampaign(c *gin.Context) {
	var req campaign.CreateCampaignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "campaign name is required"})
		return
	}
	clientIDs := uniqueIDs(req.ClientIDs)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Store.GetTemplate(ctx, req.TemplateID); err != nil {
		respondError(c, "get_template_error", err)
		return
	}

	now := h.Now().UTC()
	description := "created from campaign-api, template id=" + strconv.FormatInt(req.TemplateID, 10)

	var (
		campaignID int64
		events     []campaign.SendEvent
		sent       int
	)
	err := h.Store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := h.Store.InsertCampaign(ctx, tx, name, req.TemplateID, description, now)
		if err != nil {
			return err
		}
		campaignID = id

		events = h.Simulator.Deliver(campaignID, clientIDs, now)
		sent, err = h.Store.InsertSendEvents(ctx, tx, events)
		return err
	})
	if err != nil {
		respondError(c, "create_campaign_error", err)
		return
	}

	metrics.CampaignsCreatedTotal.Inc()
	for _, ev := range events {
		metrics.SimulatedSendsTotal.WithLabelValues(string(ev.Status)).Inc()
	}
	logx.L().Infow("campaign_created", "campaign_id", campaignID, "template_id", req.TemplateID, "sent", sent)

	published := h.publishEvents(name, events)

	c.JSON(http.StatusOK, campaign.CreateCampaignResp{
		ID:         campaignID,
		Sent:       sent,
		Published:  published,
		Recipients: events,
	})
}

// publishEvents announces persisted sends to the engagement worker and
// returns how many were published. The sends are already committed, so a
// queue failure is logged and counted, not returned, and the remaining
// events are still attempted.
func (h *Handlers) publishEvents(campaignName string, events []campaign.SendEvent) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	published, failed := 0, 0
	for _, ev := range events {
		payload, err := json.Marshal(campaign.SendEventMessage{SendEvent: ev, CampaignName: campaignName})
		if err == nil {
			err = h.Pub.PublishJSON(ctx, payload)
		}
		if err != nil {
			failed++
			metrics.PublishFailuresTotal.Inc()
			logx.L().Warnw("publish_event_error", "campaign_id", ev.CampaignID, "client_id", ev.ClientID, "error", err)
			continue
		}
		published++
		metrics.PublishedEventsTotal.Inc()
	}
	if failed > 0 {
		logx.L().Errorw("publish_events_incomplete", "campaign_name", campaignName, "published", published, "failed", failed)
	}
	return published
}

func (h *Handlers) ListCampaigns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rows, stats, err := h.Store.ListCampaigns(ctx, limit, offset)
	if err != nil {
		respondError(c, "list_campaigns_error", err)
		return
	}

	out := make([]campaign.CampaignListItem, 0, len(rows))
	for i, r := range rows {
		out = append(out, listItem(r, stats[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	camp, err := h.Store.GetCampaign(ctx, id)
	if err != nil {
		respondError(c, "get_campaign_error", err)
		return
	}
	stats, err := h.Store.GetCampaignStats(ctx, id)
	if err != nil {
		respondError(c, "get_campaign_stats_error", err)
		return
	}

	c.JSON(http.StatusOK, campaign.CampaignDetails{
		CampaignListItem: listItem(camp, stats),
		Description:      camp.Description,
	})
}

func listItem(r store.CampaignRow, st campaign.CampaignStats) campaign.CampaignListItem {
	return campaign.CampaignListItem{
		ID:         r.ID,
		Name:       r.Name,
		TemplateID: r.TemplateID,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		Stats:      st,
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
