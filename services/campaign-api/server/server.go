package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pakholyuk-Maria/email-campaign-bi/docs"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/metrics"
)

func NewHTTPServer(addr string, h *Handlers) *http.Server {
	r := gin.New()
	r.Use(gin.Recovery(), Observability())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", docs.CampaignSwaggerHTML)
	})
	r.GET("/docs/campaign-api/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", docs.CampaignOpenAPI)
	})

	r.GET("/templates", h.ListTemplates)
	r.GET("/clients", h.ListClients)
	r.GET("/reactivation/candidates", h.ReactivationCandidates)
	r.GET("/audience", h.Audience)

	r.GET("/campaigns", h.ListCampaigns)
	r.POST("/campaigns", h.CreateCampaign)
	r.GET("/campaigns/:id", h.GetCampaign)

	r.GET("/analytics", h.Analytics)
	r.GET("/analytics/cohorts/:attribute", h.Cohorts)

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}
