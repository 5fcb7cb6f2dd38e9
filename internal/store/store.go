package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
)

type Store struct {
	DB *sqlx.DB
}

type CampaignRow struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	TemplateID  int64     `db:"template_id"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

// JoinedRow is one send joined with its campaign and client.
type JoinedRow struct {
	ID                int64      `db:"cc_id"`
	CampaignID        int64      `db:"campaign_id"`
	ClientID          int64      `db:"client_id"`
	SentAt            time.Time  `db:"sent_at"`
	Status            string     `db:"send_status"`
	OpenedAt          *time.Time `db:"opened_at"`
	ClickedAt         *time.Time `db:"clicked_at"`
	CampaignName      string     `db:"campaign_name"`
	CampaignStatus    string     `db:"campaign_status"`
	CampaignCreatedAt time.Time  `db:"campaign_created_at"`
	FullName          string     `db:"full_name"`
	Gender            *string    `db:"gender"`
	Email             string     `db:"email"`
	Segment           *string    `db:"segment"`
}

const (
	qActiveTemplates = `
		SELECT id, name, type, subject, body
		FROM templates
		WHERE is_active = TRUE
		ORDER BY id`

	qTemplateByID = `
		SELECT id, name, type, subject, body
		FROM templates
		WHERE id = $1 AND is_active = TRUE`

	qClients = `
		SELECT id, full_name, email, gender, segment
		FROM clients
		ORDER BY id`

	// GREATEST skips NULLs, so a missing open or click counts as absent.
	qReactivationHistory = `
		SELECT cl.id                                          AS client_id,
		       MAX(cc.sent_at)                                AS last_sent_at,
		       GREATEST(MAX(cc.opened_at), MAX(cc.clicked_at)) AS last_activity_at
		FROM clients cl
		LEFT JOIN campaign_clients cc ON cc.client_id = cl.id
		GROUP BY cl.id
		ORDER BY cl.id`

	qInsertCampaign = `
		INSERT INTO campaigns (name, template_id, description, status, created_at, planned_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id`

	qInsertSendEvent = `
		INSERT INTO campaign_clients
		    (campaign_id, client_id, sent_at, status, opened_at, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	qJoinedEvents = `
		SELECT
		    cc.id         AS cc_id,
		    cc.campaign_id,
		    cc.client_id,
		    cc.sent_at,
		    cc.status     AS send_status,
		    cc.opened_at,
		    cc.clicked_at,
		    c.name        AS campaign_name,
		    c.status      AS campaign_status,
		    c.created_at  AS campaign_created_at,
		    cl.full_name,
		    cl.gender,
		    cl.email,
		    cl.segment
		FROM campaign_clients cc
		JOIN campaigns c  ON cc.campaign_id = c.id
		JOIN clients   cl ON cc.client_id   = cl.id`

	qCampaignByID = `
		SELECT id, name, template_id, description, status, created_at
		FROM campaigns
		WHERE id = $1`

	qCampaignStats = `
		SELECT COALESCE(SUM(sent), 0), COALESCE(SUM(opened), 0), COALESCE(SUM(clicked), 0)
		FROM campaign_daily_stats
		WHERE campaign_id = $1`

	qListCampaigns = `
		SELECT id, name, template_id, description, status, created_at
		FROM campaigns
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	qListCampaignStats = `
		SELECT campaign_id, SUM(sent), SUM(opened), SUM(clicked)
		FROM campaign_daily_stats
		WHERE campaign_id = ANY($1)
		GROUP BY campaign_id`

	qUpsertDailyStats = `
		WITH applied AS (
		    INSERT INTO campaign_rollup_applied (campaign_id, client_id)
		    VALUES ($1, $6)
		    ON CONFLICT (campaign_id, client_id) DO NOTHING
		    RETURNING campaign_id
		)
		INSERT INTO campaign_daily_stats (campaign_id, sent_date, sent, opened, clicked, updated_at)
		SELECT $1, $2, $3, $4, $5, NOW() FROM applied
		ON CONFLICT (campaign_id, sent_date)
		DO UPDATE SET
		    sent       = campaign_daily_stats.sent + EXCLUDED.sent,
		    opened     = campaign_daily_stats.opened + EXCLUDED.opened,
		    clicked    = campaign_daily_stats.clicked + EXCLUDED.clicked,
		    updated_at = EXCLUDED.updated_at`
)

func New(db *sqlx.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListActiveTemplates(ctx context.Context) ([]campaign.Template, error) {
	out := []campaign.Template{}
	if err := s.DB.SelectContext(ctx, &out, qActiveTemplates); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (campaign.Template, error) {
	var t campaign.Template
	err := s.DB.GetContext(ctx, &t, qTemplateByID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.Template{}, fmt.Errorf("template %d: %w", id, campaign.ErrNotFound)
	}
	if err != nil {
		return campaign.Template{}, fmt.Errorf("get template %d: %w", id, err)
	}
	return t, nil
}

func (s *Store) ListClients(ctx context.Context) ([]campaign.Client, error) {
	out := []campaign.Client{}
	if err := s.DB.SelectContext(ctx, &out, qClients); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

// ReactivationHistory returns last send and last activity per client,
// including clients that were never sent to.
func (s *Store) ReactivationHistory(ctx context.Context) ([]campaign.ClientHistory, error) {
	out := []campaign.ClientHistory{}
	if err := s.DB.SelectContext(ctx, &out, qReactivationHistory); err != nil {
		return nil, fmt.Errorf("reactivation history: %w", err)
	}
	return out, nil
}

func (s *Store) InsertCampaign(ctx context.Context, tx *sql.Tx, name string, templateID int64, description string, now time.Time) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, qInsertCampaign,
		name, templateID, description, campaign.CampaignFinished, now).Scan(&id)
	return id, err
}

// InsertSendEvents persists events and returns how many rows were written.
func (s *Store) InsertSendEvents(ctx context.Context, tx *sql.Tx, events []campaign.SendEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, qInsertSendEvent)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.CampaignID, e.ClientID, e.SentAt, string(e.Status), e.OpenedAt, e.ClickedAt); err != nil {
			return n, fmt.Errorf("insert send event client=%d: %w", e.ClientID, err)
		}
		n++
	}
	return n, nil
}

func (s *Store) JoinedEvents(ctx context.Context) ([]JoinedRow, error) {
	out := []JoinedRow{}
	if err := s.DB.SelectContext(ctx, &out, qJoinedEvents); err != nil {
		return nil, fmt.Errorf("joined events: %w", err)
	}
	return out, nil
}

func (s *Store) GetCampaign(ctx context.Context, id int64) (CampaignRow, error) {
	var c CampaignRow
	err := s.DB.GetContext(ctx, &c, qCampaignByID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return CampaignRow{}, fmt.Errorf("campaign %d: %w", id, campaign.ErrNotFound)
	}
	if err != nil {
		return CampaignRow{}, err
	}
	return c, nil
}

func (s *Store) GetCampaignStats(ctx context.Context, id int64) (campaign.CampaignStats, error) {
	var st campaign.CampaignStats
	err := s.DB.QueryRowContext(ctx, qCampaignStats, id).Scan(&st.Sent, &st.Opened, &st.Clicked)
	if err != nil {
		return campaign.CampaignStats{}, err
	}
	return st, nil
}

func (s *Store) ListCampaigns(ctx context.Context, limit, offset int) ([]CampaignRow, []campaign.CampaignStats, error) {
	if limit <= 0 || limit > 1000 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	campaigns := []CampaignRow{}
	if err := s.DB.SelectContext(ctx, &campaigns, qListCampaigns, limit, offset); err != nil {
		return nil, nil, err
	}
	if len(campaigns) == 0 {
		return campaigns, []campaign.CampaignStats{}, nil
	}

	ids := make([]int64, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}

	statRows, err := s.DB.QueryContext(ctx, qListCampaignStats, int64Slice(ids))
	if err != nil {
		return nil, nil, err
	}
	defer statRows.Close()

	statsByID := make(map[int64]campaign.CampaignStats, len(ids))
	for statRows.Next() {
		var id int64
		var st campaign.CampaignStats
		if err := statRows.Scan(&id, &st.Sent, &st.Opened, &st.Clicked); err != nil {
			return nil, nil, err
		}
		statsByID[id] = st
	}
	if err := statRows.Err(); err != nil {
		return nil, nil, err
	}

	out := make([]campaign.CampaignStats, len(campaigns))
	for i, c := range campaigns {
		out[i] = statsByID[c.ID]
	}
	return campaigns, out, nil
}

// UpsertDailyStats adds the counts of one send to the rollup row of its
// campaign day. A send is folded in at most once: applied is false when
// (campaignID, clientID) was already counted and nothing changed.
func (s *Store) UpsertDailyStats(ctx context.Context, campaignID, clientID int64, day time.Time, sent, opened, clicked int) (applied bool, err error) {
	res, err := s.DB.ExecContext(ctx, qUpsertDailyStats, campaignID, day, sent, opened, clicked, clientID)
	if err != nil {
		return false, fmt.Errorf("upsert daily stats campaign=%d client=%d: %w", campaignID, clientID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert daily stats campaign=%d client=%d: %w", campaignID, clientID, err)
	}
	return n > 0, nil
}

type int64Slice []int64

func (a int64Slice) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	b.WriteByte('}')
	return b.String(), nil
}
