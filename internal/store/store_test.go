package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestInsertCampaign_WithTx(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	now := time.Date(2025, 10, 2, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qInsertCampaign)).
		WithArgs("Autumn sale", int64(3), "desc", campaign.CampaignFinished, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	var id int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var e error
		id, e = s.InsertCampaign(ctx, tx, "Autumn sale", 3, "desc", now)
		return e
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 {
		t.Fatalf("want id=7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.WithTx(context.Background(), func(tx *sql.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsertSendEvents(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	sent := time.Date(2025, 10, 2, 12, 0, 0, 0, time.UTC)
	opened := sent.Add(10 * time.Minute)
	clicked := opened.Add(2 * time.Minute)

	events := []campaign.SendEvent{
		{CampaignID: 7, ClientID: 1, SentAt: sent, Status: campaign.StatusClicked, OpenedAt: &opened, ClickedAt: &clicked},
		{CampaignID: 7, ClientID: 2, SentAt: sent, Status: campaign.StatusBounced},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(qInsertSendEvent))
	prep.ExpectExec().
		WithArgs(int64(7), int64(1), sent, "CLICKED", opened, clicked).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(int64(7), int64(2), sent, "BOUNCED", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var n int
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var e error
		n, e = s.InsertSendEvents(ctx, tx, events)
		return e
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("want 2 persisted, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReactivationHistory(t *testing.T) {
	s, mock := newMock(t)
	sent := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	act := sent.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(qReactivationHistory)).
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "last_sent_at", "last_activity_at"}).
			AddRow(1, sent, act).
			AddRow(2, sent, nil).
			AddRow(3, nil, nil))

	got, err := s.ReactivationHistory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 rows, got %d", len(got))
	}
	if got[0].LastActivityAt == nil || !got[0].LastActivityAt.Equal(act) {
		t.Fatalf("unexpected activity for client 1: %v", got[0].LastActivityAt)
	}
	if got[1].LastActivityAt != nil || got[1].LastSentAt == nil {
		t.Fatalf("client 2 should have a send and no activity: %+v", got[1])
	}
	if got[2].LastSentAt != nil {
		t.Fatalf("client 3 was never sent to: %+v", got[2])
	}
}

func TestJoinedEvents(t *testing.T) {
	s, mock := newMock(t)
	sent := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	cols := []string{"cc_id", "campaign_id", "client_id", "sent_at", "send_status", "opened_at", "clicked_at",
		"campaign_name", "campaign_status", "campaign_created_at", "full_name", "gender", "email", "segment"}
	mock.ExpectQuery(regexp.QuoteMeta(qJoinedEvents)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(11, 7, 1, sent, "OPENED", sent.Add(time.Minute), nil, "Autumn", "FINISHED", sent, "Ann", "f", "ann@example.com", nil))

	got, err := s.JoinedEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 row, got %d", len(got))
	}
	r := got[0]
	if r.ID != 11 || r.CampaignName != "Autumn" || r.Status != "OPENED" {
		t.Fatalf("unexpected row: %+v", r)
	}
	if r.Gender == nil || *r.Gender != "f" || r.Segment != nil {
		t.Fatalf("unexpected attributes: gender=%v segment=%v", r.Gender, r.Segment)
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(qTemplateByID)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "subject", "body"}))

	_, err := s.GetTemplate(context.Background(), 99)
	if !errors.Is(err, campaign.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListCampaigns_WithStats(t *testing.T) {
	s, mock := newMock(t)
	created := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(qListCampaigns)).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "template_id", "description", "status", "created_at"}).
			AddRow(2, "B", 1, "", "FINISHED", created).
			AddRow(1, "A", 1, "", "FINISHED", created))
	mock.ExpectQuery(regexp.QuoteMeta(qListCampaignStats)).
		WithArgs("{2,1}").
		WillReturnRows(sqlmock.NewRows([]string{"campaign_id", "sent", "opened", "clicked"}).
			AddRow(1, 10, 7, 3))

	rows, stats, err := s.ListCampaigns(context.Background(), 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || len(stats) != 2 {
		t.Fatalf("want 2 rows, got %d/%d", len(rows), len(stats))
	}
	if stats[0] != (campaign.CampaignStats{}) {
		t.Fatalf("campaign 2 has no rollup yet, got %+v", stats[0])
	}
	if stats[1] != (campaign.CampaignStats{Sent: 10, Opened: 7, Clicked: 3}) {
		t.Fatalf("unexpected stats for campaign 1: %+v", stats[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertDailyStats(t *testing.T) {
	s, mock := newMock(t)
	day := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(qUpsertDailyStats)).
		WithArgs(int64(7), day, 1, 1, 0, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := s.UpsertDailyStats(context.Background(), 7, 3, day, 1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("first delivery of a send must be applied")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertDailyStats_AlreadyApplied(t *testing.T) {
	s, mock := newMock(t)
	day := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(qUpsertDailyStats)).
		WithArgs(int64(7), day, 1, 1, 0, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := s.UpsertDailyStats(context.Background(), 7, 3, day, 1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Fatal("redelivered send must not be counted again")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
