package campaign

import (
	"strings"
	"time"
)

// SendStatus is the terminal delivery status of one send. The literals are
// persisted as-is and must stay upper case.
type SendStatus string

const (
	StatusSent    SendStatus = "SENT"
	StatusOpened  SendStatus = "OPENED"
	StatusClicked SendStatus = "CLICKED"
	StatusBounced SendStatus = "BOUNCED"
)

// Valid reports whether s is one of the four persisted literals.
func (s SendStatus) Valid() bool {
	switch s {
	case StatusSent, StatusOpened, StatusClicked, StatusBounced:
		return true
	}
	return false
}

// NormalizeStatus upper-cases a status read back from storage.
func NormalizeStatus(s string) SendStatus {
	return SendStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// CampaignFinished is the only campaign status this service writes.
const CampaignFinished = "FINISHED"

// TemplateWinback is the reserved template type that triggers
// reactivation-assisted audience selection.
const TemplateWinback = "WINBACK"

func IsWinback(templateType string) bool {
	return strings.EqualFold(strings.TrimSpace(templateType), TemplateWinback)
}

type Client struct {
	ID       int64   `json:"id"        db:"id"`
	FullName string  `json:"full_name" db:"full_name"`
	Email    string  `json:"email"     db:"email"`
	Gender   *string `json:"gender"    db:"gender"`
	Segment  *string `json:"segment"   db:"segment"`
}

type Template struct {
	ID      int64  `json:"id"      db:"id"`
	Name    string `json:"name"    db:"name"`
	Type    string `json:"type"    db:"type"`
	Subject string `json:"subject" db:"subject"`
	Body    string `json:"body"    db:"body"`
}

// SendEvent is one row of campaign_clients.
type SendEvent struct {
	CampaignID int64      `json:"campaign_id"`
	ClientID   int64      `json:"client_id"`
	SentAt     time.Time  `json:"sent_at"`
	Status     SendStatus `json:"status"`
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
	ClickedAt  *time.Time `json:"clicked_at,omitempty"`
}

// ClientHistory is the per-client delivery summary the reactivation rule
// runs on. LastActivityAt is the latest open or click over all sends.
type ClientHistory struct {
	ClientID       int64      `json:"client_id"        db:"client_id"`
	LastSentAt     *time.Time `json:"last_sent_at"     db:"last_sent_at"`
	LastActivityAt *time.Time `json:"last_activity_at" db:"last_activity_at"`
}

type ReactivationCandidate = ClientHistory

type CreateCampaignReq struct {
	Name       string  `json:"name"        binding:"required"`
	TemplateID int64   `json:"template_id" binding:"required,gt=0"`
	ClientIDs  []int64 `json:"client_ids"  binding:"required,min=1,dive,gt=0"`
}

// CreateCampaignResp reports the persisted sends with their simulated
// outcomes. Published counts the sends handed to the queue.
type CreateCampaignResp struct {
	ID         int64       `json:"id"`
	Sent       int         `json:"sent"`
	Published  int         `json:"published"`
	Recipients []SendEvent `json:"recipients"`
}

// SendEventMessage is what the API publishes for every persisted send.
type SendEventMessage struct {
	SendEvent
	CampaignName string `json:"campaign_name"`
}

type CampaignStats struct {
	Sent    int `json:"sent"`
	Opened  int `json:"opened"`
	Clicked int `json:"clicked"`
}

type CampaignListItem struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	TemplateID int64         `json:"template_id"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	Stats      CampaignStats `json:"stats"`
}

type CampaignDetails struct {
	CampaignListItem
	Description string `json:"description"`
}

type AudienceResp struct {
	TemplateID int64   `json:"template_id"`
	Winback    bool    `json:"winback"`
	ClientIDs  []int64 `json:"client_ids"`
	Message    string  `json:"message,omitempty"`
}
