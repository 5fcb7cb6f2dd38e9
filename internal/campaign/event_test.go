package campaign

import (
	"errors"
	"testing"
	"time"
)

func TestSendEventValidate(t *testing.T) {
	sent := time.Date(2025, 10, 2, 12, 0, 0, 0, time.UTC)
	opened := sent.Add(5 * time.Minute)
	clicked := opened.Add(3 * time.Minute)
	early := sent.Add(-time.Minute)

	cases := []struct {
		name string
		ev   SendEvent
		ok   bool
	}{
		{"clicked", SendEvent{SentAt: sent, Status: StatusClicked, OpenedAt: &opened, ClickedAt: &clicked}, true},
		{"opened", SendEvent{SentAt: sent, Status: StatusOpened, OpenedAt: &opened}, true},
		{"sent", SendEvent{SentAt: sent, Status: StatusSent}, true},
		{"bounced", SendEvent{SentAt: sent, Status: StatusBounced}, true},
		{"unknown status", SendEvent{SentAt: sent, Status: "DELIVERED"}, false},
		{"missing sent_at", SendEvent{Status: StatusSent}, false},
		{"click without open", SendEvent{SentAt: sent, Status: StatusClicked, ClickedAt: &clicked}, false},
		{"click before open", SendEvent{SentAt: sent, Status: StatusClicked, OpenedAt: &clicked, ClickedAt: &opened}, false},
		{"opened with click", SendEvent{SentAt: sent, Status: StatusOpened, OpenedAt: &opened, ClickedAt: &clicked}, false},
		{"bounced with open", SendEvent{SentAt: sent, Status: StatusBounced, OpenedAt: &opened}, false},
		{"open before send", SendEvent{SentAt: sent, Status: StatusOpened, OpenedAt: &early}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ev.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("want ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestIsWinback(t *testing.T) {
	for _, in := range []string{"WINBACK", "winback", " WinBack "} {
		if !IsWinback(in) {
			t.Fatalf("%q should be winback", in)
		}
	}
	for _, in := range []string{"", "WELCOME", "DISCOUNT", "WIN BACK"} {
		if IsWinback(in) {
			t.Fatalf("%q should not be winback", in)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	if got := NormalizeStatus(" clicked "); got != StatusClicked {
		t.Fatalf("want CLICKED, got %q", got)
	}
	if NormalizeStatus("Opened").Valid() != true {
		t.Fatal("normalized status should be valid")
	}
}
