package outcome

import (
	"time"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
)

// Outcome is the terminal result of one send. Each case carries only the
// timestamps valid for its status.
type Outcome interface {
	Status() campaign.SendStatus
	// Apply writes the status and engagement timestamps into ev.
	Apply(ev *campaign.SendEvent)
	isOutcome()
}

type Clicked struct {
	OpenedAt  time.Time
	ClickedAt time.Time
}

type Opened struct {
	OpenedAt time.Time
}

// Delivered is a send that reached the inbox without engagement (SENT).
type Delivered struct{}

type Bounced struct{}

func (Clicked) Status() campaign.SendStatus   { return campaign.StatusClicked }
func (Opened) Status() campaign.SendStatus    { return campaign.StatusOpened }
func (Delivered) Status() campaign.SendStatus { return campaign.StatusSent }
func (Bounced) Status() campaign.SendStatus   { return campaign.StatusBounced }

func (o Clicked) Apply(ev *campaign.SendEvent) {
	opened, clicked := o.OpenedAt, o.ClickedAt
	ev.Status, ev.OpenedAt, ev.ClickedAt = campaign.StatusClicked, &opened, &clicked
}

func (o Opened) Apply(ev *campaign.SendEvent) {
	opened := o.OpenedAt
	ev.Status, ev.OpenedAt, ev.ClickedAt = campaign.StatusOpened, &opened, nil
}

func (Delivered) Apply(ev *campaign.SendEvent) {
	ev.Status, ev.OpenedAt, ev.ClickedAt = campaign.StatusSent, nil, nil
}

func (Bounced) Apply(ev *campaign.SendEvent) {
	ev.Status, ev.OpenedAt, ev.ClickedAt = campaign.StatusBounced, nil, nil
}

func (Clicked) isOutcome()   {}
func (Opened) isOutcome()    {}
func (Delivered) isOutcome() {}
func (Bounced) isOutcome()   {}
