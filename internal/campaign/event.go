package campaign

import "fmt"

// Validate checks the timestamp invariants of a persisted send.
func (e SendEvent) Validate() error {
	if !e.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidParameter, e.Status)
	}
	if e.SentAt.IsZero() {
		return fmt.Errorf("%w: sent_at is required", ErrInvalidParameter)
	}
	switch e.Status {
	case StatusClicked:
		if e.OpenedAt == nil || e.ClickedAt == nil {
			return fmt.Errorf("%w: clicked send needs opened_at and clicked_at", ErrInvalidParameter)
		}
		if e.ClickedAt.Before(*e.OpenedAt) {
			return fmt.Errorf("%w: clicked_at before opened_at", ErrInvalidParameter)
		}
	case StatusOpened:
		if e.OpenedAt == nil || e.ClickedAt != nil {
			return fmt.Errorf("%w: opened send needs opened_at only", ErrInvalidParameter)
		}
	default:
		if e.OpenedAt != nil || e.ClickedAt != nil {
			return fmt.Errorf("%w: %s send carries engagement timestamps", ErrInvalidParameter, e.Status)
		}
	}
	if e.OpenedAt != nil && e.OpenedAt.Before(e.SentAt) {
		return fmt.Errorf("%w: opened_at before sent_at", ErrInvalidParameter)
	}
	return nil
}

func (e SendEvent) IsOpened() bool {
	return e.Status == StatusOpened || e.Status == StatusClicked
}

func (e SendEvent) IsClicked() bool { return e.Status == StatusClicked }
