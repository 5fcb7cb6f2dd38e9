// Package reactivation decides which clients count as lapsed for a
// win-back audience.
package reactivation

import (
	"fmt"
	"sort"
	"time"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
)

type Selector struct {
	now func() time.Time
}

// NewSelector returns a Selector reading the clock through now.
// A nil now means time.Now.
func NewSelector(now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{now: now}
}

// Cutoff is the instant before which activity counts as lapsed. It is read
// from the clock on every call. Days are calendar days, so windows of any
// size stay in the past.
func (s *Selector) Cutoff(inactiveDays int) (time.Time, error) {
	if inactiveDays < 0 {
		return time.Time{}, fmt.Errorf("%w: inactive_days must be >= 0, got %d", campaign.ErrInvalidParameter, inactiveDays)
	}
	return s.now().AddDate(0, 0, -inactiveDays), nil
}

// Select returns the lapsed clients from history: activity-less clients
// first, then oldest activity first. The input slice is not modified.
func (s *Selector) Select(history []campaign.ClientHistory, inactiveDays int) ([]campaign.ReactivationCandidate, error) {
	cutoff, err := s.Cutoff(inactiveDays)
	if err != nil {
		return nil, err
	}

	out := make([]campaign.ReactivationCandidate, 0)
	for _, h := range history {
		if lapsed(h, cutoff) {
			out = append(out, h)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].LastActivityAt == nil, out[j].LastActivityAt == nil
		if ai != aj {
			return ai
		}
		return lastSeen(out[i]).Before(lastSeen(out[j]))
	})
	return out, nil
}

// SelectIDs is Select reduced to a set of client ids.
func (s *Selector) SelectIDs(history []campaign.ClientHistory, inactiveDays int) (map[int64]struct{}, error) {
	cands, err := s.Select(history, inactiveDays)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(cands))
	for _, c := range cands {
		ids[c.ClientID] = struct{}{}
	}
	return ids, nil
}

func lapsed(h campaign.ClientHistory, cutoff time.Time) bool {
	if h.LastActivityAt != nil {
		return h.LastActivityAt.Before(cutoff)
	}
	// never sent to: nothing to reactivate
	return h.LastSentAt != nil && h.LastSentAt.Before(cutoff)
}

func lastSeen(h campaign.ClientHistory) time.Time {
	if h.LastActivityAt != nil {
		return *h.LastActivityAt
	}
	return *h.LastSentAt
}
