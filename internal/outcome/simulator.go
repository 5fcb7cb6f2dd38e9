// Package outcome assigns simulated delivery outcomes to campaign sends.
package outcome

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/campaign"
)

// Cumulative upper bounds of the outcome buckets for one uniform draw.
const (
	clickedBound = 0.20
	openedBound  = 0.80
	sentBound    = 0.95
)

// Minute offsets, both ends inclusive.
const (
	clickOpenMin, clickOpenMax   = 1, 60
	clickDelayMin, clickDelayMax = 1, 30
	openMin, openMax             = 1, 90
	sendJitter                   = 5
)

// Source is the randomness a Simulator draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// NewSource returns a PCG source seeded from seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

// NewLockedSource serializes access to src so one source can back
// concurrent simulations.
func NewLockedSource(src Source) Source {
	return &lockedSource{src: src}
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

type Simulator struct {
	src Source
}

func NewSimulator(src Source) *Simulator {
	return &Simulator{src: src}
}

// Simulate draws the terminal outcome of one send made at sentAt.
func (s *Simulator) Simulate(sentAt time.Time) Outcome {
	r := s.src.Float64()
	switch {
	case r < clickedBound:
		opened := sentAt.Add(s.minutes(clickOpenMin, clickOpenMax))
		return Clicked{
			OpenedAt:  opened,
			ClickedAt: opened.Add(s.minutes(clickDelayMin, clickDelayMax)),
		}
	case r < openedBound:
		return Opened{OpenedAt: sentAt.Add(s.minutes(openMin, openMax))}
	case r < sentBound:
		return Delivered{}
	default:
		return Bounced{}
	}
}

// Deliver builds one send event per client. Each send time is now shifted
// by up to five minutes either way and every recipient gets its own draw.
func (s *Simulator) Deliver(campaignID int64, clientIDs []int64, now time.Time) []campaign.SendEvent {
	events := make([]campaign.SendEvent, 0, len(clientIDs))
	for _, clientID := range clientIDs {
		ev := campaign.SendEvent{
			CampaignID: campaignID,
			ClientID:   clientID,
			SentAt:     now.Add(s.minutes(-sendJitter, sendJitter)),
		}
		s.Simulate(ev.SentAt).Apply(&ev)
		events = append(events, ev)
	}
	return events
}

func (s *Simulator) minutes(lo, hi int) time.Duration {
	return time.Duration(lo+s.src.IntN(hi-lo+1)) * time.Minute
}
