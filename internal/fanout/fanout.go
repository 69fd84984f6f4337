// Package fanout turns each state-changing action into its ordered
// sequence of broadcast events.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"wuphf.social/internal/hub"
	"wuphf.social/internal/notify"
	"wuphf.social/internal/protocol"
	"wuphf.social/internal/store"
)

// Demo-mode constants.
const (
	demoContent = "🎉 DEMO MODE ACTIVATED! This is what a WUPHF notification looks like - WOOF! 🐕"
	demoAuthor  = "WUPHF Demo System"
)

var demoChannels = []string{"Email", "SMS", "Facebook", "Twitter", "Printer", "HomePhone"}

type Service struct {
	store *store.Store
	sim   *notify.Simulator
	hub   *hub.Hub
	log   *log.Logger

	// Pause between successive channel pushes in demo mode.
	demoStagger time.Duration
}

func New(st *store.Store, sim *notify.Simulator, h *hub.Hub, logger *log.Logger, demoStagger time.Duration) *Service {
	return &Service{store: st, sim: sim, hub: h, log: logger, demoStagger: demoStagger}
}

type CreateRequest struct {
	Content  string   `json:"content"`
	Author   string   `json:"author"`
	Channels []string `json:"channels"`
	Urgent   bool     `json:"urgent"`
}

type CreateResult struct {
	Wuphf         store.Wuphf `json:"wuphf"`
	Notifications []string    `json:"notifications"`
}

// Create is the immediate creation flow: store the post, push it plus the
// sound cue to everyone, then simulate every channel and hand the collected
// notification strings back to the creator only.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	w, err := s.store.CreateWuphf(ctx, req.Content, req.Author, req.Channels, req.Urgent)
	if err != nil {
		return CreateResult{}, err
	}

	s.hub.Broadcast(protocol.EventWuphfCreated, w)
	s.hub.Broadcast(protocol.EventSoundCue, nil)

	notifications, err := s.simulateAll(ctx, w.Channels, w.Content)
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Wuphf: w, Notifications: notifications}, nil
}

// simulateAll runs every channel simulation concurrently and gathers the
// results in channel-list order.
func (s *Service) simulateAll(ctx context.Context, channels []string, content string) ([]string, error) {
	notifications := make([]string, len(channels))
	errs := make([]error, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch string) {
			defer wg.Done()
			notifications[i], errs[i] = s.sim.Simulate(ctx, ch, content)
		}(i, ch)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("simulate channel: %w", err)
		}
	}
	return notifications, nil
}

// Demo is the scripted flow: a canned urgent wuphf, then one notification
// per channel pushed to everyone, strictly in channel order with a pause
// between pushes for the staggered on-screen reveal.
func (s *Service) Demo(ctx context.Context) (CreateResult, error) {
	w, err := s.store.CreateWuphf(ctx, demoContent, demoAuthor, demoChannels, true)
	if err != nil {
		return CreateResult{}, err
	}

	if s.log != nil {
		s.log.Printf("demo mode: wuphf %d across %d channels", w.ID, len(w.Channels))
	}
	s.hub.Broadcast(protocol.EventSoundCue, nil)
	s.hub.Broadcast(protocol.EventWuphfCreated, w)

	notifications := make([]string, 0, len(w.Channels))
	for _, ch := range w.Channels {
		n, err := s.sim.Simulate(ctx, ch, w.Content)
		if err != nil {
			return CreateResult{}, fmt.Errorf("simulate channel %s: %w", ch, err)
		}
		notifications = append(notifications, n)

		if err := pause(ctx, s.demoStagger); err != nil {
			return CreateResult{}, err
		}
		s.hub.Broadcast(protocol.EventNotification, protocol.NotificationData{
			Author:  w.AuthorName,
			Message: n,
			Channel: ch,
		})
	}
	return CreateResult{Wuphf: w, Notifications: notifications}, nil
}

// Like bumps the like counter. An unknown id yields ok=false, no broadcast.
func (s *Service) Like(ctx context.Context, id int64) (bool, error) {
	return s.increment(ctx, id, s.store.LikeWuphf, protocol.EventWuphfLiked)
}

// Rewuphf bumps the reshare counter. Same contract as Like.
func (s *Service) Rewuphf(ctx context.Context, id int64) (bool, error) {
	return s.increment(ctx, id, s.store.Rewuphf, protocol.EventWuphfRewuphfed)
}

func (s *Service) increment(ctx context.Context, id int64, mutate func(context.Context, int64) (store.Wuphf, error), event string) (bool, error) {
	if _, err := mutate(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	s.hub.Broadcast(event, protocol.WuphfRefData{ID: id})
	return true, nil
}

// Print looks the post up, renders the printout and pushes it to everyone.
// The string also goes back to the requester.
func (s *Service) Print(ctx context.Context, id int64) (string, error) {
	w, err := s.store.GetWuphf(ctx, id)
	if err != nil {
		return "", err
	}
	out, err := s.sim.Printout(ctx, w.Content, w.AuthorName)
	if err != nil {
		return "", err
	}
	s.hub.Broadcast(protocol.EventPrinterOutput, protocol.PrinterData{Output: out})
	return out, nil
}

// Recent returns the newest posts for the feed.
func (s *Service) Recent(ctx context.Context, limit int) ([]store.Wuphf, error) {
	return s.store.RecentWuphfs(ctx, limit)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
