// Package scanner runs the delivery-status reconciliation loop: it
// periodically asks the campaign agent to run its bounce/delivery scan
// and then mirrors the agent's campaign and recipient status into the
// local store. The agent is the sole source of truth; whatever it
// reports overwrites the local optimistic state unconditionally.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"hradmin/internal/observability"
	"hradmin/internal/providers/agent"
	"hradmin/internal/store"
)

type AgentAPI interface {
	TriggerScan(ctx context.Context) error
	ListCampaigns(ctx context.Context) ([]agent.CampaignRecord, error)
	GetRecipients(ctx context.Context, campaignID string) ([]agent.RecipientRecord, error)
}

type Store interface {
	UpsertCampaignStatus(ctx context.Context, in store.CampaignUpsert) error
	UpsertRecipient(ctx context.Context, in store.RecipientUpsert) error
}

type Scanner struct {
	Agent    AgentAPI
	Store    Store
	Interval time.Duration

	// OrgID the mirrored rows belong to; the agent API is already
	// scoped to one org by its token.
	OrgID string

	Limiter *rate.Limiter
	Breaker *gobreaker.CircuitBreaker

	// inFlight makes overlapping cycles impossible: a tick that fires
	// while a cycle is still running is skipped entirely, not queued.
	inFlight atomic.Bool
}

// Run blocks until ctx is cancelled. The first cycle runs immediately.
func (s *Scanner) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	slog.Info("delivery scanner starting", "interval", interval)

	s.Tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("delivery scanner stopping")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scan+refresh cycle unless one is already in flight.
func (s *Scanner) Tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		observability.ScanCycles.WithLabelValues("skipped").Inc()
		slog.Debug("scan cycle still running, tick skipped")
		return
	}
	defer s.inFlight.Store(false)

	if err := s.cycle(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		observability.ScanCycles.WithLabelValues("error").Inc()
		slog.Error("scan cycle failed", "err", err)
		return
	}
	observability.ScanCycles.WithLabelValues("ok").Inc()
}

func (s *Scanner) cycle(ctx context.Context) error {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if err := s.agentCall(ctx, func(c context.Context) error {
		return s.Agent.TriggerScan(c)
	}); err != nil {
		return err
	}

	var records []agent.CampaignRecord
	if err := s.agentCall(ctx, func(c context.Context) error {
		var err error
		records, err = s.Agent.ListCampaigns(c)
		return err
	}); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, rec := range records {
		if err := s.Store.UpsertCampaignStatus(ctx, store.CampaignUpsert{
			ID:             rec.ID,
			OrgID:          s.OrgID,
			Subject:        rec.Subject,
			Category:       rec.Category,
			Status:         rec.Status,
			SentCount:      rec.SentCount,
			DeliveredCount: rec.DeliveredCount,
			FailedCount:    rec.FailedCount,
			SentAt:         rec.SentAt,
			Now:            now,
		}); err != nil {
			return err
		}

		recipients, err := s.fetchRecipients(ctx, rec.ID)
		if err != nil {
			// One campaign's recipient fetch failing should not stall
			// the rest of the refresh.
			slog.Error("recipient refresh failed", "err", err, "campaign_id", rec.ID)
			continue
		}
		for _, rcp := range recipients {
			if err := s.Store.UpsertRecipient(ctx, store.RecipientUpsert{
				CampaignID: rec.ID,
				Email:      rcp.Email,
				Name:       rcp.Name,
				Status:     rcp.Status,
				Now:        now,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scanner) fetchRecipients(ctx context.Context, campaignID string) ([]agent.RecipientRecord, error) {
	var out []agent.RecipientRecord
	err := s.agentCall(ctx, func(c context.Context) error {
		var err error
		out, err = s.Agent.GetRecipients(c, campaignID)
		return err
	})
	return out, err
}

func (s *Scanner) agentCall(ctx context.Context, call func(context.Context) error) error {
	run := func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return nil, call(callCtx)
	}
	if s.Breaker == nil {
		_, err := run()
		return err
	}
	_, err := s.Breaker.Execute(run)
	return err
}
