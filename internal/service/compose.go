package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hradmin/internal/domain"
	"hradmin/internal/observability"
	"hradmin/internal/providers/agent"
	"hradmin/internal/providers/compliance"
	"hradmin/internal/store"
	"hradmin/internal/util"
)

type ComplianceChecker interface {
	CheckImage(ctx context.Context, req compliance.ImageCheckRequest) (domain.ComplianceResult, error)
	CheckText(ctx context.Context, subject, body string) (domain.ComplianceResult, error)
}

type AgentAPI interface {
	Create(ctx context.Context, subject, category string) (string, error)
	SaveConfig(ctx context.Context, campaignID string, cfg agent.Config) error
	AddRecipients(ctx context.Context, campaignID string, recipients []agent.RecipientInput) error
	Send(ctx context.Context, campaignID string) error
}

type CampaignStore interface {
	InsertCampaign(ctx context.Context, in store.CampaignInsert) error
	UpsertRecipient(ctx context.Context, in store.RecipientUpsert) error
	GetCampaign(ctx context.Context, id string) (domain.Campaign, bool, error)
	ListCampaigns(ctx context.Context, orgID string) ([]domain.Campaign, error)
	ListRecipients(ctx context.Context, campaignID string) ([]domain.Recipient, error)
}

// ComposeService owns drafts and runs the compliance-gated send
// pipeline against the campaign agent.
type ComposeService struct {
	Drafts  *DraftStore
	Checker ComplianceChecker
	Agent   AgentAPI
	Store   CampaignStore

	// MaxCheckAttemptsPerFile caps how often one filename may be
	// re-submitted to the image check within a draft.
	MaxCheckAttemptsPerFile int
}

// AttachResult reports the resolved compliance outcome of one add.
type AttachResult struct {
	Attached   bool               `json:"attached"`
	Violations []domain.Violation `json:"violations,omitempty"`
	URL        string             `json:"url,omitempty"`
}

// AddAttachment stages a file on a draft. Image files are checked
// synchronously: a rejected image is NOT attached and its violations
// are recorded; a check that fails to run leaves no record at all (the
// caller may re-add, within the attempt budget). A file is never
// silently treated as compliant.
func (s *ComposeService) AddAttachment(ctx context.Context, draftID string, att domain.Attachment, dataURL string) (AttachResult, error) {
	d, ok := s.Drafts.Get(draftID)
	if !ok {
		return AttachResult{}, ErrDraftNotFound
	}

	var res AttachResult
	err := s.Drafts.WithDraft(draftID, func(d *Draft) error {
		for _, existing := range d.Attachments {
			if existing.Filename == att.Filename {
				return ErrDuplicateAttach
			}
		}
		if !att.IsImage() {
			d.Attachments = append(d.Attachments, att)
			res = AttachResult{Attached: true}
			return nil
		}

		max := s.MaxCheckAttemptsPerFile
		if max <= 0 {
			max = 3
		}
		if d.checkAttempts[att.Filename] >= max {
			return ErrCheckBudgetSpent
		}
		d.checkAttempts[att.Filename]++
		return nil
	})
	if err != nil || !att.IsImage() {
		return res, err
	}

	// One check per add event; no retry loop here.
	result, err := s.Checker.CheckImage(ctx, compliance.ImageCheckRequest{
		Image:    dataURL,
		Filename: att.Filename,
	})
	if err != nil {
		observability.ComplianceChecks.WithLabelValues("image", "error").Inc()
		slog.Warn("image compliance check did not run", "err", err, "draft_id", d.ID, "filename", att.Filename)
		return AttachResult{}, fmt.Errorf("compliance check for %s: %w", att.Filename, err)
	}

	err = s.Drafts.WithDraft(draftID, func(d *Draft) error {
		if !result.IsCompliant {
			observability.ComplianceChecks.WithLabelValues("image", "violation").Inc()
			delete(d.URLByFile, att.Filename)
			d.ViolationsByFile[att.Filename] = result.Violations
			res = AttachResult{Attached: false, Violations: result.Violations}
			return nil
		}
		observability.ComplianceChecks.WithLabelValues("image", "compliant").Inc()
		delete(d.ViolationsByFile, att.Filename)
		d.URLByFile[att.Filename] = result.URL
		d.Attachments = append(d.Attachments, att)
		res = AttachResult{Attached: true, URL: result.URL}
		return nil
	})
	return res, err
}

// RemoveAttachment drops the file at index and purges its compliance
// records from both maps.
func (s *ComposeService) RemoveAttachment(draftID string, index int) error {
	return s.Drafts.WithDraft(draftID, func(d *Draft) error {
		if index < 0 || index >= len(d.Attachments) {
			return ErrAttachmentIndex
		}
		filename := d.Attachments[index].Filename
		d.Attachments = append(d.Attachments[:index], d.Attachments[index+1:]...)
		d.purge(filename)
		return nil
	})
}

// ComplianceBlock is the non-error outcome of a gated send: the send
// did not happen and these findings say why.
type ComplianceBlock struct {
	Stage          string                        `json:"stage"` // attachments | body
	FileViolations map[string][]domain.Violation `json:"fileViolations,omitempty"`
	BodyViolations []domain.Violation            `json:"bodyViolations,omitempty"`
}

type SendOutcome struct {
	Status   string           `json:"status"` // sent | blocked
	Campaign *domain.Campaign `json:"campaign,omitempty"`
	Blocked  *ComplianceBlock `json:"blocked,omitempty"`
}

// Send runs the full pipeline: attachment gate, body-text gate, then
// the four-step dispatch (create, saveConfig, addRecipients, send) in
// strict order. No step is issued before the previous one succeeded and
// nothing is written locally until all four have.
func (s *ComposeService) Send(ctx context.Context, req domain.SendRequest, now time.Time) (SendOutcome, error) {
	if err := req.Validate(); err != nil {
		observability.SendsBlocked.WithLabelValues("validation").Inc()
		return SendOutcome{}, err
	}

	draft := &Draft{
		ViolationsByFile: map[string][]domain.Violation{},
		URLByFile:        map[string]string{},
	}
	if req.DraftID != "" {
		var ok bool
		draft, ok = s.Drafts.Get(req.DraftID)
		if !ok {
			return SendOutcome{}, ErrDraftNotFound
		}
	}

	// Gate 1: any recorded violation blocks unconditionally, with every
	// accumulated issue reported at once.
	if len(draft.ViolationsByFile) > 0 || !draft.Ready() {
		observability.SendsBlocked.WithLabelValues("attachment_violations").Inc()
		return SendOutcome{Status: "blocked", Blocked: &ComplianceBlock{
			Stage:          "attachments",
			FileViolations: draft.ViolationsByFile,
		}}, nil
	}

	// Gate 2: body text runs only after the attachment gate passes.
	textResult, err := s.Checker.CheckText(ctx, req.Subject, util.StripHTML(req.BodyHTML))
	if err != nil {
		observability.ComplianceChecks.WithLabelValues("text", "error").Inc()
		return SendOutcome{}, fmt.Errorf("body compliance check: %w", err)
	}
	if !textResult.IsCompliant {
		observability.ComplianceChecks.WithLabelValues("text", "violation").Inc()
		observability.SendsBlocked.WithLabelValues("body_violations").Inc()
		return SendOutcome{Status: "blocked", Blocked: &ComplianceBlock{
			Stage:          "body",
			BodyViolations: textResult.Violations,
		}}, nil
	}
	observability.ComplianceChecks.WithLabelValues("text", "compliant").Inc()

	category := domain.NormalizeCategory(req.Category)
	if category == "" {
		category = domain.FallbackCategory
	}

	// 1) create
	campaignID, err := s.agentStep("create", func() (string, error) {
		return s.Agent.Create(ctx, req.Subject, category)
	})
	if err != nil {
		return SendOutcome{}, fmt.Errorf("send pipeline aborted at create: %w", err)
	}

	// 2) configure; only compliant image URLs leave the process
	_, err = s.agentStep("save_config", func() (string, error) {
		return "", s.Agent.SaveConfig(ctx, campaignID, agent.Config{
			Subject:      req.Subject,
			BodyTemplate: req.BodyHTML,
			Category:     category,
			Images:       draft.ImageURLs(),
		})
	})
	if err != nil {
		return SendOutcome{}, fmt.Errorf("send pipeline aborted at saveConfig: %w", err)
	}

	// 3) recipients
	recipients := make([]agent.RecipientInput, len(req.Recipients))
	for i, r := range req.Recipients {
		recipients[i] = agent.RecipientInput{Email: util.NormalizeEmail(r.Email), Name: r.Name}
	}
	_, err = s.agentStep("add_recipients", func() (string, error) {
		return "", s.Agent.AddRecipients(ctx, campaignID, recipients)
	})
	if err != nil {
		return SendOutcome{}, fmt.Errorf("send pipeline aborted at addRecipients: %w", err)
	}

	// 4) dispatch
	_, err = s.agentStep("send", func() (string, error) {
		return "", s.Agent.Send(ctx, campaignID)
	})
	if err != nil {
		return SendOutcome{}, fmt.Errorf("send pipeline aborted at send: %w", err)
	}

	// Optimistic local record, written only after step 4 succeeded. The
	// scanner overwrites it with backend truth on its next cycle.
	campaign := domain.Campaign{
		ID:               campaignID,
		OrgID:            req.OrgID,
		Subject:          req.Subject,
		BodyHTML:         req.BodyHTML,
		Category:         category,
		RecipientSummary: recipientSummary(req.Recipients),
		Status:           domain.StatusSent,
		Attachments:      draft.Filenames(),
		SentCount:        len(req.Recipients),
		SentAt:           now,
		UpdatedAt:        now,
	}
	if err := s.Store.InsertCampaign(ctx, store.CampaignInsert{
		ID:               campaign.ID,
		OrgID:            campaign.OrgID,
		Subject:          campaign.Subject,
		BodyHTML:         campaign.BodyHTML,
		Category:         campaign.Category,
		RecipientSummary: campaign.RecipientSummary,
		Status:           string(campaign.Status),
		Attachments:      campaign.Attachments,
		SentCount:        campaign.SentCount,
		Now:              now,
	}); err != nil {
		// The dispatch itself succeeded; report the record failure but
		// do not pretend the send failed.
		slog.Error("sent campaign could not be recorded locally", "err", err, "campaign_id", campaignID)
	}
	for _, r := range req.Recipients {
		if err := s.Store.UpsertRecipient(ctx, store.RecipientUpsert{
			CampaignID: campaignID,
			Email:      util.NormalizeEmail(r.Email),
			Name:       r.Name,
			Status:     string(domain.StatusDelivered),
			Now:        now,
		}); err != nil {
			slog.Error("recipient record write failed", "err", err, "campaign_id", campaignID, "email", r.Email)
		}
	}

	if req.DraftID != "" {
		s.Drafts.Delete(req.DraftID)
	}
	return SendOutcome{Status: "sent", Campaign: &campaign}, nil
}

func (s *ComposeService) agentStep(step string, call func() (string, error)) (string, error) {
	start := time.Now()
	out, err := call()
	observability.AgentLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.AgentCalls.WithLabelValues(step, "error").Inc()
		return "", err
	}
	observability.AgentCalls.WithLabelValues(step, "ok").Inc()
	return out, nil
}

func recipientSummary(recipients []domain.Recipient) string {
	if len(recipients) == 1 {
		return recipients[0].Email
	}
	return fmt.Sprintf("%s and %d more", recipients[0].Email, len(recipients)-1)
}

// ListSent returns the locally mirrored sent list; status fields are
// whatever the last scanner cycle reported.
func (s *ComposeService) ListSent(ctx context.Context, orgID string) ([]domain.Campaign, error) {
	return s.Store.ListCampaigns(ctx, orgID)
}

func (s *ComposeService) GetCampaign(ctx context.Context, id string) (domain.Campaign, []domain.Recipient, error) {
	c, found, err := s.Store.GetCampaign(ctx, id)
	if err != nil {
		return domain.Campaign{}, nil, err
	}
	if !found {
		return domain.Campaign{}, nil, domain.ErrNotFound
	}
	recipients, err := s.Store.ListRecipients(ctx, id)
	if err != nil {
		return domain.Campaign{}, nil, err
	}
	return c, recipients, nil
}
