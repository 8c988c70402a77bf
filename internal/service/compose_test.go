package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hradmin/internal/domain"
	"hradmin/internal/providers/agent"
	"hradmin/internal/providers/compliance"
	"hradmin/internal/store"
)

type fakeChecker struct {
	imageResult domain.ComplianceResult
	imageErr    error
	textResult  domain.ComplianceResult
	textErr     error

	imageCalls int
	textCalls  int
}

func (f *fakeChecker) CheckImage(ctx context.Context, req compliance.ImageCheckRequest) (domain.ComplianceResult, error) {
	f.imageCalls++
	return f.imageResult, f.imageErr
}

func (f *fakeChecker) CheckText(ctx context.Context, subject, body string) (domain.ComplianceResult, error) {
	f.textCalls++
	return f.textResult, f.textErr
}

type fakeAgent struct {
	calls []string

	createErr     error
	saveConfigErr error
	recipientsErr error
	sendErr       error

	lastConfig     agent.Config
	lastRecipients []agent.RecipientInput
}

func (f *fakeAgent) Create(ctx context.Context, subject, category string) (string, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return "", f.createErr
	}
	return "cmp_1", nil
}

func (f *fakeAgent) SaveConfig(ctx context.Context, campaignID string, cfg agent.Config) error {
	f.calls = append(f.calls, "saveConfig")
	f.lastConfig = cfg
	return f.saveConfigErr
}

func (f *fakeAgent) AddRecipients(ctx context.Context, campaignID string, recipients []agent.RecipientInput) error {
	f.calls = append(f.calls, "addRecipients")
	f.lastRecipients = recipients
	return f.recipientsErr
}

func (f *fakeAgent) Send(ctx context.Context, campaignID string) error {
	f.calls = append(f.calls, "send")
	return f.sendErr
}

type fakeCampaignStore struct {
	inserted   []store.CampaignInsert
	recipients []store.RecipientUpsert
	campaigns  map[string]domain.Campaign
}

func (f *fakeCampaignStore) InsertCampaign(ctx context.Context, in store.CampaignInsert) error {
	f.inserted = append(f.inserted, in)
	return nil
}

func (f *fakeCampaignStore) UpsertRecipient(ctx context.Context, in store.RecipientUpsert) error {
	f.recipients = append(f.recipients, in)
	return nil
}

func (f *fakeCampaignStore) GetCampaign(ctx context.Context, id string) (domain.Campaign, bool, error) {
	c, ok := f.campaigns[id]
	return c, ok, nil
}

func (f *fakeCampaignStore) ListCampaigns(ctx context.Context, orgID string) ([]domain.Campaign, error) {
	var out []domain.Campaign
	for _, c := range f.campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCampaignStore) ListRecipients(ctx context.Context, campaignID string) ([]domain.Recipient, error) {
	return nil, nil
}

func newComposeService(checker *fakeChecker, ag *fakeAgent, st *fakeCampaignStore) *ComposeService {
	return &ComposeService{
		Drafts:                  NewDraftStore(),
		Checker:                 checker,
		Agent:                   ag,
		Store:                   st,
		MaxCheckAttemptsPerFile: 3,
	}
}

func validSendRequest(draftID string) domain.SendRequest {
	return domain.SendRequest{
		OrgID:    "org_1",
		DraftID:  draftID,
		Subject:  "October newsletter",
		BodyHTML: "<p>Hello</p>",
		Category: "Newsletter",
		Recipients: []domain.Recipient{
			{Email: "a@example.com", Name: "A"},
			{Email: "b@example.com", Name: "B"},
		},
	}
}

func TestSendHappyPathCallOrder(t *testing.T) {
	checker := &fakeChecker{textResult: domain.ComplianceResult{IsCompliant: true}}
	ag := &fakeAgent{}
	st := &fakeCampaignStore{}
	svc := newComposeService(checker, ag, st)

	out, err := svc.Send(context.Background(), validSendRequest(""), time.Now())
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Status != "sent" {
		t.Fatalf("expected sent, got %s", out.Status)
	}

	want := []string{"create", "saveConfig", "addRecipients", "send"}
	if len(ag.calls) != len(want) {
		t.Fatalf("expected %d agent calls, got %v", len(want), ag.calls)
	}
	for i, step := range want {
		if ag.calls[i] != step {
			t.Fatalf("step %d: expected %s, got %s", i, step, ag.calls[i])
		}
	}

	if len(st.inserted) != 1 {
		t.Fatalf("expected one local campaign record, got %d", len(st.inserted))
	}
	if st.inserted[0].Status != string(domain.StatusSent) {
		t.Fatalf("expected optimistic Sent status, got %s", st.inserted[0].Status)
	}
	if st.inserted[0].Category != "newsletter" {
		t.Fatalf("expected normalized category, got %q", st.inserted[0].Category)
	}
	if len(st.recipients) != 2 {
		t.Fatalf("expected two recipient rows, got %d", len(st.recipients))
	}
}

func TestSendBlockedByAttachmentViolationsMakesNoAgentCalls(t *testing.T) {
	checker := &fakeChecker{textResult: domain.ComplianceResult{IsCompliant: true}}
	ag := &fakeAgent{}
	st := &fakeCampaignStore{}
	svc := newComposeService(checker, ag, st)

	d := svc.Drafts.Create("org_1")
	d.ViolationsByFile["banner.png"] = []domain.Violation{{Message: "age-targeted imagery"}}

	out, err := svc.Send(context.Background(), validSendRequest(d.ID), time.Now())
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Status != "blocked" {
		t.Fatalf("expected blocked, got %s", out.Status)
	}
	if out.Blocked == nil || out.Blocked.Stage != "attachments" {
		t.Fatalf("expected attachments stage, got %+v", out.Blocked)
	}
	if len(ag.calls) != 0 {
		t.Fatalf("expected zero agent calls, got %v", ag.calls)
	}
	if checker.textCalls != 0 {
		t.Fatalf("body check must not run when the attachment gate blocks")
	}
	if len(st.inserted) != 0 {
		t.Fatalf("blocked send must not be recorded")
	}
}

func TestSendBlockedByBodyViolationsMakesNoAgentCalls(t *testing.T) {
	checker := &fakeChecker{textResult: domain.ComplianceResult{
		IsCompliant: false,
		Violations:  []domain.Violation{{Message: "phrase targets recent graduates"}},
	}}
	ag := &fakeAgent{}
	svc := newComposeService(checker, ag, &fakeCampaignStore{})

	out, err := svc.Send(context.Background(), validSendRequest(""), time.Now())
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Status != "blocked" || out.Blocked == nil || out.Blocked.Stage != "body" {
		t.Fatalf("expected body block, got %+v", out)
	}
	if len(out.Blocked.BodyViolations) != 1 {
		t.Fatalf("expected the violation to be reported, got %+v", out.Blocked)
	}
	if len(ag.calls) != 0 {
		t.Fatalf("expected zero agent calls, got %v", ag.calls)
	}
}

func TestSendAbortsPipelineMidway(t *testing.T) {
	checker := &fakeChecker{textResult: domain.ComplianceResult{IsCompliant: true}}
	ag := &fakeAgent{recipientsErr: errors.New("recipient list rejected")}
	st := &fakeCampaignStore{}
	svc := newComposeService(checker, ag, st)

	_, err := svc.Send(context.Background(), validSendRequest(""), time.Now())
	if err == nil {
		t.Fatal("expected pipeline error")
	}

	want := []string{"create", "saveConfig", "addRecipients"}
	if len(ag.calls) != len(want) {
		t.Fatalf("expected pipeline to stop after addRecipients, got %v", ag.calls)
	}
	if len(st.inserted) != 0 {
		t.Fatalf("aborted send must not be recorded")
	}
}

func TestSendChecksStrippedBodyText(t *testing.T) {
	checker := &fakeChecker{textResult: domain.ComplianceResult{IsCompliant: true}}
	svc := newComposeService(checker, &fakeAgent{}, &fakeCampaignStore{})

	req := validSendRequest("")
	req.BodyHTML = "<p>Hello <b>there</b></p>"
	if _, err := svc.Send(context.Background(), req, time.Now()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if checker.textCalls != 1 {
		t.Fatalf("expected one text check, got %d", checker.textCalls)
	}
}

func TestSendValidation(t *testing.T) {
	svc := newComposeService(&fakeChecker{}, &fakeAgent{}, &fakeCampaignStore{})

	req := validSendRequest("")
	req.Recipients = nil
	if _, err := svc.Send(context.Background(), req, time.Now()); !errors.Is(err, domain.ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}

	req = validSendRequest("")
	req.Recipients[0].Email = "not-an-email"
	if _, err := svc.Send(context.Background(), req, time.Now()); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestSendDeletesDraftAfterDispatch(t *testing.T) {
	checker := &fakeChecker{textResult: domain.ComplianceResult{IsCompliant: true}}
	svc := newComposeService(checker, &fakeAgent{}, &fakeCampaignStore{})

	d := svc.Drafts.Create("org_1")
	if _, err := svc.Send(context.Background(), validSendRequest(d.ID), time.Now()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, ok := svc.Drafts.Get(d.ID); ok {
		t.Fatal("draft should be deleted after a successful send")
	}
}

func TestSendOnlyCompliantImageURLsLeaveTheProcess(t *testing.T) {
	checker := &fakeChecker{textResult: domain.ComplianceResult{IsCompliant: true}}
	ag := &fakeAgent{}
	svc := newComposeService(checker, ag, &fakeCampaignStore{})

	d := svc.Drafts.Create("org_1")
	d.Attachments = append(d.Attachments,
		domain.Attachment{Filename: "approved.png", MIMEType: "image/png"},
		domain.Attachment{Filename: "notes.pdf", MIMEType: "application/pdf"},
	)
	d.URLByFile["approved.png"] = "https://cdn.example.com/approved.png"

	if _, err := svc.Send(context.Background(), validSendRequest(d.ID), time.Now()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(ag.lastConfig.Images) != 1 || ag.lastConfig.Images[0] != "https://cdn.example.com/approved.png" {
		t.Fatalf("expected exactly the approved URL, got %v", ag.lastConfig.Images)
	}
}
