package service

import (
	"context"
	"errors"
	"testing"

	"hradmin/internal/domain"
)

func TestAddAttachmentCompliantImage(t *testing.T) {
	checker := &fakeChecker{imageResult: domain.ComplianceResult{
		IsCompliant: true,
		URL:         "https://cdn.example.com/logo.png",
	}}
	svc := newComposeService(checker, &fakeAgent{}, &fakeCampaignStore{})
	d := svc.Drafts.Create("org_1")

	res, err := svc.AddAttachment(context.Background(), d.ID,
		domain.Attachment{Filename: "logo.png", MIMEType: "image/png"}, "data:image/png;base64,xxx")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !res.Attached || res.URL != "https://cdn.example.com/logo.png" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(d.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(d.Attachments))
	}
	if _, ok := d.ViolationsByFile["logo.png"]; ok {
		t.Fatal("compliant file must not carry violations")
	}
}

func TestAddAttachmentViolationNotAttached(t *testing.T) {
	checker := &fakeChecker{imageResult: domain.ComplianceResult{
		IsCompliant: false,
		Violations:  []domain.Violation{{Message: "imagery excludes older applicants"}},
	}}
	svc := newComposeService(checker, &fakeAgent{}, &fakeCampaignStore{})
	d := svc.Drafts.Create("org_1")

	res, err := svc.AddAttachment(context.Background(), d.ID,
		domain.Attachment{Filename: "banner.png", MIMEType: "image/png"}, "data:image/png;base64,xxx")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.Attached {
		t.Fatal("rejected image must not be attached")
	}
	if len(d.Attachments) != 0 {
		t.Fatalf("expected no attachments, got %d", len(d.Attachments))
	}
	if len(d.ViolationsByFile["banner.png"]) != 1 {
		t.Fatal("violations must be recorded against the filename")
	}
}

func TestAddAttachmentCheckerErrorLeavesNoRecord(t *testing.T) {
	checker := &fakeChecker{imageErr: errors.New("service unavailable")}
	svc := newComposeService(checker, &fakeAgent{}, &fakeCampaignStore{})
	d := svc.Drafts.Create("org_1")

	_, err := svc.AddAttachment(context.Background(), d.ID,
		domain.Attachment{Filename: "pic.jpg", MIMEType: "image/jpeg"}, "data:image/jpeg;base64,xxx")
	if err == nil {
		t.Fatal("expected an error when the check cannot run")
	}
	if len(d.Attachments) != 0 {
		t.Fatal("file must not be attached when the check did not run")
	}
	if _, ok := d.ViolationsByFile["pic.jpg"]; ok {
		t.Fatal("a check that did not run must leave no violation record")
	}
	if _, ok := d.URLByFile["pic.jpg"]; ok {
		t.Fatal("a check that did not run must leave no URL record")
	}
}

func TestAddAttachmentBudgetExhausted(t *testing.T) {
	checker := &fakeChecker{imageErr: errors.New("flaky")}
	svc := newComposeService(checker, &fakeAgent{}, &fakeCampaignStore{})
	svc.MaxCheckAttemptsPerFile = 2
	d := svc.Drafts.Create("org_1")
	att := domain.Attachment{Filename: "pic.png", MIMEType: "image/png"}

	for i := 0; i < 2; i++ {
		if _, err := svc.AddAttachment(context.Background(), d.ID, att, "data:"); err == nil {
			t.Fatal("expected checker error")
		}
	}
	_, err := svc.AddAttachment(context.Background(), d.ID, att, "data:")
	if !errors.Is(err, ErrCheckBudgetSpent) {
		t.Fatalf("expected ErrCheckBudgetSpent, got %v", err)
	}
	if checker.imageCalls != 2 {
		t.Fatalf("expected the checker to be called twice, got %d", checker.imageCalls)
	}
}

func TestAddAttachmentNonImageSkipsCheck(t *testing.T) {
	checker := &fakeChecker{}
	svc := newComposeService(checker, &fakeAgent{}, &fakeCampaignStore{})
	d := svc.Drafts.Create("org_1")

	res, err := svc.AddAttachment(context.Background(), d.ID,
		domain.Attachment{Filename: "cv.pdf", MIMEType: "application/pdf"}, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !res.Attached {
		t.Fatal("non-image file should attach without a check")
	}
	if checker.imageCalls != 0 {
		t.Fatal("non-image files must not be submitted for an image check")
	}
}

func TestAddAttachmentDuplicateFilename(t *testing.T) {
	svc := newComposeService(&fakeChecker{}, &fakeAgent{}, &fakeCampaignStore{})
	d := svc.Drafts.Create("org_1")
	att := domain.Attachment{Filename: "cv.pdf", MIMEType: "application/pdf"}

	if _, err := svc.AddAttachment(context.Background(), d.ID, att, ""); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := svc.AddAttachment(context.Background(), d.ID, att, ""); !errors.Is(err, ErrDuplicateAttach) {
		t.Fatalf("expected ErrDuplicateAttach, got %v", err)
	}
}

func TestRemoveAttachmentPurgesComplianceState(t *testing.T) {
	checker := &fakeChecker{imageResult: domain.ComplianceResult{IsCompliant: true, URL: "https://cdn/x.png"}}
	svc := newComposeService(checker, &fakeAgent{}, &fakeCampaignStore{})
	d := svc.Drafts.Create("org_1")

	if _, err := svc.AddAttachment(context.Background(), d.ID,
		domain.Attachment{Filename: "x.png", MIMEType: "image/png"}, "data:"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.RemoveAttachment(d.ID, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(d.Attachments) != 0 {
		t.Fatal("attachment should be gone")
	}
	if _, ok := d.URLByFile["x.png"]; ok {
		t.Fatal("removal must purge the URL record")
	}
	if _, ok := d.ViolationsByFile["x.png"]; ok {
		t.Fatal("removal must purge the violation record")
	}

	if err := svc.RemoveAttachment(d.ID, 5); !errors.Is(err, ErrAttachmentIndex) {
		t.Fatalf("expected ErrAttachmentIndex, got %v", err)
	}
}

func TestDraftReady(t *testing.T) {
	d := &Draft{
		Attachments: []domain.Attachment{
			{Filename: "a.png", MIMEType: "image/png"},
			{Filename: "b.pdf", MIMEType: "application/pdf"},
		},
		ViolationsByFile: map[string][]domain.Violation{},
		URLByFile:        map[string]string{},
	}
	if d.Ready() {
		t.Fatal("image without an approved URL must not be ready")
	}
	d.URLByFile["a.png"] = "https://cdn/a.png"
	if !d.Ready() {
		t.Fatal("expected ready once every image carries a URL")
	}
	d.ViolationsByFile["a.png"] = []domain.Violation{{Message: "x"}}
	if d.Ready() {
		t.Fatal("any recorded violation must block readiness")
	}
}
