package service

import (
	"context"
	"log/slog"
	"time"

	"hradmin/internal/domain"
	"hradmin/internal/store"
	"hradmin/internal/util"
)

type DocumentStore interface {
	InsertDocument(ctx context.Context, in store.DocumentInsert) error
	ListDocuments(ctx context.Context, orgID string) ([]domain.Document, error)
	ListEmployeeDocuments(ctx context.Context, orgID, employeeID string) ([]domain.Document, error)
	VerifyDocument(ctx context.Context, id, verifiedBy string, now time.Time) (bool, error)
	DeleteDocument(ctx context.Context, id string) (bool, error)
	GetDocumentContent(ctx context.Context, id string) (string, string, []byte, error)

	InsertDocumentRequest(ctx context.Context, r domain.DocumentRequest) error
	ListDocumentRequests(ctx context.Context, orgID string) ([]domain.DocumentRequest, error)
	MarkRequestFulfilled(ctx context.Context, orgID, employeeID, docType string) (bool, error)
}

type DocumentService struct {
	Store DocumentStore
}

type UploadInput struct {
	OrgID      string
	EmployeeID string
	Type       string
	Filename   string
	MIMEType   string
	Content    []byte
}

func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (domain.Document, error) {
	if in.OrgID == "" || in.EmployeeID == "" || in.Filename == "" || len(in.Content) == 0 {
		return domain.Document{}, domain.ErrMissingFields
	}
	now := util.NowUTC()
	d := domain.Document{
		ID:         util.NewID("doc"),
		OrgID:      in.OrgID,
		EmployeeID: in.EmployeeID,
		Type:       in.Type,
		Filename:   in.Filename,
		MIMEType:   in.MIMEType,
		Size:       int64(len(in.Content)),
		Status:     domain.DocPending,
		UploadedAt: now,
	}
	if err := s.Store.InsertDocument(ctx, store.DocumentInsert{
		ID: d.ID, OrgID: d.OrgID, EmployeeID: d.EmployeeID, Type: d.Type,
		Filename: d.Filename, MIMEType: d.MIMEType, Size: d.Size,
		Content: in.Content, Now: now,
	}); err != nil {
		return domain.Document{}, err
	}

	// Fulfilling an open request is best effort; the upload stands
	// either way and the request can be closed by hand.
	if in.Type != "" {
		if _, err := s.Store.MarkRequestFulfilled(ctx, in.OrgID, in.EmployeeID, in.Type); err != nil {
			slog.Warn("document request fulfillment update failed", "err", err, "document_id", d.ID)
		}
	}
	return d, nil
}

func (s *DocumentService) List(ctx context.Context, orgID string) ([]domain.Document, error) {
	return s.Store.ListDocuments(ctx, orgID)
}

func (s *DocumentService) ListForEmployee(ctx context.Context, orgID, employeeID string) ([]domain.Document, error) {
	return s.Store.ListEmployeeDocuments(ctx, orgID, employeeID)
}

func (s *DocumentService) Verify(ctx context.Context, id, verifiedBy string) error {
	if verifiedBy == "" {
		return domain.ErrMissingFields
	}
	ok, err := s.Store.VerifyDocument(ctx, id, verifiedBy, util.NowUTC())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	deleted, err := s.Store.DeleteDocument(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *DocumentService) Download(ctx context.Context, id string) (filename, mimeType string, content []byte, err error) {
	return s.Store.GetDocumentContent(ctx, id)
}

func (s *DocumentService) CreateRequest(ctx context.Context, in domain.DocumentRequestInput) (domain.DocumentRequest, error) {
	if err := in.Validate(); err != nil {
		return domain.DocumentRequest{}, err
	}
	r := domain.DocumentRequest{
		ID:         util.NewID("dcr"),
		OrgID:      in.OrgID,
		EmployeeID: in.EmployeeID,
		Type:       in.Type,
		Note:       in.Note,
		DueAt:      in.DueAt,
		CreatedAt:  util.NowUTC(),
	}
	if err := s.Store.InsertDocumentRequest(ctx, r); err != nil {
		return domain.DocumentRequest{}, err
	}
	return r, nil
}

func (s *DocumentService) ListRequests(ctx context.Context, orgID string) ([]domain.DocumentRequest, error) {
	return s.Store.ListDocumentRequests(ctx, orgID)
}
