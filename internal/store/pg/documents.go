package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/domain"
	"hradmin/internal/store"
)

func (s *Store) InsertDocument(ctx context.Context, in store.DocumentInsert) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO documents (id, org_id, employee_id, doc_type, filename, mime_type, size_bytes, content, status, uploaded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'pending',$9)
	`, in.ID, in.OrgID, in.EmployeeID, in.Type, in.Filename, in.MIMEType, in.Size, in.Content, in.Now)
	return err
}

func (s *Store) ListDocuments(ctx context.Context, orgID string) ([]domain.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT id, org_id, employee_id, doc_type, filename, mime_type, size_bytes, status, verified_by, verified_at, uploaded_at
		FROM documents WHERE org_id=$1 ORDER BY uploaded_at DESC
	`, orgID)
}

func (s *Store) ListEmployeeDocuments(ctx context.Context, orgID, employeeID string) ([]domain.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT id, org_id, employee_id, doc_type, filename, mime_type, size_bytes, status, verified_by, verified_at, uploaded_at
		FROM documents WHERE org_id=$1 AND employee_id=$2 ORDER BY uploaded_at DESC
	`, orgID, employeeID)
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		var verifiedBy *string
		if err := rows.Scan(&d.ID, &d.OrgID, &d.EmployeeID, &d.Type, &d.Filename, &d.MIMEType, &d.Size, &d.Status, &verifiedBy, &d.VerifiedAt, &d.UploadedAt); err != nil {
			return nil, err
		}
		if verifiedBy != nil {
			d.VerifiedBy = *verifiedBy
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) VerifyDocument(ctx context.Context, id, verifiedBy string, now time.Time) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE documents SET status='verified', verified_by=$2, verified_at=$3 WHERE id=$1 AND status='pending'
	`, id, verifiedBy, now)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) InsertDocumentRequest(ctx context.Context, r domain.DocumentRequest) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO document_requests (id, org_id, employee_id, doc_type, note, due_at, fulfilled, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,false,$7)
	`, r.ID, r.OrgID, r.EmployeeID, r.Type, nullIfEmpty(r.Note), r.DueAt, r.CreatedAt)
	return err
}

func (s *Store) ListDocumentRequests(ctx context.Context, orgID string) ([]domain.DocumentRequest, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, org_id, employee_id, doc_type, COALESCE(note,''), due_at, fulfilled, created_at
		FROM document_requests WHERE org_id=$1 ORDER BY due_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DocumentRequest
	for rows.Next() {
		var r domain.DocumentRequest
		if err := rows.Scan(&r.ID, &r.OrgID, &r.EmployeeID, &r.Type, &r.Note, &r.DueAt, &r.Fulfilled, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkRequestFulfilled flips the matching open request, if any, when a
// document of the same type arrives for the employee.
func (s *Store) MarkRequestFulfilled(ctx context.Context, orgID, employeeID, docType string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE document_requests SET fulfilled=true
		WHERE org_id=$1 AND employee_id=$2 AND doc_type=$3 AND NOT fulfilled
	`, orgID, employeeID, docType)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) GetDocumentContent(ctx context.Context, id string) (string, string, []byte, error) {
	var filename, mime string
	var content []byte
	row := s.DB.QueryRow(ctx, `SELECT filename, mime_type, content FROM documents WHERE id=$1`, id)
	err := row.Scan(&filename, &mime, &content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil, domain.ErrNotFound
		}
		return "", "", nil, err
	}
	return filename, mime, content, nil
}
