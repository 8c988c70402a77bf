package pg

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hradmin/internal/domain"
	"hradmin/internal/store"
)

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) InsertCampaign(ctx context.Context, in store.CampaignInsert) error {
	atts, _ := json.Marshal(in.Attachments)
	_, err := s.DB.Exec(ctx, `
		INSERT INTO campaigns (id, org_id, subject, body_html, category, recipient_summary, status, attachments_json, sent_count, delivered_count, failed_count, sent_at, updated_at)
		VALUES ($1,$2,$3,$4,lower($5),$6,$7,$8,$9,0,0,$10,$10)
	`, in.ID, in.OrgID, in.Subject, in.BodyHTML, in.Category, in.RecipientSummary, in.Status, atts, in.SentCount, in.Now)
	return err
}

// UpsertCampaignStatus writes backend truth over the local row. Only the
// agent-owned columns change; body and attachments stay as dispatched.
func (s *Store) UpsertCampaignStatus(ctx context.Context, in store.CampaignUpsert) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO campaigns (id, org_id, subject, body_html, category, recipient_summary, status, attachments_json, sent_count, delivered_count, failed_count, sent_at, updated_at)
		VALUES ($1,$2,$3,'',lower($4),'',$5,'[]',$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			category = EXCLUDED.category,
			sent_count = EXCLUDED.sent_count,
			delivered_count = EXCLUDED.delivered_count,
			failed_count = EXCLUDED.failed_count,
			updated_at = EXCLUDED.updated_at
	`, in.ID, in.OrgID, in.Subject, in.Category, in.Status, in.SentCount, in.DeliveredCount, in.FailedCount, in.SentAt, in.Now)
	return err
}

func (s *Store) GetCampaign(ctx context.Context, id string) (domain.Campaign, bool, error) {
	var c domain.Campaign
	var attsJSON []byte
	row := s.DB.QueryRow(ctx, `
		SELECT id, org_id, subject, body_html, category, recipient_summary, status, attachments_json,
		       sent_count, delivered_count, failed_count, sent_at, updated_at
		FROM campaigns WHERE id=$1
	`, id)
	err := row.Scan(&c.ID, &c.OrgID, &c.Subject, &c.BodyHTML, &c.Category, &c.RecipientSummary, &c.Status,
		&attsJSON, &c.SentCount, &c.DeliveredCount, &c.FailedCount, &c.SentAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Campaign{}, false, nil
		}
		return domain.Campaign{}, false, err
	}
	_ = json.Unmarshal(attsJSON, &c.Attachments)
	return c, true, nil
}

func (s *Store) ListCampaigns(ctx context.Context, orgID string) ([]domain.Campaign, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, org_id, subject, body_html, category, recipient_summary, status, attachments_json,
		       sent_count, delivered_count, failed_count, sent_at, updated_at
		FROM campaigns WHERE org_id=$1 ORDER BY sent_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var attsJSON []byte
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Subject, &c.BodyHTML, &c.Category, &c.RecipientSummary, &c.Status,
			&attsJSON, &c.SentCount, &c.DeliveredCount, &c.FailedCount, &c.SentAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(attsJSON, &c.Attachments)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CampaignCategories returns the distinct lowercase categories that any
// campaign of the org still references.
func (s *Store) CampaignCategories(ctx context.Context, orgID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT DISTINCT lower(category) FROM campaigns WHERE org_id=$1 AND category <> ''
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpsertRecipient(ctx context.Context, in store.RecipientUpsert) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO campaign_recipients (campaign_id, email, name, status, updated_at)
		VALUES ($1,lower($2),$3,$4,$5)
		ON CONFLICT (campaign_id, email) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, in.CampaignID, in.Email, in.Name, in.Status, in.Now)
	return err
}

func (s *Store) ListRecipients(ctx context.Context, campaignID string) ([]domain.Recipient, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT email, name, status FROM campaign_recipients WHERE campaign_id=$1 ORDER BY email
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		if err := rows.Scan(&r.Email, &r.Name, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRecipientStatus applies a delivery event; returns false when the
// (campaign, email) pair is unknown.
func (s *Store) UpdateRecipientStatus(ctx context.Context, campaignID, email, status string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE campaign_recipients SET status=$3, updated_at=now() WHERE campaign_id=$1 AND email=lower($2)
	`, campaignID, email, status)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) InsertDeliveryEvent(ctx context.Context, in store.DeliveryEvent) error {
	b, _ := json.Marshal(in.Payload)
	_, err := s.DB.Exec(ctx, `
		INSERT INTO delivery_events (campaign_id, email, status, reason, payload_json, occurred_at)
		VALUES ($1,lower($2),$3,$4,$5,$6)
	`, in.CampaignID, in.Email, in.Status, nullIfEmpty(in.Reason), b, in.OccurredAt)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
