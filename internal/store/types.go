package store

import "time"

// CampaignUpsert is the scanner's write: backend truth overwrites the
// local row unconditionally.
type CampaignUpsert struct {
	ID             string
	OrgID          string
	Subject        string
	Category       string
	Status         string
	SentCount      int
	DeliveredCount int
	FailedCount    int
	SentAt         time.Time
	Now            time.Time
}

type CampaignInsert struct {
	ID               string
	OrgID            string
	Subject          string
	BodyHTML         string
	Category         string
	RecipientSummary string
	Status           string
	Attachments      []string
	SentCount        int
	Now              time.Time
}

type RecipientUpsert struct {
	CampaignID string
	Email      string
	Name       string
	Status     string
	Now        time.Time
}

type DeliveryEvent struct {
	CampaignID string
	Email      string
	Status     string
	Reason     string
	Payload    any
	OccurredAt *time.Time
}

type ContactInsert struct {
	ID        string
	OrgID     string
	Email     string
	FirstName string
	LastName  string
	Company   string
	Tags      []string
	Now       time.Time
}

type DocumentInsert struct {
	ID         string
	OrgID      string
	EmployeeID string
	Type       string
	Filename   string
	MIMEType   string
	Size       int64
	Content    []byte
	Now        time.Time
}
