package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hradmin/internal/domain"
	"hradmin/internal/store"
)

type fakeContactStore struct {
	contacts []domain.Contact
}

func (f *fakeContactStore) InsertContact(ctx context.Context, in store.ContactInsert) error {
	f.contacts = append(f.contacts, domain.Contact{
		ID: in.ID, OrgID: in.OrgID, Email: in.Email,
		FirstName: in.FirstName, LastName: in.LastName, Company: in.Company,
		Tags: in.Tags, CreatedAt: in.Now,
	})
	return nil
}

func (f *fakeContactStore) GetContactByEmail(ctx context.Context, orgID, email string) (domain.Contact, bool, error) {
	for _, c := range f.contacts {
		if c.OrgID == orgID && c.Email == email {
			return c, true, nil
		}
	}
	return domain.Contact{}, false, nil
}

func (f *fakeContactStore) ListContacts(ctx context.Context, orgID string) ([]domain.Contact, error) {
	var out []domain.Contact
	for _, c := range f.contacts {
		if c.OrgID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactStore) SetContactTags(ctx context.Context, contactID string, tags []string) error {
	for i := range f.contacts {
		if f.contacts[i].ID == contactID {
			f.contacts[i].Tags = tags
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeContactStore) DeleteContact(ctx context.Context, contactID string) (bool, error) {
	for i := range f.contacts {
		if f.contacts[i].ID == contactID {
			f.contacts = append(f.contacts[:i], f.contacts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func seedContacts(t *testing.T, svc *ContactService) {
	t.Helper()
	inputs := []domain.CreateContactInput{
		{OrgID: "org_1", Email: "ada@acme.com", FirstName: "Ada", LastName: "Lovelace", Company: "Acme", Tags: []string{"engineering", "managers"}},
		{OrgID: "org_1", Email: "grace@acme.com", FirstName: "Grace", LastName: "Hopper", Company: "Acme", Tags: []string{"engineering"}},
		{OrgID: "org_1", Email: "sales@other.com", FirstName: "Sal", LastName: "Es", Company: "Other Co", Tags: []string{"sales"}},
	}
	for _, in := range inputs {
		if _, err := svc.Create(context.Background(), in); err != nil {
			t.Fatalf("seed %s: %v", in.Email, err)
		}
	}
}

func TestCreateContactRejectsDuplicateEmail(t *testing.T) {
	svc := &ContactService{Store: &fakeContactStore{}}
	in := domain.CreateContactInput{OrgID: "org_1", Email: "Ada@Acme.com"}

	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Same address in different case collides.
	if _, err := svc.Create(context.Background(), domain.CreateContactInput{OrgID: "org_1", Email: "ada@acme.com"}); !errors.Is(err, ErrDuplicateContact) {
		t.Fatalf("expected ErrDuplicateContact, got %v", err)
	}
}

func TestSearchByQueryAndTag(t *testing.T) {
	svc := &ContactService{Store: &fakeContactStore{}}
	seedContacts(t, svc)

	got, err := svc.Search(context.Background(), "org_1", "acme", "engineering")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 engineering contacts at acme, got %d", len(got))
	}

	got, err = svc.Search(context.Background(), "org_1", "hopper", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Email != "grace@acme.com" {
		t.Fatalf("expected grace only, got %+v", got)
	}
}

func TestAddByTagIsIdempotent(t *testing.T) {
	svc := &ContactService{Store: &fakeContactStore{}}
	seedContacts(t, svc)

	current := []domain.Recipient{{Email: "existing@x.com"}}
	once, added, err := svc.AddByTag(context.Background(), "org_1", "engineering", current)
	if err != nil {
		t.Fatalf("add by tag: %v", err)
	}
	if added != 2 || len(once) != 3 {
		t.Fatalf("expected 2 added on top of 1, got added=%d len=%d", added, len(once))
	}

	twice, added, err := svc.AddByTag(context.Background(), "org_1", "engineering", once)
	if err != nil {
		t.Fatalf("add by tag again: %v", err)
	}
	if added != 0 || len(twice) != len(once) {
		t.Fatalf("second add must be a no-op, got added=%d len=%d", added, len(twice))
	}
}

func TestTagsVocabulary(t *testing.T) {
	svc := &ContactService{Store: &fakeContactStore{}}
	seedContacts(t, svc)

	tags, err := svc.Tags(context.Background(), "org_1")
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("expected 3 distinct tags, got %v", tags)
	}
}

func TestImportCSVReportsRowErrors(t *testing.T) {
	svc := &ContactService{Store: &fakeContactStore{}}

	csvData := strings.Join([]string{
		"email,firstName,lastName,company,tags",
		"ok@x.com,First,Last,X Co,alpha;beta",
		"not-an-email,Bad,Row,,",
		"ok@x.com,Dup,Licate,,",
		"second@x.com,Second,Person,,",
	}, "\n")

	res, err := svc.ImportCSV(context.Background(), "org_1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", res.Imported)
	}
	if res.Skipped != 2 || len(res.Errors) != 2 {
		t.Fatalf("expected 2 skipped rows with errors, got %+v", res)
	}
}

func TestImportCSVRequiresEmailColumn(t *testing.T) {
	svc := &ContactService{Store: &fakeContactStore{}}
	_, err := svc.ImportCSV(context.Background(), "org_1", strings.NewReader("name,company\nA,B"))
	if err == nil {
		t.Fatal("expected an error for a header without email")
	}
}
