package service

import (
	"context"
	"errors"
	"testing"

	"hradmin/internal/domain"
)

type fakeCategoryStore struct {
	created    map[string][]string
	referenced []string
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{created: map[string][]string{}}
}

func (f *fakeCategoryStore) InsertCategory(ctx context.Context, orgID, name string) error {
	for _, existing := range f.created[orgID] {
		if existing == name {
			return nil
		}
	}
	f.created[orgID] = append(f.created[orgID], name)
	return nil
}

func (f *fakeCategoryStore) DeleteCategory(ctx context.Context, orgID, name string) (bool, error) {
	list := f.created[orgID]
	for i, existing := range list {
		if existing == name {
			f.created[orgID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryStore) ListCategories(ctx context.Context, orgID string) ([]string, error) {
	return f.created[orgID], nil
}

func (f *fakeCategoryStore) CampaignCategories(ctx context.Context, orgID string) ([]string, error) {
	return f.referenced, nil
}

func TestCategoryListUnionsDefaultsCreatedAndReferenced(t *testing.T) {
	st := newFakeCategoryStore()
	svc := &CategoryService{Store: st}
	ctx := context.Background()

	if _, err := svc.Create(ctx, "org_1", "  Hiring  "); err != nil {
		t.Fatalf("create: %v", err)
	}
	st.referenced = []string{"holiday"}

	got, err := svc.List(ctx, "org_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := map[string]bool{"hiring": true, "holiday": true}
	for _, d := range domain.DefaultCategories {
		want[d] = true
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d categories, got %v", len(want), got)
	}
	for _, name := range got {
		if !want[name] {
			t.Fatalf("unexpected category %q in %v", name, got)
		}
	}
}

func TestCategoryCreateNormalizesToLowercase(t *testing.T) {
	svc := &CategoryService{Store: newFakeCategoryStore()}
	name, err := svc.Create(context.Background(), "org_1", "Quarterly Update")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if name != "quarterly update" {
		t.Fatalf("expected lowercase, got %q", name)
	}

	if _, err := svc.Create(context.Background(), "org_1", "   "); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

// A deleted category that historical campaigns still reference comes
// back in the list; the past is never orphaned.
func TestDeletedCategoryResurrectsWhileReferenced(t *testing.T) {
	st := newFakeCategoryStore()
	svc := &CategoryService{Store: st}
	ctx := context.Background()

	if _, err := svc.Create(ctx, "org_1", "hiring"); err != nil {
		t.Fatalf("create: %v", err)
	}
	st.referenced = []string{"hiring"}

	fallback, err := svc.Delete(ctx, "org_1", "hiring")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fallback != domain.FallbackCategory {
		t.Fatalf("expected fallback %q, got %q", domain.FallbackCategory, fallback)
	}

	got, err := svc.List(ctx, "org_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, name := range got {
		if name == "hiring" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hiring to resurrect via campaign references, got %v", got)
	}
}
