package service

import (
	"context"
	"errors"
	"sort"

	"hradmin/internal/domain"
)

type CategoryStore interface {
	InsertCategory(ctx context.Context, orgID, name string) error
	DeleteCategory(ctx context.Context, orgID, name string) (bool, error)
	ListCategories(ctx context.Context, orgID string) ([]string, error)
	CampaignCategories(ctx context.Context, orgID string) ([]string, error)
}

var ErrEmptyCategory = errors.New("category name must not be empty")

// CategoryService manages the per-org campaign category vocabulary.
// Names are lowercase by construction; create/delete only, no rename.
type CategoryService struct {
	Store CategoryStore
}

// List unions the seeded defaults, the user-created labels and every
// category still referenced by an existing campaign. The last part
// deliberately resurrects deleted categories with historical campaigns,
// so the sent view can always group by category.
func (s *CategoryService) List(ctx context.Context, orgID string) ([]string, error) {
	created, err := s.Store.ListCategories(ctx, orgID)
	if err != nil {
		return nil, err
	}
	referenced, err := s.Store.CampaignCategories(ctx, orgID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []string
	for _, group := range [][]string{domain.DefaultCategories, created, referenced} {
		for _, name := range group {
			name = domain.NormalizeCategory(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *CategoryService) Create(ctx context.Context, orgID, name string) (string, error) {
	normalized := domain.NormalizeCategory(name)
	if normalized == "" {
		return "", ErrEmptyCategory
	}
	if err := s.Store.InsertCategory(ctx, orgID, normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// Delete removes a user-created category and returns the fallback label
// a caller whose active selection was just deleted should switch to.
func (s *CategoryService) Delete(ctx context.Context, orgID, name string) (string, error) {
	normalized := domain.NormalizeCategory(name)
	if normalized == "" {
		return "", ErrEmptyCategory
	}
	if _, err := s.Store.DeleteCategory(ctx, orgID, normalized); err != nil {
		return "", err
	}
	return domain.FallbackCategory, nil
}
