package service

import (
	"context"

	"hradmin/internal/domain"
	"hradmin/internal/util"
)

type LicenseStore interface {
	InsertLicense(ctx context.Context, l domain.License) error
	UpdateLicense(ctx context.Context, l domain.License) (bool, error)
	GetLicense(ctx context.Context, id string) (domain.License, bool, error)
	ListLicenses(ctx context.Context, orgID string) ([]domain.License, error)
	DeleteLicense(ctx context.Context, id string) (bool, error)
}

type LicenseService struct {
	Store LicenseStore
}

// LicenseView is a license plus its derived status at read time.
type LicenseView struct {
	domain.License
	Status domain.LicenseStatus `json:"status"`
}

func (s *LicenseService) Create(ctx context.Context, in domain.LicenseInput) (domain.License, error) {
	if err := in.Validate(); err != nil {
		return domain.License{}, err
	}
	now := util.NowUTC()
	l := domain.License{
		ID:        util.NewID("lic"),
		OrgID:     in.OrgID,
		Name:      in.Name,
		Number:    in.Number,
		Authority: in.Authority,
		State:     in.State,
		IssuedAt:  in.IssuedAt,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.InsertLicense(ctx, l); err != nil {
		return domain.License{}, err
	}
	return l, nil
}

func (s *LicenseService) Update(ctx context.Context, id string, in domain.LicenseInput) (domain.License, error) {
	if err := in.Validate(); err != nil {
		return domain.License{}, err
	}
	existing, found, err := s.Store.GetLicense(ctx, id)
	if err != nil {
		return domain.License{}, err
	}
	if !found {
		return domain.License{}, domain.ErrNotFound
	}

	existing.Name = in.Name
	existing.Number = in.Number
	existing.Authority = in.Authority
	existing.State = in.State
	existing.IssuedAt = in.IssuedAt
	existing.ExpiresAt = in.ExpiresAt
	existing.UpdatedAt = util.NowUTC()

	updated, err := s.Store.UpdateLicense(ctx, existing)
	if err != nil {
		return domain.License{}, err
	}
	if !updated {
		return domain.License{}, domain.ErrNotFound
	}
	return existing, nil
}

func (s *LicenseService) List(ctx context.Context, orgID string) ([]LicenseView, error) {
	licenses, err := s.Store.ListLicenses(ctx, orgID)
	if err != nil {
		return nil, err
	}
	now := util.NowUTC()
	out := make([]LicenseView, len(licenses))
	for i, l := range licenses {
		out[i] = LicenseView{License: l, Status: l.StatusAt(now)}
	}
	return out, nil
}

func (s *LicenseService) Get(ctx context.Context, id string) (LicenseView, error) {
	l, found, err := s.Store.GetLicense(ctx, id)
	if err != nil {
		return LicenseView{}, err
	}
	if !found {
		return LicenseView{}, domain.ErrNotFound
	}
	return LicenseView{License: l, Status: l.StatusAt(util.NowUTC())}, nil
}

func (s *LicenseService) Delete(ctx context.Context, id string) error {
	deleted, err := s.Store.DeleteLicense(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}
