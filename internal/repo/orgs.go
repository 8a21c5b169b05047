package repo

import (
	"context"
	"time"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

// CreateOrg stores org and makes adminID its first admin.
func (r *Repo) CreateOrg(ctx context.Context, org *domain.Organization, adminID string) error {
	newID(&org.ID)
	return r.Tx(ctx, func(tx *Repo) error {
		if err := tx.conn(ctx).Create(org).Error; err != nil {
			return translate(err, "create organization")
		}
		if adminID == "" {
			return nil
		}
		return tx.AddOrgAdmin(ctx, org.ID, adminID)
	})
}

func (r *Repo) GetOrg(ctx context.Context, id string) (domain.Organization, error) {
	var org domain.Organization
	err := r.conn(ctx).First(&org, "id = ?", id).Error
	return org, translate(err, "get organization")
}

func (r *Repo) SaveOrg(ctx context.Context, org *domain.Organization) error {
	return translate(r.conn(ctx).Save(org).Error, "save organization")
}

func (r *Repo) ListOrgs(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	err := r.conn(ctx).Order("name").Find(&orgs).Error
	return orgs, translate(err, "list organizations")
}

func (r *Repo) AddOrgAdmin(ctx context.Context, orgID, userID string) error {
	err := r.conn(ctx).Create(&domain.OrgAdmin{
		OrganizationID: orgID,
		UserID:         userID,
		CreatedAt:      time.Now().UTC(),
	}).Error
	return translate(err, "add organization admin")
}

func (r *Repo) IsOrgAdmin(ctx context.Context, orgID, userID string) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&domain.OrgAdmin{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Count(&n).Error
	return n > 0, translate(err, "check organization admin")
}

// OrgAdminUserIDs lists the distinct admins of any of orgIDs.
func (r *Repo) OrgAdminUserIDs(ctx context.Context, orgIDs ...string) ([]string, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.conn(ctx).Model(&domain.OrgAdmin{}).
		Distinct("user_id").
		Where("organization_id IN ?", orgIDs).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, translate(err, "list organization admins")
}

// OrgSummary counts an organization's entities. Events count when the org
// owns them or participates in them.
func (r *Repo) OrgSummary(ctx context.Context, id string) (domain.OrganizationSummary, error) {
	org, err := r.GetOrg(ctx, id)
	if err != nil {
		return domain.OrganizationSummary{}, err
	}
	s := domain.OrganizationSummary{Organization: org}

	db := r.conn(ctx)
	var n int64
	if err := db.Model(&domain.Team{}).Where("organization_id = ?", id).Count(&n).Error; err != nil {
		return s, translate(err, "count teams")
	}
	s.TeamCount = int(n)

	if err := db.Model(&domain.Venue{}).Where("organization_id = ?", id).Count(&n).Error; err != nil {
		return s, translate(err, "count venues")
	}
	s.VenueCount = int(n)

	participating := db.Model(&domain.EventParticipant{}).Select("event_id").Where("organization_id = ?", id)
	if err := db.Model(&domain.Event{}).
		Where("organization_id = ? OR id IN (?)", id, participating).
		Count(&n).Error; err != nil {
		return s, translate(err, "count events")
	}
	s.EventCount = int(n)

	if err := db.Model(&domain.Game{}).Where("organization_id = ?", id).Count(&n).Error; err != nil {
		return s, translate(err, "count games")
	}
	s.GameCount = int(n)

	if err := db.Model(&domain.Game{}).
		Where("organization_id = ? AND status = ?", id, domain.GameLive).
		Count(&n).Error; err != nil {
		return s, translate(err, "count live games")
	}
	s.LiveGameCount = int(n)

	return s, nil
}

// OrgSummaries returns summaries in the order of ids, skipping duplicates.
func (r *Repo) OrgSummaries(ctx context.Context, ids ...string) ([]domain.OrganizationSummary, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]domain.OrganizationSummary, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		s, err := r.OrgSummary(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Repo) ListOrgSummaries(ctx context.Context) ([]domain.OrganizationSummary, error) {
	orgs, err := r.ListOrgs(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(orgs))
	for i, o := range orgs {
		ids[i] = o.ID
	}
	return r.OrgSummaries(ctx, ids...)
}
