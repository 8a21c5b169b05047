package league

import (
	"context"
	"fmt"
	"strings"

	"github.com/DoyleJ11/league-backend/internal/auth"
	"github.com/DoyleJ11/league-backend/internal/domain"
)

// CreateClaimReferral issues a single-use token that lets its holder claim an
// unclaimed organization.
func (s *Service) CreateClaimReferral(ctx context.Context, actor Actor, orgID, email string) (domain.OrgClaimReferral, error) {
	if !actor.Admin {
		return domain.OrgClaimReferral{}, domain.ErrForbidden
	}
	org, err := s.repo.GetOrg(ctx, orgID)
	if err != nil {
		return domain.OrgClaimReferral{}, err
	}
	if org.Claimed {
		return domain.OrgClaimReferral{}, fmt.Errorf("organization already claimed: %w", domain.ErrConflict)
	}
	token, err := auth.NewToken()
	if err != nil {
		return domain.OrgClaimReferral{}, err
	}
	now := s.now()
	ref := domain.OrgClaimReferral{
		OrganizationID: org.ID,
		Token:          token,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		CreatedBy:      actor.UserID,
		ExpiresAt:      now.Add(s.claimTTL),
		CreatedAt:      now,
	}
	return ref, s.repo.CreateReferral(ctx, &ref)
}

// ClaimOrganization redeems token for actor and publishes the claimed
// organization's summary.
func (s *Service) ClaimOrganization(ctx context.Context, actor Actor, token string) (domain.OrganizationSummary, error) {
	if actor.UserID == "" {
		return domain.OrganizationSummary{}, domain.ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.OrganizationSummary{}, fmt.Errorf("token is required: %w", domain.ErrInvalid)
	}
	ref, err := s.repo.ConsumeReferral(ctx, token, actor.UserID, s.now())
	if err != nil {
		return domain.OrganizationSummary{}, err
	}
	org := domain.Organization{ID: ref.OrganizationID, Claimed: true}
	if got, err := s.repo.GetOrg(ctx, ref.OrganizationID); err == nil {
		org = got
	}
	summary, effects := s.orgSummary(ctx, org)
	effects = append(effects, s.notify(ctx, []string{ref.CreatedBy}, actor.UserID, domain.NotifyOrgClaimed,
		fmt.Sprintf("%s was claimed", summary.Name), summary.ID)...)
	s.publish(ctx, effects...)
	return summary, nil
}

// ExpireReferrals flags referrals past their expiry; run by the scheduler.
func (s *Service) ExpireReferrals(ctx context.Context) (int64, error) {
	return s.repo.ExpireReferrals(ctx, s.now())
}
