package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

func (r *Repo) CreateReferral(ctx context.Context, ref *domain.OrgClaimReferral) error {
	newID(&ref.ID)
	return translate(r.conn(ctx).Create(ref).Error, "create claim referral")
}

func (r *Repo) GetReferralByToken(ctx context.Context, token string) (domain.OrgClaimReferral, error) {
	var ref domain.OrgClaimReferral
	err := r.conn(ctx).First(&ref, "token = ?", token).Error
	return ref, translate(err, "get claim referral")
}

// ConsumeReferral redeems token for userID: the referral is marked used, the
// organization claimed, and the user made one of its admins. A used or
// expired token yields domain.ErrGone.
func (r *Repo) ConsumeReferral(ctx context.Context, token, userID string, now time.Time) (domain.OrgClaimReferral, error) {
	var ref domain.OrgClaimReferral
	err := r.Tx(ctx, func(tx *Repo) error {
		var err error
		if ref, err = tx.GetReferralByToken(ctx, token); err != nil {
			return err
		}
		if !ref.Usable(now) {
			return fmt.Errorf("claim referral: %w", domain.ErrGone)
		}

		// The predicate repeats Usable so a concurrent redemption loses here.
		res := tx.conn(ctx).Model(&domain.OrgClaimReferral{}).
			Where("id = ? AND used_at IS NULL AND expired = ? AND expires_at > ?", ref.ID, false, now).
			Updates(map[string]any{"used_at": now, "used_by": userID})
		if res.Error != nil {
			return translate(res.Error, "use claim referral")
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("claim referral: %w", domain.ErrGone)
		}
		ref.UsedAt = &now
		ref.UsedBy = &userID
		if err := tx.conn(ctx).Model(&domain.Organization{}).
			Where("id = ?", ref.OrganizationID).
			Updates(map[string]any{"claimed": true, "updated_at": now}).Error; err != nil {
			return translate(err, "claim organization")
		}

		admin, err := tx.IsOrgAdmin(ctx, ref.OrganizationID, userID)
		if err != nil || admin {
			return err
		}
		return tx.AddOrgAdmin(ctx, ref.OrganizationID, userID)
	})
	return ref, err
}

// ExpireReferrals flags unused referrals whose expiry has passed and returns
// how many changed.
func (r *Repo) ExpireReferrals(ctx context.Context, now time.Time) (int64, error) {
	res := r.conn(ctx).Model(&domain.OrgClaimReferral{}).
		Where("used_at IS NULL AND expired = ? AND expires_at <= ?", false, now).
		Update("expired", true)
	return res.RowsAffected, translate(res.Error, "expire claim referrals")
}
