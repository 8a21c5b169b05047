package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

func (r *Repo) CreateNotifications(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	for i := range ns {
		newID(&ns[i].ID)
		if ns[i].Status == "" {
			ns[i].Status = domain.NotificationUnread
		}
	}
	return translate(r.conn(ctx).Create(&ns).Error, "create notifications")
}

func (r *Repo) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	var ns []domain.Notification
	err := r.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&ns).Error
	return ns, translate(err, "list notifications")
}

// MarkNotificationRead marks one of userID's notifications read. Marking it
// again leaves ReadAt unchanged.
func (r *Repo) MarkNotificationRead(ctx context.Context, id, userID string, now time.Time) (domain.Notification, error) {
	var n domain.Notification
	err := r.Tx(ctx, func(tx *Repo) error {
		if err := tx.conn(ctx).First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return translate(err, "mark notification read")
		}
		if n.Status == domain.NotificationRead {
			return nil
		}
		n.Status = domain.NotificationRead
		n.ReadAt = &now
		return translate(tx.conn(ctx).Save(&n).Error, "mark notification read")
	})
	return n, err
}

func (r *Repo) CreateReport(ctx context.Context, rep *domain.Report) error {
	newID(&rep.ID)
	if rep.Status == "" {
		rep.Status = domain.ReportOpen
	}
	return translate(r.conn(ctx).Create(rep).Error, "create report")
}

// ListReports returns reports newest first, optionally filtered by status.
func (r *Repo) ListReports(ctx context.Context, status domain.ReportStatus) ([]domain.Report, error) {
	q := r.conn(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reps []domain.Report
	err := q.Order("created_at DESC").Find(&reps).Error
	return reps, translate(err, "list reports")
}

// ResolveReport closes an open report as resolved or dismissed.
func (r *Repo) ResolveReport(ctx context.Context, id string, status domain.ReportStatus, by string, now time.Time) (domain.Report, error) {
	var rep domain.Report
	if status != domain.ReportResolved && status != domain.ReportDismissed {
		return rep, fmt.Errorf("resolve report: %w: status %q", domain.ErrInvalid, status)
	}
	err := r.Tx(ctx, func(tx *Repo) error {
		if err := tx.conn(ctx).First(&rep, "id = ?", id).Error; err != nil {
			return translate(err, "resolve report")
		}
		if rep.Status != domain.ReportOpen {
			return fmt.Errorf("resolve report: %w: already %s", domain.ErrConflict, rep.Status)
		}
		rep.Status = status
		rep.ResolvedBy = &by
		rep.ResolvedAt = &now
		return translate(tx.conn(ctx).Save(&rep).Error, "resolve report")
	})
	return rep, err
}

func (r *Repo) CreateSport(ctx context.Context, s *domain.Sport) error {
	newID(&s.ID)
	return translate(r.conn(ctx).Create(s).Error, "create sport")
}

func (r *Repo) ListSports(ctx context.Context) ([]domain.Sport, error) {
	var sports []domain.Sport
	err := r.conn(ctx).Order("name").Find(&sports).Error
	return sports, translate(err, "list sports")
}

func (r *Repo) GetSport(ctx context.Context, id string) (domain.Sport, error) {
	var s domain.Sport
	err := r.conn(ctx).First(&s, "id = ?", id).Error
	return s, translate(err, "get sport")
}
