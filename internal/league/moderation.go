package league

import (
	"context"
	"fmt"
	"strings"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

var reportTargets = map[string]bool{
	"organization": true,
	"team":         true,
	"event":        true,
	"game":         true,
	"person":       true,
	"user":         true,
}

func (s *Service) FileReport(ctx context.Context, actor Actor, targetType, targetID, reason string) (domain.Report, error) {
	if actor.UserID == "" {
		return domain.Report{}, domain.ErrUnauthenticated
	}
	reason = strings.TrimSpace(reason)
	switch {
	case !reportTargets[targetType]:
		return domain.Report{}, fmt.Errorf("unknown target type %q: %w", targetType, domain.ErrInvalid)
	case targetID == "":
		return domain.Report{}, fmt.Errorf("targetId is required: %w", domain.ErrInvalid)
	case reason == "":
		return domain.Report{}, fmt.Errorf("reason is required: %w", domain.ErrInvalid)
	}
	rep := domain.Report{
		ReporterID: actor.UserID,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     reason,
		CreatedAt:  s.now(),
	}
	return rep, s.repo.CreateReport(ctx, &rep)
}

func (s *Service) ListReports(ctx context.Context, actor Actor, status domain.ReportStatus) ([]domain.Report, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, domain.ErrInvalid)
	}
	return s.repo.ListReports(ctx, status)
}

func (s *Service) ResolveReport(ctx context.Context, actor Actor, id string, status domain.ReportStatus) (domain.Report, error) {
	if !actor.Admin {
		return domain.Report{}, domain.ErrForbidden
	}
	return s.repo.ResolveReport(ctx, id, status, actor.UserID, s.now())
}

func (s *Service) CreateSport(ctx context.Context, actor Actor, name string) (domain.Sport, error) {
	if !actor.Admin {
		return domain.Sport{}, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Sport{}, fmt.Errorf("name is required: %w", domain.ErrInvalid)
	}
	sport := domain.Sport{Name: name, CreatedAt: s.now()}
	return sport, s.repo.CreateSport(ctx, &sport)
}
