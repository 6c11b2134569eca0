// AngelaMos | 2026
// service.go

package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/carterperez-dev/admin-console/internal/activity"
	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/core"
)

const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

var periods = map[string]time.Duration{
	PeriodWeek:  7 * 24 * time.Hour,
	PeriodMonth: 30 * 24 * time.Hour,
	PeriodYear:  365 * 24 * time.Hour,
}

// Activities is what the dashboard reads from the activity log.
type Activities interface {
	Recent(ctx context.Context, viewer authz.Subject, limit int) ([]activity.Activity, error)
	CountSince(ctx context.Context, types []activity.Type, userID string, since time.Time) (int, error)
}

// Metrics holds the headline counters. The detail fields are only filled
// for admins and above.
type Metrics struct {
	TotalUsers      int  `json:"totalUsers"`
	TotalModules    int  `json:"totalModules"`
	TotalUserTypes  int  `json:"totalUserTypes"`
	ActiveUsers     int  `json:"activeUsers"`
	DeletedUsers    *int `json:"deletedUsers,omitempty"`
	InactiveModules *int `json:"inactiveModules,omitempty"`
	TotalUserAccess *int `json:"totalUserAccess,omitempty"`
}

// UserStats carries the counters matching the viewer's role; the rest
// stay empty.
type UserStats struct {
	Period               string `json:"period"`
	UserRegistrations    *int   `json:"userRegistrations,omitempty"`
	PermissionChanges    *int   `json:"permissionChanges,omitempty"`
	ModuleAssignments    *int   `json:"moduleAssignments,omitempty"`
	UserActivities       *int   `json:"userActivities,omitempty"`
	PermissionActivities *int   `json:"permissionActivities,omitempty"`
	PersonalActivities   *int   `json:"personalActivities,omitempty"`
	LoginActivities      *int   `json:"loginActivities,omitempty"`
}

type Service struct {
	repo       Repository
	activities Activities
	roles      *authz.Hierarchy
	now        func() time.Time
}

func NewService(repo Repository, activities Activities, roles *authz.Hierarchy) *Service {
	return &Service{
		repo:       repo,
		activities: activities,
		roles:      roles,
		now:        time.Now,
	}
}

func (s *Service) Metrics(ctx context.Context, viewer authz.Subject) (*Metrics, error) {
	withDetail := s.roles.AtLeast(viewer.Role, authz.RoleAdmin)

	counts, detail, err := s.repo.Snapshot(ctx, withDetail)
	if err != nil {
		return nil, core.DatabaseError(err)
	}

	m := &Metrics{
		TotalUsers:     counts.TotalUsers,
		TotalModules:   counts.TotalModules,
		TotalUserTypes: counts.TotalUserTypes,
		ActiveUsers:    counts.ActiveUsers,
	}
	if detail != nil {
		m.DeletedUsers = &detail.DeletedUsers
		m.InactiveModules = &detail.InactiveModules
		m.TotalUserAccess = &detail.TotalUserAccess
	}

	return m, nil
}

func (s *Service) Activities(
	ctx context.Context,
	viewer authz.Subject,
	limit int,
) ([]activity.Activity, error) {
	return s.activities.Recent(ctx, viewer, limit)
}

// NormalizePeriod maps unknown or empty periods to a month.
func NormalizePeriod(period string) string {
	p := strings.ToLower(strings.TrimSpace(period))
	if _, ok := periods[p]; ok {
		return p
	}
	return PeriodMonth
}

func (s *Service) UserStats(
	ctx context.Context,
	viewer authz.Subject,
	period string,
) (*UserStats, error) {
	period = NormalizePeriod(period)
	since := s.now().Add(-periods[period]).UTC()
	stats := &UserStats{Period: period}

	count := func(dst **int, userID string, types ...activity.Type) error {
		n, err := s.activities.CountSince(ctx, types, userID, since)
		if err != nil {
			return err
		}
		*dst = &n
		return nil
	}

	var err error
	switch {
	case s.roles.IsOwner(viewer.Role):
		err = firstErr(
			func() error { return count(&stats.UserRegistrations, "", activity.TypeUserCreated) },
			func() error { return count(&stats.PermissionChanges, "", activity.TypePermissionChanged) },
			func() error { return count(&stats.ModuleAssignments, "", activity.TypeModuleAssigned) },
		)
	case s.roles.AtLeast(viewer.Role, authz.RoleManager):
		err = firstErr(
			func() error {
				return count(&stats.UserActivities, "",
					activity.TypeUserCreated,
					activity.TypeUserUpdated,
					activity.TypeUserDeleted,
				)
			},
			func() error {
				return count(&stats.PermissionActivities, "",
					activity.TypePermissionChanged,
					activity.TypeModuleAssigned,
					activity.TypeModuleUnassigned,
				)
			},
		)
	default:
		err = firstErr(
			func() error { return count(&stats.PersonalActivities, viewer.ID) },
			func() error { return count(&stats.LoginActivities, viewer.ID, activity.TypeLogin) },
		)
	}
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func firstErr(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
