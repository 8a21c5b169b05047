package repo

import (
	"context"

	"github.com/DoyleJ11/league-backend/internal/domain"
)

func (r *Repo) CreateTeam(ctx context.Context, t *domain.Team) error {
	newID(&t.ID)
	return translate(r.conn(ctx).Create(t).Error, "create team")
}

func (r *Repo) GetTeam(ctx context.Context, id string) (domain.Team, error) {
	var t domain.Team
	err := r.conn(ctx).First(&t, "id = ?", id).Error
	return t, translate(err, "get team")
}

func (r *Repo) ListTeams(ctx context.Context, orgID string) ([]domain.Team, error) {
	var teams []domain.Team
	err := r.conn(ctx).Where("organization_id = ?", orgID).Order("name").Find(&teams).Error
	return teams, translate(err, "list teams")
}

func (r *Repo) CreateVenue(ctx context.Context, v *domain.Venue) error {
	newID(&v.ID)
	return translate(r.conn(ctx).Create(v).Error, "create venue")
}

func (r *Repo) GetVenue(ctx context.Context, id string) (domain.Venue, error) {
	var v domain.Venue
	err := r.conn(ctx).First(&v, "id = ?", id).Error
	return v, translate(err, "get venue")
}

func (r *Repo) ListVenues(ctx context.Context, orgID string) ([]domain.Venue, error) {
	var venues []domain.Venue
	err := r.conn(ctx).Where("organization_id = ?", orgID).Order("name").Find(&venues).Error
	return venues, translate(err, "list venues")
}

// CreateEvent stores e together with its participant rows.
func (r *Repo) CreateEvent(ctx context.Context, e *domain.Event) error {
	newID(&e.ID)
	for i := range e.Participants {
		e.Participants[i].EventID = e.ID
	}
	return translate(r.conn(ctx).Create(e).Error, "create event")
}

func (r *Repo) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	var e domain.Event
	err := r.conn(ctx).Preload("Participants").First(&e, "id = ?", id).Error
	return e, translate(err, "get event")
}

// ListEvents returns events orgID owns or participates in, soonest first.
func (r *Repo) ListEvents(ctx context.Context, orgID string) ([]domain.Event, error) {
	db := r.conn(ctx)
	participating := db.Model(&domain.EventParticipant{}).Select("event_id").Where("organization_id = ?", orgID)
	var events []domain.Event
	err := db.Preload("Participants").
		Where("organization_id = ? OR id IN (?)", orgID, participating).
		Order("starts_at").
		Find(&events).Error
	return events, translate(err, "list events")
}

func (r *Repo) CreatePerson(ctx context.Context, p *domain.Person) error {
	newID(&p.ID)
	return translate(r.conn(ctx).Create(p).Error, "create person")
}

func (r *Repo) GetPerson(ctx context.Context, id string) (domain.Person, error) {
	var p domain.Person
	err := r.conn(ctx).First(&p, "id = ?", id).Error
	return p, translate(err, "get person")
}

func (r *Repo) ListPersons(ctx context.Context, orgID string) ([]domain.Person, error) {
	var persons []domain.Person
	err := r.conn(ctx).Where("organization_id = ?", orgID).Order("name").Find(&persons).Error
	return persons, translate(err, "list persons")
}

func (r *Repo) CreateMembership(ctx context.Context, m *domain.Membership) error {
	return translate(r.conn(ctx).Create(m).Error, "create membership")
}

// TeamMemberUserIDs lists the distinct users linked to a member of any of teamIDs.
func (r *Repo) TeamMemberUserIDs(ctx context.Context, teamIDs ...string) ([]string, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.conn(ctx).Table("memberships").
		Distinct("persons.user_id").
		Joins("JOIN persons ON persons.id = memberships.person_id").
		Where("memberships.team_id IN ? AND persons.user_id IS NOT NULL", teamIDs).
		Order("persons.user_id").
		Pluck("persons.user_id", &ids).Error
	return ids, translate(err, "list team member users")
}

// LinkPersonsByEmail sets userID on persons with email and no user yet.
func (r *Repo) LinkPersonsByEmail(ctx context.Context, email, userID string) error {
	err := r.conn(ctx).Model(&domain.Person{}).
		Where("email = ? AND user_id IS NULL", email).
		Update("user_id", userID).Error
	return translate(err, "link persons")
}
