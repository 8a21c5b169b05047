package engine

import (
	"strings"
	"time"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

type AddOrg struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

func (*AddOrg) Action() string { return protocol.ActAddOrg }

func (c *AddOrg) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("name is required")
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if c.Slug == "" {
		return invalid("name must contain letters or digits")
	}
	return nil
}

// UpdateOrg patches the non-nil fields.
type UpdateOrg struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	LogoURL     *string `json:"logoUrl,omitempty"`
}

func (*UpdateOrg) Action() string { return protocol.ActUpdateOrg }

func (c *UpdateOrg) Validate() error {
	if c.ID == "" {
		return invalid("id is required")
	}
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return invalid("name cannot be blank")
	}
	return nil
}

// Patch applies the update to org and returns the result.
func (c *UpdateOrg) Patch(org domain.Organization) domain.Organization {
	if c.Name != nil {
		org.Name = strings.TrimSpace(*c.Name)
	}
	if c.Description != nil {
		org.Description = *c.Description
	}
	if c.LogoURL != nil {
		org.LogoURL = *c.LogoURL
	}
	return org
}

type AddTeam struct {
	OrganizationID string `json:"organizationId"`
	SportID        string `json:"sportId"`
	Name           string `json:"name"`
	Division       string `json:"division,omitempty"`
}

func (*AddTeam) Action() string { return protocol.ActAddTeam }

func (c *AddTeam) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	switch {
	case c.OrganizationID == "":
		return invalid("organizationId is required")
	case c.SportID == "":
		return invalid("sportId is required")
	case c.Name == "":
		return invalid("name is required")
	}
	return nil
}

type AddVenue struct {
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	Capacity       int    `json:"capacity,omitempty"`
}

func (*AddVenue) Action() string { return protocol.ActAddVenue }

func (c *AddVenue) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	switch {
	case c.OrganizationID == "":
		return invalid("organizationId is required")
	case c.Name == "":
		return invalid("name is required")
	case c.Capacity < 0:
		return invalid("capacity cannot be negative")
	}
	return nil
}

type AddEvent struct {
	OrganizationID    string     `json:"organizationId"`
	Name              string     `json:"name"`
	StartsAt          time.Time  `json:"startsAt"`
	EndsAt            *time.Time `json:"endsAt,omitempty"`
	VenueID           *string    `json:"venueId,omitempty"`
	ParticipantOrgIDs []string   `json:"participantOrgIds,omitempty"`
}

func (*AddEvent) Action() string { return protocol.ActAddEvent }

func (c *AddEvent) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	switch {
	case c.OrganizationID == "":
		return invalid("organizationId is required")
	case c.Name == "":
		return invalid("name is required")
	case c.StartsAt.IsZero():
		return invalid("startsAt is required")
	case c.EndsAt != nil && c.EndsAt.Before(c.StartsAt):
		return invalid("endsAt is before startsAt")
	}
	for _, id := range c.ParticipantOrgIDs {
		if id == "" {
			return invalid("participantOrgIds contains an empty id")
		}
	}
	return nil
}

// Participants returns the participant orgs other than the owner, deduplicated.
func (c *AddEvent) Participants() []string {
	seen := map[string]bool{c.OrganizationID: true}
	var out []string
	for _, id := range c.ParticipantOrgIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

type AddGame struct {
	OrganizationID string    `json:"organizationId"`
	EventID        *string   `json:"eventId,omitempty"`
	VenueID        *string   `json:"venueId,omitempty"`
	HomeTeamID     string    `json:"homeTeamId"`
	AwayTeamID     string    `json:"awayTeamId"`
	StartsAt       time.Time `json:"startsAt"`
}

func (*AddGame) Action() string { return protocol.ActAddGame }

func (c *AddGame) Validate() error {
	switch {
	case c.OrganizationID == "":
		return invalid("organizationId is required")
	case c.HomeTeamID == "" || c.AwayTeamID == "":
		return invalid("homeTeamId and awayTeamId are required")
	case c.HomeTeamID == c.AwayTeamID:
		return ErrIllegalMatchup
	case c.StartsAt.IsZero():
		return invalid("startsAt is required")
	}
	return nil
}

type UpdateGameStatus struct {
	GameID string            `json:"gameId"`
	Status domain.GameStatus `json:"status"`
}

func (*UpdateGameStatus) Action() string { return protocol.ActUpdateGameStatus }

func (c *UpdateGameStatus) Validate() error {
	if c.GameID == "" {
		return invalid("gameId is required")
	}
	if !c.Status.Valid() {
		return invalid("unknown status %q", c.Status)
	}
	return nil
}

type UpdateScore struct {
	GameID    string `json:"gameId"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
}

func (*UpdateScore) Action() string { return protocol.ActUpdateScore }

func (c *UpdateScore) Validate() error {
	if c.GameID == "" {
		return invalid("gameId is required")
	}
	if c.HomeScore < 0 || c.AwayScore < 0 {
		return invalid("scores cannot be negative")
	}
	return nil
}

type AddPerson struct {
	OrganizationID string  `json:"organizationId"`
	Name           string  `json:"name"`
	Email          string  `json:"email,omitempty"`
	UserID         *string `json:"userId,omitempty"`
}

func (*AddPerson) Action() string { return protocol.ActAddPerson }

func (c *AddPerson) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	switch {
	case c.OrganizationID == "":
		return invalid("organizationId is required")
	case c.Name == "":
		return invalid("name is required")
	case c.Email != "" && !strings.Contains(c.Email, "@"):
		return invalid("email is malformed")
	}
	return nil
}

type AddMembership struct {
	PersonID string      `json:"personId"`
	TeamID   string      `json:"teamId"`
	Role     domain.Role `json:"role"`
}

func (*AddMembership) Action() string { return protocol.ActAddMembership }

func (c *AddMembership) Validate() error {
	if c.PersonID == "" || c.TeamID == "" {
		return invalid("personId and teamId are required")
	}
	if c.Role == "" {
		c.Role = domain.RolePlayer
	}
	if !c.Role.Valid() {
		return invalid("unknown role %q", c.Role)
	}
	return nil
}

type MarkNotificationRead struct {
	ID string `json:"id"`
}

func (*MarkNotificationRead) Action() string { return protocol.ActMarkNotificationRead }

func (c *MarkNotificationRead) Validate() error {
	if c.ID == "" {
		return invalid("id is required")
	}
	return nil
}
