package domain

import "time"

type Sport struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Organization struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description,omitempty"`
	LogoURL     string    `json:"logoUrl,omitempty"`
	Claimed     bool      `json:"claimed"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OrganizationSummary is what org summary rooms and ORGANIZATIONS_UPDATED carry.
type OrganizationSummary struct {
	Organization
	TeamCount     int `json:"teamCount"`
	VenueCount    int `json:"venueCount"`
	EventCount    int `json:"eventCount"`
	GameCount     int `json:"gameCount"`
	LiveGameCount int `json:"liveGameCount"`
}

type OrgAdmin struct {
	OrganizationID string    `gorm:"primaryKey" json:"organizationId"`
	UserID         string    `gorm:"primaryKey" json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Team struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	OrganizationID string    `gorm:"index;not null" json:"organizationId"`
	SportID        string    `gorm:"index;not null" json:"sportId"`
	Name           string    `gorm:"not null" json:"name"`
	Division       string    `json:"division,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Venue struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	OrganizationID string    `gorm:"index;not null" json:"organizationId"`
	Name           string    `gorm:"not null" json:"name"`
	Address        string    `json:"address,omitempty"`
	Capacity       int       `json:"capacity,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Event struct {
	ID             string             `gorm:"primaryKey" json:"id"`
	OrganizationID string             `gorm:"index;not null" json:"organizationId"`
	VenueID        *string            `json:"venueId,omitempty"`
	Name           string             `gorm:"not null" json:"name"`
	StartsAt       time.Time          `json:"startsAt"`
	EndsAt         *time.Time         `json:"endsAt,omitempty"`
	Participants   []EventParticipant `gorm:"foreignKey:EventID" json:"participants"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// EventParticipant links a participating organization other than the owner.
type EventParticipant struct {
	EventID        string `gorm:"primaryKey" json:"eventId"`
	OrganizationID string `gorm:"primaryKey;index" json:"organizationId"`
}

// ParticipantIDs returns the owner followed by every participating org, deduplicated.
func (e Event) ParticipantIDs() []string {
	seen := map[string]bool{e.OrganizationID: true}
	ids := []string{e.OrganizationID}
	for _, p := range e.Participants {
		if seen[p.OrganizationID] {
			continue
		}
		seen[p.OrganizationID] = true
		ids = append(ids, p.OrganizationID)
	}
	return ids
}

type Game struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	OrganizationID string     `gorm:"index;not null" json:"organizationId"`
	EventID        *string    `gorm:"index" json:"eventId,omitempty"`
	VenueID        *string    `json:"venueId,omitempty"`
	HomeTeamID     string     `gorm:"not null" json:"homeTeamId"`
	AwayTeamID     string     `gorm:"not null" json:"awayTeamId"`
	HomeScore      int        `json:"homeScore"`
	AwayScore      int        `json:"awayScore"`
	Status         GameStatus `gorm:"index;not null" json:"status"`
	StartsAt       time.Time  `json:"startsAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TeamIDs returns home then away.
func (g Game) TeamIDs() []string { return []string{g.HomeTeamID, g.AwayTeamID} }

type ScoreLog struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID    string     `gorm:"index;not null" json:"gameId"`
	HomeScore int        `json:"homeScore"`
	AwayScore int        `json:"awayScore"`
	Status    GameStatus `json:"status"`
	UpdatedBy string     `json:"updatedBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Person struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	OrganizationID string    `gorm:"index;not null" json:"organizationId"`
	UserID         *string   `gorm:"index" json:"userId,omitempty"`
	Name           string    `gorm:"not null" json:"name"`
	// Email only links the person to an account and is never served.
	Email          string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName keeps the plural the REST paths use; gorm would pick "people".
func (Person) TableName() string { return "persons" }

type Membership struct {
	PersonID  string    `gorm:"primaryKey" json:"personId"`
	TeamID    string    `gorm:"primaryKey;index" json:"teamId"`
	Role      Role      `gorm:"not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notification struct {
	ID        string             `gorm:"primaryKey" json:"id"`
	UserID    string             `gorm:"index;not null" json:"userId"`
	Kind      string             `gorm:"not null" json:"kind"`
	Message   string             `gorm:"not null" json:"message"`
	SubjectID string             `json:"subjectId,omitempty"`
	Status    NotificationStatus `gorm:"not null" json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	ReadAt    *time.Time         `json:"readAt,omitempty"`
}

type Report struct {
	ID         string       `gorm:"primaryKey" json:"id"`
	ReporterID string       `gorm:"index;not null" json:"reporterId"`
	TargetType string       `gorm:"not null" json:"targetType"`
	TargetID   string       `gorm:"not null" json:"targetId"`
	Reason     string       `gorm:"not null" json:"reason"`
	Status     ReportStatus `gorm:"index;not null" json:"status"`
	ResolvedBy *string      `json:"resolvedBy,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	ResolvedAt *time.Time   `json:"resolvedAt,omitempty"`
}

// OrgClaimReferral carries the single-use claim token for an unclaimed organization.
type OrgClaimReferral struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	OrganizationID string     `gorm:"index;not null" json:"organizationId"`
	Token          string     `gorm:"uniqueIndex;not null" json:"token"`
	Email          string     `json:"email,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	UsedAt         *time.Time `json:"usedAt,omitempty"`
	UsedBy         *string    `json:"usedBy,omitempty"`
	Expired        bool       `json:"expired"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Usable reports whether the referral can still be redeemed at now.
func (r OrgClaimReferral) Usable(now time.Time) bool {
	return r.UsedAt == nil && !r.Expired && now.Before(r.ExpiresAt)
}

type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	ImageURL  string    `json:"image,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserEmail struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	UserID      string     `gorm:"index;not null" json:"userId"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Primary     bool       `gorm:"column:is_primary" json:"primary"`
	VerifyToken string     `gorm:"index" json:"-"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Account holds a login credential for a user; only the "credentials" provider is stored locally.
type Account struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"index;not null" json:"userId"`
	Provider     string    `gorm:"not null" json:"provider"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// All lists every persisted model; used by sqlite auto-migration.
func All() []any {
	return []any{
		&Sport{}, &Organization{}, &OrgAdmin{}, &Team{}, &Venue{}, &Event{}, &EventParticipant{},
		&Game{}, &ScoreLog{}, &Person{}, &Membership{}, &Notification{}, &Report{},
		&OrgClaimReferral{}, &User{}, &UserEmail{}, &Account{},
	}
}
