package domain

type GameStatus string

const (
	GameScheduled GameStatus = "Scheduled"
	GameLive      GameStatus = "Live"
	GameFinished  GameStatus = "Finished"
	GameCancelled GameStatus = "Cancelled"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameScheduled, GameLive, GameFinished, GameCancelled:
		return true
	}
	return false
}

// Terminal games accept no further status or score changes.
func (s GameStatus) Terminal() bool {
	return s == GameFinished || s == GameCancelled
}

var gameTransitions = map[GameStatus][]GameStatus{
	GameScheduled: {GameLive, GameCancelled},
	GameLive:      {GameFinished, GameCancelled},
}

// CanTransition reports whether a game may move from one status to another.
func CanTransition(from, to GameStatus) bool {
	for _, next := range gameTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Role string

const (
	RolePlayer  Role = "player"
	RoleCoach   Role = "coach"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleCoach, RoleManager, RoleStaff:
		return true
	}
	return false
}

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportOpen, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// Notification kinds.
const (
	NotifyEventInvite = "event_invite"
	NotifyGameLive    = "game_live"
	NotifyGameFinal   = "game_final"
	NotifyOrgClaimed  = "org_claimed"
)
