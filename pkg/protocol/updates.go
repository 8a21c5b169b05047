package protocol

// Update types carried in ServerMessage.Type for "update" events.
const (
	UpdOrganizations = "ORGANIZATIONS_UPDATED"
	UpdTeams         = "TEAMS_UPDATED"
	UpdVenues        = "VENUES_UPDATED"
	UpdEvents        = "EVENTS_UPDATED"
	UpdGames         = "GAMES_UPDATED"
	UpdPersons       = "PERSONS_UPDATED"
	UpdNotifications = "NOTIFICATIONS_UPDATED"
	UpdLiveGames     = "LIVE_GAMES"
)

// Action types carried in ClientMessage.Type for "action" events.
const (
	ActAddOrg               = "ADD_ORG"
	ActUpdateOrg            = "UPDATE_ORG"
	ActAddTeam              = "ADD_TEAM"
	ActAddVenue             = "ADD_VENUE"
	ActAddEvent             = "ADD_EVENT"
	ActAddGame              = "ADD_GAME"
	ActUpdateGameStatus     = "UPDATE_GAME_STATUS"
	ActUpdateScore          = "UPDATE_SCORE"
	ActAddPerson            = "ADD_PERSON"
	ActAddMembership        = "ADD_MEMBERSHIP"
	ActMarkNotificationRead = "MARK_NOTIFICATION_READ"
)
