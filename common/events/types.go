package events

const (
	// Streams
	ScrimEventsStream  = "SCRIM_EVENTS"
	SignupEventsStream = "SIGNUP_EVENTS"

	// Events
	ScrimCreated = "events.scrim.created"
	ScrimClosed  = "events.scrim.closed"

	SignupTeamAdded        = "events.signup.teamAdded"
	SignupTeamRemoved      = "events.signup.teamRemoved"
	SignupTeamRenamed      = "events.signup.teamRenamed"
	SignupTeammateReplaced = "events.signup.teammateReplaced"

	// Event Wildcards
	ScrimEventsWildcard  = "events.scrim.*"
	SignupEventsWildcard = "events.signup.*"
)
