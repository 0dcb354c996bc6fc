package audithook

// Action constants for audit events.
const (
	// Engine actions
	ActionEngineOpened = "engine.opened"
	ActionEngineClosed = "engine.closed"

	// Reservation actions
	ActionReserveAdded = "reserve.added"

	// Schedule actions
	ActionVestingStarted = "vesting.started"

	// Claim actions
	ActionTokensClaimed      = "tokens.claimed"
	ActionTokensBatchClaimed = "tokens.batch_claimed"
)

// Resource constants for audit events.
const (
	ResourceEngine   = "engine"
	ResourceReserve  = "reserve"
	ResourceSchedule = "schedule"
	ResourceClaim    = "claim"
)

// Category constants for audit events.
const (
	CategoryLifecycle  = "lifecycle"
	CategoryAllocation = "allocation"
	CategoryRelease    = "release"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
