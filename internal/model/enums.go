package model

// LifecycleState is the workflow status of an intake session.
type LifecycleState string

const (
	StateInvited               LifecycleState = "INVITED"
	StateInProgress            LifecycleState = "IN_PROGRESS"
	StatePartialSubmitted      LifecycleState = "PARTIAL_SUBMITTED"
	StateFinalSubmitted        LifecycleState = "FINAL_SUBMITTED"
	StateMissingItemsRequested LifecycleState = "MISSING_ITEMS_REQUESTED"
	StateKlorSynthesis         LifecycleState = "KLOR_SYNTHESIS"
	StateCouncilRunning        LifecycleState = "COUNCIL_RUNNING"
	StateReportReady           LifecycleState = "REPORT_READY"
	StateApproved              LifecycleState = "APPROVED"
)

// Actor identifies who performed a state-changing action.
type Actor string

const (
	ActorSystem   Actor = "SYSTEM"
	ActorOperator Actor = "OPERATOR"
	ActorClient   Actor = "CLIENT"
)

// AssetCategory groups uploaded files by purpose.
type AssetCategory string

const (
	AssetFinancials AssetCategory = "FINANCIALS"
	AssetLegal      AssetCategory = "LEGAL"
	AssetProperty   AssetCategory = "PROPERTY"
	AssetOther      AssetCategory = "OTHER"
)

// AuthSource records how a portal auth session was established.
type AuthSource string

const (
	AuthSourceMagicLink AuthSource = "MAGIC_LINK"
	AuthSourcePassword  AuthSource = "PASSWORD"
)

type JobKind string

const (
	JobKlorRun    JobKind = "KLOR_RUN"
	JobCouncilRun JobKind = "COUNCIL_RUN"
)

type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)
