package prd

// PlanStatus is the lifecycle state of a Plan.
type PlanStatus string

const (
	PlanStatusPending    PlanStatus = "pending"
	PlanStatusInProgress PlanStatus = "in_progress"
	PlanStatusCompleted  PlanStatus = "completed"
	PlanStatusOnHold     PlanStatus = "on_hold"
)

// PlanStatuses lists every valid plan status.
func PlanStatuses() []PlanStatus {
	return []PlanStatus{PlanStatusPending, PlanStatusInProgress, PlanStatusCompleted, PlanStatusOnHold}
}

func (s PlanStatus) String() string { return string(s) }

// IsValid reports whether s is a known plan status.
func (s PlanStatus) IsValid() bool {
	for _, v := range PlanStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// PhaseStatus is the lifecycle state of a Phase.
type PhaseStatus string

const (
	PhaseStatusPending    PhaseStatus = "pending"
	PhaseStatusInProgress PhaseStatus = "in_progress"
	PhaseStatusCompleted  PhaseStatus = "completed"
	PhaseStatusOnHold     PhaseStatus = "on_hold"
)

// PhaseStatuses lists every valid phase status.
func PhaseStatuses() []PhaseStatus {
	return []PhaseStatus{PhaseStatusPending, PhaseStatusInProgress, PhaseStatusCompleted, PhaseStatusOnHold}
}

func (s PhaseStatus) String() string { return string(s) }

// IsValid reports whether s is a known phase status.
func (s PhaseStatus) IsValid() bool {
	for _, v := range PhaseStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// IsWorkable reports whether tasks of a phase in this status may be picked as next.
func (s PhaseStatus) IsWorkable() bool {
	return s == PhaseStatusPending || s == PhaseStatusInProgress
}

// TaskStatus is the execution state of a Task. Validated and NeedsReview are
// only produced by validation outcomes or explicit assignment.
type TaskStatus string

const (
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusBlocked     TaskStatus = "blocked"
	TaskStatusCancelled   TaskStatus = "cancelled"
	TaskStatusValidated   TaskStatus = "validated"
	TaskStatusNeedsReview TaskStatus = "needs_review"
)

// TaskStatuses lists every valid task status.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusPending,
		TaskStatusInProgress,
		TaskStatusCompleted,
		TaskStatusBlocked,
		TaskStatusCancelled,
		TaskStatusValidated,
		TaskStatusNeedsReview,
	}
}

func (s TaskStatus) String() string { return string(s) }

// IsValid reports whether s is a known task status.
func (s TaskStatus) IsValid() bool {
	for _, v := range TaskStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// IsWorkable reports whether a task in this status may be picked as next.
func (s TaskStatus) IsWorkable() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// IsDone reports whether the status counts as finished work for progress
// reporting and completion timestamps.
func (s TaskStatus) IsDone() bool {
	return s == TaskStatusCompleted || s == TaskStatusValidated
}

// ValidationOutcome is the result of running a task's validation command.
type ValidationOutcome string

const (
	ValidationSuccess ValidationOutcome = "success"
	ValidationFailure ValidationOutcome = "failure"
)

// IsValid reports whether o is a known outcome.
func (o ValidationOutcome) IsValid() bool {
	return o == ValidationSuccess || o == ValidationFailure
}
