package types

import (
	"time"

	"github.com/google/uuid"
)

// TaskState enumerates the task lifecycle state machine (spec.md §4.1).
type TaskState int

const (
	TaskPending TaskState = iota
	TaskDecomposing
	TaskAwaitingAssignment
	TaskNegotiating
	TaskContracted
	TaskInProgress
	TaskAwaitingVerification
	TaskDisputed
	TaskCompleted
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "Pending"
	case TaskDecomposing:
		return "Decomposing"
	case TaskAwaitingAssignment:
		return "AwaitingAssignment"
	case TaskNegotiating:
		return "Negotiating"
	case TaskContracted:
		return "Contracted"
	case TaskInProgress:
		return "InProgress"
	case TaskAwaitingVerification:
		return "AwaitingVerification"
	case TaskDisputed:
		return "Disputed"
	case TaskCompleted:
		return "Completed"
	case TaskFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether a state admits no further transitions except
// via explicit retry (Failed -> AwaitingAssignment).
func (s TaskState) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// DependencyEdge records a subtask dependency: To depends on From.
type DependencyEdge struct {
	From string
	To   string
}

// Checkpoint is a partial-result marker recorded by Monitoring at fractions
// {0.25, 0.5, 0.75} of expected completion (spec.md §4.8).
type Checkpoint struct {
	Fraction  float64
	Payload   map[string]interface{}
	Recorded  time.Time
}

// Task is the central unit of work. Identity is a stable 128-bit id;
// subtasks and contract are referenced by id only (spec.md §3, Design
// Note on cyclic references).
type Task struct {
	ID              string
	Title           string
	Description     string
	ParentTaskID    string // empty for root tasks
	Characteristics Characteristics
	State           TaskState
	CreatedAt       time.Time
	ContractID      string // empty if no active contract
	SubtaskIDs      []string
	Dependencies    []DependencyEdge
	Checkpoints     []Checkpoint
	RetryCount      int
}

// NewTask creates a root or child task with a fresh id. Returns an error if
// characteristics are out of range.
func NewTask(title, description, parentTaskID string, chars Characteristics) (*Task, error) {
	if err := chars.Validate(); err != nil {
		return nil, err
	}
	return &Task{
		ID:              uuid.NewString(),
		Title:           title,
		Description:     description,
		ParentTaskID:    parentTaskID,
		Characteristics: chars,
		State:           TaskPending,
		CreatedAt:       time.Now(),
	}, nil
}

// HasActiveContract reports whether the task currently references a
// contract (invariant 2: at most one active contract at a time is enforced
// by construction — ContractID is a single field, never a set).
func (t *Task) HasActiveContract() bool {
	return t.ContractID != ""
}

// IsDecomposed reports whether the task has been split into subtasks.
func (t *Task) IsDecomposed() bool {
	return len(t.SubtaskIDs) >= 2
}
