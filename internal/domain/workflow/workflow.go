package workflow

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Status is the lifecycle state of a workflow.
type Status string

const (
	StatusDraft      Status = "Draft"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the recognized workflow statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// StepStatus is the lifecycle state of a single step.
type StepStatus string

const (
	StepPending    StepStatus = "Pending"
	StepInProgress StepStatus = "InProgress"
	StepCompleted  StepStatus = "Completed"
	StepFailed     StepStatus = "Failed"
	StepSkipped    StepStatus = "Skipped"
)

// Valid reports whether s is one of the recognized step statuses.
func (s StepStatus) Valid() bool {
	switch s {
	case StepPending, StepInProgress, StepCompleted, StepFailed, StepSkipped:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when a requested workflow does not exist.
	ErrNotFound = errors.New("workflow not found")
	// ErrStepNotFound is returned when a requested step does not exist.
	ErrStepNotFound = errors.New("workflow step not found")
	// ErrTemplateStepNotFound is returned when a requested template step does
	// not exist.
	ErrTemplateStepNotFound = errors.New("workflow template step not found")
	// ErrNotTemplate is returned when template-step operations target a
	// concrete workflow.
	ErrNotTemplate = errors.New("workflow is not a template")
	// ErrIsTemplate is returned when concrete-step operations target a
	// template workflow.
	ErrIsTemplate = errors.New("workflow is a template")
	// ErrInvalidStatus is returned for unknown workflow or step statuses.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrSkipMandatory is returned when a mandatory step is skipped.
	ErrSkipMandatory = errors.New("mandatory step cannot be skipped")
)

// Workflow is a process instance, or a reusable template when IsTemplate is
// set. Instances created from a template point back to it via
// ParentWorkflowID.
type Workflow struct {
	ID               int64
	Title            string
	CreatorID        int64
	ApproverID       *int64
	Status           Status
	IsTemplate       bool
	ParentWorkflowID *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StepTemplate is the blueprint for a step within a template workflow. The
// NextStepOnSuccess and NextStepOnFailure links form the branching chain
// followed when an instantiated step completes or fails.
type StepTemplate struct {
	ID                       int64
	WorkflowID               int64
	StepNumber               int
	Description              string
	IsMandatory              bool
	DefaultExpectedDuration  *int
	DefaultRequiredDocuments string
	DefaultOutput            string
	NextStepOnSuccess        *int64
	NextStepOnFailure        *int64
}

// Step is a concrete step of a workflow instance. TemplateStepID points to
// the blueprint it was instantiated from; nil for steps added by hand, which
// also carry IsAdditional.
type Step struct {
	ID                int64
	WorkflowID        int64
	StepNumber        int
	Description       string
	Status            StepStatus
	IsMandatory       bool
	IsAdditional      bool
	TemplateStepID    *int64
	ExpectedDuration  *int
	RequiredDocuments string
	Output            string
	CompletedAt       *time.Time
	CompletedBy       string
}

// Filter narrows workflow List results. Zero values mean "no restriction".
type Filter struct {
	CreatorID int64
	Status    Status
	Templates bool // list templates instead of instances
	Limit     int
	Offset    int
}

// Repository defines persistence operations for workflows, their concrete
// steps, and template steps.
type Repository interface {
	Create(ctx context.Context, w *Workflow) error
	GetByID(ctx context.Context, id int64) (*Workflow, error)
	List(ctx context.Context, f Filter) ([]Workflow, error)
	Update(ctx context.Context, w *Workflow) error
	Delete(ctx context.Context, id int64) error

	CreateStep(ctx context.Context, s *Step) error
	GetStep(ctx context.Context, id int64) (*Step, error)
	ListSteps(ctx context.Context, workflowID int64) ([]Step, error)
	UpdateStep(ctx context.Context, s *Step) error
	DeleteStep(ctx context.Context, id int64) error

	CreateTemplateStep(ctx context.Context, t *StepTemplate) error
	GetTemplateStep(ctx context.Context, id int64) (*StepTemplate, error)
	ListTemplateSteps(ctx context.Context, workflowID int64) ([]StepTemplate, error)
	UpdateTemplateStep(ctx context.Context, t *StepTemplate) error
	DeleteTemplateStep(ctx context.Context, id int64) error
}
