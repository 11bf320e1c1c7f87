package workflow

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// StepOverride customizes one copied step when instantiating a template.
// Nil fields keep the template defaults.
type StepOverride struct {
	Description       *string
	ExpectedDuration  *int
	RequiredDocuments *string
}

// CreateFromTemplateRequest holds the input for instantiating a template.
// Overrides are keyed by template step number.
type CreateFromTemplateRequest struct {
	TemplateID int64
	Title      string
	CreatorID  int64
	ApproverID *int64
	Overrides  map[int]StepOverride
}

// UpdateRequest holds a partial workflow update. Nil fields mean "leave
// unchanged".
type UpdateRequest struct {
	Title      *string
	Status     *Status
	ApproverID *int64
}

// StepUpdate holds a partial step update. Nil fields mean "leave unchanged".
type StepUpdate struct {
	Description       *string
	Status            *StepStatus
	Output            *string
	RequiredDocuments *string
	ExpectedDuration  *int
}

// Service encapsulates the workflow engine: template management, template
// instantiation, and the step chain followed as steps complete or fail.
type Service struct {
	workflows Repository
	now       func() time.Time
}

// NewService creates a workflow Service backed by the given repository.
func NewService(workflows Repository) *Service {
	return &Service{workflows: workflows, now: time.Now}
}

// Create starts a blank workflow or template.
func (s *Service) Create(ctx context.Context, title string, creatorID int64, approverID *int64, isTemplate bool) (*Workflow, error) {
	w := &Workflow{
		Title:      title,
		CreatorID:  creatorID,
		ApproverID: approverID,
		Status:     StatusDraft,
		IsTemplate: isTemplate,
	}
	if err := s.workflows.Create(ctx, w); err != nil {
		return nil, errors.Wrap(err, "create workflow")
	}
	return w, nil
}

// CreateFromTemplate instantiates a template workflow. Entry template steps
// (those no other template step chains to) are copied as pending steps, with
// per-step-number overrides applied; the rest of the chain is instantiated
// lazily as steps complete or fail.
func (s *Service) CreateFromTemplate(ctx context.Context, req CreateFromTemplateRequest) (*Workflow, []Step, error) {
	tmpl, err := s.workflows.GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	if !tmpl.IsTemplate {
		return nil, nil, ErrNotTemplate
	}

	title := req.Title
	if title == "" {
		title = tmpl.Title
	}
	w := &Workflow{
		Title:            title,
		CreatorID:        req.CreatorID,
		ApproverID:       req.ApproverID,
		Status:           StatusInProgress,
		ParentWorkflowID: &tmpl.ID,
	}
	if err := s.workflows.Create(ctx, w); err != nil {
		return nil, nil, errors.Wrap(err, "create workflow")
	}

	tmplSteps, err := s.workflows.ListTemplateSteps(ctx, tmpl.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "list template steps")
	}

	// Steps referenced by a chain link are instantiated later, when their
	// predecessor finishes.
	chained := make(map[int64]struct{})
	for _, ts := range tmplSteps {
		if ts.NextStepOnSuccess != nil {
			chained[*ts.NextStepOnSuccess] = struct{}{}
		}
		if ts.NextStepOnFailure != nil {
			chained[*ts.NextStepOnFailure] = struct{}{}
		}
	}

	var steps []Step
	for i := range tmplSteps {
		ts := tmplSteps[i]
		if _, ok := chained[ts.ID]; ok {
			continue
		}
		step := stepFromTemplate(w.ID, &ts)
		if ov, ok := req.Overrides[ts.StepNumber]; ok {
			if ov.Description != nil {
				step.Description = *ov.Description
			}
			if ov.ExpectedDuration != nil {
				step.ExpectedDuration = ov.ExpectedDuration
			}
			if ov.RequiredDocuments != nil {
				step.RequiredDocuments = *ov.RequiredDocuments
			}
		}
		if err := s.workflows.CreateStep(ctx, step); err != nil {
			return nil, nil, errors.Wrap(err, "create step")
		}
		steps = append(steps, *step)
	}
	return w, steps, nil
}

// Get returns a workflow by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Workflow, error) {
	return s.workflows.GetByID(ctx, id)
}

// List returns workflows matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Workflow, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	return s.workflows.List(ctx, f)
}

// Update applies a partial update to a workflow.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Workflow, error) {
	w, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		w.Title = *req.Title
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		w.Status = *req.Status
	}
	if req.ApproverID != nil {
		w.ApproverID = req.ApproverID
	}
	if err := s.workflows.Update(ctx, w); err != nil {
		return nil, errors.Wrap(err, "update workflow")
	}
	return w, nil
}

// Delete removes a workflow with its steps.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.workflows.GetByID(ctx, id); err != nil {
		return err
	}
	return s.workflows.Delete(ctx, id)
}

// ListSteps returns the concrete steps of a workflow instance.
func (s *Service) ListSteps(ctx context.Context, workflowID int64) ([]Step, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.workflows.ListSteps(ctx, workflowID)
}

// AddStep appends a hand-added step to a workflow instance.
func (s *Service) AddStep(ctx context.Context, step *Step) (*Step, error) {
	w, err := s.workflows.GetByID(ctx, step.WorkflowID)
	if err != nil {
		return nil, err
	}
	if w.IsTemplate {
		return nil, ErrIsTemplate
	}

	step.Status = StepPending
	step.IsAdditional = true
	step.TemplateStepID = nil
	if err := s.workflows.CreateStep(ctx, step); err != nil {
		return nil, errors.Wrap(err, "create step")
	}
	return step, nil
}

// UpdateStep applies a partial update to a step. Completing a step records
// who completed it and when, then instantiates the template's success branch;
// failing a step instantiates the failure branch. When no unfinished
// mandatory step remains, the workflow is marked completed.
func (s *Service) UpdateStep(ctx context.Context, stepID int64, upd StepUpdate, actor string) (*Step, error) {
	step, err := s.workflows.GetStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	w, err := s.workflows.GetByID(ctx, step.WorkflowID)
	if err != nil {
		return nil, err
	}

	if upd.Description != nil {
		step.Description = *upd.Description
	}
	if upd.Output != nil {
		step.Output = *upd.Output
	}
	if upd.RequiredDocuments != nil {
		step.RequiredDocuments = *upd.RequiredDocuments
	}
	if upd.ExpectedDuration != nil {
		step.ExpectedDuration = upd.ExpectedDuration
	}

	statusChanged := false
	if upd.Status != nil && *upd.Status != step.Status {
		if !upd.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *upd.Status == StepSkipped && step.IsMandatory {
			return nil, ErrSkipMandatory
		}
		step.Status = *upd.Status
		statusChanged = true
		if step.Status == StepCompleted {
			now := s.now()
			step.CompletedAt = &now
			step.CompletedBy = actor
		}
	}

	if err := s.workflows.UpdateStep(ctx, step); err != nil {
		return nil, errors.Wrap(err, "update step")
	}
	if !statusChanged {
		return step, nil
	}

	// Follow the template chain.
	if step.TemplateStepID != nil {
		switch step.Status {
		case StepCompleted:
			if err := s.instantiateNext(ctx, w, *step.TemplateStepID, true); err != nil {
				return nil, err
			}
		case StepFailed:
			if err := s.instantiateNext(ctx, w, *step.TemplateStepID, false); err != nil {
				return nil, err
			}
		}
	}

	if err := s.advanceWorkflow(ctx, w); err != nil {
		return nil, err
	}
	return step, nil
}

// DeleteStep removes a hand-added step.
func (s *Service) DeleteStep(ctx context.Context, stepID int64) error {
	if _, err := s.workflows.GetStep(ctx, stepID); err != nil {
		return err
	}
	return s.workflows.DeleteStep(ctx, stepID)
}

// AddTemplateStep appends a step blueprint to a template workflow.
func (s *Service) AddTemplateStep(ctx context.Context, t *StepTemplate) (*StepTemplate, error) {
	w, err := s.workflows.GetByID(ctx, t.WorkflowID)
	if err != nil {
		return nil, err
	}
	if !w.IsTemplate {
		return nil, ErrNotTemplate
	}
	if err := s.workflows.CreateTemplateStep(ctx, t); err != nil {
		return nil, errors.Wrap(err, "create template step")
	}
	return t, nil
}

// ListTemplateSteps returns the blueprints of a template workflow.
func (s *Service) ListTemplateSteps(ctx context.Context, workflowID int64) ([]StepTemplate, error) {
	w, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if !w.IsTemplate {
		return nil, ErrNotTemplate
	}
	return s.workflows.ListTemplateSteps(ctx, workflowID)
}

// UpdateTemplateStep replaces a step blueprint.
func (s *Service) UpdateTemplateStep(ctx context.Context, t *StepTemplate) (*StepTemplate, error) {
	existing, err := s.workflows.GetTemplateStep(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	w, err := s.workflows.GetByID(ctx, existing.WorkflowID)
	if err != nil {
		return nil, err
	}
	if !w.IsTemplate {
		return nil, ErrNotTemplate
	}

	t.WorkflowID = existing.WorkflowID
	if err := s.workflows.UpdateTemplateStep(ctx, t); err != nil {
		return nil, errors.Wrap(err, "update template step")
	}
	return t, nil
}

// DeleteTemplateStep removes a step blueprint.
func (s *Service) DeleteTemplateStep(ctx context.Context, id int64) error {
	if _, err := s.workflows.GetTemplateStep(ctx, id); err != nil {
		return err
	}
	return s.workflows.DeleteTemplateStep(ctx, id)
}

// instantiateNext copies the success or failure branch of a finished step
// into the workflow, unless that branch was already instantiated.
func (s *Service) instantiateNext(ctx context.Context, w *Workflow, templateStepID int64, success bool) error {
	ts, err := s.workflows.GetTemplateStep(ctx, templateStepID)
	if err != nil {
		return err
	}
	next := ts.NextStepOnFailure
	if success {
		next = ts.NextStepOnSuccess
	}
	if next == nil {
		return nil
	}

	steps, err := s.workflows.ListSteps(ctx, w.ID)
	if err != nil {
		return errors.Wrap(err, "list steps")
	}
	for _, existing := range steps {
		if existing.TemplateStepID != nil && *existing.TemplateStepID == *next {
			return nil
		}
	}

	nextTmpl, err := s.workflows.GetTemplateStep(ctx, *next)
	if err != nil {
		return err
	}
	return s.workflows.CreateStep(ctx, stepFromTemplate(w.ID, nextTmpl))
}

// advanceWorkflow recomputes the workflow status from its steps: any step
// activity moves a draft to in progress; once every mandatory step is
// completed or skipped and nothing is pending, the workflow completes.
func (s *Service) advanceWorkflow(ctx context.Context, w *Workflow) error {
	if w.Status == StatusCancelled {
		return nil
	}
	steps, err := s.workflows.ListSteps(ctx, w.ID)
	if err != nil {
		return errors.Wrap(err, "list steps")
	}

	done := len(steps) > 0
	for _, st := range steps {
		if st.Status == StepPending || st.Status == StepInProgress {
			done = false
			break
		}
		if st.IsMandatory && st.Status != StepCompleted {
			done = false
			break
		}
	}

	status := StatusInProgress
	if done {
		status = StatusCompleted
	}
	if status == w.Status {
		return nil
	}
	w.Status = status
	if err := s.workflows.Update(ctx, w); err != nil {
		return errors.Wrap(err, "update workflow")
	}
	return nil
}

func stepFromTemplate(workflowID int64, ts *StepTemplate) *Step {
	id := ts.ID
	return &Step{
		WorkflowID:        workflowID,
		StepNumber:        ts.StepNumber,
		Description:       ts.Description,
		Status:            StepPending,
		IsMandatory:       ts.IsMandatory,
		TemplateStepID:    &id,
		ExpectedDuration:  ts.DefaultExpectedDuration,
		RequiredDocuments: ts.DefaultRequiredDocuments,
		Output:            ts.DefaultOutput,
	}
}
