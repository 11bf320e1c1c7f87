package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/workflow"
)

const (
	workflowColumns = `id, title, creator_id, approver_id, status, is_template,
		parent_workflow_id, created_at, updated_at`

	createWorkflowSQL = `INSERT INTO workflows (title, creator_id, approver_id, status,
			is_template, parent_workflow_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	getWorkflowByIDSQL = `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	updateWorkflowSQL = `UPDATE workflows SET title = $2, approver_id = $3, status = $4,
			updated_at = now()
		WHERE id = $1`

	deleteWorkflowSQL = `DELETE FROM workflows WHERE id = $1`

	stepColumns = `id, workflow_id, step_number, description, status, is_mandatory,
		is_additional, template_step_id, expected_duration, required_documents, output,
		completed_at, completed_by`

	createStepSQL = `INSERT INTO workflow_steps (workflow_id, step_number, description,
			status, is_mandatory, is_additional, template_step_id, expected_duration,
			required_documents, output)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	getStepByIDSQL = `SELECT ` + stepColumns + ` FROM workflow_steps WHERE id = $1`

	listStepsSQL = `SELECT ` + stepColumns + ` FROM workflow_steps
		WHERE workflow_id = $1 ORDER BY step_number, id`

	updateStepSQL = `UPDATE workflow_steps SET description = $2, status = $3,
			expected_duration = $4, required_documents = $5, output = $6,
			completed_at = $7, completed_by = $8
		WHERE id = $1`

	deleteStepSQL = `DELETE FROM workflow_steps WHERE id = $1`

	templateStepColumns = `id, workflow_id, step_number, description, is_mandatory,
		default_expected_duration, default_required_documents, default_output,
		next_step_on_success, next_step_on_failure`

	createTemplateStepSQL = `INSERT INTO workflow_step_templates (workflow_id, step_number,
			description, is_mandatory, default_expected_duration,
			default_required_documents, default_output,
			next_step_on_success, next_step_on_failure)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	getTemplateStepByIDSQL = `SELECT ` + templateStepColumns + ` FROM workflow_step_templates
		WHERE id = $1`

	listTemplateStepsSQL = `SELECT ` + templateStepColumns + ` FROM workflow_step_templates
		WHERE workflow_id = $1 ORDER BY step_number, id`

	updateTemplateStepSQL = `UPDATE workflow_step_templates SET step_number = $2,
			description = $3, is_mandatory = $4, default_expected_duration = $5,
			default_required_documents = $6, default_output = $7,
			next_step_on_success = $8, next_step_on_failure = $9
		WHERE id = $1`

	deleteTemplateStepSQL = `DELETE FROM workflow_step_templates WHERE id = $1`
)

var _ workflow.Repository = (*WorkflowRepository)(nil)

// WorkflowRepository implements workflow.Repository backed by PostgreSQL.
type WorkflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository returns a WorkflowRepository that uses the given pool.
func NewWorkflowRepository(pool *pgxpool.Pool) *WorkflowRepository {
	return &WorkflowRepository{pool: pool}
}

// Create persists a new workflow and fills in generated fields.
func (r *WorkflowRepository) Create(ctx context.Context, w *workflow.Workflow) error {
	err := r.pool.QueryRow(ctx, createWorkflowSQL,
		w.Title, w.CreatorID, w.ApproverID, string(w.Status), w.IsTemplate, w.ParentWorkflowID,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating workflow %q: %w", w.Title, err)
	}
	return nil
}

// GetByID returns a workflow by its identifier.
func (r *WorkflowRepository) GetByID(ctx context.Context, id int64) (*workflow.Workflow, error) {
	rows, err := r.pool.Query(ctx, getWorkflowByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting workflow %d: %w", id, err)
	}

	w, err := pgx.CollectExactlyOneRow(rows, scanWorkflow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrNotFound
		}
		return nil, fmt.Errorf("getting workflow %d: %w", id, err)
	}
	return &w, nil
}

// List returns workflows matching the filter, newest first.
func (r *WorkflowRepository) List(ctx context.Context, f workflow.Filter) ([]workflow.Workflow, error) {
	sql := `SELECT ` + workflowColumns + ` FROM workflows WHERE is_template = $1`
	args := []any{f.Templates}
	if f.CreatorID != 0 {
		args = append(args, f.CreatorID)
		sql += fmt.Sprintf(" AND creator_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing workflows: %w", err)
	}
	return pgx.CollectRows(rows, scanWorkflow)
}

// Update replaces the mutable fields of a workflow and bumps updated_at.
func (r *WorkflowRepository) Update(ctx context.Context, w *workflow.Workflow) error {
	tag, err := r.pool.Exec(ctx, updateWorkflowSQL, w.ID, w.Title, w.ApproverID, string(w.Status))
	if err != nil {
		return fmt.Errorf("updating workflow %d: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrNotFound
	}
	return nil
}

// Delete removes a workflow with its steps and template steps.
func (r *WorkflowRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteWorkflowSQL, id)
	if err != nil {
		return fmt.Errorf("deleting workflow %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrNotFound
	}
	return nil
}

// CreateStep persists a concrete step and fills in its generated ID.
func (r *WorkflowRepository) CreateStep(ctx context.Context, s *workflow.Step) error {
	err := r.pool.QueryRow(ctx, createStepSQL,
		s.WorkflowID, s.StepNumber, s.Description, string(s.Status), s.IsMandatory,
		s.IsAdditional, s.TemplateStepID, s.ExpectedDuration, s.RequiredDocuments, s.Output,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("creating workflow step: %w", err)
	}
	return nil
}

// GetStep returns a concrete step by its identifier.
func (r *WorkflowRepository) GetStep(ctx context.Context, id int64) (*workflow.Step, error) {
	rows, err := r.pool.Query(ctx, getStepByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting workflow step %d: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanStep)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrStepNotFound
		}
		return nil, fmt.Errorf("getting workflow step %d: %w", id, err)
	}
	return &s, nil
}

// ListSteps returns a workflow's steps in step-number order.
func (r *WorkflowRepository) ListSteps(ctx context.Context, workflowID int64) ([]workflow.Step, error) {
	rows, err := r.pool.Query(ctx, listStepsSQL, workflowID)
	if err != nil {
		return nil, fmt.Errorf("listing workflow steps: %w", err)
	}
	return pgx.CollectRows(rows, scanStep)
}

// UpdateStep replaces the mutable fields of a concrete step.
func (r *WorkflowRepository) UpdateStep(ctx context.Context, s *workflow.Step) error {
	tag, err := r.pool.Exec(ctx, updateStepSQL,
		s.ID, s.Description, string(s.Status), s.ExpectedDuration,
		s.RequiredDocuments, s.Output, s.CompletedAt, s.CompletedBy,
	)
	if err != nil {
		return fmt.Errorf("updating workflow step %d: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrStepNotFound
	}
	return nil
}

// DeleteStep removes a concrete step.
func (r *WorkflowRepository) DeleteStep(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteStepSQL, id)
	if err != nil {
		return fmt.Errorf("deleting workflow step %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrStepNotFound
	}
	return nil
}

// CreateTemplateStep persists a step blueprint and fills in its generated ID.
func (r *WorkflowRepository) CreateTemplateStep(ctx context.Context, t *workflow.StepTemplate) error {
	err := r.pool.QueryRow(ctx, createTemplateStepSQL,
		t.WorkflowID, t.StepNumber, t.Description, t.IsMandatory,
		t.DefaultExpectedDuration, t.DefaultRequiredDocuments, t.DefaultOutput,
		t.NextStepOnSuccess, t.NextStepOnFailure,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("creating template step: %w", err)
	}
	return nil
}

// GetTemplateStep returns a step blueprint by its identifier.
func (r *WorkflowRepository) GetTemplateStep(ctx context.Context, id int64) (*workflow.StepTemplate, error) {
	rows, err := r.pool.Query(ctx, getTemplateStepByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting template step %d: %w", id, err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTemplateStep)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrTemplateStepNotFound
		}
		return nil, fmt.Errorf("getting template step %d: %w", id, err)
	}
	return &t, nil
}

// ListTemplateSteps returns a template's blueprints in step-number order.
func (r *WorkflowRepository) ListTemplateSteps(ctx context.Context, workflowID int64) ([]workflow.StepTemplate, error) {
	rows, err := r.pool.Query(ctx, listTemplateStepsSQL, workflowID)
	if err != nil {
		return nil, fmt.Errorf("listing template steps: %w", err)
	}
	return pgx.CollectRows(rows, scanTemplateStep)
}

// UpdateTemplateStep replaces the mutable fields of a step blueprint.
func (r *WorkflowRepository) UpdateTemplateStep(ctx context.Context, t *workflow.StepTemplate) error {
	tag, err := r.pool.Exec(ctx, updateTemplateStepSQL,
		t.ID, t.StepNumber, t.Description, t.IsMandatory,
		t.DefaultExpectedDuration, t.DefaultRequiredDocuments, t.DefaultOutput,
		t.NextStepOnSuccess, t.NextStepOnFailure,
	)
	if err != nil {
		return fmt.Errorf("updating template step %d: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrTemplateStepNotFound
	}
	return nil
}

// DeleteTemplateStep removes a step blueprint.
func (r *WorkflowRepository) DeleteTemplateStep(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteTemplateStepSQL, id)
	if err != nil {
		return fmt.Errorf("deleting template step %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrTemplateStepNotFound
	}
	return nil
}

func scanWorkflow(row pgx.CollectableRow) (workflow.Workflow, error) {
	var w workflow.Workflow
	err := row.Scan(
		&w.ID, &w.Title, &w.CreatorID, &w.ApproverID, (*string)(&w.Status),
		&w.IsTemplate, &w.ParentWorkflowID, &w.CreatedAt, &w.UpdatedAt,
	)
	return w, err
}

func scanStep(row pgx.CollectableRow) (workflow.Step, error) {
	var s workflow.Step
	err := row.Scan(
		&s.ID, &s.WorkflowID, &s.StepNumber, &s.Description, (*string)(&s.Status),
		&s.IsMandatory, &s.IsAdditional, &s.TemplateStepID, &s.ExpectedDuration,
		&s.RequiredDocuments, &s.Output, &s.CompletedAt, &s.CompletedBy,
	)
	return s, err
}

func scanTemplateStep(row pgx.CollectableRow) (workflow.StepTemplate, error) {
	var t workflow.StepTemplate
	err := row.Scan(
		&t.ID, &t.WorkflowID, &t.StepNumber, &t.Description, &t.IsMandatory,
		&t.DefaultExpectedDuration, &t.DefaultRequiredDocuments, &t.DefaultOutput,
		&t.NextStepOnSuccess, &t.NextStepOnFailure,
	)
	return t, err
}
