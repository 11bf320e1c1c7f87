package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository for exercising the engine end to end.
type memRepo struct {
	workflows map[int64]*Workflow
	steps     map[int64]*Step
	tmplSteps map[int64]*StepTemplate
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		workflows: map[int64]*Workflow{},
		steps:     map[int64]*Step{},
		tmplSteps: map[int64]*StepTemplate{},
	}
}

func (m *memRepo) id() int64 { m.nextID++; return m.nextID }

func (m *memRepo) Create(_ context.Context, w *Workflow) error {
	w.ID = m.id()
	cp := *w
	m.workflows[w.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Workflow, error) {
	w, ok := m.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, _ Filter) ([]Workflow, error) { return nil, nil }

func (m *memRepo) Update(_ context.Context, w *Workflow) error {
	if _, ok := m.workflows[w.ID]; !ok {
		return ErrNotFound
	}
	cp := *w
	m.workflows[w.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	delete(m.workflows, id)
	return nil
}

func (m *memRepo) CreateStep(_ context.Context, s *Step) error {
	s.ID = m.id()
	cp := *s
	m.steps[s.ID] = &cp
	return nil
}

func (m *memRepo) GetStep(_ context.Context, id int64) (*Step, error) {
	s, ok := m.steps[id]
	if !ok {
		return nil, ErrStepNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) ListSteps(_ context.Context, workflowID int64) ([]Step, error) {
	var out []Step
	for _, s := range m.steps {
		if s.WorkflowID == workflowID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStep(_ context.Context, s *Step) error {
	if _, ok := m.steps[s.ID]; !ok {
		return ErrStepNotFound
	}
	cp := *s
	m.steps[s.ID] = &cp
	return nil
}

func (m *memRepo) DeleteStep(_ context.Context, id int64) error {
	delete(m.steps, id)
	return nil
}

func (m *memRepo) CreateTemplateStep(_ context.Context, t *StepTemplate) error {
	t.ID = m.id()
	cp := *t
	m.tmplSteps[t.ID] = &cp
	return nil
}

func (m *memRepo) GetTemplateStep(_ context.Context, id int64) (*StepTemplate, error) {
	t, ok := m.tmplSteps[id]
	if !ok {
		return nil, ErrTemplateStepNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) ListTemplateSteps(_ context.Context, workflowID int64) ([]StepTemplate, error) {
	var out []StepTemplate
	for _, t := range m.tmplSteps {
		if t.WorkflowID == workflowID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateTemplateStep(_ context.Context, t *StepTemplate) error {
	if _, ok := m.tmplSteps[t.ID]; !ok {
		return ErrTemplateStepNotFound
	}
	cp := *t
	m.tmplSteps[t.ID] = &cp
	return nil
}

func (m *memRepo) DeleteTemplateStep(_ context.Context, id int64) error {
	delete(m.tmplSteps, id)
	return nil
}

// newChainedTemplate builds a template with three blueprints: review chains
// to approve on success and to rework on failure.
func newChainedTemplate(t *testing.T, svc *Service) (tmplID int64, review, approve, rework *StepTemplate) {
	t.Helper()
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, "Onboarding", 1, nil, true)
	require.NoError(t, err)

	review, err = svc.AddTemplateStep(ctx, &StepTemplate{
		WorkflowID: tmpl.ID, StepNumber: 1, Description: "Review documents", IsMandatory: true,
	})
	require.NoError(t, err)
	approve, err = svc.AddTemplateStep(ctx, &StepTemplate{
		WorkflowID: tmpl.ID, StepNumber: 2, Description: "Approve", IsMandatory: true,
	})
	require.NoError(t, err)
	rework, err = svc.AddTemplateStep(ctx, &StepTemplate{
		WorkflowID: tmpl.ID, StepNumber: 3, Description: "Request fixes",
	})
	require.NoError(t, err)

	review.NextStepOnSuccess = &approve.ID
	review.NextStepOnFailure = &rework.ID
	_, err = svc.UpdateTemplateStep(ctx, review)
	require.NoError(t, err)

	return tmpl.ID, review, approve, rework
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreateFromTemplate_CopiesEntrySteps(t *testing.T) {
	svc, _ := newTestService()
	tmplID, review, _, _ := newChainedTemplate(t, svc)

	desc := "Review vendor documents"
	w, steps, err := svc.CreateFromTemplate(context.Background(), CreateFromTemplateRequest{
		TemplateID: tmplID,
		Title:      "Vendor onboarding",
		CreatorID:  7,
		Overrides:  map[int]StepOverride{1: {Description: &desc}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusInProgress, w.Status)
	assert.False(t, w.IsTemplate)
	require.NotNil(t, w.ParentWorkflowID)
	assert.Equal(t, tmplID, *w.ParentWorkflowID)

	// Only the entry step is copied; chained steps come later.
	require.Len(t, steps, 1)
	assert.Equal(t, "Review vendor documents", steps[0].Description)
	assert.Equal(t, StepPending, steps[0].Status)
	require.NotNil(t, steps[0].TemplateStepID)
	assert.Equal(t, review.ID, *steps[0].TemplateStepID)
}

func TestCreateFromTemplate_NotATemplate(t *testing.T) {
	svc, _ := newTestService()
	w, err := svc.Create(context.Background(), "Plain", 1, nil, false)
	require.NoError(t, err)

	_, _, err = svc.CreateFromTemplate(context.Background(), CreateFromTemplateRequest{
		TemplateID: w.ID, CreatorID: 1,
	})
	assert.ErrorIs(t, err, ErrNotTemplate)
}

func TestUpdateStep_SuccessBranch(t *testing.T) {
	svc, _ := newTestService()
	tmplID, _, approve, _ := newChainedTemplate(t, svc)

	ctx := context.Background()
	w, steps, err := svc.CreateFromTemplate(ctx, CreateFromTemplateRequest{TemplateID: tmplID, CreatorID: 7})
	require.NoError(t, err)

	completed := StepCompleted
	st, err := svc.UpdateStep(ctx, steps[0].ID, StepUpdate{Status: &completed}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", st.CompletedBy)
	require.NotNil(t, st.CompletedAt)

	all, err := svc.ListSteps(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, all, 2, "success branch should be instantiated")

	var next *Step
	for i := range all {
		if all[i].ID != st.ID {
			next = &all[i]
		}
	}
	require.NotNil(t, next)
	assert.Equal(t, "Approve", next.Description)
	assert.Equal(t, StepPending, next.Status)
	require.NotNil(t, next.TemplateStepID)
	assert.Equal(t, approve.ID, *next.TemplateStepID)
}

func TestUpdateStep_FailureBranch(t *testing.T) {
	svc, _ := newTestService()
	tmplID, _, _, rework := newChainedTemplate(t, svc)

	ctx := context.Background()
	w, steps, err := svc.CreateFromTemplate(ctx, CreateFromTemplateRequest{TemplateID: tmplID, CreatorID: 7})
	require.NoError(t, err)

	failed := StepFailed
	_, err = svc.UpdateStep(ctx, steps[0].ID, StepUpdate{Status: &failed}, "alice")
	require.NoError(t, err)

	all, err := svc.ListSteps(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	var found bool
	for _, st := range all {
		if st.TemplateStepID != nil && *st.TemplateStepID == rework.ID {
			found = true
		}
	}
	assert.True(t, found, "failure branch should be instantiated")
}

func TestUpdateStep_BranchNotDuplicated(t *testing.T) {
	svc, _ := newTestService()
	tmplID, _, _, _ := newChainedTemplate(t, svc)

	ctx := context.Background()
	w, steps, err := svc.CreateFromTemplate(ctx, CreateFromTemplateRequest{TemplateID: tmplID, CreatorID: 7})
	require.NoError(t, err)

	// Complete the entry step twice via an intermediate failed state.
	completed, failed := StepCompleted, StepFailed
	_, err = svc.UpdateStep(ctx, steps[0].ID, StepUpdate{Status: &failed}, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateStep(ctx, steps[0].ID, StepUpdate{Status: &completed}, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateStep(ctx, steps[0].ID, StepUpdate{Status: &completed}, "alice")
	require.NoError(t, err)

	all, err := svc.ListSteps(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3, "each branch instantiates at most once")
}

func TestUpdateStep_SkipMandatory(t *testing.T) {
	svc, _ := newTestService()
	tmplID, _, _, _ := newChainedTemplate(t, svc)

	ctx := context.Background()
	_, steps, err := svc.CreateFromTemplate(ctx, CreateFromTemplateRequest{TemplateID: tmplID, CreatorID: 7})
	require.NoError(t, err)

	skipped := StepSkipped
	_, err = svc.UpdateStep(ctx, steps[0].ID, StepUpdate{Status: &skipped}, "alice")
	assert.ErrorIs(t, err, ErrSkipMandatory)
}

func TestWorkflowCompletesWhenStepsFinish(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, "Single step", 1, nil, true)
	require.NoError(t, err)
	_, err = svc.AddTemplateStep(ctx, &StepTemplate{
		WorkflowID: tmpl.ID, StepNumber: 1, Description: "Do the thing", IsMandatory: true,
	})
	require.NoError(t, err)

	w, steps, err := svc.CreateFromTemplate(ctx, CreateFromTemplateRequest{TemplateID: tmpl.ID, CreatorID: 7})
	require.NoError(t, err)
	require.Len(t, steps, 1)

	completed := StepCompleted
	_, err = svc.UpdateStep(ctx, steps[0].ID, StepUpdate{Status: &completed}, "alice")
	require.NoError(t, err)

	got, err := svc.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestTemplateStepGuards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	instance, err := svc.Create(ctx, "Instance", 1, nil, false)
	require.NoError(t, err)
	tmpl, err := svc.Create(ctx, "Template", 1, nil, true)
	require.NoError(t, err)

	_, err = svc.AddTemplateStep(ctx, &StepTemplate{WorkflowID: instance.ID, StepNumber: 1})
	assert.ErrorIs(t, err, ErrNotTemplate)

	_, err = svc.AddStep(ctx, &Step{WorkflowID: tmpl.ID, StepNumber: 1})
	assert.ErrorIs(t, err, ErrIsTemplate)

	st, err := svc.AddStep(ctx, &Step{WorkflowID: instance.ID, StepNumber: 1, Description: "Extra"})
	require.NoError(t, err)
	assert.True(t, st.IsAdditional)
	assert.Equal(t, StepPending, st.Status)
}
