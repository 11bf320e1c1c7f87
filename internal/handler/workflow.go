package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tooswasher/storefront/internal/domain/workflow"
)

type workflowView struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	CreatorID        int64     `json:"creator_id"`
	ApproverID       *int64    `json:"approver_id,omitempty"`
	Status           string    `json:"status"`
	IsTemplate       bool      `json:"is_template"`
	ParentWorkflowID *int64    `json:"parent_workflow_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toWorkflowView(w *workflow.Workflow) workflowView {
	return workflowView{
		ID:               w.ID,
		Title:            w.Title,
		CreatorID:        w.CreatorID,
		ApproverID:       w.ApproverID,
		Status:           string(w.Status),
		IsTemplate:       w.IsTemplate,
		ParentWorkflowID: w.ParentWorkflowID,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

type stepView struct {
	ID                int64      `json:"id"`
	WorkflowID        int64      `json:"workflow_id"`
	StepNumber        int        `json:"step_number"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	IsMandatory       bool       `json:"is_mandatory"`
	IsAdditional      bool       `json:"is_additional"`
	TemplateStepID    *int64     `json:"template_step_id,omitempty"`
	ExpectedDuration  *int       `json:"expected_duration,omitempty"`
	RequiredDocuments string     `json:"required_documents,omitempty"`
	Output            string     `json:"output,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CompletedBy       string     `json:"completed_by,omitempty"`
}

func toStepView(s *workflow.Step) stepView {
	return stepView{
		ID:                s.ID,
		WorkflowID:        s.WorkflowID,
		StepNumber:        s.StepNumber,
		Description:       s.Description,
		Status:            string(s.Status),
		IsMandatory:       s.IsMandatory,
		IsAdditional:      s.IsAdditional,
		TemplateStepID:    s.TemplateStepID,
		ExpectedDuration:  s.ExpectedDuration,
		RequiredDocuments: s.RequiredDocuments,
		Output:            s.Output,
		CompletedAt:       s.CompletedAt,
		CompletedBy:       s.CompletedBy,
	}
}

type templateStepView struct {
	ID                       int64  `json:"id"`
	WorkflowID               int64  `json:"workflow_id"`
	StepNumber               int    `json:"step_number"`
	Description              string `json:"description"`
	IsMandatory              bool   `json:"is_mandatory"`
	DefaultExpectedDuration  *int   `json:"default_expected_duration,omitempty"`
	DefaultRequiredDocuments string `json:"default_required_documents,omitempty"`
	DefaultOutput            string `json:"default_output,omitempty"`
	NextStepOnSuccess        *int64 `json:"next_step_on_success,omitempty"`
	NextStepOnFailure        *int64 `json:"next_step_on_failure,omitempty"`
}

func toTemplateStepView(t *workflow.StepTemplate) templateStepView {
	return templateStepView{
		ID:                       t.ID,
		WorkflowID:               t.WorkflowID,
		StepNumber:               t.StepNumber,
		Description:              t.Description,
		IsMandatory:              t.IsMandatory,
		DefaultExpectedDuration:  t.DefaultExpectedDuration,
		DefaultRequiredDocuments: t.DefaultRequiredDocuments,
		DefaultOutput:            t.DefaultOutput,
		NextStepOnSuccess:        t.NextStepOnSuccess,
		NextStepOnFailure:        t.NextStepOnFailure,
	}
}

func (h *Handler) createWorkflow(c *gin.Context) {
	var req struct {
		Title      string `json:"title" binding:"required"`
		ApproverID *int64 `json:"approver_id"`
		IsTemplate bool   `json:"is_template"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := currentIdentity(c)
	w, err := h.workflows.Create(c.Request.Context(), req.Title, id.UserID, req.ApproverID, req.IsTemplate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWorkflowView(w))
}

type stepOverrideRequest struct {
	Description       *string `json:"description"`
	ExpectedDuration  *int    `json:"expected_duration"`
	RequiredDocuments *string `json:"required_documents"`
}

func (h *Handler) createWorkflowFromTemplate(c *gin.Context) {
	var req struct {
		TemplateID int64                       `json:"template_id" binding:"required"`
		Title      string                      `json:"title"`
		ApproverID *int64                      `json:"approver_id"`
		Overrides  map[int]stepOverrideRequest `json:"overrides"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	overrides := make(map[int]workflow.StepOverride, len(req.Overrides))
	for n, ov := range req.Overrides {
		overrides[n] = workflow.StepOverride{
			Description:       ov.Description,
			ExpectedDuration:  ov.ExpectedDuration,
			RequiredDocuments: ov.RequiredDocuments,
		}
	}

	id := currentIdentity(c)
	w, steps, err := h.workflows.CreateFromTemplate(c.Request.Context(), workflow.CreateFromTemplateRequest{
		TemplateID: req.TemplateID,
		Title:      req.Title,
		CreatorID:  id.UserID,
		ApproverID: req.ApproverID,
		Overrides:  overrides,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	stepViews := make([]stepView, len(steps))
	for i := range steps {
		stepViews[i] = toStepView(&steps[i])
	}
	c.JSON(http.StatusCreated, gin.H{
		"workflow": toWorkflowView(w),
		"steps":    stepViews,
	})
}

func (h *Handler) listWorkflows(c *gin.Context) {
	f := workflow.Filter{
		CreatorID: int64(intQuery(c, "creator_id")),
		Status:    workflow.Status(c.Query("status")),
		Templates: c.Query("templates") == "true",
		Limit:     intQuery(c, "limit"),
		Offset:    intQuery(c, "offset"),
	}

	workflows, err := h.workflows.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]workflowView, len(workflows))
	for i := range workflows {
		views[i] = toWorkflowView(&workflows[i])
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) getWorkflow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	w, err := h.workflows.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkflowView(w))
}

func (h *Handler) updateWorkflow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title      *string `json:"title"`
		Status     *string `json:"status"`
		ApproverID *int64  `json:"approver_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	upd := workflow.UpdateRequest{Title: req.Title, ApproverID: req.ApproverID}
	if req.Status != nil {
		status := workflow.Status(*req.Status)
		upd.Status = &status
	}

	w, err := h.workflows.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWorkflowView(w))
}

func (h *Handler) deleteWorkflow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.workflows.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listWorkflowSteps(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	steps, err := h.workflows.ListSteps(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]stepView, len(steps))
	for i := range steps {
		views[i] = toStepView(&steps[i])
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) addWorkflowStep(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		StepNumber        int    `json:"step_number" binding:"required"`
		Description       string `json:"description" binding:"required"`
		IsMandatory       bool   `json:"is_mandatory"`
		ExpectedDuration  *int   `json:"expected_duration"`
		RequiredDocuments string `json:"required_documents"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	step, err := h.workflows.AddStep(c.Request.Context(), &workflow.Step{
		WorkflowID:        id,
		StepNumber:        req.StepNumber,
		Description:       req.Description,
		IsMandatory:       req.IsMandatory,
		ExpectedDuration:  req.ExpectedDuration,
		RequiredDocuments: req.RequiredDocuments,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toStepView(step))
}

func (h *Handler) updateWorkflowStep(c *gin.Context) {
	stepID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Description       *string `json:"description"`
		Status            *string `json:"status"`
		Output            *string `json:"output"`
		RequiredDocuments *string `json:"required_documents"`
		ExpectedDuration  *int    `json:"expected_duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	upd := workflow.StepUpdate{
		Description:       req.Description,
		Output:            req.Output,
		RequiredDocuments: req.RequiredDocuments,
		ExpectedDuration:  req.ExpectedDuration,
	}
	if req.Status != nil {
		status := workflow.StepStatus(*req.Status)
		upd.Status = &status
	}

	id := currentIdentity(c)
	step, err := h.workflows.UpdateStep(c.Request.Context(), stepID, upd, id.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStepView(step))
}

func (h *Handler) deleteWorkflowStep(c *gin.Context) {
	stepID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.workflows.DeleteStep(c.Request.Context(), stepID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type templateStepRequest struct {
	StepNumber               int    `json:"step_number" binding:"required"`
	Description              string `json:"description" binding:"required"`
	IsMandatory              bool   `json:"is_mandatory"`
	DefaultExpectedDuration  *int   `json:"default_expected_duration"`
	DefaultRequiredDocuments string `json:"default_required_documents"`
	DefaultOutput            string `json:"default_output"`
	NextStepOnSuccess        *int64 `json:"next_step_on_success"`
	NextStepOnFailure        *int64 `json:"next_step_on_failure"`
}

func (h *Handler) listTemplateSteps(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	steps, err := h.workflows.ListTemplateSteps(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]templateStepView, len(steps))
	for i := range steps {
		views[i] = toTemplateStepView(&steps[i])
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) addTemplateStep(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req templateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	t, err := h.workflows.AddTemplateStep(c.Request.Context(), &workflow.StepTemplate{
		WorkflowID:               id,
		StepNumber:               req.StepNumber,
		Description:              req.Description,
		IsMandatory:              req.IsMandatory,
		DefaultExpectedDuration:  req.DefaultExpectedDuration,
		DefaultRequiredDocuments: req.DefaultRequiredDocuments,
		DefaultOutput:            req.DefaultOutput,
		NextStepOnSuccess:        req.NextStepOnSuccess,
		NextStepOnFailure:        req.NextStepOnFailure,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplateStepView(t))
}

func (h *Handler) updateTemplateStep(c *gin.Context) {
	stepID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req templateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	t, err := h.workflows.UpdateTemplateStep(c.Request.Context(), &workflow.StepTemplate{
		ID:                       stepID,
		StepNumber:               req.StepNumber,
		Description:              req.Description,
		IsMandatory:              req.IsMandatory,
		DefaultExpectedDuration:  req.DefaultExpectedDuration,
		DefaultRequiredDocuments: req.DefaultRequiredDocuments,
		DefaultOutput:            req.DefaultOutput,
		NextStepOnSuccess:        req.NextStepOnSuccess,
		NextStepOnFailure:        req.NextStepOnFailure,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateStepView(t))
}

func (h *Handler) deleteTemplateStep(c *gin.Context) {
	stepID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.workflows.DeleteTemplateStep(c.Request.Context(), stepID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
