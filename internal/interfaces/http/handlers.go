package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/procurement-flow/internal/application/service"
	"github.com/garyjia/procurement-flow/internal/application/workflow"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
	"github.com/garyjia/procurement-flow/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	requests service.RequestService
	health   HealthCheck
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(requests service.RequestService, health HealthCheck, logger Logger) *Handlers {
	return &Handlers{
		requests: requests,
		health:   health,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// ActionRequest is the body of POST /api/requests/:id/actions.
// Payload fields sit next to the action name.
type ActionRequest struct {
	Action domainwf.Trigger `json:"action"`
	workflow.Payload
}

// ActionsResponse lists what the caller may do next
type ActionsResponse struct {
	RequestID string             `json:"request_id"`
	Actions   []domainwf.Trigger `json:"actions"`
}

// ListRequestsQuery represents query parameters for listing requests
type ListRequestsQuery struct {
	Status    string `form:"status"`
	Category  string `form:"category"`
	ProjectID string `form:"project_id"`
	OwnerID   string `form:"owner_id"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// PageQuery represents pagination parameters
type PageQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	healthy, details := h.health(c.Request.Context())

	resp := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: details,
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, Response{
		Success: healthy,
		Data:    resp,
	})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var in workflow.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := utils.SanitizeComment(in.Comment)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	in.Comment = comment

	actor := actorFrom(c)
	outcome, err := h.requests.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.writeError(c, "create request", err)
		return
	}

	h.logger.Info("Request created",
		"request_id", outcome.Request.ID,
		"number", outcome.Request.Number,
		"status", outcome.NewStatus,
		"actor_id", actor.ID)

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    outcome,
	})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	detail, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "get request", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    detail,
	})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var q ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	requests, err := h.requests.List(c.Request.Context(), entity.RequestFilter{
		Status:    domainwf.State(q.Status),
		Category:  domainwf.Category(q.Category),
		ProjectID: q.ProjectID,
		OwnerID:   q.OwnerID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		h.writeError(c, "list requests", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    requests,
	})
}

// GetHistory handles GET /api/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	history, err := h.requests.History(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "get history", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    history,
	})
}

// PermittedActions handles GET /api/requests/:id/actions
func (h *Handlers) PermittedActions(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	actions, err := h.requests.PermittedActions(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.writeError(c, "list actions", err)
		return
	}
	if actions == nil {
		actions = []domainwf.Trigger{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ActionsResponse{RequestID: id, Actions: actions},
	})
}

// ExecuteAction handles POST /api/requests/:id/actions
func (h *Handlers) ExecuteAction(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body ActionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !body.Action.IsValid() {
		badRequest(c, "unknown action "+string(body.Action))
		return
	}

	var err error
	if body.Comment, err = utils.SanitizeComment(body.Comment); err != nil {
		badRequest(c, err.Error())
		return
	}
	if body.Reason, err = utils.SanitizeComment(body.Reason); err != nil {
		badRequest(c, err.Error())
		return
	}

	actor := actorFrom(c)
	outcome, err := h.requests.Execute(c.Request.Context(), id, actor, body.Action, body.Payload)
	if err != nil {
		h.logger.Info("Action refused",
			"request_id", id,
			"action", body.Action,
			"actor_id", actor.ID,
			"actor_role", actor.Role,
			"error", err)
		h.writeError(c, "execute action", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    outcome,
	})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	notifications, err := h.requests.Notifications(c.Request.Context(), actorFrom(c).ID, q.Limit, q.Offset)
	if err != nil {
		h.writeError(c, "list notifications", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    notifications,
	})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id := c.Param("id")
	if err := utils.ValidateID(id); err != nil {
		badRequest(c, "invalid notification ID")
		return
	}

	if err := h.requests.MarkNotificationRead(c.Request.Context(), id, actorFrom(c).ID); err != nil {
		h.writeError(c, "mark notification read", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// requestID reads and checks the :id path parameter, answering 400 when malformed
func requestID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := utils.ValidateID(id); err != nil {
		badRequest(c, "invalid request ID")
		return "", false
	}
	return id, true
}
