package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "BoardGameTracker API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Score sheet templates and scoring sessions for board games.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Authenticates with email and password. Sets a session cookie.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/auth/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/auth/logout")
	postLogout.SetSummary("Log out")
	postLogout.SetDescription("Clears the session cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/auth/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/auth/me")
	getMe.SetSummary("Current user")
	getMe.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/score-templates
	listTemplates, _ := r.NewOperationContext(http.MethodGet, "/api/score-templates")
	listTemplates.SetSummary("List score sheet templates")
	listTemplates.AddRespStructure([]TemplateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listTemplates.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listTemplates)

	// POST /api/score-templates
	createTemplate, _ := r.NewOperationContext(http.MethodPost, "/api/score-templates")
	createTemplate.SetSummary("Create template")
	createTemplate.SetDescription("Validates the definition and stores the template. Rejects with the full violation list.")
	createTemplate.AddReqStructure(TemplateRequest{})
	createTemplate.AddRespStructure(TemplateResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTemplate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createTemplate.AddRespStructure(ValidationResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(createTemplate)

	// POST /api/score-templates/validate
	validateTemplate, _ := r.NewOperationContext(http.MethodPost, "/api/score-templates/validate")
	validateTemplate.SetSummary("Validate a definition")
	validateTemplate.SetDescription("Dry-run definition validation for the template builder. Never persists anything.")
	validateTemplate.AddReqStructure(ValidateRequest{})
	validateTemplate.AddRespStructure(ValidationResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	validateTemplate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(validateTemplate)

	// GET /api/score-templates/{id}
	getTemplate, _ := r.NewOperationContext(http.MethodGet, "/api/score-templates/{id}")
	getTemplate.SetSummary("Get template")
	getTemplate.AddRespStructure(TemplateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getTemplate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTemplate)

	// PUT /api/score-templates/{id}
	updateTemplate, _ := r.NewOperationContext(http.MethodPut, "/api/score-templates/{id}")
	updateTemplate.SetSummary("Update template")
	updateTemplate.SetDescription("Re-validates and replaces the template. Existing session snapshots are unaffected.")
	updateTemplate.AddReqStructure(TemplateRequest{})
	updateTemplate.AddRespStructure(TemplateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	updateTemplate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updateTemplate.AddRespStructure(ValidationResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(updateTemplate)

	// DELETE /api/score-templates/{id}
	deleteTemplate, _ := r.NewOperationContext(http.MethodDelete, "/api/score-templates/{id}")
	deleteTemplate.SetSummary("Delete template")
	deleteTemplate.SetDescription("Deletes a template. Sessions created from it keep scoring from their snapshot.")
	deleteTemplate.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteTemplate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteTemplate)

	// GET /api/score-sessions
	listSessions, _ := r.NewOperationContext(http.MethodGet, "/api/score-sessions")
	listSessions.SetSummary("List score sessions")
	listSessions.AddRespStructure([]SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listSessions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listSessions)

	// POST /api/score-sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/score-sessions")
	createSession.SetSummary("Create session")
	createSession.SetDescription("Creates a session, freezing the template's current definition and version into it.")
	createSession.AddReqStructure(SessionCreateRequest{})
	createSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(createSession)

	// GET /api/score-sessions/{id}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/score-sessions/{id}")
	getSession.SetSummary("Get session")
	getSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// POST /api/score-sessions/{id}/values
	postValue, _ := r.NewOperationContext(http.MethodPost, "/api/score-sessions/{id}/values")
	postValue.SetSummary("Record a field value")
	postValue.SetDescription("Records one field value for one player and recomputes totals from the session's snapshot.")
	postValue.AddReqStructure(ValueEditRequest{})
	postValue.AddRespStructure(ValueEditResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postValue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postValue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postValue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postValue)

	// POST /api/score-sessions/{id}/complete
	postComplete, _ := r.NewOperationContext(http.MethodPost, "/api/score-sessions/{id}/complete")
	postComplete.SetSummary("Complete session")
	postComplete.SetDescription("Marks the session finished. One-way: completed sessions reject all scoring writes.")
	postComplete.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postComplete)

	// GET /api/score-sessions/{id}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/score-sessions/{id}/events")
	getEvents.SetSummary("SSE score stream")
	getEvents.SetDescription("Server-Sent Events stream of score updates for a session.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
