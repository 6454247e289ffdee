package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/pairing"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// Client-facing messages
const (
	msgProblemNotFound   = "Problem not found"
	msgProblemIDRequired = "Problem ID is required"
	msgEmptyMessage      = "Current message cannot be empty"
	msgSourceRequired    = "Source code is required"
	msgInvalidBody       = "Invalid request body"
	msgValidateFailed    = "Failed to validate solution"
	msgFeedbackFailed    = "Failed to generate feedback"
	msgProblemDeleted    = "Problem deleted successfully"
	msgChatSuccess       = "Chat response generated successfully"
	msgStatsDisabled     = "Attempt statistics are not enabled"
)

const maxBodyBytes = 1 << 20

// Request bodies

type generateRequest struct {
	SourceCode string `json:"sourceCode"`
}

type validateRequest struct {
	ProblemID       string                      `json:"problemId"`
	Solution        []string                    `json:"solution"`
	SolutionContext *validation.SolutionContext `json:"solutionContext,omitempty"`
}

type feedbackRequest struct {
	ProblemID    string   `json:"problemId"`
	UserSolution []string `json:"userSolution"`
}

type chatRequest struct {
	ProblemID       string                      `json:"problemId"`
	UserSolution    []string                    `json:"userSolution"`
	ChatHistory     []json.RawMessage           `json:"chatHistory"`
	CurrentMessage  string                      `json:"currentMessage"`
	SolutionContext *validation.SolutionContext `json:"solutionContext,omitempty"`
}

// chatResponse is returned with status 200 for success and soft failure
type chatResponse struct {
	Success             bool                        `json:"success"`
	Message             string                      `json:"message"`
	ChatMessage         domain.Turn                 `json:"chatMessage"`
	TraditionalFeedback *string                     `json:"traditionalFeedback"`
	SolutionValidation  *pairing.SolutionValidation `json:"solutionValidation"`
}

// Root & health

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Parsons Problems API",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	providers := s.providers
	if providers == nil {
		providers = []string{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":         "running",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"llm_providers":  providers,
		"llm_enabled":    s.tutor.HasProvider(),
		"store":          s.cfg.Store.Backend,
		"events": map[string]any{
			"enabled": s.stats != nil,
			"broker":  s.broker,
		},
	})
}

func (s *Server) handleFeedbackHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "feedback_router",
		"endpoints": []string{
			"/api/feedback (POST) - One-shot feedback endpoint",
			"/api/feedback/chat (POST) - Chat feedback endpoint",
			"/api/feedback/health (GET) - This health check",
		},
		"timestamp": domain.NowMillis(),
	})
}

// Problems

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := s.problems.List(r.Context())
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "Failed to load problems", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, problems)
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProblem(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleGenerateProblem(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.problems.Generate(r.Context(), req.SourceCode)
	if errors.Is(err, domain.ErrEmptySourceCode) {
		s.jsonError(w, http.StatusBadRequest, msgSourceRequired, nil)
		return
	}
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "Failed to generate problem", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, p)
}

func (s *Server) handleDeleteProblem(w http.ResponseWriter, r *http.Request) {
	err := s.problems.Delete(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		s.jsonResponse(w, http.StatusOK, map[string]string{"message": msgProblemDeleted})
	case domain.IsNotFound(err):
		s.jsonError(w, http.StatusNotFound, msgProblemNotFound, nil)
	case errors.Is(err, domain.ErrProblemIDRequired):
		s.jsonError(w, http.StatusBadRequest, msgProblemIDRequired, nil)
	default:
		s.jsonError(w, http.StatusInternalServerError, "Failed to delete problem", err)
	}
}

func (s *Server) handleProblemStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.jsonError(w, http.StatusNotFound, msgStatsDisabled, nil)
		return
	}
	p, ok := s.loadProblem(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	stats, err := s.stats.Stats(r.Context(), p.ID)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "Failed to load statistics", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// Solutions & feedback

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, ok := s.loadProblem(w, r, req.ProblemID)
	if !ok {
		return
	}

	v, err := s.tutor.Validate(p, req.Solution, req.SolutionContext)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, msgValidateFailed, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, v)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, ok := s.loadProblem(w, r, req.ProblemID)
	if !ok {
		return
	}

	fb, err := s.tutor.Feedback(r.Context(), p, req.UserSolution)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, msgFeedbackFailed, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"feedback": fb.Feedback})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProblemID) == "" {
		s.jsonError(w, http.StatusBadRequest, msgProblemIDRequired, nil)
		return
	}
	if strings.TrimSpace(req.CurrentMessage) == "" {
		s.jsonError(w, http.StatusBadRequest, msgEmptyMessage, nil)
		return
	}
	history, err := parseHistory(req.ChatHistory)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	p, ok := s.loadProblem(w, r, req.ProblemID)
	if !ok {
		return
	}

	result, err := s.chat(r, pairing.ChatRequest{
		Problem:         p,
		UserSolution:    req.UserSolution,
		History:         history,
		CurrentMessage:  req.CurrentMessage,
		SolutionContext: req.SolutionContext,
	})
	if err != nil {
		s.logger.Error("chat reply failed",
			"correlation_id", GetCorrelationID(r.Context()),
			"problem_id", p.ID,
			"error", err)
		now := domain.NowMillis()
		s.jsonResponse(w, http.StatusOK, chatResponse{
			Success: false,
			Message: "Error generating chat response: " + err.Error(),
			ChatMessage: domain.Turn{
				ID:        fmt.Sprintf("error_%d", now),
				Role:      domain.RoleTutor,
				Content:   pairing.ChatErrorReply,
				Timestamp: now,
			},
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, chatResponse{
		Success:             true,
		Message:             msgChatSuccess,
		ChatMessage:         result.Reply,
		TraditionalFeedback: result.TraditionalFeedback,
		SolutionValidation:  result.Validation,
	})
}

// chat runs the tutor and converts a panic into an error so the learner
// still gets a conversational turn
func (s *Server) chat(r *http.Request, req pairing.ChatRequest) (result *pairing.ChatResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("%w: %v", domain.ErrInternalError, rec)
		}
	}()
	return s.tutor.Chat(r.Context(), req)
}

// Helper methods

// loadProblem writes 400 or 404 and returns false when the problem is
// unavailable
func (s *Server) loadProblem(w http.ResponseWriter, r *http.Request, id string) (*domain.Problem, bool) {
	if strings.TrimSpace(id) == "" {
		s.jsonError(w, http.StatusBadRequest, msgProblemIDRequired, nil)
		return nil, false
	}
	p, err := s.problems.Get(r.Context(), id)
	if domain.IsNotFound(err) {
		s.jsonError(w, http.StatusNotFound, msgProblemNotFound, nil)
		return nil, false
	}
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "Failed to load problem", err)
		return nil, false
	}
	return p, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.jsonError(w, http.StatusBadRequest, msgInvalidBody, err)
		return false
	}
	return true
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	var details string
	if err != nil {
		details = err.Error()
	}
	writeError(w, status, message, details)
}
