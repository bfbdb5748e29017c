package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"craftchat/internal/chat"
	"craftchat/internal/logging"
	"craftchat/internal/models"
	"craftchat/internal/router"
	"craftchat/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// TurnRunner handles one user turn. chat.Service runs it inline and
// workflows.Runner runs it as a Temporal workflow.
type TurnRunner interface {
	HandleUserMessage(ctx context.Context, conversationID, text string) (chat.TurnResult, error)
}

type Server struct {
	store          storage.Store
	classifier     *router.Classifier
	turns          TurnRunner
	logger         *zap.Logger
	requestTimeout time.Duration
}

func NewServer(store storage.Store, classifier *router.Classifier, turns TurnRunner, logger *zap.Logger, requestTimeout time.Duration) *Server {
	if classifier == nil {
		classifier = router.MustNewClassifier(router.DefaultRules())
	}
	if requestTimeout <= 0 {
		requestTimeout = 2 * time.Minute
	}
	return &Server{
		store:          store,
		classifier:     classifier,
		turns:          turns,
		logger:         logging.OrNop(logger),
		requestTimeout: requestTimeout,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(withCORS)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, nil)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, nil)
	})

	r.Get("/healthz", s.handleHealthz)
	r.Post("/classify", s.handleClassify)
	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.handleListConversations)
		r.Post("/", s.handleCreateConversation)
		r.Get("/{id}", s.handleGetConversation)
		r.Post("/{id}/messages", s.handlePostMessage)
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type classifyRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.classifier.Classify(req.Query))
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	c, err := s.store.CreateConversation(r.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		s.logger.Error("create conversation", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListConversations(r.Context())
	if err != nil {
		s.logger.Error("list conversations", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []models.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": items})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.store.GetConversation(r.Context(), id)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	msgs, err := s.store.History(r.Context(), id)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversation": c, "messages": msgs})
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req postMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.turns.HandleUserMessage(r.Context(), id, req.Content)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			s.logger.Error("handle user message",
				zap.String("conversation_id", id),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err),
			)
		}
		if errors.Is(err, chat.ErrTurnFailed) {
			apiErr := toAPIError(status, err)
			writeJSON(w, status, map[string]any{
				"error":        map[string]any{"code": apiErr.Code, "message": apiErr.Message},
				"user_message": res.UserMessage,
			})
			return
		}
		writeErr(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, router.ErrEmptyQuery), errors.Is(err, router.ErrQueryTooLong), errors.Is(err, io.EOF):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrTurnFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "CC-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusBadGateway:
		return apiError{Code: "CC-PRV-5020", Message: "Failed to process message"}
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "CC-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "CC-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "CC-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "CC-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "CC-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "CC-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// 4xx responses only carry user-safe validation context
	if status >= 400 && status < 500 && err != nil {
		switch {
		case errors.Is(err, router.ErrEmptyQuery):
			msg = "Message content is required."
		case errors.Is(err, router.ErrQueryTooLong):
			msg = fmt.Sprintf("Message exceeds %d characters.", router.MaxQueryLength)
		case errors.Is(err, io.EOF):
			msg = "Request body is required."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
