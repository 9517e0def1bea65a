// Package api exposes the chatbot over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/fabfab/shop-agent/chat"
	"github.com/fabfab/shop-agent/faults"
	"github.com/fabfab/shop-agent/store"
)

// maxLoadBytes caps a sales-export upload body. Exports are capped at 100
// rows downstream, so anything past this is not a legitimate upload.
const maxLoadBytes = 10 << 20

// ChatService is the routed query surface the server fronts.
type ChatService interface {
	Ask(ctx context.Context, question string) (chat.Reply, error)
	CustomerHistory(ctx context.Context, term string) chat.Reply
	FileTicket(ctx context.Context, req chat.TicketRequest) (store.Ticket, error)
	Reindex(ctx context.Context) (int, error)
}

// DataLoader accepts a raw JSON sales export.
type DataLoader interface {
	Load(ctx context.Context, r io.Reader) (int, error)
}

// Server wires HTTP handlers to an already-constructed chat service and
// loader; it owns no connections itself.
type Server struct {
	svc     ChatService
	loader  DataLoader
	logger  *log.Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type historyRequest struct {
	Term string `json:"term"`
}

type ticketRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Category string `json:"category"`
	Issue    string `json:"issue"`
	Priority string `json:"priority"`
}

type chatResponse struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Answer     string   `json:"answer"`
	Evidence   []string `json:"evidence,omitempty"`
	Degraded   bool     `json:"degraded"`
	Tokens     int      `json:"tokens"`
}

type ticketResponse struct {
	TicketNumber string `json:"ticketNumber"`
	Status       string `json:"status"`
	Priority     string `json:"priority"`
	Category     string `json:"category"`
}

type loadResponse struct {
	Loaded int `json:"loaded"`
}

type reindexResponse struct {
	Chunks int `json:"chunks"`
}

func New(svc ChatService, loader DataLoader, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{svc: svc, loader: loader, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/chat", s.handleChat)
	mux.HandleFunc("/v1/history", s.handleHistory)
	mux.HandleFunc("/v1/tickets", s.handleTicket)
	mux.HandleFunc("/v1/load", s.handleLoad)
	mux.HandleFunc("/v1/reindex", s.handleReindex)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	reply, err := s.svc.Ask(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toChatResponse(reply))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req historyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	reply := s.svc.CustomerHistory(r.Context(), req.Term)
	s.writeJSON(w, http.StatusOK, toChatResponse(reply))
}

func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req ticketRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	ticket, err := s.svc.FileTicket(r.Context(), chat.TicketRequest{
		Name:     req.Name,
		Email:    req.Email,
		Category: req.Category,
		Issue:    req.Issue,
		Priority: req.Priority,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, ticketResponse{
		TicketNumber: ticket.TicketNumber,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		Category:     ticket.Category,
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	count, err := s.loader.Load(r.Context(), io.LimitReader(r.Body, maxLoadBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loadResponse{Loaded: count})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	chunks, err := s.svc.Reindex(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, faults.ErrEmptyInput) {
			status = http.StatusConflict
		}
		s.writeError(w, status, err)
		return
	}

	s.writeJSON(w, http.StatusOK, reindexResponse{Chunks: chunks})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func toChatResponse(reply chat.Reply) chatResponse {
	return chatResponse{
		Intent:     string(reply.Intent),
		Confidence: reply.Confidence,
		Answer:     reply.Answer,
		Evidence:   reply.Evidence,
		Degraded:   reply.Degraded,
		Tokens:     reply.Tokens,
	}
}
