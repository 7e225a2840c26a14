package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/middleware"
	"github.com/Dan9191/resource-service/internal/service"
)

// Handler serves the REST API
type Handler struct {
	users      *service.UserService
	categories *service.CategoryService
	resources  *service.ResourceService
	actions    *service.ActionLogger
	log        *logrus.Logger
	maxUpload  int64
}

// NewHandler wires the services into HTTP handlers. maxUpload bounds the
// size of a multipart request body in bytes.
func NewHandler(users *service.UserService, categories *service.CategoryService, resources *service.ResourceService,
	actions *service.ActionLogger, log *logrus.Logger, maxUpload int64) *Handler {
	return &Handler{
		users:      users,
		categories: categories,
		resources:  resources,
		actions:    actions,
		log:        log,
		maxUpload:  maxUpload,
	}
}

// Routes registers every API route on r
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.CreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", h.UpdateCategory).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id}", h.DeleteCategory).Methods(http.MethodDelete)

	api.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", h.UpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", h.DeleteUser).Methods(http.MethodDelete)

	api.HandleFunc("/resources", h.ListResources).Methods(http.MethodGet)
	api.HandleFunc("/resources", h.CreateResource).Methods(http.MethodPost)
	api.HandleFunc("/resources/{id}", h.UpdateResource).Methods(http.MethodPut)
	api.HandleFunc("/resources/{id}", h.DeleteResource).Methods(http.MethodDelete)

	api.HandleFunc("/logs", h.ListLogs).Methods(http.MethodGet)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// ListLogs returns the action log newest first
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.actions.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError translates err at the HTTP boundary. Server-side failures are
// logged in full and answered with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusCode(err)
	entry := middleware.LogEntry(r.Context(), h.log).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	writeJSON(w, status, errorResponse{Error: apperrors.PublicMessage(err)})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput("invalid id")
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.InvalidInput("request body too large")
		}
		return apperrors.InvalidInput("invalid request body")
	}
	return nil
}
