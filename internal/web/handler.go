package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"gym-class-booking/internal/apperr"
	"gym-class-booking/internal/models"
	"gym-class-booking/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// IdentityVerifier resolves a bearer token to the caller's identity.
type IdentityVerifier interface {
	Verify(token string) (*models.Identity, error)
}

type Handler struct {
	bookingService service.BookingService
	catalogService service.CatalogService
	verifier       IdentityVerifier
	requestTimeout time.Duration
	logger         *zap.Logger
}

func NewHandler(
	bookingService service.BookingService,
	catalogService service.CatalogService,
	verifier IdentityVerifier,
	requestTimeout time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bookingService: bookingService,
		catalogService: catalogService,
		verifier:       verifier,
		requestTimeout: requestTimeout,
		logger:         logger.Named("web"),
	}
}

type ClassViewJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	Duration  string `json:"duration"`
	Attending bool   `json:"attending"`
}

type ClassListJSON struct {
	Mode    string          `json:"mode"`
	Classes []ClassViewJSON `json:"classes"`
}

type ClassJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date"`
	Duration    string `json:"duration"`
	Version     int64  `json:"version"`
	Attending   bool   `json:"attending"`
}

type ToggleJSON struct {
	ClassID   int64  `json:"class_id"`
	Result    string `json:"result"`
	Attending bool   `json:"attending"`
}

// ClassRequest is the body of create and edit calls. Duration uses Go
// duration syntax ("45m"), StartDate RFC 3339.
type ClassRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	Duration    string    `json:"duration"`
	Version     int64     `json:"version"`
}

type errorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toClassViewJSON(views []models.ClassView) []ClassViewJSON {
	out := make([]ClassViewJSON, 0, len(views))
	for _, v := range views {
		out = append(out, ClassViewJSON{
			ID:        v.ID,
			Name:      v.Name,
			StartDate: v.StartDate.Format(time.RFC3339),
			Duration:  v.Duration.String(),
			Attending: v.Attending,
		})
	}
	return out
}

func toClassJSON(c models.GymClass, attending bool) ClassJSON {
	return ClassJSON{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		StartDate:   c.StartDate.Format(time.RFC3339),
		Duration:    c.Duration.String(),
		Version:     c.Version,
		Attending:   attending,
	}
}

// ListClasses returns the catalog as seen by the caller. ?history=true
// switches members to their booking history.
func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	history := false
	if raw := r.URL.Query().Get("history"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, r, apperr.Validation("history must be a boolean"))
			return
		}
		history = parsed
	}

	viewer := IdentityFromContext(r.Context())
	mode := models.ResolveMode(viewer, history)

	views, err := h.catalogService.ProjectClasses(r.Context(), viewer, mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClassListJSON{Mode: mode.String(), Classes: toClassViewJSON(views)})
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	views, err := h.catalogService.ListBookings(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClassListJSON{Mode: models.ModeHistory.String(), Classes: toClassViewJSON(views)})
}

func (h *Handler) GetClass(w http.ResponseWriter, r *http.Request) {
	id, err := classIDFromPath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	details, err := h.catalogService.ClassDetails(r.Context(), IdentityFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassJSON(details.GymClass, details.Attending))
}

func (h *Handler) ToggleBooking(w http.ResponseWriter, r *http.Request) {
	id, err := classIDFromPath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.bookingService.ToggleBooking(r.Context(), IdentityFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleJSON{
		ClassID:   id,
		Result:    string(result),
		Attending: result == models.ToggleCreated,
	})
}

func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	_, in, err := decodeClassRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	class, err := h.catalogService.CreateClass(r.Context(), IdentityFromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClassJSON(*class, false))
}

func (h *Handler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := classIDFromPath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, in, err := decodeClassRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	class, err := h.catalogService.UpdateClass(r.Context(), IdentityFromContext(r.Context()), id, req.Version, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClassJSON(*class, false))
}

func (h *Handler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := classIDFromPath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.catalogService.DeleteClass(r.Context(), IdentityFromContext(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func classIDFromPath(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("invalid class id %q", raw))
	}
	return id, nil
}

func decodeClassRequest(r *http.Request) (ClassRequest, models.ClassInput, error) {
	var req ClassRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, models.ClassInput{}, apperr.Wrap(apperr.CodeValidation, "invalid request body", err)
	}

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		return req, models.ClassInput{}, apperr.Validation(fmt.Sprintf("invalid duration %q", req.Duration))
	}

	return req, models.ClassInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		Duration:    duration,
	}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	viewer := IdentityFromContext(r.Context())
	status := apperr.HTTPStatus(err, viewer.Authenticated())
	code := apperr.CodeOf(err)

	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = "internal error"
	}

	writeJSON(w, status, errorJSON{Error: message, Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
