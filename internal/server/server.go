// Package server exposes the REST API over chi. Handlers decode JSON,
// delegate to the service layer and translate its errors to HTTP status
// codes; all domain rules live in the services.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evenup-dev/evenup/internal/auth"
	"github.com/evenup-dev/evenup/internal/calculator"
	"github.com/evenup-dev/evenup/internal/config"
	mw "github.com/evenup-dev/evenup/internal/middleware"
	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/service"
	"github.com/evenup-dev/evenup/internal/storage"
)

// Server is the evenup HTTP API server.
type Server struct {
	cfg *config.Config
	jwt *auth.JWTManager

	events       *service.EventService
	participants *service.ParticipantService
	families     *service.FamilyService
	expenses     *service.ExpenseService
	settlements  *service.SettlementService
	admin        *service.AdminService
}

// NewServer creates the API server around the given services.
func NewServer(
	cfg *config.Config,
	jwtManager *auth.JWTManager,
	events *service.EventService,
	participants *service.ParticipantService,
	families *service.FamilyService,
	expenses *service.ExpenseService,
	settlements *service.SettlementService,
	admin *service.AdminService,
) *Server {
	return &Server{
		cfg:          cfg,
		jwt:          jwtManager,
		events:       events,
		participants: participants,
		families:     families,
		expenses:     expenses,
		settlements:  settlements,
		admin:        admin,
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.RequireAuth(s.jwt))

		r.Route("/events", func(r chi.Router) {
			r.Post("/", s.handleCreateEvent)
			r.Get("/", s.handleListEvents)

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", s.handleGetEvent)
				r.Put("/", s.handleUpdateEvent)
				r.Delete("/", s.handleDeleteEvent)
				r.Post("/close", s.handleCloseEvent)
				r.Post("/archive", s.handleArchiveEvent)

				r.Get("/participants", s.handleListParticipants)
				r.Post("/participants", s.handleAddParticipant)

				r.Get("/families", s.handleListFamilies)
				r.Post("/families", s.handleCreateFamily)
				r.Post("/families/from-template", s.handleInstantiateTemplate)

				r.Get("/expenses", s.handleListExpenses)
				r.Post("/expenses", s.handleCreateExpense)
				r.Get("/expenses/summary", s.handleExpenseSummary)

				r.Get("/balances", s.handleBalances)
				r.Get("/settlements", s.handleListSettlements)
				r.Post("/settlements/compute", s.handleComputeSettlements)
			})
		})

		r.Route("/participants/{participantID}", func(r chi.Router) {
			r.Get("/", s.handleGetParticipant)
			r.Put("/", s.handleRenameParticipant)
			r.Delete("/", s.handleRemoveParticipant)
		})

		r.Route("/families/{familyID}", func(r chi.Router) {
			r.Get("/", s.handleGetFamily)
			r.Put("/", s.handleUpdateFamily)
			r.Delete("/", s.handleDeleteFamily)
			r.Get("/members", s.handleListFamilyMembers)
			r.Post("/members", s.handleAddFamilyMember)
			r.Delete("/members/{participantID}", s.handleRemoveFamilyMember)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Post("/", s.handleCreateTemplate)
			r.Get("/", s.handleListTemplates)
			r.Get("/{templateID}", s.handleGetTemplate)
			r.Put("/{templateID}", s.handleUpdateTemplate)
			r.Delete("/{templateID}", s.handleDeleteTemplate)
		})

		r.Route("/expenses/{expenseID}", func(r chi.Router) {
			r.Get("/", s.handleGetExpense)
			r.Put("/", s.handleUpdateExpense)
			r.Delete("/", s.handleDeleteExpense)
		})

		r.Post("/settlements/{settlementID}/settle", s.handleMarkSettled)

		r.Get("/users/{userID}/debts", s.handleUserDebts)

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireAdmin(s.cfg.IsAdmin))
			r.Get("/stats", s.handleAdminStats)
		})
	})

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

// respondError maps a service error to an HTTP response. Unrecognized
// errors become opaque 500s; their details are already logged by the
// service layer.
func respondError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeError(w, status, msg)
}

// invalidInput are domain validation failures: the request was
// understood but its content violates a model rule.
var invalidInput = []error{
	models.ErrInvalidName,
	models.ErrInvalidStatus,
	models.ErrInvalidCurrency,
	models.ErrInvalidAmount,
	models.ErrAmountTooLarge,
	models.ErrInvalidDescription,
	models.ErrInvalidSplitType,
	models.ErrInvalidSplitTarget,
	models.ErrInvalidPercentage,
	models.ErrNoSplits,
	models.ErrSplitSumMismatch,
	models.ErrPercentSumMismatch,
	models.ErrInvalidParticipantType,
}

// inconsistentState are rejections where the request is well-formed but
// the event's current data cannot satisfy it.
var inconsistentState = []error{
	service.ErrNotEventParticipant,
	service.ErrNotEventFamily,
	service.ErrFamilyWithoutHead,
	calculator.ErrUnknownPayer,
	calculator.ErrUnknownParticipant,
	calculator.ErrUnknownFamily,
	calculator.ErrUnknownHead,
	calculator.ErrHeadlessFamily,
	calculator.ErrNonPositiveAmount,
	calculator.ErrNegativeShare,
	calculator.ErrPercentageRange,
	calculator.ErrMissingShare,
	calculator.ErrUnknownSplitType,
	calculator.ErrNoSplitEntries,
}

// conflicts are rejections that guard referential integrity or the
// event lifecycle.
var conflicts = []error{
	service.ErrEventNotEditable,
	service.ErrParticipantHasExpenses,
	service.ErrParticipantHeadsFamily,
	service.ErrFamilyHasExpenses,
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case isAny(err, conflicts):
		return http.StatusConflict
	case isAny(err, invalidInput):
		return http.StatusBadRequest
	case isAny(err, inconsistentState):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
