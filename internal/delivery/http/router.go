package http

import (
	"net/http"

	"go-clinic-negotiation/internal/delivery/http/handler"
	"go-clinic-negotiation/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	appointmentHandler  *handler.AppointmentHandler
	clinicHandler       *handler.ClinicHandler
	treatmentHandler    *handler.TreatmentHandler
	notificationHandler *handler.NotificationHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	clinicHandler *handler.ClinicHandler,
	treatmentHandler *handler.TreatmentHandler,
	notificationHandler *handler.NotificationHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		appointmentHandler:  appointmentHandler,
		clinicHandler:       clinicHandler,
		treatmentHandler:    treatmentHandler,
		notificationHandler: notificationHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/register/clinic", r.authHandler.RegisterClinicAdmin).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.Me).Methods(http.MethodGet)

	// Treatment catalog: list is public, create is super admin only
	api.HandleFunc("/treatments", r.treatmentHandler.List).Methods(http.MethodGet)
	superAdmin := api.PathPrefix("/admin").Subrouter()
	superAdmin.Use(r.authMiddleware.Authenticate)
	superAdmin.Use(middleware.RequireSuperAdmin)
	superAdmin.HandleFunc("/treatments", r.treatmentHandler.Create).Methods(http.MethodPost)
	superAdmin.HandleFunc("/clinics/{id}/approve", r.clinicHandler.Approve).Methods(http.MethodPost)
	superAdmin.HandleFunc("/clinics/{id}/block", r.clinicHandler.Block).Methods(http.MethodPost)

	// Patient routes
	patient := api.PathPrefix("/appointments").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)
	patient.HandleFunc("", r.appointmentHandler.Create).Methods(http.MethodPost)
	patient.HandleFunc("/upcoming", r.appointmentHandler.ListUpcoming).Methods(http.MethodGet)
	patient.HandleFunc("/passed", r.appointmentHandler.ListPassed).Methods(http.MethodGet)
	patient.HandleFunc("/{id}", r.appointmentHandler.Get).Methods(http.MethodGet)
	patient.HandleFunc("/{id}/confirm", r.appointmentHandler.Confirm).Methods(http.MethodPost)
	patient.HandleFunc("/{id}/cancel", r.appointmentHandler.Cancel).Methods(http.MethodPost)
	patient.HandleFunc("/{id}/reopen", r.appointmentHandler.Reopen).Methods(http.MethodPost)
	patient.HandleFunc("/{id}/suggestions", r.appointmentHandler.ListSuggestions).Methods(http.MethodGet)
	patient.HandleFunc("/{id}/reminder", r.appointmentHandler.SetReminder).Methods(http.MethodPut)
	patient.HandleFunc("/{id}/reminder", r.appointmentHandler.DeleteReminder).Methods(http.MethodDelete)
	patient.HandleFunc("/{id}/rating", r.appointmentHandler.Rate).Methods(http.MethodPost)
	patient.HandleFunc("/{id}/rating", r.appointmentHandler.UpdateRating).Methods(http.MethodPut)
	patient.HandleFunc("/{id}/rating", r.appointmentHandler.DeleteRating).Methods(http.MethodDelete)

	// Patient decisions on clinic events
	patientEvents := api.PathPrefix("/events").Subrouter()
	patientEvents.Use(r.authMiddleware.Authenticate)
	patientEvents.Use(middleware.RequirePatient)
	patientEvents.HandleFunc("/{eventId}/suggestions/{suggestionId}/accept", r.appointmentHandler.AcceptSuggestion).Methods(http.MethodPost)
	patientEvents.HandleFunc("/{eventId}/suggestions/reject", r.appointmentHandler.RejectSuggestions).Methods(http.MethodPost)

	// Clinic admin routes
	clinic := api.PathPrefix("/clinic").Subrouter()
	clinic.Use(r.authMiddleware.Authenticate)
	clinic.Use(middleware.RequireClinicAdmin)
	clinic.HandleFunc("", r.clinicHandler.MyClinic).Methods(http.MethodGet)
	clinic.HandleFunc("/events", r.clinicHandler.ListEvents).Methods(http.MethodGet)
	clinic.HandleFunc("/events/{eventId}/accept", r.clinicHandler.Accept).Methods(http.MethodPost)
	clinic.HandleFunc("/events/{eventId}/suggest", r.clinicHandler.Suggest).Methods(http.MethodPost)
	clinic.HandleFunc("/events/{eventId}/reject", r.clinicHandler.Reject).Methods(http.MethodPost)
	clinic.HandleFunc("/doctors", r.clinicHandler.ListDoctors).Methods(http.MethodGet)
	clinic.HandleFunc("/doctors", r.clinicHandler.AddDoctor).Methods(http.MethodPost)
	clinic.HandleFunc("/treatments", r.clinicHandler.SetTreatments).Methods(http.MethodPut)
	clinic.HandleFunc("/ratings", r.clinicHandler.ListRatings).Methods(http.MethodGet)
	clinic.HandleFunc("/online", r.clinicHandler.SetOnline).Methods(http.MethodPost)
	clinic.HandleFunc("/offline", r.clinicHandler.SetOffline).Methods(http.MethodPost)

	// Notifications (any authenticated user)
	notifications := api.PathPrefix("/notifications").Subrouter()
	notifications.Use(r.authMiddleware.Authenticate)
	notifications.HandleFunc("", r.notificationHandler.ListPending).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
