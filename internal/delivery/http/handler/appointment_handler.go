package handler

import (
	"encoding/json"
	"net/http"

	"go-clinic-negotiation/internal/converter"
	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/delivery/http/middleware"
	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/usecase"
	"go-clinic-negotiation/pkg/response"
	"go-clinic-negotiation/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AppointmentHandler is the patient-facing surface: booking, lifecycle
// decisions (confirm / cancel / reopen / suggestion decisions), reminders
// and ratings.
type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	negotiationUsecase usecase.NegotiationUsecase
	reminderUsecase    usecase.ReminderUsecase
	ratingUsecase      usecase.RatingUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(
	appointmentUsecase usecase.AppointmentUsecase,
	negotiationUsecase usecase.NegotiationUsecase,
	reminderUsecase usecase.ReminderUsecase,
	ratingUsecase usecase.RatingUsecase,
	validator *validator.CustomValidator,
) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		negotiationUsecase: negotiationUsecase,
		reminderUsecase:    reminderUsecase,
		ratingUsecase:      ratingUsecase,
		validator:          validator,
	}
}

// Create opens a new appointment negotiation
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.Create(r.Context(), patientID, usecase.CreateAppointmentInput{
		TreatmentIDs: req.TreatmentIDs,
		DateTime:     req.DateTime,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Adjust30Min:  req.Adjust30Min,
	})
	if err != nil {
		switch {
		case err == usecase.ErrAppointmentPast:
			response.Error(w, http.StatusBadRequest, "Appointment must be in the future", nil)
		case err == usecase.ErrNoTreatments, err == usecase.ErrUnknownTreatment:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		case apperr.IsEmptyMatch(err):
			response.Error(w, http.StatusUnprocessableEntity, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to create appointment")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", converter.AppointmentToResponse(appointment))
}

// Get returns one of the patient's appointments
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.Get(r.Context(), appointmentID, patientID)
	if err != nil {
		h.writeError(w, err, "Failed to load appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", converter.AppointmentToResponse(appointment))
}

// ListUpcoming returns the patient's confirmed future appointments
func (h *AppointmentHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	appointments, err := h.appointmentUsecase.ListUpcoming(r.Context(), patientID)
	if err != nil {
		response.InternalServerError(w, "Failed to list appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", converter.AppointmentsToResponse(appointments))
}

// ListPassed returns the patient's confirmed past appointments
func (h *AppointmentHandler) ListPassed(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	appointments, err := h.appointmentUsecase.ListPassed(r.Context(), patientID)
	if err != nil {
		response.InternalServerError(w, "Failed to list appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", converter.AppointmentsToResponse(appointments))
}

// ListSuggestions returns every clinic suggestion for the appointment
func (h *AppointmentHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	suggestions, err := h.appointmentUsecase.ListSuggestions(r.Context(), appointmentID, patientID)
	if err != nil {
		h.writeError(w, err, "Failed to list suggestions")
		return
	}

	response.Success(w, http.StatusOK, "Suggestions retrieved successfully", converter.SuggestionsToResponse(suggestions))
}

// Confirm finalizes a reserved appointment
func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	if err := h.negotiationUsecase.Confirm(r.Context(), appointmentID, patientID); err != nil {
		h.writeError(w, err, "Failed to confirm appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment confirmed successfully", nil)
}

// Cancel aborts the appointment from any non-terminal state
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	var req dto.CancelAppointmentRequest
	// Body is optional; default tolerates a missing refund.
	_ = json.NewDecoder(r.Body).Decode(&req)

	err := h.appointmentUsecase.Cancel(r.Context(), appointmentID, patientID, req.RaiseIfNoRefund)
	if err != nil {
		switch {
		case err == apperr.ErrNoRefundWindow:
			response.Error(w, http.StatusConflict, "Too close to the appointment for a refund", nil)
		default:
			h.writeError(w, err, "Failed to cancel appointment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointment canceled successfully", nil)
}

// Reopen restarts the negotiation after a timeout or rejected suggestions
func (h *AppointmentHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	err := h.appointmentUsecase.Reopen(r.Context(), appointmentID, patientID)
	if err != nil {
		switch {
		case apperr.IsEmptyMatch(err):
			response.Error(w, http.StatusUnprocessableEntity, err.Error(), nil)
		default:
			h.writeError(w, err, "Failed to reopen appointment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointment reopened successfully", nil)
}

// AcceptSuggestion reserves the appointment at the chosen suggested slot
func (h *AppointmentHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	vars := mux.Vars(r)
	eventID, err := uuid.Parse(vars["eventId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid event ID", nil)
		return
	}
	suggestionID, err := uuid.Parse(vars["suggestionId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid suggestion ID", nil)
		return
	}

	if err := h.negotiationUsecase.AcceptSuggestion(r.Context(), eventID, suggestionID, patientID); err != nil {
		h.writeError(w, err, "Failed to accept suggestion")
		return
	}

	response.Success(w, http.StatusOK, "Suggestion accepted successfully", nil)
}

// RejectSuggestions turns down every suggestion of the event
func (h *AppointmentHandler) RejectSuggestions(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	vars := mux.Vars(r)
	eventID, err := uuid.Parse(vars["eventId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid event ID", nil)
		return
	}

	if err := h.negotiationUsecase.RejectSuggestions(r.Context(), eventID, patientID); err != nil {
		h.writeError(w, err, "Failed to reject suggestions")
		return
	}

	response.Success(w, http.StatusOK, "Suggestions rejected successfully", nil)
}

// SetReminder creates or replaces the appointment's reminder
func (h *AppointmentHandler) SetReminder(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	var req dto.SetReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	reminder, err := h.reminderUsecase.Upsert(r.Context(), patientID, appointmentID, req.BeforeMinutes)
	if err != nil {
		switch {
		case err == usecase.ErrNotRemindable:
			response.Error(w, http.StatusConflict, err.Error(), nil)
		default:
			h.writeError(w, err, "Failed to set reminder")
		}
		return
	}

	response.Success(w, http.StatusOK, "Reminder set successfully", converter.ReminderToResponse(reminder))
}

// DeleteReminder removes the appointment's reminder
func (h *AppointmentHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	err := h.reminderUsecase.Delete(r.Context(), patientID, appointmentID)
	if err != nil {
		switch {
		case err == usecase.ErrNoReminder:
			response.NotFound(w, "Reminder not found")
		case err == usecase.ErrNotRemindable:
			response.Error(w, http.StatusConflict, err.Error(), nil)
		default:
			h.writeError(w, err, "Failed to delete reminder")
		}
		return
	}

	response.Success(w, http.StatusOK, "Reminder deleted successfully", nil)
}

// Rate creates a rating for a confirmed appointment
func (h *AppointmentHandler) Rate(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	var req dto.RateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	rating, err := h.ratingUsecase.Create(r.Context(), patientID, appointmentID, req.Rate, req.Comment)
	if err != nil {
		h.writeRatingError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Rating created successfully", converter.RatingToResponse(rating))
}

// UpdateRating changes an existing rating
func (h *AppointmentHandler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	var req dto.RateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	rating, err := h.ratingUsecase.Update(r.Context(), patientID, appointmentID, req.Rate, req.Comment)
	if err != nil {
		h.writeRatingError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Rating updated successfully", converter.RatingToResponse(rating))
}

// DeleteRating removes the appointment's rating
func (h *AppointmentHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	patientID, appointmentID, ok := h.pathAppointment(w, r)
	if !ok {
		return
	}

	if err := h.ratingUsecase.Delete(r.Context(), patientID, appointmentID); err != nil {
		h.writeRatingError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Rating deleted successfully", nil)
}

// pathAppointment extracts the caller and the {id} path variable.
func (h *AppointmentHandler) pathAppointment(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return uuid.Nil, uuid.Nil, false
	}

	vars := mux.Vars(r)
	appointmentID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return uuid.Nil, uuid.Nil, false
	}

	return patientID, appointmentID, true
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case apperr.IsNotFound(err):
		response.NotFound(w, err.Error())
	case apperr.IsStateConflict(err):
		response.Error(w, http.StatusConflict, err.Error(), nil)
	default:
		response.InternalServerError(w, fallback)
	}
}

func (h *AppointmentHandler) writeRatingError(w http.ResponseWriter, err error) {
	switch {
	case err == usecase.ErrInvalidRate:
		response.Error(w, http.StatusBadRequest, err.Error(), nil)
	case err == usecase.ErrAlreadyRated:
		response.Error(w, http.StatusConflict, err.Error(), nil)
	case err == usecase.ErrAppointmentNotRated:
		response.NotFound(w, err.Error())
	case err == usecase.ErrNotRatable:
		response.Error(w, http.StatusConflict, err.Error(), nil)
	default:
		h.writeError(w, err, "Failed to process rating")
	}
}
