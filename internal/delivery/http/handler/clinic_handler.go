package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-clinic-negotiation/internal/converter"
	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/delivery/http/middleware"
	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/usecase"
	"go-clinic-negotiation/pkg/response"
	"go-clinic-negotiation/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ClinicHandler is the clinic admin's surface: the clinic record, its doctors
// and treatments, the presence flag, and the negotiation actions on incoming
// events. Moderation endpoints are wired for super admins.
type ClinicHandler struct {
	clinicUsecase      usecase.ClinicUsecase
	negotiationUsecase usecase.NegotiationUsecase
	ratingUsecase      usecase.RatingUsecase
	validator          *validator.CustomValidator
}

func NewClinicHandler(
	clinicUsecase usecase.ClinicUsecase,
	negotiationUsecase usecase.NegotiationUsecase,
	ratingUsecase usecase.RatingUsecase,
	validator *validator.CustomValidator,
) *ClinicHandler {
	return &ClinicHandler{
		clinicUsecase:      clinicUsecase,
		negotiationUsecase: negotiationUsecase,
		ratingUsecase:      ratingUsecase,
		validator:          validator,
	}
}

// MyClinic returns the admin's own clinic
func (h *ClinicHandler) MyClinic(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	clinic, err := h.clinicUsecase.MyClinic(r.Context(), adminID)
	if err != nil {
		h.writeError(w, err, "Failed to load clinic")
		return
	}

	response.Success(w, http.StatusOK, "Clinic retrieved successfully", converter.ClinicToResponse(clinic))
}

// ListEvents returns the clinic's negotiation inbox.
// An optional ?status=active,suggested query narrows the states.
func (h *ClinicHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var statuses []entity.ClinicEventStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, entity.ClinicEventStatus(s))
			}
		}
	}

	events, err := h.clinicUsecase.ListEvents(r.Context(), adminID, statuses)
	if err != nil {
		h.writeError(w, err, "Failed to list events")
		return
	}

	response.Success(w, http.StatusOK, "Events retrieved successfully", converter.ClinicEventsToResponse(events))
}

// ListDoctors returns the clinic's doctors with their shifts
func (h *ClinicHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	doctors, err := h.clinicUsecase.ListDoctors(r.Context(), adminID)
	if err != nil {
		h.writeError(w, err, "Failed to list doctors")
		return
	}

	responses := make([]dto.DoctorResponse, 0, len(doctors))
	for i := range doctors {
		responses = append(responses, *converter.DoctorToResponse(&doctors[i]))
	}
	response.Success(w, http.StatusOK, "Doctors retrieved successfully", responses)
}

// AddDoctor creates a doctor account under the clinic
func (h *ClinicHandler) AddDoctor(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.AddDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.clinicUsecase.AddDoctor(r.Context(), adminID, &req)
	if err != nil {
		switch err {
		case usecase.ErrEmailAlreadyExists:
			response.Error(w, http.StatusConflict, "Email already exists", nil)
		case usecase.ErrClinicNotApproved:
			response.Error(w, http.StatusConflict, "Clinic is not approved yet", nil)
		case usecase.ErrInvalidShift:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			h.writeError(w, err, "Failed to add doctor")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Doctor added successfully", converter.DoctorToResponse(doctor))
}

// SetTreatments replaces the clinic's offered treatment set
func (h *ClinicHandler) SetTreatments(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.SetTreatmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	clinic, err := h.clinicUsecase.SetTreatments(r.Context(), adminID, req.TreatmentIDs)
	if err != nil {
		switch err {
		case usecase.ErrUnknownTreatment:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			h.writeError(w, err, "Failed to set treatments")
		}
		return
	}

	response.Success(w, http.StatusOK, "Treatments updated successfully", converter.ClinicToResponse(clinic))
}

// SetOnline marks the admin present for instant-response matching
func (h *ClinicHandler) SetOnline(w http.ResponseWriter, r *http.Request) {
	h.setPresence(w, r, true)
}

// SetOffline clears the admin's presence flag
func (h *ClinicHandler) SetOffline(w http.ResponseWriter, r *http.Request) {
	h.setPresence(w, r, false)
}

func (h *ClinicHandler) setPresence(w http.ResponseWriter, r *http.Request, online bool) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var err error
	if online {
		err = h.clinicUsecase.SetOnline(r.Context(), adminID)
	} else {
		err = h.clinicUsecase.SetOffline(r.Context(), adminID)
	}
	if err != nil {
		h.writeError(w, err, "Failed to update presence")
		return
	}

	response.Success(w, http.StatusOK, "Presence updated successfully", nil)
}

// ListRatings returns the ratings left on the clinic's appointments
func (h *ClinicHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	clinic, err := h.clinicUsecase.MyClinic(r.Context(), adminID)
	if err != nil {
		h.writeError(w, err, "Failed to load clinic")
		return
	}

	ratings, err := h.ratingUsecase.ListForClinic(r.Context(), clinic.ID)
	if err != nil {
		response.InternalServerError(w, "Failed to list ratings")
		return
	}

	responses := make([]dto.RatingResponse, 0, len(ratings))
	for i := range ratings {
		responses = append(responses, *converter.RatingToResponse(&ratings[i]))
	}
	response.Success(w, http.StatusOK, "Ratings retrieved successfully", responses)
}

// Accept takes the appointment as requested, assigning a doctor
func (h *ClinicHandler) Accept(w http.ResponseWriter, r *http.Request) {
	adminID, eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}

	var req dto.AcceptEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.negotiationUsecase.Accept(r.Context(), eventID, adminID, req.DoctorID); err != nil {
		h.writeError(w, err, "Failed to accept appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment accepted successfully", nil)
}

// Suggest submits alternative slots for the appointment
func (h *ClinicHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	adminID, eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}

	var req dto.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	proposals := make([]usecase.SuggestionInput, 0, len(req.Suggestions))
	for _, s := range req.Suggestions {
		proposals = append(proposals, usecase.SuggestionInput{
			DoctorID:    s.DoctorID,
			DateTime:    s.DateTime,
			Adjust30Min: s.Adjust30Min,
		})
	}

	if err := h.negotiationUsecase.Suggest(r.Context(), eventID, adminID, proposals); err != nil {
		switch err {
		case usecase.ErrNotEnoughSuggestions, usecase.ErrDuplicateSuggestions:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			h.writeError(w, err, "Failed to submit suggestions")
		}
		return
	}

	response.Success(w, http.StatusOK, "Suggestions submitted successfully", nil)
}

// Reject declines the appointment for this clinic
func (h *ClinicHandler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID, eventID, ok := h.pathEvent(w, r)
	if !ok {
		return
	}

	if err := h.negotiationUsecase.Reject(r.Context(), eventID, adminID); err != nil {
		h.writeError(w, err, "Failed to reject appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment rejected successfully", nil)
}

// Approve moves a pending clinic to approved (super admin)
func (h *ClinicHandler) Approve(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := h.pathClinic(w, r)
	if !ok {
		return
	}

	if err := h.clinicUsecase.Approve(r.Context(), clinicID); err != nil {
		h.writeError(w, err, "Failed to approve clinic")
		return
	}

	response.Success(w, http.StatusOK, "Clinic approved successfully", nil)
}

// Block disables a clinic (super admin)
func (h *ClinicHandler) Block(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := h.pathClinic(w, r)
	if !ok {
		return
	}

	if err := h.clinicUsecase.Block(r.Context(), clinicID); err != nil {
		h.writeError(w, err, "Failed to block clinic")
		return
	}

	response.Success(w, http.StatusOK, "Clinic blocked successfully", nil)
}

func (h *ClinicHandler) pathEvent(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return uuid.Nil, uuid.Nil, false
	}

	vars := mux.Vars(r)
	eventID, err := uuid.Parse(vars["eventId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid event ID", nil)
		return uuid.Nil, uuid.Nil, false
	}

	return adminID, eventID, true
}

func (h *ClinicHandler) pathClinic(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	clinicID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid clinic ID", nil)
		return uuid.Nil, false
	}
	return clinicID, true
}

func (h *ClinicHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case err == usecase.ErrNoClinic:
		response.NotFound(w, "Clinic not found")
	case apperr.IsNotFound(err):
		response.NotFound(w, err.Error())
	case apperr.IsStateConflict(err):
		response.Error(w, http.StatusConflict, err.Error(), nil)
	default:
		response.InternalServerError(w, fallback)
	}
}

