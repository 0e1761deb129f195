package handler

import (
	"encoding/json"
	"net/http"

	"go-clinic-negotiation/internal/converter"
	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/usecase"
	"go-clinic-negotiation/pkg/response"
	"go-clinic-negotiation/pkg/validator"
)

type TreatmentHandler struct {
	treatmentUsecase usecase.TreatmentUsecase
	validator        *validator.CustomValidator
}

func NewTreatmentHandler(treatmentUsecase usecase.TreatmentUsecase, validator *validator.CustomValidator) *TreatmentHandler {
	return &TreatmentHandler{
		treatmentUsecase: treatmentUsecase,
		validator:        validator,
	}
}

// Create adds a treatment to the catalog (super admin)
func (h *TreatmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	treatment, err := h.treatmentUsecase.Create(r.Context(), &req)
	if err != nil {
		response.InternalServerError(w, "Failed to create treatment")
		return
	}

	response.Success(w, http.StatusCreated, "Treatment created successfully", converter.TreatmentToResponse(treatment))
}

// List returns the full treatment catalog
func (h *TreatmentHandler) List(w http.ResponseWriter, r *http.Request) {
	treatments, err := h.treatmentUsecase.List(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to list treatments")
		return
	}

	responses := make([]dto.TreatmentResponse, 0, len(treatments))
	for i := range treatments {
		responses = append(responses, converter.TreatmentToResponse(&treatments[i]))
	}
	response.Success(w, http.StatusOK, "Treatments retrieved successfully", responses)
}
