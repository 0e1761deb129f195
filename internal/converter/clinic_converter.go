package converter

import (
	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/domain/entity"
)

func ClinicToResponse(clinic *entity.Clinic) *dto.ClinicResponse {
	if clinic == nil {
		return nil
	}

	response := &dto.ClinicResponse{
		ID:        clinic.ID,
		Name:      clinic.Name,
		Status:    string(clinic.Status),
		Latitude:  clinic.Latitude,
		Longitude: clinic.Longitude,
		Rating:    clinic.Rating(),
		CntRating: clinic.CntRating,
		CreatedAt: clinic.CreatedAt,
	}

	for _, t := range clinic.Treatments {
		response.Treatments = append(response.Treatments, TreatmentToResponse(&t))
	}

	return response
}

func TreatmentToResponse(treatment *entity.Treatment) dto.TreatmentResponse {
	return dto.TreatmentResponse{
		ID:              treatment.ID,
		Name:            treatment.Name,
		Description:     treatment.Description,
		Price:           treatment.Price,
		DurationMinutes: treatment.DurationMinutes,
	}
}

func DoctorToResponse(doctor *entity.DoctorProfile) *dto.DoctorResponse {
	if doctor == nil {
		return nil
	}

	response := &dto.DoctorResponse{
		UserID:         doctor.UserID,
		FullName:       doctor.User.FullName,
		STRNumber:      doctor.STRNumber,
		Specialization: doctor.Specialization,
		Biography:      doctor.Biography,
	}

	for _, s := range doctor.Shifts {
		response.Shifts = append(response.Shifts, dto.DoctorShiftResponse{
			Weekday:  s.Weekday,
			WorkFrom: s.WorkFrom,
			WorkTo:   s.WorkTo,
		})
	}

	return response
}
