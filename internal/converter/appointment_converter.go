package converter

import (
	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
)

func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:          appointment.ID,
		Status:      string(appointment.Status),
		DateTime:    appointment.DateTime,
		Adjust30Min: appointment.Adjust30Min,
		Latitude:    appointment.Latitude,
		Longitude:   appointment.Longitude,
		ClinicID:    appointment.ClinicID,
		DoctorID:    appointment.DoctorID,
		CreatedAt:   appointment.CreatedAt,
	}

	if appointment.Clinic != nil {
		response.Clinic = ClinicToResponse(appointment.Clinic)
	}
	if appointment.Basket != nil {
		for _, t := range appointment.Basket.Treatments {
			response.Treatments = append(response.Treatments, TreatmentToResponse(&t))
		}
	}

	return response
}

func AppointmentsToResponse(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		responses = append(responses, *AppointmentToResponse(&appointments[i]))
	}
	return responses
}

func SuggestionToResponse(suggestion *entity.Suggestion) dto.SuggestionResponse {
	return dto.SuggestionResponse{
		ID:            suggestion.ID,
		ClinicEventID: suggestion.ClinicEventID,
		DoctorID:      suggestion.DoctorID,
		DateTime:      suggestion.DateTime,
		Adjust30Min:   suggestion.Adjust30Min,
		Chosen:        suggestion.Chosen,
	}
}

func SuggestionsToResponse(suggestions []entity.Suggestion) []dto.SuggestionResponse {
	responses := make([]dto.SuggestionResponse, 0, len(suggestions))
	for i := range suggestions {
		responses = append(responses, SuggestionToResponse(&suggestions[i]))
	}
	return responses
}

func ClinicEventToResponse(event *entity.ClinicEvent) *dto.ClinicEventResponse {
	if event == nil {
		return nil
	}

	response := &dto.ClinicEventResponse{
		ID:            event.ID,
		AppointmentID: event.AppointmentID,
		ClinicID:      event.ClinicID,
		Status:        string(event.Status),
		CreatedAt:     event.CreatedAt,
		Suggestions:   SuggestionsToResponse(event.Suggestions),
	}
	if event.Appointment.ID != uuid.Nil {
		response.Appointment = AppointmentToResponse(&event.Appointment)
	}
	return response
}

func ClinicEventsToResponse(events []entity.ClinicEvent) []dto.ClinicEventResponse {
	responses := make([]dto.ClinicEventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, *ClinicEventToResponse(&events[i]))
	}
	return responses
}

func NotificationToResponse(notification *entity.UserNotification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:            notification.ID,
		AppointmentID: notification.AppointmentID,
		Action:        notification.Action,
		Payload:       notification.Payload,
		Status:        string(notification.Status),
		CreatedAt:     notification.CreatedAt,
	}
}

func ReminderToResponse(reminder *entity.AppointmentReminder) *dto.ReminderResponse {
	if reminder == nil {
		return nil
	}
	return &dto.ReminderResponse{
		AppointmentID: reminder.AppointmentID,
		BeforeMinutes: reminder.BeforeMinutes,
		AlreadySent:   reminder.AlreadySent,
	}
}

func RatingToResponse(rating *entity.AppointmentRating) *dto.RatingResponse {
	if rating == nil {
		return nil
	}
	return &dto.RatingResponse{
		AppointmentID: rating.AppointmentID,
		Rate:          rating.Rate,
		Comment:       rating.Comment,
		CreatedAt:     rating.CreatedAt,
	}
}
