package handler

import (
	"net/http"

	"go-clinic-negotiation/internal/converter"
	"go-clinic-negotiation/internal/delivery/dto"
	"go-clinic-negotiation/internal/delivery/http/middleware"
	"go-clinic-negotiation/internal/usecase"
	"go-clinic-negotiation/pkg/response"
)

type NotificationHandler struct {
	notificationUsecase usecase.NotificationUsecase
}

func NewNotificationHandler(notificationUsecase usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{notificationUsecase: notificationUsecase}
}

// ListPending returns the user's undelivered notices
func (h *NotificationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	notifications, err := h.notificationUsecase.ListPending(r.Context(), userID)
	if err != nil {
		response.InternalServerError(w, "Failed to list notifications")
		return
	}

	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, converter.NotificationToResponse(&notifications[i]))
	}
	response.Success(w, http.StatusOK, "Notifications retrieved successfully", responses)
}
