package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// NotificationStreamer upgrades a request to a live notification feed.
type NotificationStreamer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string) error
}

// NotificationHandler handles notification requests.
type NotificationHandler struct {
	notificationService services.NotificationServicer
	stream              NotificationStreamer
}

// NewNotificationHandler creates a new NotificationHandler. stream may be nil,
// in which case the websocket endpoint is unavailable.
func NewNotificationHandler(notificationService services.NotificationServicer, stream NotificationStreamer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, stream: stream}
}

// UnreadCountResponse carries the number of unread notifications.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllResponse carries the number of notifications marked read.
type MarkAllResponse struct {
	Updated int64 `json:"updated"`
}

// GetNotifications lists notifications, newest first.
// @Summary     List notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       unread    query bool   false "Only unread notifications"
// @Param       type      query string false "Filter by notification type"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Notification] "Paginated notifications"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filter services.NotificationFilter
	unread, err := parseQueryBool(c, "unread")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.UnreadOnly = unread != nil && *unread
	if v := c.Query("type"); v != "" {
		nt := models.NotificationType(v)
		if !nt.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown notification type"))
			return
		}
		filter.Type = &nt
	}

	result, err := h.notificationService.GetUserNotifications(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUnreadCount returns the number of unread notifications.
// @Summary     Count unread notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UnreadCountResponse "Unread count"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.notificationService.CountUnread(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkAsRead flags one notification as read.
// @Summary     Mark notification read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Notification ID"
// @Success     200 {object} models.Notification "Updated notification"
// @Failure     400 {object} ErrorResponse "Invalid notification ID"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Router      /notifications/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	notification, err := h.notificationService.MarkAsRead(userID, notificationID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// MarkAllAsRead flags every unread notification as read.
// @Summary     Mark all notifications read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MarkAllResponse "Number of notifications updated"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications/read-all [put]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	updated, err := h.notificationService.MarkAllAsRead(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MarkAllResponse{Updated: updated})
}

// Stream upgrades to a websocket that receives new notifications as they are stored.
// @Summary     Live notifications
// @Description Websocket feed of new notifications. Browsers pass the access token as the token query parameter.
// @Tags        notifications
// @Security    BearerAuth
// @Param       token query string false "Access token when the Authorization header cannot be set"
// @Success     101 "Switching protocols"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if h.stream == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrNotFound, "Live notifications are not enabled"))
		return
	}

	if err := h.stream.Serve(c.Writer, c.Request, userID); err != nil {
		logger.Get().Warnw("websocket upgrade failed", "user_id", userID, "error", err)
	}
}
