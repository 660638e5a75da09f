package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studyai-backend/internal/app"
	"studyai-backend/internal/transport/http/response"
)

type ActivityHandler struct {
	activityService *app.ActivityService
}

func NewActivityHandler(activityService *app.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// Recent returns the user's latest activity entries, newest first.
func (h *ActivityHandler) Recent(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	activities, err := h.activityService.Recent(userID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list activity failed")
		return
	}
	response.OK(c, gin.H{"activities": activities})
}
