package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "juststart/internal/errors"
	"juststart/internal/notify"
	"juststart/internal/service"
)

type PomodoroHandler struct {
	pomodoroService *service.PomodoroService
	board           *notify.StatusBoard
	hub             *notify.Hub
}

type skipRequest struct {
	Phases *int `json:"phases"`
}

type resetRequest struct {
	AtWork bool `json:"atWork"`
}

type locationRequest struct {
	Location string `json:"location"`
}

func NewPomodoroHandler(pomodoroService *service.PomodoroService, board *notify.StatusBoard, hub *notify.Hub) *PomodoroHandler {
	return &PomodoroHandler{pomodoroService: pomodoroService, board: board, hub: hub}
}

func (h *PomodoroHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.State(c.Request.Context())})
}

func (h *PomodoroHandler) Toggle(c *gin.Context) {
	if apiErr := h.pomodoroService.Toggle(c.Request.Context()); apiErr != nil {
		h.fail(c, apiErr)
		return
	}
	h.respond(c, "Timer toggled")
}

// Skip accepts an empty body; phases is then left to the state machine.
func (h *PomodoroHandler) Skip(c *gin.Context) {
	var req skipRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	if apiErr := h.pomodoroService.Skip(c.Request.Context(), req.Phases); apiErr != nil {
		h.fail(c, apiErr)
		return
	}
	message := "Skipped 1 phase"
	if req.Phases != nil && *req.Phases > 1 {
		message = fmt.Sprintf("Skipped %d phases", *req.Phases)
	}
	h.respond(c, message)
}

func (h *PomodoroHandler) Reset(c *gin.Context) {
	var req resetRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	if apiErr := h.pomodoroService.Reset(c.Request.Context(), req.AtWork); apiErr != nil {
		h.fail(c, apiErr)
		return
	}
	h.respond(c, "Timer reset")
}

func (h *PomodoroHandler) ChangeLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	if apiErr := h.pomodoroService.ChangeLocation(c.Request.Context(), req.Location); apiErr != nil {
		h.fail(c, apiErr)
		return
	}
	h.respond(c, "Location changed")
}

func (h *PomodoroHandler) GetHistory(c *gin.Context) {
	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	records, apiErr := h.pomodoroService.History(c.Request.Context(), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phases": records})
}

func (h *PomodoroHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": h.board.Status()})
}

func (h *PomodoroHandler) Events(c *gin.Context) {
	h.hub.ServeHTTP(c.Writer, c.Request)
}

func (h *PomodoroHandler) respond(c *gin.Context, appStatus string) {
	h.board.SetAppStatus(appStatus)
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.State(c.Request.Context())})
}

// fail mirrors user-correctable errors on the status board before replying.
func (h *PomodoroHandler) fail(c *gin.Context, apiErr *apperrors.APIError) {
	if apperrors.IsValidation(apiErr) || apperrors.IsAuthorization(apiErr) {
		h.board.SetAppStatus(apiErr.Message)
	}
	writeError(c, apiErr)
}

func bindOptionalJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidJSON(c)
		return false
	}
	return true
}
