package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/daily-briefing/internal/domain/briefing"
	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// HandlerConfig carries the calendar settings the handlers resolve dates with.
type HandlerConfig struct {
	Location      *time.Location
	GenerationDay time.Weekday
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	cfg         HandlerConfig
	wardrobeSvc wardrobe.Service
	briefingSvc briefing.Service
	now         func() time.Time
	logger      *slog.Logger
}

// NewHandler constructs the admin HTTP handler.
func NewHandler(cfg HandlerConfig, wardrobeSvc wardrobe.Service, briefingSvc briefing.Service, logger *slog.Logger) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Handler{
		cfg:         cfg,
		wardrobeSvc: wardrobeSvc,
		briefingSvc: briefingSvc,
		now:         time.Now,
		logger:      logger.With("component", "http.handler"),
	}
}

type scheduleResponse struct {
	WeekOf   string            `json:"weekOf"`
	Schedule wardrobe.Schedule `json:"schedule"`
}

type previewResponse struct {
	WeekOf   string            `json:"weekOf"`
	HTML     string            `json:"html"`
	Schedule wardrobe.Schedule `json:"schedule"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Schedule returns the stored schedule of a cycle, defaulting to the current one.
func (h *Handler) Schedule(c *gin.Context) {
	weekOf := util.MostRecent(h.now().In(h.cfg.Location), h.cfg.GenerationDay)
	if raw := strings.TrimSpace(c.Query("week")); raw != "" {
		parsed, err := time.ParseInLocation(util.ISODateLayout, raw, h.cfg.Location)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "week must be formatted as YYYY-MM-DD", err))
			return
		}
		weekOf = parsed
	}

	schedule, found, err := h.wardrobeSvc.Schedule(c.Request.Context(), weekOf)
	if err != nil {
		abortWithDomainError(c, err, "schedule_failed")
		return
	}
	if !found {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "schedule_not_found", wardrobe.MsgScheduleMissing, nil))
		return
	}
	c.JSON(http.StatusOK, scheduleResponse{WeekOf: util.ISODate(weekOf), Schedule: schedule})
}

// Preview renders the current cycle without mutating it.
func (h *Handler) Preview(c *gin.Context) {
	res, err := h.wardrobeSvc.Preview(c.Request.Context(), h.now().In(h.cfg.Location))
	if err != nil {
		abortWithDomainError(c, err, "preview_failed")
		return
	}
	if res.Status == wardrobe.StatusScheduleMissing {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "schedule_not_found", res.Summary, nil))
		return
	}
	c.JSON(http.StatusOK, previewResponse{WeekOf: util.ISODate(res.WeekOf), HTML: res.Summary, Schedule: res.Schedule})
}

// RunBriefing executes one briefing for the current slot.
func (h *Handler) RunBriefing(c *gin.Context) {
	h.logRequester(c, "briefing run requested")
	report, err := h.briefingSvc.Run(detach(c))
	if err != nil {
		abortWithDomainError(c, err, "briefing_failed")
		return
	}
	c.JSON(http.StatusAccepted, report)
}

// SendPreview re-sends the current weekly preview.
func (h *Handler) SendPreview(c *gin.Context) {
	h.logRequester(c, "preview resend requested")
	report, err := h.briefingSvc.SendPreview(detach(c))
	if err != nil {
		abortWithDomainError(c, err, "preview_send_failed")
		return
	}
	c.JSON(http.StatusAccepted, report)
}

func (h *Handler) logRequester(c *gin.Context, msg string) {
	h.logger.Info(msg, "request_id", requestID(c), "subject", requester(c))
}

// detach keeps a run going when the caller disconnects mid-request.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}


