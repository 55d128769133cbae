package greeting

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"greeter/internal/logger"
	apperrors "greeter/pkg/errors"
	"greeter/pkg/logging"
	"greeter/pkg/metrics"
)

type Handler struct {
	Service *Service
	Logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/greeting", h.CreateGreeting)
	router.PUT("/greeting", h.PutGreeting)
	router.GET("/greeting", h.ListGreetings)
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	} else {
		h.Logger.WarnwCtx(c.Request.Context(), "Request rejected", "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(apperrors.ToHTTPStatus(appErr), apperrors.ToErrorResponse(appErr))
}

// CreateGreeting godoc
// @Summary      Store a greeting
// @Description  Validate a greeting and forward it to the configured sink
// @Tags         greetings
// @Accept       json
// @Produce      json
// @Param        greeting  body      GreetingRequest  true  "Greeting"
// @Success      201       {object}  MessageIDResponse
// @Failure      400       {object}  errors.ErrorResponse
// @Failure      500       {object}  errors.ErrorResponse
// @Router       /greeting [post]
func (h *Handler) CreateGreeting(c *gin.Context) {
	h.receive(c, http.StatusCreated)
}

// PutGreeting godoc
// @Summary      Store a greeting
// @Description  Same as POST; answers 200 instead of 201
// @Tags         greetings
// @Accept       json
// @Produce      json
// @Param        greeting  body      GreetingRequest  true  "Greeting"
// @Success      200       {object}  MessageIDResponse
// @Failure      400       {object}  errors.ErrorResponse
// @Failure      500       {object}  errors.ErrorResponse
// @Router       /greeting [put]
func (h *Handler) PutGreeting(c *gin.Context) {
	h.receive(c, http.StatusOK)
}

func (h *Handler) receive(c *gin.Context, successStatus int) {
	var req GreetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncGreetingsReceived("malformed")
		h.HandleError(c, apperrors.ErrValidation.
			WithDetail("reason", "request body is not a valid greeting document").
			WithCause(err))
		return
	}

	if err := ValidateRequest(req); err != nil {
		metrics.IncGreetingsReceived("invalid")
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			for _, f := range validationErr.Fields {
				metrics.IncValidationFailure(f.Field)
			}
		}
		h.HandleError(c, err)
		return
	}

	g, err := req.ToGreeting()
	if err != nil {
		metrics.IncGreetingsReceived("failed")
		h.HandleError(c, err)
		return
	}

	ctx := logging.WithGreetingID(c.Request.Context(), g.ID)
	h.Logger.InfowCtx(ctx, "Received greeting", "heading", g.Heading, "sink", h.Service.Name())

	if err := h.Service.ReceiveGreeting(ctx, g); err != nil {
		metrics.IncGreetingsReceived("failed")
		h.HandleError(c, err)
		return
	}

	metrics.IncGreetingsReceived("accepted")
	c.JSON(successStatus, MessageIDResponse{MessageID: g.ID})
}

// ListGreetings godoc
// @Summary      List greetings
// @Description  Return every greeting the configured sink holds
// @Tags         greetings
// @Produce      json
// @Success      200  {array}   GreetingDTO
// @Failure      500  {object}  errors.ErrorResponse
// @Failure      501  {object}  errors.ErrorResponse
// @Router       /greeting [get]
func (h *Handler) ListGreetings(c *gin.Context) {
	greetings, err := h.Service.AllGreetings(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]GreetingDTO, 0, len(greetings))
	for i := range greetings {
		out = append(out, NewGreetingDTO(&greetings[i]))
	}
	c.JSON(http.StatusOK, out)
}
