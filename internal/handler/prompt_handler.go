package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradecore/gradecore-api/internal/dto"
	"github.com/gradecore/gradecore-api/internal/service"
	"github.com/gradecore/gradecore-api/internal/utils"
)

// PromptHandler exposes prompt CRUD endpoints.
type PromptHandler struct {
	service service.PromptService
	logger  zerolog.Logger
}

// NewPromptHandler constructs the handler.
func NewPromptHandler(service service.PromptService, logger zerolog.Logger) *PromptHandler {
	return &PromptHandler{
		service: service,
		logger:  logger.With().Str("component", "prompt_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *PromptHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.remove)
}

func (h *PromptHandler) list(c *fiber.Ctx) error {
	prompts, err := h.service.List(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "prompts retrieved", prompts)
}

func (h *PromptHandler) create(c *fiber.Ctx) error {
	var payload dto.PromptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Create(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "prompt created", response)
}

func (h *PromptHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "prompt retrieved", response)
}

func (h *PromptHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PromptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Update(c.Context(), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "prompt updated", response)
}

func (h *PromptHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "prompt deleted", nil)
}

func (h *PromptHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrPromptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPromptNameTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("prompt operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
