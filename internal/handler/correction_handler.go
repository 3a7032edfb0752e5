package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradecore/gradecore-api/internal/dto"
	"github.com/gradecore/gradecore-api/internal/service"
	"github.com/gradecore/gradecore-api/internal/storage"
	"github.com/gradecore/gradecore-api/internal/utils"
)

// CorrectionHandler exposes the correction lifecycle endpoints.
type CorrectionHandler struct {
	service service.CorrectionService
	logger  zerolog.Logger
}

// NewCorrectionHandler constructs the handler.
func NewCorrectionHandler(service service.CorrectionService, logger zerolog.Logger) *CorrectionHandler {
	return &CorrectionHandler{
		service: service,
		logger:  logger.With().Str("component", "correction_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *CorrectionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Post("/:id/run", h.run)
	router.Get("/:id/response", h.download)
	router.Delete("/:id", h.remove)
}

func (h *CorrectionHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	corrections, err := h.service.List(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "corrections retrieved", corrections)
}

func (h *CorrectionHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.CreateCorrectionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	fileHeader, err := c.FormFile("archive")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "archive file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "archive file is unreadable")
	}
	defer file.Close()

	response, err := h.service.Create(c.Context(), userID, payload, service.ArchiveUpload{
		Filename: fileHeader.Filename,
		Content:  file,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "correction created", response)
}

func (h *CorrectionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "correction retrieved", response)
}

func (h *CorrectionHandler) run(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Run(c.Context(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "evaluation run enqueued", nil)
}

func (h *CorrectionHandler) download(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stream, err := h.service.OpenResponse(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="response.txt"`)
	return c.SendStream(stream)
}

func (h *CorrectionHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "correction deleted", nil)
}

func (h *CorrectionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCorrectionNotFound),
		errors.Is(err, service.ErrPromptNotFound),
		errors.Is(err, service.ErrRubricNotFound),
		errors.Is(err, service.ErrResponseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCorrectionRunning):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrModelUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, storage.ErrArchiveType), errors.Is(err, storage.ErrArchiveTooLarge):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrArchiveCorrupt):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("correction operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
