package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gradecore/gradecore-api/internal/dto"
	"github.com/gradecore/gradecore-api/internal/service"
	"github.com/gradecore/gradecore-api/internal/utils"
)

type stubCorrectionService struct {
	response  dto.CorrectionResponse
	list      []dto.CorrectionResponse
	content   string
	createErr error
	getErr    error
	runErr    error
	openErr   error
	deleteErr error
}

func (s *stubCorrectionService) Create(ctx context.Context, userID uint, payload dto.CreateCorrectionRequest, archive service.ArchiveUpload) (dto.CorrectionResponse, error) {
	if s.createErr != nil {
		return dto.CorrectionResponse{}, s.createErr
	}
	return s.response, nil
}

func (s *stubCorrectionService) List(ctx context.Context, userID uint) ([]dto.CorrectionResponse, error) {
	return s.list, nil
}

func (s *stubCorrectionService) Get(ctx context.Context, id uint, userID uint) (dto.CorrectionResponse, error) {
	if s.getErr != nil {
		return dto.CorrectionResponse{}, s.getErr
	}
	return s.response, nil
}

func (s *stubCorrectionService) Run(ctx context.Context, id uint, userID uint) error {
	return s.runErr
}

func (s *stubCorrectionService) OpenResponse(ctx context.Context, id uint, userID uint) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return io.NopCloser(bytes.NewBufferString(s.content)), nil
}

func (s *stubCorrectionService) Delete(ctx context.Context, id uint, userID uint) error {
	return s.deleteErr
}

func newCorrectionApp(svc service.CorrectionService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		return c.Next()
	})

	h := NewCorrectionHandler(svc, zerolog.Nop())
	h.Register(app.Group("/api/v1/corrections"))
	return app
}

func TestCorrectionHandlerListReturnsEnvelope(t *testing.T) {
	svc := &stubCorrectionService{list: []dto.CorrectionResponse{{ID: 1, LLMModel: "llama3"}}}
	app := newCorrectionApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/corrections", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
}

func TestCorrectionHandlerGetUnknownID(t *testing.T) {
	svc := &stubCorrectionService{getErr: service.ErrCorrectionNotFound}
	app := newCorrectionApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/corrections/42", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCorrectionHandlerGetInvalidID(t *testing.T) {
	app := newCorrectionApp(&stubCorrectionService{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/corrections/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCorrectionHandlerRunConflict(t *testing.T) {
	svc := &stubCorrectionService{runErr: service.ErrCorrectionRunning}
	app := newCorrectionApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/corrections/7/run", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCorrectionHandlerRunBackendUnavailable(t *testing.T) {
	svc := &stubCorrectionService{runErr: service.ErrModelUnavailable}
	app := newCorrectionApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/corrections/7/run", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestCorrectionHandlerRunAccepted(t *testing.T) {
	app := newCorrectionApp(&stubCorrectionService{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/corrections/7/run", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
}

func TestCorrectionHandlerDownloadMissingResponse(t *testing.T) {
	svc := &stubCorrectionService{openErr: service.ErrResponseNotFound}
	app := newCorrectionApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/corrections/7/response", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCorrectionHandlerDownloadStreamsArtifact(t *testing.T) {
	svc := &stubCorrectionService{content: "8/10, good separation of concerns"}
	app := newCorrectionApp(svc)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/corrections/7/response", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "response.txt")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "8/10, good separation of concerns", string(body))
}

func TestCorrectionHandlerCreateRequiresArchive(t *testing.T) {
	app := newCorrectionApp(&stubCorrectionService{})

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/corrections", bytes.NewBufferString("description=x"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
