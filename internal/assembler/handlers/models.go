package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"bim-gateway/internal/assembler/assemble"
	"bim-gateway/internal/assembler/models"
	"bim-gateway/internal/assembler/service"
)

// ============================================================
// Model Handler
// ============================================================

const defaultRequestTimeout = 30 * time.Second

type ModelHandler struct {
	svc     *service.ModelService
	logger  *zap.Logger
	timeout time.Duration
}

func NewModelHandler(svc *service.ModelService, logger *zap.Logger, timeout time.Duration) *ModelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &ModelHandler{svc: svc, logger: logger, timeout: timeout}
}

type assembleResponse struct {
	IFC  string          `json:"ifc"`
	Mesh json.RawMessage `json:"mesh"`
}

type createResponse struct {
	Model *models.ModelRecord `json:"model"`
	Mesh  json.RawMessage     `json:"mesh"`
}

// Assemble builds a model from the request body and returns both
// representations without storing them.
func (h *ModelHandler) Assemble(c fiber.Ctx) error {
	spec, err := h.decodeSpec(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	art, err := h.svc.Build(ctx, spec, c.Query("name"))
	if err != nil {
		return h.assemblyError(c, err)
	}
	return c.JSON(assembleResponse{IFC: string(art.IFC), Mesh: art.Mesh})
}

// Demo assembles the built-in wall and column model.
func (h *ModelHandler) Demo(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	art, err := h.svc.Build(ctx, assemble.DemoSpec(), "demo")
	if err != nil {
		return h.assemblyError(c, err)
	}
	return c.JSON(assembleResponse{IFC: string(art.IFC), Mesh: art.Mesh})
}

// Create assembles and stores a model.
func (h *ModelHandler) Create(c fiber.Ctx) error {
	spec, err := h.decodeSpec(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	rec, art, err := h.svc.Create(ctx, spec, c.Query("name"))
	if err != nil {
		return h.assemblyError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(createResponse{Model: rec, Mesh: art.Mesh})
}

func (h *ModelHandler) List(c fiber.Ctx) error {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	list, err := h.svc.List(context.Background(), limit)
	if err != nil {
		h.logger.Error("list models", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list models"})
	}
	return c.JSON(fiber.Map{"models": list})
}

func (h *ModelHandler) Get(c fiber.Ctx) error {
	rec, err := h.svc.Get(context.Background(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(rec)
}

// GetIFC returns the stored STEP file.
func (h *ModelHandler) GetIFC(c fiber.Ctx) error {
	rec, err := h.svc.Get(context.Background(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	c.Set("Content-Type", "application/x-step")
	c.Set("Content-Disposition", `attachment; filename="`+rec.ID+`.ifc"`)
	return c.SendString(rec.IFC)
}

func (h *ModelHandler) GetMesh(c fiber.Ctx) error {
	rec, err := h.svc.Get(context.Background(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	c.Set("Content-Type", "application/json")
	return c.Send(rec.Mesh)
}

// GetPlan renders the stored mesh document as a top-down SVG.
func (h *ModelHandler) GetPlan(c fiber.Ctx) error {
	svg, err := h.svc.Plan(context.Background(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

// ============================================================
// Helpers
// ============================================================

func (h *ModelHandler) decodeSpec(c fiber.Ctx) (models.ModelSpec, error) {
	if len(c.Body()) == 0 {
		return models.ModelSpec{}, errors.New("body required")
	}

	spec, err := assemble.DecodeSpec(bytes.NewReader(c.Body()), c.Get("Content-Type"))
	if err != nil {
		h.logger.Debug("decode spec", zap.Error(err))
		return models.ModelSpec{}, err
	}
	return spec, nil
}

func (h *ModelHandler) lookupError(c fiber.Ctx, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "model not found"})
	}
	h.logger.Error("load model", zap.String("model", c.Params("id")), zap.Error(err))
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load model"})
}

func (h *ModelHandler) assemblyError(c fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("assembly failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// StatusFor maps an assembly error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrConsistency):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrInvalidSpec),
		errors.Is(err, models.ErrMalformedMesh),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrDuplicatePropertyName),
		errors.Is(err, models.ErrDuplicatePropertySetName),
		errors.Is(err, models.ErrAlreadyContained),
		errors.Is(err, models.ErrInvalidRotation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
