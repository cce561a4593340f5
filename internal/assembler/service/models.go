package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bim-gateway/internal/assembler/assemble"
	"bim-gateway/internal/assembler/models"
	"bim-gateway/internal/assembler/render"
	"bim-gateway/internal/assembler/step"
)

// ============================================================
// Model Service
// ============================================================

// Store persists assembled models.
type Store interface {
	Save(ctx context.Context, rec *models.ModelRecord) error
	GetByID(ctx context.Context, id string) (*models.ModelRecord, error)
	List(ctx context.Context, limit int) ([]models.ModelRecord, error)
}

// StoredCounter is notified for every persisted model.
type StoredCounter interface {
	IncrementStored()
}

// Artifacts are the serialized outputs of one assembly.
type Artifacts struct {
	Result *assemble.Result
	IFC    []byte
	Mesh   []byte
}

type ModelService struct {
	assembler *assemble.Assembler
	store     Store
	files     *FileStorage
	renderer  *render.PlanRenderer
	counter   StoredCounter
	logger    *zap.Logger
	author    string
}

type ServiceOption func(*ModelService)

// WithFileStorage mirrors every stored model to disk.
func WithFileStorage(fs *FileStorage) ServiceOption {
	return func(s *ModelService) {
		s.files = fs
	}
}

func WithStoredCounter(c StoredCounter) ServiceOption {
	return func(s *ModelService) {
		s.counter = c
	}
}

func WithAuthor(author string) ServiceOption {
	return func(s *ModelService) {
		s.author = author
	}
}

func NewModelService(a *assemble.Assembler, store Store, logger *zap.Logger, opts ...ServiceOption) *ModelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ModelService{
		assembler: a,
		store:     store,
		renderer:  render.NewPlanRenderer(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build assembles spec and serializes both representations without storing them.
func (s *ModelService) Build(ctx context.Context, spec models.ModelSpec, name string) (*Artifacts, error) {
	res, err := s.assembler.Assemble(ctx, spec)
	if err != nil {
		return nil, err
	}

	ifc, err := step.Marshal(res.Graph, step.Header{
		FileName:  fileBase(name, spec) + ".ifc",
		Author:    s.author,
		Timestamp: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode ifc: %w", err)
	}
	mesh, err := EncodeMesh(res.Mesh, false)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Result: res, IFC: ifc, Mesh: mesh}, nil
}

// Create assembles and persists a model. The record id is the project identifier.
func (s *ModelService) Create(ctx context.Context, spec models.ModelSpec, name string) (*models.ModelRecord, *Artifacts, error) {
	art, err := s.Build(ctx, spec, name)
	if err != nil {
		return nil, nil, err
	}

	g := art.Result.Graph
	rec := &models.ModelRecord{
		ID:           g.Hierarchy.Project.ID,
		Name:         fileBase(name, spec),
		Elements:     len(g.Elements),
		PropertySets: len(g.PropertySets),
		IFC:          string(art.IFC),
		Mesh:         art.Mesh,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("save model: %w", err)
	}
	if s.counter != nil {
		s.counter.IncrementStored()
	}

	if s.files != nil {
		ifcPath, meshPath, err := s.files.WriteModel(rec.ID, rec.Name, art.IFC, art.Mesh)
		if err != nil {
			// the database copy is authoritative
			s.logger.Warn("mirror model to disk failed", zap.String("model", rec.ID), zap.Error(err))
		} else {
			s.logger.Debug("model written", zap.String("ifc", ifcPath), zap.String("mesh", meshPath))
		}
		s.mirrorPlan(rec.ID, art.Result.Mesh)
	}

	s.logger.Info("model stored",
		zap.String("model", rec.ID),
		zap.String("name", rec.Name),
		zap.Int("elements", rec.Elements))
	return rec, art, nil
}

// mirrorPlan writes plan.svg next to the model files.
func (s *ModelService) mirrorPlan(id string, doc *models.MeshDocument) {
	svg, err := s.renderer.Render(doc)
	if err == nil {
		err = s.files.SaveFile(id, s.files.PlanPath(id), []byte(svg))
	}
	if err != nil {
		s.logger.Warn("mirror plan to disk failed", zap.String("model", id), zap.Error(err))
	}
}

func (s *ModelService) Get(ctx context.Context, id string) (*models.ModelRecord, error) {
	return s.store.GetByID(ctx, id)
}

func (s *ModelService) List(ctx context.Context, limit int) ([]models.ModelRecord, error) {
	return s.store.List(ctx, limit)
}

// Plan renders the stored mesh document as a top-down SVG.
func (s *ModelService) Plan(ctx context.Context, id string) (string, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	doc, err := DecodeMesh(rec.Mesh)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", id, err)
	}
	return s.renderer.Render(doc)
}

// ============================================================
// Mesh document encoding
// ============================================================

// EncodeMesh validates doc and renders it as JSON.
func EncodeMesh(doc *models.MeshDocument, indent bool) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("mesh document: %w", err)
	}
	if indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

func DecodeMesh(data []byte) (*models.MeshDocument, error) {
	var doc models.MeshDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode mesh document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func fileBase(name string, spec models.ModelSpec) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return spec.Hierarchy.Project
}
