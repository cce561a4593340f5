package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ============================================================
// File Storage
// ============================================================

type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) Root() string {
	return s.root
}

// ModelDir is the directory holding every artifact of one stored model.
func (s *FileStorage) ModelDir(modelID string) string {
	return filepath.Join(s.root, modelID)
}

func (s *FileStorage) IFCPath(modelID, base string) string {
	return filepath.Join(s.ModelDir(modelID), sanitize(base)+".ifc")
}

func (s *FileStorage) MeshPath(modelID, base string) string {
	return filepath.Join(s.ModelDir(modelID), sanitize(base)+".json")
}

func (s *FileStorage) PlanPath(modelID string) string {
	return filepath.Join(s.ModelDir(modelID), "plan.svg")
}

func (s *FileStorage) EnsureDir(modelID string) error {
	path := s.ModelDir(modelID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir model dir: %w", err)
	}
	return nil
}

func (s *FileStorage) SaveFile(modelID, target string, data []byte) error {
	if err := s.EnsureDir(modelID); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

// WriteModel stores the .ifc and .json pair and returns their paths.
func (s *FileStorage) WriteModel(modelID, base string, ifc, mesh []byte) (string, string, error) {
	ifcPath := s.IFCPath(modelID, base)
	if err := s.SaveFile(modelID, ifcPath, ifc); err != nil {
		return "", "", fmt.Errorf("write ifc: %w", err)
	}
	meshPath := s.MeshPath(modelID, base)
	if err := s.SaveFile(modelID, meshPath, mesh); err != nil {
		return "", "", fmt.Errorf("write mesh: %w", err)
	}
	return ifcPath, meshPath, nil
}

// sanitize keeps a base name inside its model directory.
func sanitize(base string) string {
	base = strings.TrimSpace(filepath.Base(base))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "model"
	}
	return base
}
