package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoragePaths(t *testing.T) {
	fs := NewFileStorage("/data")

	assert.Equal(t, filepath.Join("/data", "m1"), fs.ModelDir("m1"))
	assert.Equal(t, filepath.Join("/data", "m1", "demo.ifc"), fs.IFCPath("m1", "demo"))
	assert.Equal(t, filepath.Join("/data", "m1", "demo.json"), fs.MeshPath("m1", "demo.ifc"))
	assert.Equal(t, filepath.Join("/data", "m1", "plan.svg"), fs.PlanPath("m1"))
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"demo":           "demo",
		"../../etc/demo": "demo",
		"":               "model",
		"..":             "model",
		"My Project":     "My Project",
		"model.yaml":     "model",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitize(in), in)
	}
}

func TestWriteModel(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	ifcPath, meshPath, err := fs.WriteModel("m1", "demo", []byte("ISO-10303-21;"), []byte("{}"))
	require.NoError(t, err)

	ifc, err := os.ReadFile(ifcPath)
	require.NoError(t, err)
	assert.Equal(t, "ISO-10303-21;", string(ifc))

	mesh, err := os.ReadFile(meshPath)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(mesh))
	assert.Equal(t, fs.ModelDir("m1"), filepath.Dir(meshPath))
}

func TestWriteModelIntoRoot(t *testing.T) {
	root := t.TempDir()

	ifcPath, _, err := NewFileStorage(root).WriteModel("", "demo", []byte("x"), []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "demo.ifc"), ifcPath)
}
