package assemble

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"bim-gateway/internal/assembler/models"
)

// DecodeSpec reads a ModelSpec. format is a content type or file extension;
// anything mentioning yaml/yml is decoded as YAML, the rest as JSON.
func DecodeSpec(r io.Reader, format string) (models.ModelSpec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.ModelSpec{}, fmt.Errorf("read spec: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.ModelSpec{}, fmt.Errorf("%w: empty document", models.ErrInvalidSpec)
	}

	var spec models.ModelSpec
	if isYAML(format) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return models.ModelSpec{}, fmt.Errorf("%w: decode yaml: %w", models.ErrInvalidSpec, err)
		}
		var extra yaml.Node
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return models.ModelSpec{}, fmt.Errorf("%w: decode yaml: trailing content after spec document", models.ErrInvalidSpec)
		}
		return spec, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return models.ModelSpec{}, fmt.Errorf("%w: decode json: %w", models.ErrInvalidSpec, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.ModelSpec{}, fmt.Errorf("%w: decode json: trailing content after spec object", models.ErrInvalidSpec)
	}
	return spec, nil
}

func isYAML(format string) bool {
	f := strings.ToLower(format)
	return strings.Contains(f, "yaml") || strings.Contains(f, "yml")
}
