package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed fieldmap.yaml
var defaultFieldMap []byte

type fieldMapFile struct {
	Default   string                         `yaml:"default"`
	Revisions map[string]domain.FieldMapping `yaml:"revisions"`
}

// LoadFieldMapping reads the mapping for revision from path. An empty path
// uses the embedded mapping; an empty revision uses the file's default.
func LoadFieldMapping(path, revision string) (domain.FieldMapping, error) {
	data := defaultFieldMap
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return domain.FieldMapping{}, fmt.Errorf("read field map: %w", err)
		}
		data = b
	}
	return ParseFieldMapping(data, revision)
}

// ParseFieldMapping decodes a field-map document and selects one revision.
func ParseFieldMapping(data []byte, revision string) (domain.FieldMapping, error) {
	var f fieldMapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.FieldMapping{}, fmt.Errorf("parse field map: %w", err)
	}
	if revision == "" {
		revision = f.Default
	}
	m, ok := f.Revisions[revision]
	if !ok {
		return domain.FieldMapping{}, fmt.Errorf("field map revision %q not found", revision)
	}
	if len(m.Fields) == 0 {
		return domain.FieldMapping{}, fmt.Errorf("field map revision %q has no fields", revision)
	}
	m.Revision = revision
	return m, nil
}
