package gradectl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
	"gopkg.in/yaml.v3"
)

// sessionFile accepts either a single session or a "sessions" list.
type sessionFile struct {
	climb.Session `yaml:",inline"`
	Sessions      []climb.Session `json:"sessions" yaml:"sessions"`
}

// customSystemFile accepts either a single system or a "systems" list.
type customSystemFile struct {
	storage.CustomGradeSystem `yaml:",inline"`
	Systems                   []storage.CustomGradeSystem `json:"systems" yaml:"systems"`
}

func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, target)
	default:
		err = yaml.Unmarshal(data, target)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func readSessions(path string) ([]climb.Session, error) {
	var file sessionFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}
	if len(file.Sessions) > 0 {
		return file.Sessions, nil
	}
	if len(file.Session.Attempts) == 0 {
		return nil, fmt.Errorf("%s has no attempts", path)
	}
	return []climb.Session{file.Session}, nil
}

func readCustomSystems(path string) ([]storage.CustomGradeSystem, error) {
	var file customSystemFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}
	if len(file.Systems) > 0 {
		return file.Systems, nil
	}
	if strings.TrimSpace(file.CustomGradeSystem.Name) == "" && len(file.CustomGradeSystem.Grades) == 0 {
		return nil, fmt.Errorf("%s has no grade systems", path)
	}
	return []storage.CustomGradeSystem{file.CustomGradeSystem}, nil
}
