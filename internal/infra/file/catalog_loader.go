package file

import (
	"context"
	"fmt"
	"os"

	"event-trivia-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// CatalogLoader reads the question catalog from a YAML or JSON file. The
// document is either a list of questions or a mapping with a questions key.
type CatalogLoader struct {
	path string
}

func NewCatalogLoader(path string) *CatalogLoader {
	return &CatalogLoader{path: path}
}

func (l *CatalogLoader) LoadCatalog(_ context.Context) ([]domain.Question, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

type catalogDocument struct {
	Questions []domain.Question `yaml:"questions"`
}

// ParseCatalog decodes, indexes and validates a catalog document.
// JSON is accepted too since it is a subset of YAML.
func ParseCatalog(raw []byte) ([]domain.Question, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(node.Content) == 0 {
		return []domain.Question{}, nil
	}

	var questions []domain.Question
	if node.Content[0].Kind == yaml.MappingNode {
		var doc catalogDocument
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		questions = doc.Questions
	} else if err := node.Decode(&questions); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	questions = domain.IndexQuestions(questions)
	if err := domain.ValidateCatalog(questions); err != nil {
		return nil, err
	}
	return questions, nil
}
