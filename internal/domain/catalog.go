package domain

import "fmt"

// IndexQuestions assigns each question its catalog position as ID.
func IndexQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.ID = i
		if q.Categories == nil {
			q.Categories = []string{}
		}
		if q.Images == nil {
			q.Images = []string{}
		}
		if q.AnswerImages == nil {
			q.AnswerImages = []string{}
		}
		out[i] = q
	}
	return out
}

// ValidateCatalog checks that every question can be asked and scored.
func ValidateCatalog(questions []Question) error {
	for i, q := range questions {
		switch q.Type {
		case SingleChoice, MultipleChoice:
		default:
			return fmt.Errorf("%w: question %d: unknown question type %q", ErrValidation, i, q.Type)
		}
		if len(q.Answers) == 0 {
			return fmt.Errorf("%w: question %d: no answer options", ErrValidation, i)
		}
		if len(q.CorrectAnswers) == 0 {
			return fmt.Errorf("%w: question %d: no correct answers", ErrValidation, i)
		}
		if q.Type == SingleChoice && len(q.CorrectAnswers) != 1 {
			return fmt.Errorf("%w: question %d: single choice needs exactly one correct answer", ErrValidation, i)
		}
		for _, idx := range q.CorrectAnswers {
			if idx < 0 || idx >= len(q.Answers) {
				return fmt.Errorf("%w: question %d: correct answer %d out of range", ErrValidation, i, idx)
			}
		}
		if q.Timer <= 0 {
			return fmt.Errorf("%w: question %d: timer must be positive", ErrValidation, i)
		}
	}
	return nil
}

// CatalogCategories lists categories in order of first appearance.
func CatalogCategories(questions []Question) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range questions {
		for _, c := range q.Categories {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
