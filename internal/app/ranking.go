package app

import (
	"cmp"
	"slices"

	"event-trivia-service/internal/domain"
)

const podiumSize = 3

// calcResultsLocked builds the podium and the per-category winners. It is nil
// until results are shown.
func (g *Game) calcResultsLocked() *domain.ScreenResults {
	if g.state != domain.GameInResults {
		return nil
	}

	results := make([]domain.TableResult, 0, len(g.tables))
	for _, t := range g.tables {
		if r := t.publicResult(); r != nil {
			results = append(results, *r)
		}
	}

	winners := slices.Clone(results)
	slices.SortStableFunc(winners, func(a, b domain.TableResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(winners) > podiumSize {
		winners = winners[:podiumSize]
	}

	categoryWinners := make(map[string]*domain.TableResult)
	for _, category := range g.cursor.Categories() {
		if !domain.IsPublicCategory(category) {
			continue
		}
		var best *domain.TableResult
		for i := range results {
			r := &results[i]
			score, ok := r.Categories[category]
			if !ok {
				continue
			}
			if best == nil {
				best = r
				continue
			}
			bestScore := best.Categories[category]
			if score > bestScore || (score == bestScore && r.Score > best.Score) {
				best = r
			}
		}
		categoryWinners[category] = best
	}

	return &domain.ScreenResults{Winners: winners, CategoryWinners: categoryWinners}
}

// rankedTables lists the tables taking part in the ranking, in roster order.
func (g *Game) rankedTables() []*Table {
	if g.state != domain.GameInResults {
		return nil
	}
	var out []*Table
	for _, t := range g.tables {
		if t.state == domain.TableInResults {
			out = append(out, t)
		}
	}
	return out
}

func (g *Game) rankedTableCount() int {
	return len(g.rankedTables())
}

// tablePlace is t's 1-based position by total score among ranked tables.
func (g *Game) tablePlace(t *Table) *int {
	if g.state != domain.GameInResults || t.state != domain.TableInResults {
		return nil
	}
	return placeOf(g.rankedTables(), t, func(x *Table) (float64, float64) {
		return x.result.Score, 0
	})
}

// tablePlaceCategories ranks t within every public category by category score,
// then total score. Categories t never scored in map to nil.
func (g *Game) tablePlaceCategories(t *Table) map[string]*int {
	if g.state != domain.GameInResults || t.state != domain.TableInResults {
		return nil
	}
	ranked := g.rankedTables()
	out := make(map[string]*int)
	for _, category := range g.cursor.Categories() {
		if !domain.IsPublicCategory(category) {
			continue
		}
		if _, ok := t.result.Categories[category]; !ok {
			out[category] = nil
			continue
		}
		out[category] = placeOf(ranked, t, func(x *Table) (float64, float64) {
			return x.result.Categories[category], x.result.Score
		})
	}
	return out
}

func placeOf(tables []*Table, target *Table, key func(*Table) (float64, float64)) *int {
	sorted := slices.Clone(tables)
	slices.SortStableFunc(sorted, func(a, b *Table) int {
		a1, a2 := key(a)
		b1, b2 := key(b)
		if c := cmp.Compare(b1, a1); c != 0 {
			return c
		}
		return cmp.Compare(b2, a2)
	})
	i := slices.Index(sorted, target)
	if i < 0 {
		return nil
	}
	place := i + 1
	return &place
}
