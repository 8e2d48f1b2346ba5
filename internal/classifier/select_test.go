package classifier

import "testing"

func TestSelectHealthyFallback(t *testing.T) {
	t.Parallel()

	// Weak-only scores never make a category eligible, including Healthy's own.
	records := map[Category]ScoreRecord{
		AloeRust: {WeakMatches: []string{"orange"}, Score: 0.4},
		Healthy:  {WeakMatches: []string{"healthy", "control"}, Score: 0.8},
	}
	cat, score := Select(records, DefaultPriorityOrder)
	if cat != Healthy {
		t.Errorf("got %q, want %q", cat, Healthy)
	}
	if score != 0 {
		t.Errorf("got score %f, want 0 on fallback", score)
	}
}

func TestSelectHighestScoreWins(t *testing.T) {
	t.Parallel()

	records := map[Category]ScoreRecord{
		AloeRust: {StrongMatches: []string{"rust"}, Score: 1.0},
		LeafSpot: {StrongMatches: []string{"leaf spot", "spot"}, Score: 2.0},
	}
	cat, score := Select(records, DefaultPriorityOrder)
	if cat != LeafSpot {
		t.Errorf("got %q, want %q", cat, LeafSpot)
	}
	if score != 2.0 {
		t.Errorf("got score %f, want 2.0", score)
	}
}

func TestSelectTieBreakPriority(t *testing.T) {
	t.Parallel()

	records := map[Category]ScoreRecord{
		AloeRust:    {StrongMatches: []string{"rust"}, Score: 1.0},
		Anthracnose: {StrongMatches: []string{"anthracnose"}, Score: 1.0},
	}

	cat, _ := Select(records, DefaultPriorityOrder)
	if cat != AloeRust {
		t.Errorf("got %q, want %q (earlier in priority order)", cat, AloeRust)
	}

	// Reversing the order flips the winner.
	reversed := []Category{Healthy, Sunburn, LeafSpot, Anthracnose, AloeRust}
	cat, _ = Select(records, reversed)
	if cat != Anthracnose {
		t.Errorf("got %q, want %q with reversed order", cat, Anthracnose)
	}
}

func TestSelectMissingFromOrderFallsBackToHealthy(t *testing.T) {
	t.Parallel()

	// Configuration inconsistency: the tied category is absent from the order.
	records := map[Category]ScoreRecord{
		Sunburn: {StrongMatches: []string{"sunburn"}, Score: 1.0},
	}
	cat, score := Select(records, []Category{AloeRust, LeafSpot, Healthy})
	if cat != Healthy || score != 0 {
		t.Errorf("got (%q, %f), want (%q, 0)", cat, score, Healthy)
	}
}

func TestSelectEmptyRecords(t *testing.T) {
	t.Parallel()

	cat, score := Select(map[Category]ScoreRecord{}, DefaultPriorityOrder)
	if cat != Healthy || score != 0 {
		t.Errorf("got (%q, %f), want (%q, 0)", cat, score, Healthy)
	}
}
