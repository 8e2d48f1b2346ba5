package classifier

// Select picks the winning category from the score records and returns it
// together with the winning score. A non-Healthy category is eligible only if
// it has at least one strong match; weak matches alone never qualify it. With
// no eligible candidate the result is Healthy with score 0, regardless of any
// weak-only score Healthy itself accumulated. Score ties are resolved by the
// first tied category in order; if no tied category appears in order (a
// configuration inconsistency) the result is again Healthy.
func Select(records map[Category]ScoreRecord, order []Category) (Category, float64) {
	top := 0.0
	eligible := false
	for cat, rec := range records {
		if cat == Healthy || len(rec.StrongMatches) == 0 {
			continue
		}
		if !eligible || rec.Score > top {
			top = rec.Score
			eligible = true
		}
	}
	if !eligible {
		return Healthy, 0
	}

	tied := make(map[Category]struct{})
	for cat, rec := range records {
		if cat != Healthy && len(rec.StrongMatches) > 0 && rec.Score == top {
			tied[cat] = struct{}{}
		}
	}
	for _, cat := range order {
		if _, ok := tied[cat]; ok {
			return cat, top
		}
	}
	return Healthy, 0
}
