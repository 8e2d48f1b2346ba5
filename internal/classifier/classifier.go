// Package classifier assigns a plant-leaf disease category to an uploaded
// file based solely on the text of its name. The pipeline is a pure function
// of the input string and the package-level configuration tables, so it is
// safe to call concurrently and always produces a well-formed Prediction:
// degraded input (empty names, broken percent-encoding) degrades to the
// Healthy fallback instead of failing.
package classifier

// Classify runs the full pipeline (normalize, score, select, map confidence,
// attach metadata) for one raw filename.
func Classify(raw string) Prediction {
	pred, _ := ClassifyDebug(raw)
	return pred
}

// ClassifyDebug is Classify plus the intermediate per-category score records.
func ClassifyDebug(raw string) (Prediction, Debug) {
	name := Normalize(raw)
	records := Score(name, DefaultKeywordSets)
	chosen, topScore := Select(records, DefaultPriorityOrder)
	meta := MetadataFor(chosen)

	pred := Prediction{
		Diagnosis:   chosen,
		Confidence:  ToConfidence(topScore),
		Severity:    meta.Severity,
		IsHealthy:   chosen == Healthy,
		Description: meta.Description,
		Treatment:   meta.Treatment,
	}
	dbg := Debug{
		Filename:   name.Base,
		Candidates: records,
		Chosen:     chosen,
		TopScore:   topScore,
	}
	return pred, dbg
}
