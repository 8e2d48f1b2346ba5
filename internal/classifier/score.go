package classifier

import "strings"

// Score matches every configured keyword set against a normalized name and
// returns one ScoreRecord per category. A keyword counts as matched when its
// cleaned form equals a single token, or when its compact form appears as a
// substring of the compact name. The rule is deliberately permissive so that
// "rust_leaf.jpg" (token) and "leafrust.jpg" (substring) both hit "rust".
func Score(name NormalizedName, sets map[Category]KeywordSet) map[Category]ScoreRecord {
	tokens := make(map[string]struct{}, len(name.Tokens))
	for _, t := range name.Tokens {
		tokens[t] = struct{}{}
	}

	records := make(map[Category]ScoreRecord, len(sets))
	for cat, set := range sets {
		var rec ScoreRecord
		seen := make(map[string]struct{})
		for _, k := range set.Strong {
			if matchKeyword(k, tokens, name.Compact, seen) {
				rec.StrongMatches = append(rec.StrongMatches, k)
				rec.Score += strongWeight
			}
		}
		for _, k := range set.Weak {
			if matchKeyword(k, tokens, name.Compact, seen) {
				rec.WeakMatches = append(rec.WeakMatches, k)
				rec.Score += weakWeight
			}
		}
		records[cat] = rec
	}
	return records
}

// matchKeyword reports whether keyword k matches the tokenized/compact name.
// seen dedupes by keyword string so a duplicate config entry cannot score or
// be recorded twice.
func matchKeyword(k string, tokens map[string]struct{}, compact string, seen map[string]struct{}) bool {
	kc := compactKeyword(k)
	if kc == "" {
		return false
	}
	if _, dup := seen[k]; dup {
		return false
	}

	kn, _ := cleanText(k)
	_, tokenHit := tokens[kn]
	if !tokenHit && !strings.Contains(compact, kc) {
		return false
	}
	seen[k] = struct{}{}
	return true
}
