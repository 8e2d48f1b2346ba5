package classifier

// DefaultKeywordSets is the keyword configuration matched against uploaded
// file names. Healthy deliberately has no strong keywords: a healthy verdict
// is reached by fallback, never by outscoring a disease (weak-only scores can
// never make a category eligible).
var DefaultKeywordSets = map[Category]KeywordSet{
	AloeRust: {
		Strong: []string{"rust", "aloe rust", "uromyces"},
		Weak:   []string{"orange", "pustule", "spores"},
	},
	Anthracnose: {
		Strong: []string{"anthracnose", "colletotrichum"},
		Weak:   []string{"sunken", "lesion", "dark"},
	},
	LeafSpot: {
		Strong: []string{"leaf spot", "leafspot", "spot"},
		Weak:   []string{"brown", "ring", "blotch"},
	},
	Sunburn: {
		Strong: []string{"sunburn", "sun burn", "scorch", "burn"},
		Weak:   []string{"bleached", "crispy", "dry"},
	},
	Healthy: {
		Weak: []string{"healthy", "green", "fresh", "normal", "control"},
	},
}

// DefaultPriorityOrder breaks score ties: the earlier category wins. Every
// category appears exactly once.
var DefaultPriorityOrder = []Category{
	AloeRust,
	Anthracnose,
	LeafSpot,
	Sunburn,
	Healthy,
}

// metadataTable holds the immutable descriptive text per category.
// Healthy is the only category without a severity.
var metadataTable = map[Category]Metadata{
	Healthy: {
		Description: "The leaf shows no indicators of disease. Coloration and surface texture appear within the normal range for a healthy aloe plant.",
		Treatment:   "No treatment needed. Keep the current watering schedule, ensure bright indirect light, and re-check the plant every few weeks.",
	},
	AloeRust: {
		Description: "Aloe rust is a fungal infection that produces round orange-brown pustules on the leaf surface, often surrounded by a yellow halo.",
		Treatment:   "Remove affected leaves with sterilized shears, avoid overhead watering, improve air circulation, and apply a copper-based fungicide if spots keep spreading.",
		Severity:    SeverityModerate,
	},
	Anthracnose: {
		Description: "Anthracnose causes dark, sunken lesions that expand and merge, eventually killing large sections of leaf tissue.",
		Treatment:   "Cut out infected tissue well below the lesion edge, destroy the cuttings, keep foliage dry, and treat with a systemic fungicide labeled for anthracnose.",
		Severity:    SeverityHigh,
	},
	LeafSpot: {
		Description: "Leaf spot shows as brown or black circular spots, sometimes with concentric rings, scattered across the leaf blade.",
		Treatment:   "Prune spotted leaves, water at the base only, give the plant more spacing, and apply a broad-spectrum fungicide if new spots appear.",
		Severity:    SeverityModerate,
	},
	Sunburn: {
		Description: "Sunburn appears as bleached, dry patches that turn brown and papery, usually on the side of the plant facing the light source.",
		Treatment:   "Move the plant out of direct midday sun or add shade cloth. Damaged tissue will not recover but new growth will come in healthy.",
		Severity:    SeverityLow,
	},
}

// MetadataFor returns the static metadata for a category. An unknown category
// falls back to Healthy's metadata; the lookup never fails.
func MetadataFor(c Category) Metadata {
	if m, ok := metadataTable[c]; ok {
		return m
	}
	return metadataTable[Healthy]
}

// CategoryFromString maps a diagnosis string (e.g. from an external model)
// onto the closed category set.
func CategoryFromString(s string) (Category, bool) {
	c := Category(s)
	_, ok := metadataTable[c]
	return c, ok
}
