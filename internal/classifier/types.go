package classifier

// Category is one of the closed set of diagnoses the classifier can assign.
type Category string

const (
	Healthy     Category = "Healthy"
	AloeRust    Category = "Aloe Rust"
	Anthracnose Category = "Anthracnose"
	LeafSpot    Category = "Leaf Spot"
	Sunburn     Category = "Sunburn"
)

// Severity grades a diagnosed disease. Healthy has no severity (empty).
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Metadata holds the static descriptive text attached to a category.
type Metadata struct {
	Description string
	Treatment   string
	Severity    Severity
}

// KeywordSet holds the keywords configured for one category. Strong keywords
// make a category eligible to win; weak keywords only add to the score.
type KeywordSet struct {
	Strong []string
	Weak   []string
}

// NormalizedName is the canonical form of an uploaded file's name.
type NormalizedName struct {
	Base       string   // final path segment, query/fragment stripped, percent-decoded
	Normalized string   // lowercased, separators collapsed to single spaces
	Compact    string   // Normalized with all whitespace removed
	Tokens     []string // Normalized split on whitespace
}

// ScoreRecord is the per-category outcome of matching one normalized name.
type ScoreRecord struct {
	StrongMatches []string
	WeakMatches   []string
	Score         float64
}

// Prediction is the classifier output for one filename.
type Prediction struct {
	Diagnosis   Category `json:"diagnosis"`
	Confidence  float64  `json:"confidence"`
	Severity    Severity `json:"severity,omitempty"`
	IsHealthy   bool     `json:"is_healthy"`
	Description string   `json:"description"`
	Treatment   string   `json:"treatment"`
}

// Debug exposes the intermediate per-category records for one classification,
// useful when tuning keyword sets.
type Debug struct {
	Filename   string
	Candidates map[Category]ScoreRecord
	Chosen     Category
	TopScore   float64
}

const (
	strongWeight = 1.0
	weakWeight   = 0.4
)
