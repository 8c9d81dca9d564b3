package constants

import "time"

var CacheTTL = struct {
	Biography       time.Duration
	CleanupInterval time.Duration
}{
	Biography:       6 * time.Hour,
	CleanupInterval: 30 * time.Minute,
}

var OutputConfig = struct {
	ImageWidth     int
	ImageHeight    int
	AspectRatio    string
	FileExtension  string
	PromptSuffix   string
	DirPermissions uint32
}{
	ImageWidth:     768,
	ImageHeight:    1024,
	AspectRatio:    "3:4",
	FileExtension:  ".png",
	PromptSuffix:   "_prompt.md",
	DirPermissions: 0755,
}

var DownloadConfig = struct {
	Timeout      time.Duration
	MinWidth     int
	MinHeight    int
	MaxPerQuery  int
	MaxQueries   int
	UserAgent    string
	FilePrefix   string
}{
	Timeout:     30 * time.Second,
	MinWidth:    256,
	MinHeight:   256,
	MaxPerQuery: 5,
	MaxQueries:  3,
	UserAgent:   "portrait-gen/1.0 (archive research)",
	FilePrefix:  "ref_",
}

var ReferenceScores = struct {
	Authenticity    float64
	Quality         float64
	Relevance       float64
	AuthenticityW   float64
	QualityW        float64
	RelevanceW      float64
	EraMatchBonus   float64
	MinCombined     float64
	MinAuthenticity float64
	MinQuality      float64
	MinAvgQuality   float64
	MinAuthentic    int
}{
	Authenticity:    0.85,
	Quality:         0.80,
	Relevance:       0.90,
	AuthenticityW:   0.40,
	QualityW:        0.30,
	RelevanceW:      0.30,
	EraMatchBonus:   1.1,
	MinCombined:     0.6,
	MinAuthenticity: 0.75,
	MinQuality:      0.6,
	MinAvgQuality:   0.7,
	MinAuthentic:    2,
}

var EvalThresholds = struct {
	MinTechnical          float64
	MinVisualQuality      float64
	MinHistoricalAccuracy float64
	DefaultHolisticScore  float64
	DefaultCoherenceScore float64
	DefaultAccuracyScore  float64
	CoherenceWeight       float64
}{
	MinTechnical:          0.95,
	MinVisualQuality:      0.85,
	MinHistoricalAccuracy: 0.80,
	DefaultHolisticScore:  0.80,
	DefaultCoherenceScore: 0.85,
	DefaultAccuracyScore:  0.85,
	CoherenceWeight:       0.10,
}

var PreflightConfig = struct {
	IssuePenalty       float64
	WarningPenalty     float64
	FactCheckPenalty   float64
	MinConfidence      float64
	MinNameLength      int
	MinPromptLength    int
	MinPlausibleBirth  int
	MaxPlausibleYear   int
	MaxLifespan        int
	MaxWarningsAdvised int
}{
	IssuePenalty:       0.25,
	WarningPenalty:     0.05,
	FactCheckPenalty:   0.15,
	MinConfidence:      0.5,
	MinNameLength:      3,
	MinPromptLength:    50,
	MinPlausibleBirth:  1000,
	MaxPlausibleYear:   2100,
	MaxLifespan:        150,
	MaxWarningsAdvised: 3,
}

var OverlayConfig = struct {
	BarHeightRatio float64
	BarOpacity     float64
	NameYRatio     float64
	YearsGapPx     int
	MinNameSize    int
	MinYearsSize   int
	NameSizeRatio  float64
	YearsSizeRatio float64
}{
	BarHeightRatio: 0.15,
	BarOpacity:     0.65,
	NameYRatio:     0.25,
	YearsGapPx:     5,
	MinNameSize:    12,
	MinYearsSize:   10,
	NameSizeRatio:  0.4,
	YearsSizeRatio: 0.7,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    1 * time.Hour,
	HealthCheckInterval: 10 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var RateLimitConfig = struct {
	RequestsPerMinute int
	Burst             int
}{
	RequestsPerMinute: 10,
	Burst:             2,
}

var OrchestratorConfig = struct {
	MaxStyleWorkers int
}{
	MaxStyleWorkers: 4,
}

var AIInputLimits = struct {
	MaxErrorExcerpt  int
	MaxOutputTokens  int
	ResearchTokens   int
	EvaluationTokens int
}{
	MaxErrorExcerpt:  100,
	MaxOutputTokens:  2048,
	ResearchTokens:   1024,
	EvaluationTokens: 1024,
}
