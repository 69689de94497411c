package contract

import (
	"fmt"
	"maps"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/repopulse/repopulse/schema"
)

// Default values for configuration.
const (
	DefaultLookbackDays = 30
	DefaultResultLimit  = 25
	MaxResultLimit      = 1000
	DefaultPrecision    = 1
)

// CacheGranularity defines the time granularity for caching analysis results.
// This ensures consistent cache key generation and time window alignment across
// the application and tests.
const CacheGranularity = time.Hour

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// WeightsRawInput holds custom confidence weights from the YAML config file.
// Use float64 pointers so absent fields fall through to defaults.
type WeightsRawInput struct {
	StarFork   *float64 `mapstructure:"starfork"`
	Engagement *float64 `mapstructure:"engagement"`
	Retention  *float64 `mapstructure:"retention"`
	Quality    *float64 `mapstructure:"quality"`
}

// BandsRawInput holds confidence band thresholds from the YAML config file.
type BandsRawInput struct {
	Low      *float64 `mapstructure:"low"`
	Moderate *float64 `mapstructure:"moderate"`
	Good     *float64 `mapstructure:"good"`
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Repos       []schema.RepoRef
	StartTime   time.Time
	EndTime     time.Time
	Lookback    time.Duration
	ResultLimit int
	Workers     int
	Mode        schema.AnalysisMode
	Excludes    []string // repo patterns skipped during multi-repo sync
	Detail      bool
	Explain     bool
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)

	GitHubToken  string // Please use env var as this is plaintext
	GitHubAPIURL string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	// In-memory cache and sync coordination tuning.
	MaxEntries    int
	TTL           time.Duration
	DebounceDelay time.Duration
	AutoSync      bool
	MaxStale      time.Duration

	// CustomWeights holds only the user-provided confidence weight overrides.
	CustomWeights map[schema.FactorKey]float64

	// ComputedWeights is the final weights map, computed from defaults + custom overrides.
	ComputedWeights map[schema.FactorKey]float64

	// Bands holds the final confidence band thresholds.
	Bands schema.ConfidenceBands

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Repo           string `mapstructure:"repo"`
	OutputFile     string `mapstructure:"output-file"`
	Limit          int    `mapstructure:"limit"`
	Start          string `mapstructure:"start"`
	End            string `mapstructure:"end"`
	Lookback       string `mapstructure:"lookback"`
	Workers        int    `mapstructure:"workers"`
	Mode           string `mapstructure:"mode"`
	Exclude        string `mapstructure:"exclude"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	Detail         bool   `mapstructure:"detail"`
	Width          int    `mapstructure:"width"`
	GitHubToken    string `mapstructure:"github-token"`
	GitHubAPIURL   string `mapstructure:"github-api-url"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`
	MaxEntries     int    `mapstructure:"max-entries"`
	TTL            string `mapstructure:"ttl"`
	DebounceDelay  string `mapstructure:"debounce-delay"`
	AutoSync       string `mapstructure:"auto-sync"`
	MaxStale       string `mapstructure:"max-stale"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`

	// --- Fields from confidenceCmd.Flags() ---
	Explain    bool   `mapstructure:"explain"`
	WeightsStr string `mapstructure:"weights-override"`
	BandsStr   string `mapstructure:"bands-override"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`

	// --- Confidence bands from config file ---
	Bands BandsRawInput `mapstructure:"bands"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Repos != nil {
		clone.Repos = make([]schema.RepoRef, len(c.Repos))
		copy(clone.Repos, c.Repos)
	}
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	if c.CustomWeights != nil {
		clone.CustomWeights = make(map[schema.FactorKey]float64)
		maps.Copy(clone.CustomWeights, c.CustomWeights)
	}
	if c.ComputedWeights != nil {
		clone.ComputedWeights = make(map[schema.FactorKey]float64)
		maps.Copy(clone.ComputedWeights, c.ComputedWeights)
	}
	return &clone
}

// CloneWithTimeWindow creates a copy of the Config and sets the new StartTime and EndTime.
func (c *Config) CloneWithTimeWindow(start time.Time, end time.Time) *Config {
	clone := c.Clone()
	clone.StartTime = start
	clone.EndTime = end
	return clone
}

// PrimaryRepo returns the first configured repository.
// Callers must ensure at least one repo was resolved.
func (c *Config) PrimaryRepo() schema.RepoRef {
	if len(c.Repos) == 0 {
		return schema.RepoRef{}
	}
	return c.Repos[0]
}

// GetAnalysisStartTime returns the configured start time, truncated to the caching granularity.
// This ensures consistent time window alignment across the application and tests.
func (c *Config) GetAnalysisStartTime() time.Time {
	return c.StartTime.Truncate(CacheGranularity)
}

// GetAnalysisEndTime returns the configured end time, truncated to the caching granularity.
// This ensures consistent time window alignment across the application and tests.
func (c *Config) GetAnalysisEndTime() time.Time {
	return c.EndTime.Truncate(CacheGranularity)
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input); err != nil {
		return err
	}
	if err := processCacheTuning(cfg, input); err != nil {
		return err
	}
	if err := processCustomWeights(cfg, input); err != nil {
		return err
	}
	if err := processConfidenceBands(cfg, input); err != nil {
		return err
	}
	if err := resolveRepos(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates event cache and sync-run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Event Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Sync-Run Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend != "" {
		if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
			return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
		}
		cfg.RunsDBConnect = input.RunsDBConnect
		if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
			return err
		}

		// Validate that the event cache and run tracking use different databases
		if cfg.CacheBackend == cfg.RunsBackend && cfg.CacheBackend == schema.SQLiteBackend {
			cacheDBPath := cfg.CacheDBConnect
			if cacheDBPath == "" {
				cacheDBPath = GetCacheDBFilePath()
			}
			runsDBPath := cfg.RunsDBConnect
			if runsDBPath == "" {
				runsDBPath = GetRunsDBFilePath()
			}
			if cacheDBPath == runsDBPath {
				return fmt.Errorf("event cache and run tracking must use different SQLite database files. Both resolve to %q", cacheDBPath)
			}
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all non-repo related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Explain = input.Explain
	cfg.Width = input.Width
	cfg.GitHubToken = input.GitHubToken
	cfg.GitHubAPIURL = strings.TrimRight(strings.TrimSpace(input.GitHubAPIURL), "/")

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Mode Validation ---
	cfg.Mode = schema.AnalysisMode(strings.ToLower(input.Mode))
	if _, ok := schema.ValidAnalysisModes[cfg.Mode]; !ok {
		return fmt.Errorf("invalid mode '%s'. must be confidence, insights, health", input.Mode)
	}

	// --- 4. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}

	// --- 5. Backend Validation ---
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}

	// --- 6. Excludes Processing ---
	// Repo patterns skipped during multi-repo sync (forks of archived
	// mirrors, bot-owned repos and so on). No defaults; purely user-driven.
	cfg.Excludes = nil
	if input.Exclude != "" {
		for p := range strings.SplitSeq(input.Exclude, ",") {
			trimmedP := strings.TrimSpace(p)
			if trimmedP != "" {
				cfg.Excludes = append(cfg.Excludes, trimmedP)
			}
		}
	}

	return nil
}

// processTimeRange handles the date parsing and time range validation.
func processTimeRange(cfg *Config, input *ConfigRawInput) error {
	now := time.Now()
	cfg.EndTime = now
	cfg.Lookback = DefaultLookbackDays * 24 * time.Hour

	if input.Lookback != "" {
		lookback, err := ParseLookbackDuration(input.Lookback)
		if err != nil {
			return fmt.Errorf("invalid --lookback: %w", err)
		}
		cfg.Lookback = lookback
	}
	cfg.StartTime = cfg.EndTime.Add(-cfg.Lookback)

	parseAbsolute := func(s string) (time.Time, error) {
		return time.Parse(DateTimeFormat, s)
	}

	// --- Process Start Time ---
	if input.Start != "" {
		t, err := parseAbsolute(input.Start)
		if err == nil {
			cfg.StartTime = t
		} else {
			t, relErr := ParseRelativeTime(input.Start, now)
			if relErr != nil {
				return fmt.Errorf("invalid start date format for '%s'. Expected absolute ISO8601 or 'N [units] ago': %v", input.Start, err)
			}
			cfg.StartTime = t
		}
	}

	// --- Process End Time ---
	if input.End != "" {
		t, err := parseAbsolute(input.End)
		if err == nil {
			cfg.EndTime = t
		} else {
			t, relErr := ParseRelativeTime(input.End, now)
			if relErr != nil {
				return fmt.Errorf("invalid end date format for '%s'. Expected absolute ISO8601 or 'N [units] ago': %v", input.End, err)
			}
			cfg.EndTime = t
		}
	}

	// --- Final Validation ---
	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}

	return nil
}

// RevalidateWindow re-resolves the analysis window for a lookback override
// arriving after initial validation, such as a tool call on a long-lived
// MCP server. An empty lookback keeps the configured duration and only
// re-anchors the window at the current time.
func RevalidateWindow(cfg *Config, lookback string) error {
	if lookback != "" {
		d, err := ParseLookbackDuration(lookback)
		if err != nil {
			return fmt.Errorf("invalid lookback: %w", err)
		}
		cfg.Lookback = d
	}
	cfg.EndTime = time.Now()
	cfg.StartTime = cfg.EndTime.Add(-cfg.Lookback)
	return nil
}

// processCacheTuning parses the in-memory cache and sync coordination knobs.
func processCacheTuning(cfg *Config, input *ConfigRawInput) error {
	// --- Max Entries ---
	if input.MaxEntries < 1 {
		return fmt.Errorf("max-entries must be at least 1 (received %d)", input.MaxEntries)
	}
	cfg.MaxEntries = input.MaxEntries

	// --- TTL ---
	ttl, err := ParseLookbackDuration(input.TTL)
	if err != nil {
		return fmt.Errorf("invalid --ttl: %w", err)
	}
	cfg.TTL = ttl

	// --- Debounce Delay ---
	// Zero is allowed and means immediate dispatch.
	if strings.TrimSpace(input.DebounceDelay) == "0" || strings.TrimSpace(input.DebounceDelay) == "0s" {
		cfg.DebounceDelay = 0
	} else {
		delay, err := ParseLookbackDuration(input.DebounceDelay)
		if err != nil {
			return fmt.Errorf("invalid --debounce-delay: %w", err)
		}
		cfg.DebounceDelay = delay
	}

	// --- Auto Sync ---
	autoSync, err := ParseBoolString(input.AutoSync)
	if err != nil {
		return fmt.Errorf("invalid --auto-sync value: %w", err)
	}
	cfg.AutoSync = autoSync

	// --- Max Stale ---
	maxStale, err := ParseLookbackDuration(input.MaxStale)
	if err != nil {
		return fmt.Errorf("invalid --max-stale: %w", err)
	}
	cfg.MaxStale = maxStale

	return nil
}

// ProcessWeightsRawInput converts WeightsRawInput into a weights override map.
func ProcessWeightsRawInput(weights WeightsRawInput) map[schema.FactorKey]float64 {
	result := make(map[schema.FactorKey]float64)

	if weights.StarFork != nil {
		result[schema.FactorStarFork] = *weights.StarFork
	}
	if weights.Engagement != nil {
		result[schema.FactorEngagement] = *weights.Engagement
	}
	if weights.Retention != nil {
		result[schema.FactorRetention] = *weights.Retention
	}
	if weights.Quality != nil {
		result[schema.FactorQuality] = *weights.Quality
	}

	return result
}

// processCustomWeights converts the raw input into the final cfg.CustomWeights map
// and computes the final ComputedWeights. After merging defaults with overrides,
// the weights must sum to 1.0 so the weighted score stays on the 0-100 scale.
func processCustomWeights(cfg *Config, input *ConfigRawInput) error {
	custom := ProcessWeightsRawInput(input.Weights)

	// Command-line --weights-override takes precedence over config file settings.
	if input.WeightsStr != "" {
		parsed, err := parseWeightsString(input.WeightsStr)
		if err != nil {
			return fmt.Errorf("invalid --weights-override format: %w", err)
		}
		maps.Copy(custom, parsed)
	}
	cfg.CustomWeights = custom

	// Start with default weights, then apply overrides.
	computed := schema.GetDefaultWeights()
	maps.Copy(computed, custom)

	sum := 0.0
	for key, weight := range computed {
		if weight < 0 {
			return fmt.Errorf("confidence weight for %s must be non-negative (received %.3f)", key, weight)
		}
		sum += weight
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("confidence weights must sum to 1.0, got %.3f", sum)
	}

	cfg.ComputedWeights = computed
	return nil
}

// processConfidenceBands converts the raw band input into the final cfg.Bands.
// Thresholds must be strictly increasing and stay within the 0-100 score scale.
// Command-line --bands-override flag takes precedence over config file settings.
func processConfidenceBands(cfg *Config, input *ConfigRawInput) error {
	bands := schema.GetDefaultBands()

	// Override with config file values if provided
	if input.Bands.Low != nil {
		bands.Low = *input.Bands.Low
	}
	if input.Bands.Moderate != nil {
		bands.Moderate = *input.Bands.Moderate
	}
	if input.Bands.Good != nil {
		bands.Good = *input.Bands.Good
	}

	// Override with command-line flag if provided (takes precedence)
	if input.BandsStr != "" {
		parsed, err := parseBandsString(input.BandsStr)
		if err != nil {
			return fmt.Errorf("invalid --bands-override format: %w", err)
		}
		if v, ok := parsed["low"]; ok {
			bands.Low = v
		}
		if v, ok := parsed["moderate"]; ok {
			bands.Moderate = v
		}
		if v, ok := parsed["good"]; ok {
			bands.Good = v
		}
	}

	// Validate bands
	if bands.Low < 0 || bands.Good > 100 {
		return fmt.Errorf("confidence bands must be between 0.0 and 100.0 (received low=%.1f good=%.1f)", bands.Low, bands.Good)
	}
	if !(bands.Low < bands.Moderate && bands.Moderate < bands.Good) {
		return fmt.Errorf("confidence bands must be strictly increasing, got low=%.1f moderate=%.1f good=%.1f", bands.Low, bands.Moderate, bands.Good)
	}

	cfg.Bands = bands
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveRepos collects repository references from positional args and the
// --repo flag (comma-separated), deduplicating while preserving order.
func resolveRepos(cfg *Config, input *ConfigRawInput) error {
	var raw []string
	raw = append(raw, input.RepoArgs...)
	if input.Repo != "" {
		for r := range strings.SplitSeq(input.Repo, ",") {
			if trimmed := strings.TrimSpace(r); trimmed != "" {
				raw = append(raw, trimmed)
			}
		}
	}

	seen := make(map[string]struct{})
	cfg.Repos = nil
	for _, r := range raw {
		ref, err := schema.ParseRepoRef(r)
		if err != nil {
			return err
		}
		if _, dup := seen[ref.String()]; dup {
			continue
		}
		seen[ref.String()] = struct{}{}
		cfg.Repos = append(cfg.Repos, ref)
	}

	if len(cfg.Repos) == 0 {
		return fmt.Errorf("at least one repository is required. Check that you passed owner/name as an argument or via --repo")
	}

	return nil
}

// parseWeightsString parses a string like "starfork:0.35,engagement:0.25"
// into a map of FactorKey to float64.
func parseWeightsString(s string) (map[schema.FactorKey]float64, error) {
	weights := make(map[schema.FactorKey]float64)

	if s == "" {
		return weights, nil
	}

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid weight format '%s', expected 'factor:value'", part)
		}

		factorStr := strings.TrimSpace(keyValue[0])
		valueStr := strings.TrimSpace(keyValue[1])

		var factor schema.FactorKey
		switch strings.ToLower(factorStr) {
		case "starfork":
			factor = schema.FactorStarFork
		case "engagement":
			factor = schema.FactorEngagement
		case "retention":
			factor = schema.FactorRetention
		case "quality":
			factor = schema.FactorQuality
		default:
			return nil, fmt.Errorf("invalid factor '%s', must be starfork, engagement, retention, or quality", factorStr)
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight value '%s' for factor %s: %w", valueStr, factor, err)
		}

		weights[factor] = value
	}

	return weights, nil
}

// parseBandsString parses a string like "low:5,moderate:15,good:35"
// into a map of band name to float64.
func parseBandsString(s string) (map[string]float64, error) {
	bands := make(map[string]float64)

	if s == "" {
		return bands, nil
	}

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid band format '%s', expected 'band:value'", part)
		}

		name := strings.ToLower(strings.TrimSpace(keyValue[0]))
		switch name {
		case "low", "moderate", "good":
		default:
			return nil, fmt.Errorf("invalid band '%s', must be low, moderate, or good", name)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(keyValue[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid band value '%s' for band %s: %w", keyValue[1], name, err)
		}

		bands[name] = value
	}

	return bands, nil
}
