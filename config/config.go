package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/broombot/internal/duration"
)

// Tracker kinds
const (
	TrackerNone   = "none"
	TrackerAzure  = "azure"
	TrackerGitHub = "github"
)

// Defaults
const (
	DefaultStaleAfter     = "7d"
	DefaultWarningPrefix  = "broombot-stale"
	DefaultWarningCount   = 3
	DefaultWorkItemType   = "Task"
	DefaultWatchInterval  = "1h"
	DefaultRequestsPerSec = 5.0

	DefaultWarningMessage = "Hi @{reviewer}, this pull request has had no activity for a while and has been marked stale. " +
		"Comment or push to keep it open."
	DefaultAbandonMessage = "Hi @{reviewer}, this pull request stayed inactive through repeated stale warnings " +
		"and is being abandoned."
)

// Config represents the bot configuration
type Config struct {
	// Owner is the user or organization whose repositories are swept.
	Owner        string   `yaml:"owner,omitempty"`
	Repos        []string `yaml:"repos,omitempty"`
	ExcludeRepos []string `yaml:"exclude_repos,omitempty"`
	BotIDs       []string `yaml:"bot_ids,omitempty"`

	StaleAfter    string   `yaml:"stale_after,omitempty"`
	Keywords      []string `yaml:"keywords,omitempty"`
	Tracker       string   `yaml:"tracker,omitempty"`
	WatchInterval string   `yaml:"watch_interval,omitempty"`
	DryRun        bool     `yaml:"dry_run,omitempty"`

	Warning       *WarningConfig       `yaml:"warning,omitempty"`
	Azure         *AzureConfig         `yaml:"azure,omitempty"`
	GitHubTracker *GitHubTrackerConfig `yaml:"github_tracker,omitempty"`

	// Secrets are only ever read from the environment.
	Secrets Secrets `yaml:"-" json:"-"`
}

// WarningConfig controls warning labels and messages.
type WarningConfig struct {
	Prefix         string `yaml:"prefix,omitempty"`
	Count          *int   `yaml:"count,omitempty"`
	Message        string `yaml:"message,omitempty"`
	AbandonMessage string `yaml:"abandon_message,omitempty"`
}

// AzureConfig configures the Azure Boards work item tracker.
type AzureConfig struct {
	Organization      string   `yaml:"organization,omitempty"`
	Project           string   `yaml:"project,omitempty"`
	WorkItemType      string   `yaml:"work_item_type,omitempty"`
	RequestsPerSecond *float64 `yaml:"requests_per_second,omitempty"`
}

// GitHubTrackerConfig configures the GitHub issues work item tracker.
type GitHubTrackerConfig struct {
	// Repo is owner/name of the repository issues are filed in.
	Repo string `yaml:"repo,omitempty"`
}

// Secrets holds tokens read from the environment.
type Secrets struct {
	GitHubToken string `env:"GITHUB_TOKEN"`
	AzureToken  string `env:"AZURE_DEVOPS_TOKEN"`
}

// envOverrides are non-secret settings that may be set from the
// environment, which is how scheduled runners usually configure the bot.
type envOverrides struct {
	Owner      string   `env:"BROOMBOT_OWNER"`
	Repos      []string `env:"BROOMBOT_REPOS" envSeparator:","`
	BotIDs     []string `env:"BROOMBOT_BOT_IDS" envSeparator:","`
	StaleAfter string   `env:"BROOMBOT_STALE_AFTER"`
	Keywords   []string `env:"BROOMBOT_KEYWORDS" envSeparator:","`
	Tracker    string   `env:"BROOMBOT_TRACKER"`
	DryRun     bool     `env:"BROOMBOT_DRY_RUN"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".broombot"
	}
	return filepath.Join(configDir, "broombot")
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".broombot.yaml"
}

// Load loads the configuration. When path is empty the global config is
// loaded first and a local .broombot.yaml is merged on top; otherwise only
// path is read. Environment overrides and secrets are applied last.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := readInto(path, cfg); err != nil {
			return nil, err
		}
	} else {
		if err := readIfExists(ConfigPath(), cfg); err != nil {
			return nil, fmt.Errorf("failed to load global config file: %w", err)
		}

		var local Config
		if err := readIfExists(LocalConfigPath(), &local); err != nil {
			return nil, fmt.Errorf("failed to load local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &local)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readIfExists(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return readInto(path, cfg)
}

func readInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if err := env.Parse(&c.Secrets); err != nil {
		return fmt.Errorf("failed to read secrets from environment: %w", err)
	}

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if o.Owner != "" {
		c.Owner = o.Owner
	}
	if len(o.Repos) > 0 {
		c.Repos = o.Repos
	}
	if len(o.BotIDs) > 0 {
		c.BotIDs = o.BotIDs
	}
	if o.StaleAfter != "" {
		c.StaleAfter = o.StaleAfter
	}
	if len(o.Keywords) > 0 {
		c.Keywords = o.Keywords
	}
	if o.Tracker != "" {
		c.Tracker = o.Tracker
	}
	if o.DryRun {
		c.DryRun = true
	}
	return nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{
		Owner:         firstString(local.Owner, global.Owner),
		Repos:         firstSlice(local.Repos, global.Repos),
		ExcludeRepos:  firstSlice(local.ExcludeRepos, global.ExcludeRepos),
		BotIDs:        firstSlice(local.BotIDs, global.BotIDs),
		StaleAfter:    firstString(local.StaleAfter, global.StaleAfter),
		Keywords:      firstSlice(local.Keywords, global.Keywords),
		Tracker:       firstString(local.Tracker, global.Tracker),
		WatchInterval: firstString(local.WatchInterval, global.WatchInterval),
		DryRun:        local.DryRun || global.DryRun,
		Warning:       mergeWarning(global.Warning, local.Warning),
		Azure:         mergeAzure(global.Azure, local.Azure),
		GitHubTracker: global.GitHubTracker,
	}
	if local.GitHubTracker != nil && local.GitHubTracker.Repo != "" {
		result.GitHubTracker = local.GitHubTracker
	}
	return result
}

func mergeWarning(global, local *WarningConfig) *WarningConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &WarningConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		result.Prefix = firstString(local.Prefix, result.Prefix)
		result.Message = firstString(local.Message, result.Message)
		result.AbandonMessage = firstString(local.AbandonMessage, result.AbandonMessage)
		if local.Count != nil {
			result.Count = local.Count
		}
	}
	return result
}

func mergeAzure(global, local *AzureConfig) *AzureConfig {
	if global == nil && local == nil {
		return nil
	}
	result := &AzureConfig{}
	if global != nil {
		*result = *global
	}
	if local != nil {
		result.Organization = firstString(local.Organization, result.Organization)
		result.Project = firstString(local.Project, result.Project)
		result.WorkItemType = firstString(local.WorkItemType, result.WorkItemType)
		if local.RequestsPerSecond != nil {
			result.RequestsPerSecond = local.RequestsPerSecond
		}
	}
	return result
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstSlice(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

// GetStaleAfter returns the parsed staleness threshold.
func (c *Config) GetStaleAfter() (time.Duration, error) {
	return duration.Parse(firstString(c.StaleAfter, DefaultStaleAfter))
}

// GetWatchInterval returns the parsed interval between watch passes.
func (c *Config) GetWatchInterval() (time.Duration, error) {
	return duration.Parse(firstString(c.WatchInterval, DefaultWatchInterval))
}

// GetWarningPrefix returns the warning label prefix.
func (c *Config) GetWarningPrefix() string {
	if c.Warning != nil && c.Warning.Prefix != "" {
		return c.Warning.Prefix
	}
	return DefaultWarningPrefix
}

// GetWarningCount returns how many warnings precede abandonment.
func (c *Config) GetWarningCount() int {
	if c.Warning != nil && c.Warning.Count != nil {
		return *c.Warning.Count
	}
	return DefaultWarningCount
}

// GetWarningMessage returns the warning comment template.
func (c *Config) GetWarningMessage() string {
	if c.Warning != nil && c.Warning.Message != "" {
		return c.Warning.Message
	}
	return DefaultWarningMessage
}

// GetAbandonMessage returns the abandonment comment template.
func (c *Config) GetAbandonMessage() string {
	if c.Warning != nil && c.Warning.AbandonMessage != "" {
		return c.Warning.AbandonMessage
	}
	return DefaultAbandonMessage
}

// GetTracker returns the configured tracker kind.
func (c *Config) GetTracker() string {
	if c.Tracker == "" {
		return TrackerNone
	}
	return strings.ToLower(c.Tracker)
}

// GetWorkItemType returns the Azure Boards work item type.
func (c *Config) GetWorkItemType() string {
	if c.Azure != nil && c.Azure.WorkItemType != "" {
		return c.Azure.WorkItemType
	}
	return DefaultWorkItemType
}

// GetRequestsPerSecond returns the Azure Boards request rate.
func (c *Config) GetRequestsPerSecond() float64 {
	if c.Azure != nil && c.Azure.RequestsPerSecond != nil {
		return *c.Azure.RequestsPerSecond
	}
	return DefaultRequestsPerSec
}

// IsRepoExcluded checks if a repo is in the exclude list
func (c *Config) IsRepoExcluded(repoFullName string) bool {
	for _, excluded := range c.ExcludeRepos {
		if strings.EqualFold(excluded, repoFullName) {
			return true
		}
	}
	return false
}

// IsBot reports whether authorID is one of the configured bot identities.
func (c *Config) IsBot(authorID string) bool {
	for _, id := range c.BotIDs {
		if strings.EqualFold(id, authorID) {
			return true
		}
	}
	return false
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Owner == "" {
		errs = append(errs, errors.New("owner is required"))
	}
	for _, r := range c.Repos {
		if strings.Contains(r, "/") {
			errs = append(errs, fmt.Errorf("repos entries are names within owner, got %q", r))
		}
	}
	if _, err := c.GetStaleAfter(); err != nil {
		errs = append(errs, fmt.Errorf("stale_after: %w", err))
	}
	if _, err := c.GetWatchInterval(); err != nil {
		errs = append(errs, fmt.Errorf("watch_interval: %w", err))
	}
	if c.GetWarningCount() < 1 {
		errs = append(errs, fmt.Errorf("warning.count must be at least 1, got %d", c.GetWarningCount()))
	}

	switch c.GetTracker() {
	case TrackerNone:
	case TrackerAzure:
		if c.Azure == nil || c.Azure.Organization == "" || c.Azure.Project == "" {
			errs = append(errs, errors.New("azure.organization and azure.project are required for the azure tracker"))
		}
		if c.Secrets.AzureToken == "" {
			errs = append(errs, errors.New("AZURE_DEVOPS_TOKEN must be set for the azure tracker"))
		}
		if c.GetRequestsPerSecond() <= 0 {
			errs = append(errs, errors.New("azure.requests_per_second must be positive"))
		}
	case TrackerGitHub:
		if c.GitHubTracker == nil || strings.Count(c.GitHubTracker.Repo, "/") != 1 {
			errs = append(errs, errors.New("github_tracker.repo must be owner/name for the github tracker"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown tracker %q (use none, azure, github)", c.Tracker))
	}

	return errors.Join(errs...)
}

// DefaultConfig returns a fully populated config with all default values.
func DefaultConfig() *Config {
	count := DefaultWarningCount
	rps := DefaultRequestsPerSec
	return &Config{
		Owner:         "my-org",
		Repos:         []string{},
		ExcludeRepos:  []string{},
		BotIDs:        []string{"broombot[bot]"},
		StaleAfter:    DefaultStaleAfter,
		Keywords:      []string{},
		Tracker:       TrackerNone,
		WatchInterval: DefaultWatchInterval,
		Warning: &WarningConfig{
			Prefix:         DefaultWarningPrefix,
			Count:          &count,
			Message:        DefaultWarningMessage,
			AbandonMessage: DefaultAbandonMessage,
		},
		Azure: &AzureConfig{
			WorkItemType:      DefaultWorkItemType,
			RequestsPerSecond: &rps,
		},
		GitHubTracker: &GitHubTrackerConfig{},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# broombot configuration file
# See: broombot config defaults  (for all available options)

# User or organization whose repositories are swept
owner: my-org

# Restrict to some repositories (optional, default: all)
# repos:
#   - api
#   - web

# Logins the bot comments as
bot_ids:
  - broombot[bot]

# PRs without comment activity for this long are warned
stale_after: 7d

# warning:
#   prefix: broombot-stale
#   count: 3

# Turn matching comments into work items (optional)
# keywords: [BUG, TODO]
# tracker: azure
# azure:
#   organization: my-org
#   project: my-project

# Tokens come from GITHUB_TOKEN and AZURE_DEVOPS_TOKEN
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
