package config

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes a single calendar input.
type SourceConfig struct {
	// ID is an internal identifier used in event keys and logging.
	ID string `yaml:"id" json:"id"`
	// URL is an ICS subscription endpoint.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// File is a local ICS file. Relative paths are resolved against the
	// directory of the config file.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// VacancyConfig is a weekly availability window.
type VacancyConfig struct {
	// Day is the ISO weekday, 1 = Monday .. 7 = Sunday.
	Day  int    `yaml:"day" json:"day"`
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
	// Priority ranks vacancies, lower first. Unset means last.
	Priority *int `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// TaskConfig is one piece of work attached to an assignment.
type TaskConfig struct {
	// Name may contain label placeholders such as {page.index}.
	Name string `yaml:"name" json:"name"`
	// Type is "before" or "after".
	Type  string `yaml:"type" json:"type"`
	Hours int    `yaml:"hours" json:"hours"`
}

// AssignmentConfig matches events by title.
type AssignmentConfig struct {
	Pattern     string       `yaml:"pattern" json:"pattern"`
	TravelHours int          `yaml:"travel_hours,omitempty" json:"travel_hours,omitempty"`
	Tasks       []TaskConfig `yaml:"tasks" json:"tasks"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Name is written as calendar name into the output.
	Name string `yaml:"name" json:"name"`

	// Timezone is the IANA timezone vacancies are interpreted in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Output is the path of the generated ICS file.
	Output string `yaml:"output" json:"output"`

	// HorizonDays / BackfillDays bound the events read from the sources,
	// relative to the time of the run.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// MissingMarker prefixes the label of deficit entries.
	MissingMarker string `yaml:"missing_marker" json:"missing_marker"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Listen is the HTTP listen address of the serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is the cron schedule (e.g. "0 */6 * * *") on which the
	// serve mode recomputes the plan.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir holds the HTTP cache of remote sources.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Metrics exposes /metrics in serve mode.
	Metrics bool `yaml:"metrics" json:"metrics"`

	// BasicAuth, if non-nil, protects every serve endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Sources     []SourceConfig     `yaml:"sources" json:"sources"`
	Vacancies   []VacancyConfig    `yaml:"vacancies" json:"vacancies"`
	Assignments []AssignmentConfig `yaml:"assignments" json:"assignments"`

	// dir is the directory of the loaded file.
	dir string
}

const (
	defaultName          = "Workload"
	defaultOutput        = "out.ics"
	defaultHorizonDays   = 120
	defaultBackfillDays  = 14
	defaultMissingMarker = "[missing] "
	defaultLogLevel      = "info"
	defaultListen        = "127.0.0.1:8080"
	defaultRefreshCron   = "0 */6 * * *"
	defaultCacheDir      = "./var/ics-cache"
)

// DefaultConfig returns the configuration written on first run. It carries
// one example of every section so it can be edited in place.
func DefaultConfig() *Config {
	prio := 1
	return &Config{
		Name:          defaultName,
		Timezone:      "Local",
		Output:        defaultOutput,
		HorizonDays:   defaultHorizonDays,
		BackfillDays:  defaultBackfillDays,
		MissingMarker: defaultMissingMarker,
		LogLevel:      defaultLogLevel,
		Listen:        defaultListen,
		RefreshCron:   defaultRefreshCron,
		CacheDir:      defaultCacheDir,
		Sources: []SourceConfig{
			{ID: "calendar", File: "calendar.ics"},
		},
		Vacancies: []VacancyConfig{
			{Day: 1, From: "08:00", To: "12:00", Priority: &prio},
			{Day: 3, From: "13:00", To: "17:00"},
		},
		Assignments: []AssignmentConfig{
			{
				Pattern:     "Course A.*",
				TravelHours: 1,
				Tasks: []TaskConfig{
					{Name: "Prepare {event.name} ({page.index}/{page.total})", Type: "before", Hours: 3},
					{Name: "Review {event.name}", Type: "after", Hours: 1},
				},
			},
		},
	}
}

// Normalize fills in missing/zero values with defaults.
func (c *Config) Normalize() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Output == "" {
		c.Output = defaultOutput
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.MissingMarker == "" {
		c.MissingMarker = defaultMissingMarker
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	for i := range c.Sources {
		if c.Sources[i].ID == "" {
			c.Sources[i].ID = sourceID(i, c.Sources[i])
		}
	}
}

func sourceID(i int, s SourceConfig) string {
	if s.File != "" {
		return filepath.Base(s.File)
	}
	if s.URL != "" {
		return fmt.Sprintf("source-%d", i+1)
	}
	return "source"
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there with 0600
// permissions and ErrCreated is returned together with it: the example
// sources will not exist yet, so the caller should stop and let the user
// edit the file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.dir = filepath.Dir(path)
			return cfg, ErrCreated
		}
		return nil, errors.Wrap(err, "read config")
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ErrCreated is returned by Load when it wrote a fresh default config.
var ErrCreated = errors.New("config: default config created")

// Parse decodes YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the given configuration to path atomically (temp file +
// rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".workplanner-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ResolvePath resolves p relative to the directory of the config file.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
