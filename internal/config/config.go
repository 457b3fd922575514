package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bashhack/hookbak/internal/constants"
	"github.com/bashhack/hookbak/internal/errors"
)

const (
	// DefaultLockTimeout bounds how long a queue mutation waits for its lock
	DefaultLockTimeout = 2 * time.Second

	// DefaultFlushInterval between flushes in watch mode
	DefaultFlushInterval = 5 * time.Minute

	// DefaultMaxRetries is how many consecutive watch-mode flush failures are tolerated
	DefaultMaxRetries = 3
)

// Configuration keys shared by the config file, HOOKBAK_* variables and flags.
const (
	KeyProjectDir    = "project_dir"
	KeyConfigFile    = "config_file"
	KeyQueueFile     = "queue_file"
	KeyLogFile       = "log_file"
	KeyDebug         = "debug"
	KeyVerbose       = "verbose"
	KeyLockTimeout   = "lock_timeout"
	KeyFlushInterval = "flush_interval"
	KeyMaxRetries    = "max_retries"
)

// flagNames maps configuration keys to their command-line flags.
var flagNames = map[string]string{
	KeyProjectDir:    "project-dir",
	KeyConfigFile:    "config",
	KeyQueueFile:     "queue-file",
	KeyLogFile:       "log-file",
	KeyDebug:         "debug",
	KeyVerbose:       "verbose",
	KeyLockTimeout:   "lock-timeout",
	KeyFlushInterval: "flush-interval",
	KeyMaxRetries:    "max-retries",
}

// Config holds all hookbak settings
type Config struct {
	// Project layout
	ProjectDir string
	ConfigFile string
	QueueFile  string

	// Diagnostics
	LogFile string
	Debug   bool
	Verbose bool

	// Locking and watch mode
	LockTimeout   time.Duration
	FlushInterval time.Duration
	MaxRetries    int

	// Build metadata
	VersionInfo VersionInfo
}

// VersionInfo contains build-time version metadata
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		LockTimeout:   DefaultLockTimeout,
		FlushInterval: DefaultFlushInterval,
		MaxRetries:    DefaultMaxRetries,

		// Default version info, will be overridden if provided
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// Load builds a Config from, lowest to highest precedence: defaults, the
// project's config.yaml, HOOKBAK_* environment variables and any flags in
// flags that were set explicitly. The project directory itself is resolved
// first, since the config file lives inside it. The result is finalized.
func Load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	c := New()
	setDefaults(v, c)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()
	// HOOKBAK_PROJECT_DIR wins over the host's own variable.
	_ = v.BindEnv(KeyProjectDir, constants.EnvPrefix+"_PROJECT_DIR", constants.EnvHostProjectDir)

	if flags != nil {
		for key, name := range flagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.NewConfigError(key, name, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
				}
			}
		}
	}

	project, err := resolveProjectDir(v.GetString(KeyProjectDir))
	if err != nil {
		return nil, err
	}

	configFile := v.GetString(KeyConfigFile)
	explicit := configFile != ""
	if !explicit {
		configFile = filepath.Join(project, constants.ControlDir, constants.ConfigFileName)
	} else if !filepath.IsAbs(configFile) {
		configFile = filepath.Join(project, configFile)
	}

	if err := readConfigFile(v, configFile, explicit); err != nil {
		return nil, err
	}

	c.ProjectDir = project
	c.ConfigFile = configFile
	c.QueueFile = v.GetString(KeyQueueFile)
	c.LogFile = v.GetString(KeyLogFile)
	c.Debug = v.GetBool(KeyDebug)
	c.Verbose = v.GetBool(KeyVerbose)
	c.MaxRetries = v.GetInt(KeyMaxRetries)

	if c.LockTimeout, err = durationValue(v, KeyLockTimeout); err != nil {
		return nil, err
	}
	if c.FlushInterval, err = durationValue(v, KeyFlushInterval); err != nil {
		return nil, err
	}

	if err := c.Finalize(); err != nil {
		return nil, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault(KeyLockTimeout, c.LockTimeout.String())
	v.SetDefault(KeyFlushInterval, c.FlushInterval.String())
	v.SetDefault(KeyMaxRetries, c.MaxRetries)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyQueueFile, "")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyConfigFile, "")
}

// readConfigFile merges path into v. A missing default file is fine; a
// missing explicit one is not.
func readConfigFile(v *viper.Viper, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.NewConfigError(KeyConfigFile, path, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return errors.NewConfigError(KeyConfigFile, path,
			errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("failed to read config: %v", err)))
	}
	return nil
}

// durationValue accepts Go duration strings ("2s") and bare integers, which
// are read as seconds.
func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	return 0, errors.NewConfigError(key, raw,
		errors.Wrap(errors.ErrInvalidConfiguration, "expected a duration such as 2s or 500ms"))
}

func resolveProjectDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.NewConfigError(KeyProjectDir, "", errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("failed to get current directory: %v", err)))
		}
		dir = wd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.NewConfigError(KeyProjectDir, dir, errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("failed to resolve absolute path: %v", err)))
	}
	return abs, nil
}

// Finalize validates the configuration and anchors relative paths to the
// project directory.
func (c *Config) Finalize() error {
	project, err := resolveProjectDir(c.ProjectDir)
	if err != nil {
		return err
	}
	c.ProjectDir = project

	if c.LockTimeout < 0 {
		return errors.NewConfigError(KeyLockTimeout, c.LockTimeout, errors.Wrap(errors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.FlushInterval < 0 {
		return errors.NewConfigError(KeyFlushInterval, c.FlushInterval, errors.Wrap(errors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.MaxRetries < 0 {
		return errors.NewConfigError(KeyMaxRetries, c.MaxRetries, errors.Wrap(errors.ErrInvalidConfiguration, "must not be negative"))
	}

	controlDir := filepath.Join(c.ProjectDir, constants.ControlDir)

	c.QueueFile = strings.TrimSpace(c.QueueFile)
	if strings.HasSuffix(c.QueueFile, "/") || strings.HasSuffix(c.QueueFile, string(filepath.Separator)) {
		return errors.NewConfigError(KeyQueueFile, c.QueueFile, errors.Wrap(errors.ErrInvalidConfiguration, "must name a file"))
	}
	if c.QueueFile == "" {
		c.QueueFile = filepath.Join(controlDir, constants.QueueFileName)
	} else if !filepath.IsAbs(c.QueueFile) {
		c.QueueFile = filepath.Join(c.ProjectDir, c.QueueFile)
	}
	c.QueueFile = filepath.Clean(c.QueueFile)

	c.LogFile = strings.TrimSpace(c.LogFile)
	if c.LogFile == "" {
		c.LogFile = filepath.Join(controlDir, constants.LogFileName)
	} else if !filepath.IsAbs(c.LogFile) {
		c.LogFile = filepath.Join(c.ProjectDir, c.LogFile)
	}

	return nil
}

// ControlDir returns the directory holding hookbak's files for the project.
func (c *Config) ControlDir() string {
	return filepath.Join(c.ProjectDir, constants.ControlDir)
}
