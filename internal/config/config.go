// Package config resolves filestat settings from defaults, a .env file, an
// optional config file, FILESTAT_* environment variables, and flags, in
// increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idelchi/filestat/internal/filestat"
	"github.com/idelchi/filestat/internal/source"
)

const (
	// EnvPrefix prefixes environment variables, e.g. FILESTAT_WORKERS.
	EnvPrefix = "FILESTAT"
	// Name is the base name of the config file searched for.
	Name = "filestat"
)

// Keys shared by flags, environment variables, and config files.
const (
	KeyWorkers    = "workers"
	KeyPoll       = "poll"
	KeyMaxRead    = "max-read"
	KeyNull       = "null"
	KeyWalk       = "walk"
	KeyDepth      = "depth"
	KeyExclude    = "exclude"
	KeyOutput     = "output"
	KeyDebug      = "debug"
	KeyNoColor    = "no-color"
	KeyNoProgress = "no-progress"
)

// Outputs lists the supported report formats.
//
//nolint:gochecknoglobals // Config constant
var Outputs = []string{"table", "json"}

// Config holds the resolved settings.
type Config struct {
	// Workers is the thread mode pool size.
	Workers int
	// Poll is the worker polling interval (0 = wait on the queue).
	Poll time.Duration
	// MaxRead caps the bytes inspected per regular file.
	MaxRead uint64
	// Null selects NUL-separated input.
	Null bool
	// Walk is a directory to traverse instead of reading paths from stdin.
	Walk string
	// Depth is the maximum walk depth (0=unlimited).
	Depth int
	// Excludes contains regex patterns skipped during a walk.
	Excludes []string
	// Output is the report format.
	Output string
	// Debug enables debug logging.
	Debug bool
	// NoColor disables colored output.
	NoColor bool
	// NoProgress disables the progress line.
	NoProgress bool
	// File is the config file that was read, if any.
	File string
}

// RegisterFlags defines the flags shared by every command.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(KeyMaxRead, humanize.Bytes(filestat.DefaultMaxRead), "Maximum bytes inspected per file for text detection (e.g., 1MB)")
	flags.BoolP(KeyNull, "0", false, "Expect NUL ('\\0') characters as separators, instead of newlines")
	flags.String(KeyWalk, "", "Analyze every path below this directory instead of reading paths from stdin")
	flags.IntP(KeyDepth, "d", 0, "Maximum walk depth (0=unlimited)")
	flags.StringSliceP(KeyExclude, "e", []string{}, "Regex patterns to exclude during a walk")
	flags.StringP(KeyOutput, "o", "table", "Output format: json or table")
	flags.Bool(KeyDebug, false, "Enable debug output")
	flags.Bool(KeyNoColor, false, "Disable colored output")
	flags.Bool(KeyNoProgress, false, "Disable the progress line")
}

// RegisterWorkerFlags defines the flags of the threaded command.
func RegisterWorkerFlags(flags *pflag.FlagSet) {
	flags.IntP(KeyWorkers, "w", filestat.DefaultWorkers, "Number of worker goroutines")
	flags.Duration(KeyPoll, 0, "Poll the work queue at this interval instead of waiting on it (e.g., 5ms)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyWorkers, filestat.DefaultWorkers)
	v.SetDefault(KeyPoll, time.Duration(0))
	v.SetDefault(KeyMaxRead, humanize.Bytes(filestat.DefaultMaxRead))
	v.SetDefault(KeyNull, false)
	v.SetDefault(KeyWalk, "")
	v.SetDefault(KeyDepth, 0)
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyOutput, "table")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyNoProgress, false)
}

// dotenv applies the FILESTAT_* entries of ./.env on top of the defaults, below
// every other source. The process environment is left untouched.
func dotenv(v *viper.Viper) {
	entries, err := godotenv.Read()
	if err != nil {
		// A missing .env is the common case.
		return
	}

	for name, value := range entries {
		key, ok := strings.CutPrefix(name, EnvPrefix+"_")
		if !ok {
			continue
		}

		v.SetDefault(strings.ReplaceAll(strings.ToLower(key), "_", "-"), value)
	}
}

// Load merges every configuration source and validates the result.
// cfgFile, if set, must exist; otherwise ./filestat.* and
// $HOME/.config/filestat/filestat.* are tried.
func Load(flags *pflag.FlagSet, cfgFile string) (Config, error) {
	v := viper.New()

	setDefaults(v)
	dotenv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("binding flags: %w", err)
		}
	}

	maxRead, err := humanize.ParseBytes(v.GetString(KeyMaxRead))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyMaxRead, err)
	}

	cfg := Config{
		Workers:    v.GetInt(KeyWorkers),
		Poll:       v.GetDuration(KeyPoll),
		MaxRead:    maxRead,
		Null:       v.GetBool(KeyNull),
		Walk:       v.GetString(KeyWalk),
		Depth:      v.GetInt(KeyDepth),
		Excludes:   v.GetStringSlice(KeyExclude),
		Output:     strings.ToLower(v.GetString(KeyOutput)),
		Debug:      v.GetBool(KeyDebug),
		NoColor:    v.GetBool(KeyNoColor),
		NoProgress: v.GetBool(KeyNoProgress),
		File:       v.ConfigFileUsed(),
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings that cannot start a run.
func (c Config) Validate() error {
	if !slices.Contains(Outputs, c.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", c.Output, Outputs)
	}

	if c.Depth < 0 {
		return errors.New("depth cannot be negative")
	}

	if c.Poll < 0 {
		return errors.New("poll interval cannot be negative")
	}

	if c.MaxRead == 0 {
		return fmt.Errorf("%s must be positive", KeyMaxRead)
	}

	if _, err := source.CompilePatterns(c.Excludes); err != nil {
		return err
	}

	return nil
}
