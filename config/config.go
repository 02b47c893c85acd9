package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ConfigDebug                = "debug"
	ConfigConfigFile           = "config-file"
	ConfigSearchDepth          = "search-depth"
	ConfigSearchMaxTime        = "search-maxtime"
	ConfigBufferCapacity       = "buffer-capacity"
	ConfigPerftCacheSize       = "perft-cache-size"
	ConfigAutoplayGames        = "autoplay-games"
	ConfigAutoplayThreads      = "autoplay-threads"
	ConfigAutoplayDepthA       = "autoplay-depth-a"
	ConfigAutoplayDepthB       = "autoplay-depth-b"
	ConfigAutoplayMaxPlies     = "autoplay-max-plies"
	ConfigAutoplayRandomPlies  = "autoplay-random-plies"
	ConfigAutoplayLogfile      = "autoplay-logfile"
	ConfigAutoplaySearchLogDir = "autoplay-search-log-dir"
	ConfigCPUProfile           = "cpu-profile"
	ConfigMemProfile           = "mem-profile"
)

// Config is backed by viper. Values come, in increasing precedence, from
// defaults, an optional YAML file, CASTELLAN_* environment variables, and
// command-line flags. Set may be called from the shell while other
// goroutines read, so access goes through the mutex.
type Config struct {
	sync.Mutex
	viper.Viper

	args []string
}

func DefaultConfig() *Config {
	c := &Config{}
	c.Viper = *viper.New()
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigSearchDepth, 4)
	c.SetDefault(ConfigSearchMaxTime, time.Duration(0))
	c.SetDefault(ConfigBufferCapacity, 1024)
	c.SetDefault(ConfigPerftCacheSize, 1<<20)
	c.SetDefault(ConfigAutoplayGames, 10)
	c.SetDefault(ConfigAutoplayThreads, 4)
	c.SetDefault(ConfigAutoplayDepthA, 2)
	c.SetDefault(ConfigAutoplayDepthB, 3)
	c.SetDefault(ConfigAutoplayMaxPlies, 200)
	c.SetDefault(ConfigAutoplayRandomPlies, 2)
	c.SetDefault(ConfigAutoplayLogfile, "/tmp/castellan-autoplay.csv")
	c.SetDefault(ConfigAutoplaySearchLogDir, "")
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
}

// Load reads flags from args, then the environment and the config file
// the flags or environment name, if any. Arguments left after the flags are
// available from Args.
func (c *Config) Load(args []string) error {
	c.Viper = *viper.New()
	c.setDefaults()

	fs := pflag.NewFlagSet("castellan", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigConfigFile, "", "YAML file with settings")
	fs.Int(ConfigSearchDepth, 4, "search depth in plies")
	fs.Duration(ConfigSearchMaxTime, 0, "stop a search after this long; 0 for no limit")
	fs.Int(ConfigBufferCapacity, 1024, "initial capacity of the search move buffer")
	fs.Int(ConfigPerftCacheSize, 1<<20, "entries in the perft cache; 0 disables it")
	fs.Int(ConfigAutoplayGames, 10, "number of self-play games")
	fs.Int(ConfigAutoplayThreads, 4, "self-play worker goroutines")
	fs.Int(ConfigAutoplayDepthA, 2, "search depth of self-play engine A")
	fs.Int(ConfigAutoplayDepthB, 3, "search depth of self-play engine B")
	fs.Int(ConfigAutoplayMaxPlies, 200, "self-play games are abandoned after this many plies")
	fs.Int(ConfigAutoplayRandomPlies, 2, "random opening plies played before the engines take over")
	fs.String(ConfigAutoplayLogfile, "/tmp/castellan-autoplay.csv", "CSV log of self-play moves")
	fs.String(ConfigAutoplaySearchLogDir, "", "directory for per-game YAML search logs")
	fs.String(ConfigCPUProfile, "", "write a CPU profile here")
	fs.String(ConfigMemProfile, "", "write a memory profile here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	// Only flags actually given override the environment and file.
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if err := c.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return bindErr
	}

	c.SetEnvPrefix("castellan")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	c.AutomaticEnv()

	if f := c.GetString(ConfigConfigFile); f != "" {
		c.SetConfigFile(f)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", f, err)
		}
	}
	return nil
}

// Args are the command-line arguments left after flag parsing.
func (c *Config) Args() []string {
	return c.args
}

// SetValue sets key from its string form, converting it to the type of the
// key's default.
func (c *Config) SetValue(key, value string) error {
	c.Lock()
	defer c.Unlock()
	if !c.IsSet(key) {
		return fmt.Errorf("unknown setting %q", key)
	}
	switch c.Get(key).(type) {
	case bool:
		switch strings.ToLower(value) {
		case "true", "on", "1", "yes":
			c.Set(key, true)
		case "false", "off", "0", "no":
			c.Set(key, false)
		default:
			return fmt.Errorf("%s takes true or false, not %q", key, value)
		}
	case int:
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
			return fmt.Errorf("%s takes an integer: %w", key, err)
		}
		c.Set(key, n)
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s takes a duration: %w", key, err)
		}
		c.Set(key, d)
	default:
		c.Set(key, value)
	}
	return nil
}

// SanitizedSettings is every setting, for logging.
func (c *Config) SanitizedSettings() map[string]any {
	c.Lock()
	defer c.Unlock()
	return c.AllSettings()
}

// Dump renders the settings as YAML.
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(c.SanitizedSettings())
	if err != nil {
		return "", err
	}
	return string(out), nil
}
