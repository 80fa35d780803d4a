package conics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable pointing to the directory holding conf.toml.
const ConfigEnv = "CONICS_CONFIG"

// Config holds the settings of a System.
type Config struct {
	PatchDepthLimit  int     // maximum number of segments in a chain
	MinSOI           float64 // siblings with a smaller SOI are never patched into
	TimeScale        int
	ExponentialScale bool
	Epoch            time.Time // calendar date of simulation time zero
	StreamRate       float64   // snapshots per second pushed to stream clients
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PatchDepthLimit: 5,
		MinSOI:          DefaultMinSOI,
		TimeScale:       1,
		Epoch:           time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		StreamRate:      10,
	}
}

// Validate returns an error if the configuration cannot drive a system.
func (c Config) Validate() error {
	if c.PatchDepthLimit < 1 {
		return fmt.Errorf("orbit.patch_depth_limit must be at least 1, got %d", c.PatchDepthLimit)
	}
	if c.MinSOI < 0 {
		return fmt.Errorf("solver.min_soi must not be negative, got %f", c.MinSOI)
	}
	if c.StreamRate <= 0 {
		return errors.New("stream.rate must be positive")
	}
	return nil
}

// LoadConfig reads the configuration from the provided TOML file, or from conf.toml in the directory
// named by CONICS_CONFIG if path is empty. Missing keys keep their default values.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	if path == "" {
		dir := os.Getenv(ConfigEnv)
		if dir == "" {
			return Config{}, fmt.Errorf("environment variable `%s` is missing or empty", ConfigEnv)
		}
		path = filepath.Join(dir, "conf.toml")
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s not loaded: %s", path, err)
	}
	return ConfigFromViper(v)
}

// ConfigFromViper builds the configuration from an already loaded viper instance.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	conf := DefaultConfig()
	v.SetDefault("orbit.patch_depth_limit", conf.PatchDepthLimit)
	v.SetDefault("solver.min_soi", conf.MinSOI)
	v.SetDefault("time.scale", conf.TimeScale)
	v.SetDefault("time.exponential", conf.ExponentialScale)
	v.SetDefault("stream.rate", conf.StreamRate)

	conf.PatchDepthLimit = v.GetInt("orbit.patch_depth_limit")
	conf.MinSOI = v.GetFloat64("solver.min_soi")
	conf.TimeScale = v.GetInt("time.scale")
	conf.ExponentialScale = v.GetBool("time.exponential")
	conf.StreamRate = v.GetFloat64("stream.rate")
	if v.IsSet("time.epoch") {
		epoch, err := readJDEorTime(v, "time.epoch")
		if err != nil {
			return Config{}, err
		}
		conf.Epoch = epoch
	}
	return conf, conf.Validate()
}

// readJDEorTime reads a date provided either as a Julian date or as a timestamp.
func readJDEorTime(v *viper.Viper, key string) (time.Time, error) {
	if jde := v.GetFloat64(key); jde != 0 {
		return julian.JDToTime(jde).UTC(), nil
	}
	dt := v.GetTime(key)
	if dt.IsZero() {
		return dt, fmt.Errorf("could not understand `%s`: %v", key, v.Get(key))
	}
	return dt.UTC(), nil
}
