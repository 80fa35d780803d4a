package conics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConf(t *testing.T, contents string) string {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "conf.toml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestConfigDefaults(t *testing.T) {
	conf := DefaultConfig()
	if err := conf.Validate(); err != nil {
		t.Fatal(err)
	}
	if conf.PatchDepthLimit != 5 || conf.MinSOI != DefaultMinSOI || conf.TimeScale != 1 || conf.ExponentialScale {
		t.Fatalf("invalid defaults %+v", conf)
	}
	for _, mod := range []func(*Config){
		func(c *Config) { c.PatchDepthLimit = 0 },
		func(c *Config) { c.MinSOI = -1 },
		func(c *Config) { c.StreamRate = 0 },
	} {
		c := DefaultConfig()
		mod(&c)
		if c.Validate() == nil {
			t.Fatalf("invalid configuration accepted: %+v", c)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := writeConf(t, `
[orbit]
patch_depth_limit = 3

[solver]
min_soi = 250.0

[time]
scale = 4
exponential = true
epoch = 2451545.0

[stream]
rate = 2.5
`)
	t.Setenv(ConfigEnv, dir)
	conf, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if conf.PatchDepthLimit != 3 || conf.MinSOI != 250 || conf.TimeScale != 4 || !conf.ExponentialScale || conf.StreamRate != 2.5 {
		t.Fatalf("invalid configuration %+v", conf)
	}
	exp := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if d := conf.Epoch.Sub(exp); d > time.Second || d < -time.Second {
		t.Fatalf("invalid epoch %s", conf.Epoch)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	dir := writeConf(t, `
[time]
epoch = 2017-03-20T14:45:00Z
`)
	conf, err := LoadConfig(filepath.Join(dir, "conf.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !conf.Epoch.Equal(time.Date(2017, 3, 20, 14, 45, 0, 0, time.UTC)) {
		t.Fatalf("invalid epoch %s", conf.Epoch)
	}
	if conf.PatchDepthLimit != DefaultConfig().PatchDepthLimit {
		t.Fatal("missing keys should keep their defaults")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected an error without a configuration directory")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error on a missing file")
	}
	dir := writeConf(t, `
[orbit]
patch_depth_limit = 0
`)
	if _, err := LoadConfig(filepath.Join(dir, "conf.toml")); err == nil {
		t.Fatal("expected a validation error")
	}
}
