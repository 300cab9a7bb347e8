// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/respool/src/core"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	c := qt.New(t)
	cfg, err := core.LoadConfiguration()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, core.DefaultConfiguration())
}

func TestLoadConfigurationFromEnvironment(t *testing.T) {
	c := qt.New(t)
	t.Setenv(core.EnvPoolRetention, "0")
	t.Setenv(core.EnvFramesPerSecond, "144")
	t.Setenv(core.EnvScreenWidth, "1920")
	t.Setenv(core.EnvLogLevel, "debug")

	cfg, err := core.LoadConfiguration()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Pool.RetentionFrames, qt.Equals, 0)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 144)
	c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(1920))
	c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(600))
	c.Assert(cfg.LogLevel, qt.Equals, "debug")
}

func TestLoadConfigurationFromFile(t *testing.T) {
	c := qt.New(t)
	t.Setenv(core.EnvPoolRetention, "1")
	path := filepath.Join(t.TempDir(), "koru.env")
	err := os.WriteFile(path, []byte("KORU_POOL_RETENTION=7\nKORU_METRICS_ADDR=:9102\n"), 0o600)
	c.Assert(err, qt.IsNil)

	cfg, err := core.LoadConfiguration(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Pool.RetentionFrames, qt.Equals, 7)
	c.Assert(cfg.MetricsAddress, qt.Equals, ":9102")
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	c := qt.New(t)
	_, err := core.LoadConfiguration(filepath.Join(t.TempDir(), "missing.env"))
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestLoadConfigurationInvalid(t *testing.T) {
	c := qt.New(t)
	t.Setenv(core.EnvPoolRetention, "-2")
	t.Setenv(core.EnvScreenHeight, "tall")

	_, err := core.LoadConfiguration()
	c.Assert(err, qt.ErrorIs, core.ErrInvalidSetting)
	c.Assert(err, qt.ErrorMatches, `(?s).*KORU_SCREEN_HEIGHT="tall".*KORU_POOL_RETENTION="-2".*`)
}
