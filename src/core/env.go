// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Environment keys read by LoadConfiguration
const (
	EnvFramesPerSecond = "KORU_FPS"
	EnvEventPollDelay  = "KORU_EVENT_POLL_DELAY"
	EnvScreenWidth     = "KORU_SCREEN_WIDTH"
	EnvScreenHeight    = "KORU_SCREEN_HEIGHT"
	EnvSwapchainSize   = "KORU_SWAPCHAIN_SIZE"
	EnvPoolRetention   = "KORU_POOL_RETENTION"
	EnvLogLevel        = "KORU_LOG_LEVEL"
	EnvMetricsAddress  = "KORU_METRICS_ADDR"
)

// ErrInvalidSetting is returned for environment values that can't be used.
var ErrInvalidSetting = errors.New("invalid configuration setting")

// LoadConfiguration builds a configuration from the environment, on top of
// DefaultConfiguration. Values from the given .env files take precedence
// over the process environment.
func LoadConfiguration(files ...string) (Configuration, error) {
	envy.Reload()
	if len(files) > 0 {
		values, err := godotenv.Read(files...)
		if err != nil {
			return Configuration{}, fmt.Errorf("godotenv.Read(): %w", err)
		}
		for k, v := range values {
			envy.Set(k, v)
		}
	}

	cfg := DefaultConfiguration()
	var errs []error
	intSetting := func(key string, value *int, min int) {
		raw := envy.Get(key, strconv.Itoa(*value))
		n, err := strconv.Atoi(raw)
		if err != nil || n < min {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, raw))
			return
		}
		*value = n
	}
	uintSetting := func(key string, value *uint32) {
		n := int(*value)
		intSetting(key, &n, 1)
		*value = uint32(n)
	}

	intSetting(EnvFramesPerSecond, &cfg.Time.FramesPerSecond, 0)
	intSetting(EnvEventPollDelay, &cfg.Time.EventPollDelay, 1)
	uintSetting(EnvScreenWidth, &cfg.Renderer.ScreenWidth)
	uintSetting(EnvScreenHeight, &cfg.Renderer.ScreenHeight)
	uintSetting(EnvSwapchainSize, &cfg.Renderer.SwapchainSize)
	intSetting(EnvPoolRetention, &cfg.Pool.RetentionFrames, 0)
	cfg.LogLevel = envy.Get(EnvLogLevel, cfg.LogLevel)
	cfg.MetricsAddress = envy.Get(EnvMetricsAddress, cfg.MetricsAddress)

	if err := errors.Join(errs...); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}
