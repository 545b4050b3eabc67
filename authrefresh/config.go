// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gogama/httpx-authrefresh/timeout"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the default environment variable prefix read by LoadEnv.
const EnvPrefix = "AUTHREFRESH_"

// Config is the declarative subset of Options, suitable for loading
// from configuration files or the environment.
//
// Example YAML, loaded under the path "authrefresh":
//
//	authrefresh:
//	  status_codes: [401, 419]
//	  pause_instance_while_refreshing: true
//	  refresh_timeout: 30s
type Config struct {
	StatusCodes                  []int         `koanf:"status_codes"`
	PauseInstanceWhileRefreshing bool          `koanf:"pause_instance_while_refreshing"`
	SkipWhileRefreshing          bool          `koanf:"skip_while_refreshing"`
	InterceptNetworkError        bool          `koanf:"intercept_network_error"`
	RefreshTimeout               time.Duration `koanf:"refresh_timeout"`
}

func configDefaults(path string) map[string]any {
	prefix := ""
	if path != "" {
		prefix = path + "."
	}

	return map[string]any{
		prefix + "status_codes":                    []int{http.StatusUnauthorized},
		prefix + "pause_instance_while_refreshing": false,
		prefix + "skip_while_refreshing":           false,
		prefix + "intercept_network_error":         false,
		prefix + "refresh_timeout":                 "0s",
	}
}

// LoadConfig reads the Config found under path in k. Keys which k does
// not set take their default values. An empty path reads from the root.
func LoadConfig(k *koanf.Koanf, path string) (Config, error) {
	merged := koanf.New(".")
	if err := merged.Load(confmap.Provider(configDefaults(path), "."), nil); err != nil {
		return Config{}, fmt.Errorf("authrefresh: failed to load defaults: %w", err)
	}
	if err := merged.Merge(k); err != nil {
		return Config{}, fmt.Errorf("authrefresh: failed to merge configuration: %w", err)
	}

	var cfg Config
	if err := merged.Unmarshal(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("authrefresh: failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadEnv reads a Config from environment variables beginning with
// prefix, mapping for example AUTHREFRESH_STATUS_CODES=401,419 to the
// status_codes key. If prefix is empty, EnvPrefix is used.
func LoadEnv(prefix string) (Config, error) {
	if prefix == "" {
		prefix = EnvPrefix
	}

	k := koanf.New(".")
	if err := k.Load(env.ProviderWithValue(prefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		if strings.Contains(value, ",") {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("authrefresh: failed to load environment variables: %w", err)
	}

	return LoadConfig(k, "")
}

func (cfg Config) validate() error {
	for _, code := range cfg.StatusCodes {
		if code < 100 || code > 999 {
			return fmt.Errorf("authrefresh: invalid status code %d in status_codes", code)
		}
	}
	if cfg.RefreshTimeout < 0 {
		return fmt.Errorf("authrefresh: negative refresh_timeout %s", cfg.RefreshTimeout)
	}
	return nil
}

// Options converts cfg to Options. Fields which cannot be expressed
// declaratively, such as ShouldRefresh and OnRetry, are left unset for
// the caller to fill in.
func (cfg Config) Options() *Options {
	o := &Options{
		StatusCodes:                  append([]int{}, cfg.StatusCodes...),
		PauseInstanceWhileRefreshing: cfg.PauseInstanceWhileRefreshing || cfg.SkipWhileRefreshing,
		InterceptNetworkError:        cfg.InterceptNetworkError,
	}
	if cfg.RefreshTimeout > 0 {
		o.RefreshTimeout = timeout.Fixed(cfg.RefreshTimeout)
	}
	return o
}
