/*
Copyright 2025 The vsanadm Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"

	"gopkg.in/gcfg.v1"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

const (
	// DefaultVCenterPort is the default port used to access vCenter.
	DefaultVCenterPort = "443"
	// DefaultClientTimeoutMinutes is the default limit for vCenter client
	// requests.
	DefaultClientTimeoutMinutes = 5
	// DefaultConfigPath is the default path of the vsanadm config file.
	DefaultConfigPath = "/etc/vsanadm/vsanadm.conf"
	// EnvConfigPath contains the path to the vsanadm config file.
	EnvConfigPath = "VSANADM_CONFIG"
	// EnvVCUser overrides the configured vCenter username.
	EnvVCUser = "VSANADM_VC_USER"
	// EnvVCPassword overrides the configured vCenter password.
	EnvVCPassword = "VSANADM_VC_PASSWORD"
)

// Errors
var (
	// ErrUsernameMissing is returned when the provided username is empty.
	ErrUsernameMissing = errors.New("username is missing")

	// ErrPasswordMissing is returned when the provided password is empty.
	ErrPasswordMissing = errors.New("password is missing")

	// ErrInvalidPort is returned when a configured port is not numeric.
	ErrInvalidPort = errors.New("vCenter port must be numeric")
)

// ReadConfig parses the vsanadm config file from the given reader.
func ReadConfig(ctx context.Context, configData io.Reader) (*Config, error) {
	log := logger.GetLogger(ctx)
	if configData == nil {
		return nil, logger.LogNewError(log, "vsanadm config data is empty")
	}
	cfg := &Config{}
	if err := gcfg.FatalOnly(gcfg.ReadInto(cfg, configData)); err != nil {
		log.Errorf("error while reading config file: %+v", err)
		return nil, err
	}
	if err := FromEnv(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfig loads the vsanadm config file from the given path, falling back
// to the VSANADM_CONFIG env variable and then the default location.
func GetConfig(ctx context.Context, path string) (*Config, error) {
	log := logger.GetLogger(ctx)
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultConfigPath
	}
	f, err := os.Open(path)
	if err != nil {
		log.Errorf("failed to open config file %q. err: %v", path, err)
		return nil, err
	}
	defer f.Close()
	return ReadConfig(ctx, f)
}

// FromEnv overrides configuration values with environment variables when
// they are set. Credentials from env take precedence over the config file.
func FromEnv(ctx context.Context, cfg *Config) error {
	log := logger.GetLogger(ctx)
	if cfg == nil {
		return logger.LogNewError(log, "config object cannot be nil")
	}
	if v := os.Getenv(EnvVCUser); v != "" {
		cfg.Global.User = v
	}
	if v := os.Getenv(EnvVCPassword); v != "" {
		cfg.Global.Password = v
	}
	return validate(ctx, cfg)
}

// ForVirtualCenter resolves the effective settings for one vCenter host,
// applying Global defaults beneath any matching VirtualCenter section.
func (cfg *Config) ForVirtualCenter(host string) *VirtualCenterConfig {
	eff := &VirtualCenterConfig{
		User:         cfg.Global.User,
		Password:     cfg.Global.Password,
		Port:         cfg.Global.Port,
		InsecureFlag: cfg.Global.InsecureFlag,
		CAFile:       cfg.Global.CAFile,
		Thumbprint:   cfg.Global.Thumbprint,
	}
	if vcc, ok := cfg.VirtualCenter[host]; ok && vcc != nil {
		if vcc.User != "" {
			eff.User = vcc.User
		}
		if vcc.Password != "" {
			eff.Password = vcc.Password
		}
		if vcc.Port != "" {
			eff.Port = vcc.Port
		}
		if vcc.InsecureFlag {
			eff.InsecureFlag = true
		}
		if vcc.CAFile != "" {
			eff.CAFile = vcc.CAFile
		}
		if vcc.Thumbprint != "" {
			eff.Thumbprint = vcc.Thumbprint
		}
	}
	if eff.Port == "" {
		eff.Port = DefaultVCenterPort
	}
	return eff
}

func validate(ctx context.Context, cfg *Config) error {
	log := logger.GetLogger(ctx)
	if cfg.Global.Port != "" {
		if _, err := strconv.Atoi(cfg.Global.Port); err != nil {
			log.Errorf("invalid global port %q", cfg.Global.Port)
			return ErrInvalidPort
		}
	}
	for host, vcc := range cfg.VirtualCenter {
		if vcc == nil {
			continue
		}
		if vcc.Port != "" {
			if _, err := strconv.Atoi(vcc.Port); err != nil {
				log.Errorf("invalid port %q for vCenter %q", vcc.Port, host)
				return ErrInvalidPort
			}
		}
	}
	if cfg.Global.ClientTimeoutMinutes == 0 {
		cfg.Global.ClientTimeoutMinutes = DefaultClientTimeoutMinutes
	}
	return nil
}
