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
	"strings"
	"testing"
)

var ctx = context.Background()

const validConfig = `
[Global]
user = "administrator@vsphere.local"
password = "secret"
insecure-flag = true

[VirtualCenter "10.0.0.1"]
port = "8443"

[VirtualCenter "10.0.0.2"]
user = "ops@vsphere.local"
password = "other-secret"
`

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(ctx, strings.NewReader(validConfig))
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if cfg.Global.User != "administrator@vsphere.local" {
		t.Errorf("unexpected global user %q", cfg.Global.User)
	}
	if !cfg.Global.InsecureFlag {
		t.Errorf("expected insecure-flag to be set")
	}
	if len(cfg.VirtualCenter) != 2 {
		t.Errorf("expected 2 VirtualCenter sections, got %d", len(cfg.VirtualCenter))
	}
	if cfg.Global.ClientTimeoutMinutes != DefaultClientTimeoutMinutes {
		t.Errorf("expected default client timeout, got %d", cfg.Global.ClientTimeoutMinutes)
	}
}

func TestReadConfigNilReader(t *testing.T) {
	if _, err := ReadConfig(ctx, nil); err == nil {
		t.Error("expected an error for nil config data")
	}
}

func TestReadConfigEnvCredentialsTakePrecedence(t *testing.T) {
	t.Setenv(EnvVCUser, "env-user")
	t.Setenv(EnvVCPassword, "env-password")

	cfg, err := ReadConfig(ctx, strings.NewReader(validConfig))
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if cfg.Global.User != "env-user" {
		t.Errorf("expected env user to win, got %q", cfg.Global.User)
	}
	if cfg.Global.Password != "env-password" {
		t.Errorf("expected env password to win, got %q", cfg.Global.Password)
	}
}

func TestReadConfigInvalidPort(t *testing.T) {
	badConfig := `
[Global]
user = "admin"
password = "secret"
port = "not-a-port"
`
	_, err := ReadConfig(ctx, strings.NewReader(badConfig))
	if !errors.Is(err, ErrInvalidPort) {
		t.Errorf("expected ErrInvalidPort, got %v", err)
	}
}

func TestForVirtualCenterMergesGlobalDefaults(t *testing.T) {
	cfg, err := ReadConfig(ctx, strings.NewReader(validConfig))
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	// Section overrides port, inherits credentials.
	eff := cfg.ForVirtualCenter("10.0.0.1")
	if eff.Port != "8443" {
		t.Errorf("expected port 8443, got %q", eff.Port)
	}
	if eff.User != "administrator@vsphere.local" {
		t.Errorf("expected inherited user, got %q", eff.User)
	}
	if !eff.InsecureFlag {
		t.Errorf("expected inherited insecure-flag")
	}

	// Section overrides credentials, inherits default port.
	eff = cfg.ForVirtualCenter("10.0.0.2")
	if eff.User != "ops@vsphere.local" {
		t.Errorf("expected section user, got %q", eff.User)
	}
	if eff.Port != DefaultVCenterPort {
		t.Errorf("expected default port, got %q", eff.Port)
	}

	// Unknown host falls back to Global entirely.
	eff = cfg.ForVirtualCenter("10.0.0.99")
	if eff.User != "administrator@vsphere.local" || eff.Port != DefaultVCenterPort {
		t.Errorf("unexpected fallback config: %+v", eff)
	}
}
