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

// Config is used to read and store information from the vsanadm config file.
type Config struct {
	// Global holds settings applied to every vCenter unless overridden by a
	// matching VirtualCenter section.
	Global struct {
		// User is the vCenter username.
		User string `gcfg:"user"`
		// Password is the vCenter password in clear text.
		Password string `gcfg:"password"`
		// Port is the vCenter port. Defaults to 443.
		Port string `gcfg:"port"`
		// InsecureFlag disables certificate verification when set.
		InsecureFlag bool `gcfg:"insecure-flag"`
		// CAFile is the path to a CA certificate in PEM format. Ignored when
		// InsecureFlag is set.
		CAFile string `gcfg:"ca-file"`
		// Thumbprint is the certificate thumbprint to verify against.
		// Ignored when InsecureFlag is set.
		Thumbprint string `gcfg:"thumbprint"`
		// ClientTimeoutMinutes is the limit in minutes for requests made by
		// the vCenter client.
		ClientTimeoutMinutes int `gcfg:"client-timeout-minutes"`
	}

	// VirtualCenter holds per-vCenter overrides keyed by host address.
	VirtualCenter map[string]*VirtualCenterConfig
}

// VirtualCenterConfig contains settings for one vCenter server.
type VirtualCenterConfig struct {
	// User is the vCenter username.
	User string `gcfg:"user"`
	// Password is the vCenter password in clear text.
	Password string `gcfg:"password"`
	// Port is the vCenter port.
	Port string `gcfg:"port"`
	// InsecureFlag disables certificate verification when set.
	InsecureFlag bool `gcfg:"insecure-flag"`
	// CAFile is the path to a CA certificate in PEM format.
	CAFile string `gcfg:"ca-file"`
	// Thumbprint is the certificate thumbprint to verify against.
	Thumbprint string `gcfg:"thumbprint"`
}
