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

// Package cliutil holds helpers shared by the vsanadm subcommands.
package cliutil

import (
	"context"
	"fmt"
	"os"

	"github.com/vsphere-ops/vsanadm/pkg/common/config"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// Connect loads the vsanadm config and opens an authenticated session to
// the given vCenter.
func Connect(ctx context.Context, vcServer, cfgPath string) (*vsphere.VirtualCenter, error) {
	cfg, err := config.GetConfig(ctx, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	vc := vsphere.NewVirtualCenter(cfg, vcServer)
	if err := vc.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to vCenter %q: %w", vcServer, err)
	}
	return vc, nil
}

// Fatal prints the message and exits with status 1.
func Fatal(format string, a ...interface{}) {
	fmt.Printf("error: "+format+"\n", a...)
	os.Exit(1)
}
