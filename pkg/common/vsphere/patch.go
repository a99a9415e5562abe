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

package vsphere

import (
	"context"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

// PatchScan is the outcome of a non-committing patch evaluation on a host.
type PatchScan struct {
	// ToInstall is the number of software units the bundle would install.
	ToInstall int
	// ToRemove is the number of installed units the bundle obsoletes.
	ToRemove int
	// Message is the platform's free-text result.
	Message string
}

// PatchResult is the outcome of applying a patch bundle on a host.
type PatchResult struct {
	// Message is the platform's free-text result.
	Message string
	// RebootRequired reports whether the host must reboot to complete
	// the installation.
	RebootRequired bool
}

// patchManager resolves the host's patch manager reference.
func (host *HostSystem) patchManager(ctx context.Context) (*types.ManagedObjectReference, error) {
	log := logger.GetLogger(ctx)
	var hostMo mo.HostSystem
	err := host.Properties(ctx, host.Reference(), []string{"configManager.patchManager"}, &hostMo)
	if err != nil {
		log.Errorf("failed to retrieve patch manager for host %q. err: %v", host.Name(), err)
		return nil, err
	}
	if hostMo.ConfigManager.PatchManager == nil {
		return nil, logger.LogNewErrorf(log, "host %q has no patch manager", host.Name())
	}
	return hostMo.ConfigManager.PatchManager, nil
}

// ScanPatch runs a non-committing evaluation of the given patch bundle on
// the host and reports what an installation would change.
func (host *HostSystem) ScanPatch(ctx context.Context, bundleURL string) (PatchScan, error) {
	log := logger.GetLogger(ctx)
	pm, err := host.patchManager(ctx)
	if err != nil {
		return PatchScan{}, err
	}
	req := types.ScanHostPatchV2_Task{
		This:       *pm,
		BundleUrls: []string{bundleURL},
	}
	res, err := methods.ScanHostPatchV2_Task(ctx, host.Client(), &req)
	if err != nil {
		log.Errorf("failed to submit patch scan on host %q. err: %v", host.Name(), err)
		return PatchScan{}, err
	}
	info, err := object.NewTask(host.Client(), res.Returnval).WaitForResult(ctx, nil)
	if err != nil {
		log.Errorf("patch scan failed on host %q. err: %v", host.Name(), err)
		return PatchScan{}, err
	}
	result, ok := info.Result.(types.HostPatchManagerResult)
	if !ok {
		return PatchScan{}, logger.LogNewErrorf(log,
			"unexpected patch scan result type %T on host %q", info.Result, host.Name())
	}
	scan := PatchScan{Message: result.XmlResult}
	for _, status := range result.Status {
		switch {
		case status.Applicable && !status.Installed:
			scan.ToInstall++
		case status.Installed && !status.Applicable:
			scan.ToRemove++
		}
	}
	log.Infof("patch scan on host %q: %d to install, %d to remove",
		host.Name(), scan.ToInstall, scan.ToRemove)
	return scan, nil
}

// ApplyPatch installs the given patch bundle on the host and waits for the
// installation task to finish. The host is expected to be in maintenance
// mode; the caller enforces that.
func (host *HostSystem) ApplyPatch(ctx context.Context, bundleURL string) (PatchResult, error) {
	log := logger.GetLogger(ctx)
	pm, err := host.patchManager(ctx)
	if err != nil {
		return PatchResult{}, err
	}
	req := types.InstallHostPatchV2_Task{
		This:       *pm,
		BundleUrls: []string{bundleURL},
	}
	res, err := methods.InstallHostPatchV2_Task(ctx, host.Client(), &req)
	if err != nil {
		log.Errorf("failed to submit patch installation on host %q. err: %v", host.Name(), err)
		return PatchResult{}, err
	}
	info, err := object.NewTask(host.Client(), res.Returnval).WaitForResult(ctx, nil)
	if err != nil {
		log.Errorf("patch installation failed on host %q. err: %v", host.Name(), err)
		return PatchResult{}, err
	}
	out := PatchResult{}
	if result, ok := info.Result.(types.HostPatchManagerResult); ok {
		out.Message = result.XmlResult
		for _, status := range result.Status {
			if status.RestartRequired {
				out.RebootRequired = true
			}
		}
	}
	log.Infof("patch installation finished on host %q, reboot required: %v",
		host.Name(), out.RebootRequired)
	return out, nil
}
