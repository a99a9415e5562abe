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
	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

// HostSystem holds details of a host instance.
type HostSystem struct {
	// HostSystem represents the host system.
	*object.HostSystem
	// name caches the host's inventory name.
	name string
}

// Name returns the host's inventory name.
func (host *HostSystem) Name() string {
	if host.name != "" {
		return host.name
	}
	return host.HostSystem.Name()
}

// HostRuntime is a snapshot of the host state the orchestration logic
// polls: connectivity, the maintenance flag and the powered-on VM count.
type HostRuntime struct {
	Connected     bool
	InMaintenance bool
	PoweredOnVMs  int
}

// Runtime reads the current runtime state of the host. Each call issues a
// fresh query; host state changes between polls must be visible.
func (host *HostSystem) Runtime(ctx context.Context) (HostRuntime, error) {
	log := logger.GetLogger(ctx)
	var hostMo mo.HostSystem
	err := host.Properties(ctx, host.Reference(), []string{"runtime", "vm"}, &hostMo)
	if err != nil {
		log.Errorf("failed to retrieve runtime state for host %q. err: %v", host.Name(), err)
		return HostRuntime{}, err
	}
	rt := HostRuntime{
		Connected:     hostMo.Runtime.ConnectionState == types.HostSystemConnectionStateConnected,
		InMaintenance: hostMo.Runtime.InMaintenanceMode,
	}
	if len(hostMo.Vm) > 0 {
		var vmMoList []mo.VirtualMachine
		pc := property.DefaultCollector(host.Client())
		err = pc.Retrieve(ctx, hostMo.Vm, []string{"runtime.powerState"}, &vmMoList)
		if err != nil {
			log.Errorf("failed to retrieve VM power states for host %q. err: %v", host.Name(), err)
			return HostRuntime{}, err
		}
		for _, vmMo := range vmMoList {
			if vmMo.Runtime.PowerState == types.VirtualMachinePowerStatePoweredOn {
				rt.PoweredOnVMs++
			}
		}
	}
	return rt, nil
}

// Version returns the ESXi product version of the host, e.g. "8.0.2".
func (host *HostSystem) Version(ctx context.Context) (string, error) {
	log := logger.GetLogger(ctx)
	var hostMo mo.HostSystem
	err := host.Properties(ctx, host.Reference(), []string{"summary.config.product"}, &hostMo)
	if err != nil {
		log.Errorf("failed to retrieve product info for host %q. err: %v", host.Name(), err)
		return "", err
	}
	if hostMo.Summary.Config.Product == nil {
		return "", logger.LogNewErrorf(log, "host %q reports no product info", host.Name())
	}
	return hostMo.Summary.Config.Product.Version, nil
}

// HardwareInfo returns the vendor and model strings of the host.
func (host *HostSystem) HardwareInfo(ctx context.Context) (vendor, model string, err error) {
	log := logger.GetLogger(ctx)
	var hostMo mo.HostSystem
	err = host.Properties(ctx, host.Reference(), []string{"summary.hardware"}, &hostMo)
	if err != nil {
		log.Errorf("failed to retrieve hardware info for host %q. err: %v", host.Name(), err)
		return "", "", err
	}
	if hostMo.Summary.Hardware == nil {
		return "", "", nil
	}
	return hostMo.Summary.Hardware.Vendor, hostMo.Summary.Hardware.Model, nil
}

// RequestEnterMaintenance asks the host to enter maintenance mode with
// automatic VM evacuation. The request is fire-and-forget; callers poll
// Runtime until the maintenance flag is set and no VMs remain powered on.
func (host *HostSystem) RequestEnterMaintenance(ctx context.Context) error {
	log := logger.GetLogger(ctx)
	_, err := host.EnterMaintenanceMode(ctx, 0, true, &types.HostMaintenanceSpec{})
	if err != nil {
		log.Errorf("failed to request maintenance mode for host %q. err: %v", host.Name(), err)
		return err
	}
	log.Infof("requested maintenance mode for host %q", host.Name())
	return nil
}

// RequestExitMaintenance asks the host to leave maintenance mode. Callers
// poll Runtime until the maintenance flag clears.
func (host *HostSystem) RequestExitMaintenance(ctx context.Context) error {
	log := logger.GetLogger(ctx)
	_, err := host.ExitMaintenanceMode(ctx, 0)
	if err != nil {
		log.Errorf("failed to request maintenance mode exit for host %q. err: %v", host.Name(), err)
		return err
	}
	log.Infof("requested maintenance mode exit for host %q", host.Name())
	return nil
}

// RequestReboot issues a reboot of the host. Callers poll Runtime for the
// disconnect and subsequent reconnect.
func (host *HostSystem) RequestReboot(ctx context.Context) error {
	log := logger.GetLogger(ctx)
	req := types.RebootHost_Task{
		This:  host.Reference(),
		Force: false,
	}
	_, err := methods.RebootHost_Task(ctx, host.Client(), &req)
	if err != nil {
		log.Errorf("failed to request reboot of host %q. err: %v", host.Name(), err)
		return err
	}
	log.Infof("requested reboot of host %q", host.Name())
	return nil
}

// VsanDiskMappings returns the host's current vSAN disk groups as reported
// by its vSAN configuration.
func (host *HostSystem) VsanDiskMappings(ctx context.Context) ([]types.VsanHostDiskMapping, error) {
	log := logger.GetLogger(ctx)
	var hostMo mo.HostSystem
	err := host.Properties(ctx, host.Reference(), []string{"config.vsanHostConfig"}, &hostMo)
	if err != nil {
		log.Errorf("failed to retrieve vSAN config for host %q. err: %v", host.Name(), err)
		return nil, err
	}
	if hostMo.Config == nil || hostMo.Config.VsanHostConfig == nil ||
		hostMo.Config.VsanHostConfig.StorageInfo == nil {
		return nil, nil
	}
	return hostMo.Config.VsanHostConfig.StorageInfo.DiskMapping, nil
}
