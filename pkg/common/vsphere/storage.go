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
	"fmt"

	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

const bytesPerGB = 1024 * 1024 * 1024

// StoragePath is a snapshot of one SCSI disk attached to a host. The
// canonical name is the only identity stable across queries.
type StoragePath struct {
	// CanonicalName is the device identifier, e.g. "naa.6000...".
	CanonicalName string
	// RuntimeName is the controller:channel:target:lun path name,
	// e.g. "vmhba1:C0:T0:L0". Empty when the host reports no path for
	// the device.
	RuntimeName string
	// DisplayName is the host's display string for the device.
	DisplayName string
	// CapacityBytes is the usable capacity of the device.
	CapacityBytes int64
	// Disk is the underlying SCSI disk object, retained for disk group
	// submission.
	Disk types.HostScsiDisk
}

// CapacityGB returns the device capacity in GB.
func (p StoragePath) CapacityGB() float64 {
	return float64(p.CapacityBytes) / bytesPerGB
}

func (p StoragePath) String() string {
	return fmt.Sprintf("%s (%s, %.0f GB)", p.RuntimeName, p.CanonicalName, p.CapacityGB())
}

// ListDiskPaths queries the host's attached SCSI devices and returns one
// StoragePath per disk. Non-disk SCSI device classes (cdrom, enclosure and
// the like) are excluded. The result reflects current host state on every
// call; nothing is cached.
func (host *HostSystem) ListDiskPaths(ctx context.Context) ([]StoragePath, error) {
	log := logger.GetLogger(ctx)
	var hostMo mo.HostSystem
	err := host.Properties(ctx, host.Reference(), []string{"config.storageDevice"}, &hostMo)
	if err != nil {
		log.Errorf("failed to retrieve storage devices for host %q. err: %v", host.Name(), err)
		return nil, err
	}
	if hostMo.Config == nil || hostMo.Config.StorageDevice == nil {
		return nil, nil
	}
	storage := hostMo.Config.StorageDevice

	// Join runtime path names to devices through the multipath info by
	// LUN key. The first reported path names the device.
	runtimeNames := make(map[string]string)
	if storage.MultipathInfo != nil {
		for _, lun := range storage.MultipathInfo.Lun {
			if len(lun.Path) > 0 {
				runtimeNames[lun.Lun] = lun.Path[0].Name
			}
		}
	}

	var paths []StoragePath
	for _, baseLun := range storage.ScsiLun {
		disk, ok := baseLun.(*types.HostScsiDisk)
		if !ok {
			continue
		}
		paths = append(paths, StoragePath{
			CanonicalName: disk.CanonicalName,
			RuntimeName:   runtimeNames[disk.Key],
			DisplayName:   disk.DisplayName,
			CapacityBytes: disk.Capacity.Block * int64(disk.Capacity.BlockSize),
			Disk:          *disk,
		})
	}
	log.Debugf("host %q reports %d disk paths", host.Name(), len(paths))
	return paths, nil
}

// CreateDiskGroup submits an asynchronous vSAN disk group creation for the
// given cache and capacity disks and returns the resulting task without
// waiting on it.
func (host *HostSystem) CreateDiskGroup(ctx context.Context,
	cache StoragePath, capacity []StoragePath) (*TrackedTask, error) {
	log := logger.GetLogger(ctx)
	vsanSystem, err := host.ConfigManager().VsanSystem(ctx)
	if err != nil {
		log.Errorf("failed to get vSAN system for host %q. err: %v", host.Name(), err)
		return nil, err
	}
	mapping := types.VsanHostDiskMapping{
		Ssd: cache.Disk,
	}
	for _, p := range capacity {
		mapping.NonSsd = append(mapping.NonSsd, p.Disk)
	}
	req := types.InitializeDisks_Task{
		This:    vsanSystem.Reference(),
		Mapping: []types.VsanHostDiskMapping{mapping},
	}
	res, err := methods.InitializeDisks_Task(ctx, host.Client(), &req)
	if err != nil {
		log.Errorf("failed to submit disk group creation on host %q. err: %v", host.Name(), err)
		return nil, err
	}
	log.Infof("submitted disk group creation on host %q: cache %s, %d capacity disks",
		host.Name(), cache.CanonicalName, len(capacity))
	return NewTrackedTask(host.Client(), res.Returnval, host.Name()), nil
}
