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
	"sort"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

// ClusterComputeResource holds details of a cluster instance.
type ClusterComputeResource struct {
	// ClusterComputeResource represents a vSphere cluster.
	*object.ClusterComputeResource
	// VirtualCenterHost denotes the virtual center host address.
	VirtualCenterHost string
}

// GetHosts fetches the hosts under the ClusterComputeResource sorted by
// name. The name order makes every per-host iteration in this module
// deterministic.
func (ccr *ClusterComputeResource) GetHosts(ctx context.Context) ([]*HostSystem, error) {
	log := logger.GetLogger(ctx)
	var cluster mo.ClusterComputeResource
	err := ccr.Properties(ctx, ccr.Reference(), []string{"host"}, &cluster)
	if err != nil {
		return nil, logger.LogNewErrorf(log,
			"failed to retrieve host property for cluster %+v. err: %v", ccr.Reference(), err)
	}
	var hostList []*HostSystem
	for _, hostRef := range cluster.Host {
		host := &HostSystem{HostSystem: object.NewHostSystem(ccr.Client(), hostRef)}
		name, err := host.ObjectName(ctx)
		if err != nil {
			return nil, logger.LogNewErrorf(log,
				"failed to get name of host %v. err: %v", hostRef, err)
		}
		host.name = name
		hostList = append(hostList, host)
	}
	sort.Slice(hostList, func(i, j int) bool {
		return hostList[i].name < hostList[j].name
	})
	return hostList, nil
}

// GetHost returns the host with the given name in this cluster.
func (ccr *ClusterComputeResource) GetHost(ctx context.Context, name string) (*HostSystem, error) {
	hosts, err := ccr.GetHosts(ctx)
	if err != nil {
		return nil, err
	}
	for _, host := range hosts {
		if host.name == name {
			return host, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in cluster %q", ErrHostNotFound, name, ccr.Name())
}

// ConfigInfoEx retrieves the extended configuration of the cluster,
// including DRS settings, placement rules and the vSAN config.
func (ccr *ClusterComputeResource) ConfigInfoEx(ctx context.Context) (*types.ClusterConfigInfoEx, error) {
	log := logger.GetLogger(ctx)
	var cluster mo.ClusterComputeResource
	err := ccr.Properties(ctx, ccr.Reference(), []string{"configurationEx"}, &cluster)
	if err != nil {
		return nil, logger.LogNewErrorf(log,
			"failed to retrieve configurationEx for cluster %q. err: %v", ccr.Name(), err)
	}
	info, ok := cluster.ConfigurationEx.(*types.ClusterConfigInfoEx)
	if !ok {
		return nil, logger.LogNewErrorf(log,
			"unexpected configurationEx type %T for cluster %q", cluster.ConfigurationEx, ccr.Name())
	}
	return info, nil
}

// EnableVsan reconfigures the cluster with vSAN enabled. Automatic disk
// claiming stays off unless autoClaim is set; disk groups are provisioned
// explicitly by this module. Returns the reconfigure task.
func (ccr *ClusterComputeResource) EnableVsan(ctx context.Context, autoClaim bool) (*TrackedTask, error) {
	log := logger.GetLogger(ctx)
	spec := types.ClusterConfigSpecEx{
		VsanConfig: &types.VsanClusterConfigInfo{
			Enabled: types.NewBool(true),
			DefaultConfig: &types.VsanClusterConfigInfoHostDefaultInfo{
				AutoClaimStorage: types.NewBool(autoClaim),
			},
		},
	}
	task, err := ccr.Reconfigure(ctx, &spec, true)
	if err != nil {
		return nil, logger.LogNewErrorf(log,
			"failed to submit vSAN enable reconfigure for cluster %q. err: %v", ccr.Name(), err)
	}
	log.Infof("submitted vSAN enable reconfigure for cluster %q", ccr.Name())
	return NewTrackedTask(ccr.Client(), task.Reference(), ccr.Name()), nil
}
