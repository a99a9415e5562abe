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
	"errors"
	"fmt"

	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

// Resolution errors. A named entity not being found is fatal for the run.
var (
	ErrDatacenterNotFound = errors.New("datacenter not found")
	ErrClusterNotFound    = errors.New("cluster not found")
	ErrHostNotFound       = errors.New("host not found")
)

// Datacenter holds virtual center information along with the Datacenter.
type Datacenter struct {
	// Datacenter represents the govmomi Datacenter.
	*object.Datacenter
	// VirtualCenterHost represents the virtual center host address.
	VirtualCenterHost string
}

func (dc *Datacenter) String() string {
	return fmt.Sprintf("Datacenter [Datacenter: %v, VirtualCenterHost: %v]",
		dc.Datacenter, dc.VirtualCenterHost)
}

// GetDatacenter returns the datacenter with the given name on this vCenter.
func (vc *VirtualCenter) GetDatacenter(ctx context.Context, name string) (*Datacenter, error) {
	log := logger.GetLogger(ctx)
	finder := find.NewFinder(vc.Client.Client, false)
	dc, err := finder.Datacenter(ctx, name)
	if err != nil {
		log.Errorf("failed to find datacenter %q on vCenter %q. err: %v", name, vc.Host, err)
		return nil, fmt.Errorf("%w: %q", ErrDatacenterNotFound, name)
	}
	return &Datacenter{Datacenter: dc, VirtualCenterHost: vc.Host}, nil
}

// GetDatacenters returns every datacenter on this vCenter.
func (vc *VirtualCenter) GetDatacenters(ctx context.Context) ([]*Datacenter, error) {
	log := logger.GetLogger(ctx)
	finder := find.NewFinder(vc.Client.Client, false)
	dcs, err := finder.DatacenterList(ctx, "*")
	if err != nil {
		log.Errorf("failed to list datacenters on vCenter %q. err: %v", vc.Host, err)
		return nil, err
	}
	var out []*Datacenter
	for _, dc := range dcs {
		out = append(out, &Datacenter{Datacenter: dc, VirtualCenterHost: vc.Host})
	}
	return out, nil
}

// GetCluster returns the cluster with the given name in this datacenter.
func (dc *Datacenter) GetCluster(ctx context.Context, name string) (*ClusterComputeResource, error) {
	log := logger.GetLogger(ctx)
	finder := find.NewFinder(dc.Client(), false)
	finder.SetDatacenter(dc.Datacenter)
	ccr, err := finder.ClusterComputeResource(ctx, name)
	if err != nil {
		log.Errorf("failed to find cluster %q in datacenter %q. err: %v",
			name, dc.Name(), err)
		return nil, fmt.Errorf("%w: %q", ErrClusterNotFound, name)
	}
	return &ClusterComputeResource{
		ClusterComputeResource: ccr,
		VirtualCenterHost:      dc.VirtualCenterHost,
	}, nil
}

// GetClusters returns every cluster in this datacenter.
func (dc *Datacenter) GetClusters(ctx context.Context) ([]*ClusterComputeResource, error) {
	log := logger.GetLogger(ctx)
	finder := find.NewFinder(dc.Client(), false)
	finder.SetDatacenter(dc.Datacenter)
	ccrs, err := finder.ClusterComputeResourceList(ctx, "*")
	if err != nil {
		if _, ok := err.(*find.NotFoundError); ok {
			return nil, nil
		}
		log.Errorf("failed to list clusters in datacenter %q. err: %v", dc.Name(), err)
		return nil, err
	}
	var out []*ClusterComputeResource
	for _, ccr := range ccrs {
		out = append(out, &ClusterComputeResource{
			ClusterComputeResource: ccr,
			VirtualCenterHost:      dc.VirtualCenterHost,
		})
	}
	return out, nil
}
