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

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

// Scope identifies the target of one command run: a cluster within a
// datacenter, optionally narrowed to a single host.
type Scope struct {
	Datacenter string
	Cluster    string
	Host       string
}

// ResolveScope resolves the scope to its cluster and target hosts. With no
// host named, every host in the cluster is returned in name order; with a
// host named, only that host. Resolution failures are fatal for the run.
func (vc *VirtualCenter) ResolveScope(ctx context.Context, scope Scope) (
	*ClusterComputeResource, []*HostSystem, error) {
	log := logger.GetLogger(ctx)
	dc, err := vc.GetDatacenter(ctx, scope.Datacenter)
	if err != nil {
		return nil, nil, err
	}
	cluster, err := dc.GetCluster(ctx, scope.Cluster)
	if err != nil {
		return nil, nil, err
	}
	if scope.Host != "" {
		host, err := cluster.GetHost(ctx, scope.Host)
		if err != nil {
			return nil, nil, err
		}
		return cluster, []*HostSystem{host}, nil
	}
	hosts, err := cluster.GetHosts(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Infof("resolved cluster %q with %d hosts", cluster.Name(), len(hosts))
	return cluster, hosts, nil
}
