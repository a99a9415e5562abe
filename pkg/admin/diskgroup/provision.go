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

package diskgroup

import (
	"context"

	"github.com/vsphere-ops/vsanadm/pkg/admin/taskmon"
	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// Host is the view of one ESXi host the provisioner needs: a fresh disk
// inventory and asynchronous disk group creation. *vsphere.HostSystem
// implements it.
type Host interface {
	Name() string
	ListDiskPaths(ctx context.Context) ([]vsphere.StoragePath, error)
	CreateDiskGroup(ctx context.Context, cache vsphere.StoragePath,
		capacity []vsphere.StoragePath) (*vsphere.TrackedTask, error)
}

// Provisioner submits disk group creations computed by a Selector. All
// submissions are non-blocking; the caller monitors the returned tasks.
type Provisioner struct {
	Selector Selector
}

// ProvisionHost computes and submits this host's disk groups. The inventory
// is re-read for every call so groups created moments ago are visible.
func (p *Provisioner) ProvisionHost(ctx context.Context, host Host) ([]taskmon.Task, error) {
	log := logger.GetLogger(ctx)
	paths, err := host.ListDiskPaths(ctx)
	if err != nil {
		return nil, err
	}
	specs, err := p.Selector.Select(ctx, host.Name(), paths)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		log.Infof("host %q: no disk groups to create", host.Name())
		return nil, nil
	}
	var tasks []taskmon.Task
	for _, spec := range specs {
		task, err := host.CreateDiskGroup(ctx, spec.Cache, spec.Capacity)
		if err != nil {
			log.Errorf("host %q: disk group submission failed: %v", host.Name(), err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ProvisionCluster fans ProvisionHost out over every host and accumulates
// all tasks into one collection, so disk group creation proceeds in
// parallel across the cluster while being monitored once. Per-host failures
// are logged and do not stop the remaining hosts.
func (p *Provisioner) ProvisionCluster(ctx context.Context, hosts []Host) []taskmon.Task {
	log := logger.GetLogger(ctx)
	var tasks []taskmon.Task
	for _, host := range hosts {
		hostTasks, err := p.ProvisionHost(ctx, host)
		if err != nil {
			log.Errorf("skipping host %q: %v", host.Name(), err)
			continue
		}
		tasks = append(tasks, hostTasks...)
	}
	return tasks
}
