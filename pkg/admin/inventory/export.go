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

package inventory

import (
	"context"

	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// Export walks the vCenter's inventory tree and returns it as a Document.
func Export(ctx context.Context, vc *vsphere.VirtualCenter) (*Document, error) {
	doc := &Document{VCenter: vc.Host}
	// entityPaths maps object references to inventory paths, filled in
	// by the tree walk and consumed by the permission export.
	entityPaths := map[types.ManagedObjectReference]string{}
	vmNames := map[types.ManagedObjectReference]string{}
	entityPaths[vc.Client.ServiceContent.RootFolder] = "/"

	roleNames, err := exportRoles(ctx, vc, doc)
	if err != nil {
		return nil, err
	}
	if err := exportDatacenters(ctx, vc, doc, entityPaths, vmNames); err != nil {
		return nil, err
	}
	if err := exportPermissions(ctx, vc, doc, entityPaths, roleNames); err != nil {
		return nil, err
	}
	return doc, nil
}

func exportRoles(ctx context.Context, vc *vsphere.VirtualCenter, doc *Document) (map[int32]string, error) {
	log := logger.GetLogger(ctx)
	authMgr := object.NewAuthorizationManager(vc.Client.Client)
	roles, err := authMgr.RoleList(ctx)
	if err != nil {
		log.Errorf("failed to list roles on vCenter %q. err: %v", vc.Host, err)
		return nil, err
	}
	roleNames := make(map[int32]string, len(roles))
	for _, role := range roles {
		roleNames[role.RoleId] = role.Name
		doc.Roles = append(doc.Roles, Role{
			Name:       role.Name,
			System:     role.System,
			Privileges: role.Privilege,
		})
	}
	log.Infof("exported %d roles", len(doc.Roles))
	return roleNames, nil
}

func exportPermissions(ctx context.Context, vc *vsphere.VirtualCenter, doc *Document,
	entityPaths map[types.ManagedObjectReference]string, roleNames map[int32]string) error {
	log := logger.GetLogger(ctx)
	authMgr := object.NewAuthorizationManager(vc.Client.Client)
	perms, err := authMgr.RetrieveAllPermissions(ctx)
	if err != nil {
		log.Errorf("failed to retrieve permissions on vCenter %q. err: %v", vc.Host, err)
		return err
	}
	for _, perm := range perms {
		if perm.Entity == nil {
			continue
		}
		path, ok := entityPaths[*perm.Entity]
		if !ok {
			log.Debugf("skipping permission on unwalked entity %v", perm.Entity)
			continue
		}
		doc.Permissions = append(doc.Permissions, Permission{
			Entity:    path,
			Principal: perm.Principal,
			Role:      roleNames[perm.RoleId],
			Group:     perm.Group,
			Propagate: perm.Propagate,
		})
	}
	log.Infof("exported %d permissions", len(doc.Permissions))
	return nil
}

func exportDatacenters(ctx context.Context, vc *vsphere.VirtualCenter, doc *Document,
	entityPaths map[types.ManagedObjectReference]string,
	vmNames map[types.ManagedObjectReference]string) error {
	log := logger.GetLogger(ctx)
	dcs, err := vc.GetDatacenters(ctx)
	if err != nil {
		return err
	}
	for _, dc := range dcs {
		entityPaths[dc.Reference()] = dc.InventoryPath
		dcDoc := Datacenter{Name: dc.Name()}

		hostClusters := map[types.ManagedObjectReference]int{}
		hostNames := map[types.ManagedObjectReference]string{}

		clusters, err := dc.GetClusters(ctx)
		if err != nil {
			return err
		}
		for _, ccr := range clusters {
			entityPaths[ccr.Reference()] = ccr.InventoryPath
			cluster, err := exportCluster(ctx, ccr)
			if err != nil {
				return err
			}
			hosts, err := ccr.GetHosts(ctx)
			if err != nil {
				return err
			}
			for _, host := range hosts {
				vendor, model, err := host.HardwareInfo(ctx)
				if err != nil {
					return err
				}
				hostVersion, err := host.Version(ctx)
				if err != nil {
					log.Warnf("host %q reports no version: %v", host.Name(), err)
				}
				cluster.Hosts = append(cluster.Hosts, Host{
					Name:    host.Name(),
					Vendor:  vendor,
					Model:   model,
					Version: hostVersion,
				})
				entityPaths[host.Reference()] = ccr.InventoryPath + "/" + host.Name()
				hostClusters[host.Reference()] = len(dcDoc.Clusters)
				hostNames[host.Reference()] = host.Name()
			}
			dcDoc.Clusters = append(dcDoc.Clusters, *cluster)
		}

		if err := exportVMs(ctx, dc, &dcDoc, entityPaths, vmNames,
			hostClusters, hostNames); err != nil {
			return err
		}

		// Rule VM references resolve only after the VM walk.
		for ci := range dcDoc.Clusters {
			resolveRuleVMs(&dcDoc.Clusters[ci], vmNames)
		}
		doc.Datacenters = append(doc.Datacenters, dcDoc)
	}
	log.Infof("exported %d datacenters", len(doc.Datacenters))
	return nil
}

func exportCluster(ctx context.Context, ccr *vsphere.ClusterComputeResource) (*Cluster, error) {
	info, err := ccr.ConfigInfoEx(ctx)
	if err != nil {
		return nil, err
	}
	cluster := &Cluster{Name: ccr.Name()}
	if info.DrsConfig.Enabled != nil {
		cluster.DrsEnabled = *info.DrsConfig.Enabled
	}
	cluster.DrsBehavior = string(info.DrsConfig.DefaultVmBehavior)
	if info.VsanConfigInfo != nil && info.VsanConfigInfo.Enabled != nil {
		cluster.VsanEnabled = *info.VsanConfigInfo.Enabled
	}
	for _, baseRule := range info.Rule {
		switch rule := baseRule.(type) {
		case *types.ClusterAffinityRuleSpec:
			cluster.Rules = append(cluster.Rules,
				newRule(&rule.ClusterRuleInfo, "affinity", rule.Vm))
		case *types.ClusterAntiAffinityRuleSpec:
			cluster.Rules = append(cluster.Rules,
				newRule(&rule.ClusterRuleInfo, "anti-affinity", rule.Vm))
		}
	}
	return cluster, nil
}

// newRule records a rule with its VM references still raw; the references
// are replaced by names once the VM walk has run.
func newRule(info *types.ClusterRuleInfo, ruleType string, vms []types.ManagedObjectReference) Rule {
	rule := Rule{Name: info.Name, Type: ruleType}
	if info.Enabled != nil {
		rule.Enabled = *info.Enabled
	}
	for _, vm := range vms {
		rule.VMs = append(rule.VMs, vm.Value)
	}
	return rule
}

func exportVMs(ctx context.Context, dc *vsphere.Datacenter, dcDoc *Datacenter,
	entityPaths map[types.ManagedObjectReference]string,
	vmNames map[types.ManagedObjectReference]string,
	hostClusters map[types.ManagedObjectReference]int,
	hostNames map[types.ManagedObjectReference]string) error {
	log := logger.GetLogger(ctx)
	finder := find.NewFinder(dc.Client(), false)
	finder.SetDatacenter(dc.Datacenter)
	vms, err := finder.VirtualMachineList(ctx, "*")
	if err != nil {
		if _, ok := err.(*find.NotFoundError); ok {
			return nil
		}
		log.Errorf("failed to list VMs in datacenter %q. err: %v", dc.Name(), err)
		return err
	}

	vmPaths := make(map[types.ManagedObjectReference]string, len(vms))
	var refs []types.ManagedObjectReference
	for _, vm := range vms {
		refs = append(refs, vm.Reference())
		vmPaths[vm.Reference()] = vm.InventoryPath
	}
	var vmMos []mo.VirtualMachine
	pc := property.DefaultCollector(dc.Client())
	err = pc.Retrieve(ctx, refs, []string{"name", "config.template", "runtime.host"}, &vmMos)
	if err != nil {
		log.Errorf("failed to retrieve VM properties in datacenter %q. err: %v", dc.Name(), err)
		return err
	}
	for _, vmMo := range vmMos {
		ref := vmMo.Reference()
		entityPaths[ref] = vmPaths[ref]
		vmNames[ref] = vmMo.Name
		vm := VirtualMachine{
			Name: vmMo.Name,
			Path: vmPaths[ref],
		}
		if vmMo.Config != nil {
			vm.Template = vmMo.Config.Template
		}
		if vmMo.Runtime.Host != nil {
			vm.Host = hostNames[*vmMo.Runtime.Host]
			if ci, ok := hostClusters[*vmMo.Runtime.Host]; ok {
				dcDoc.Clusters[ci].VirtualMachines =
					append(dcDoc.Clusters[ci].VirtualMachines, vm)
				continue
			}
		}
		// VMs outside any walked cluster attach to no cluster entry but
		// still resolve in rules and permissions.
	}
	return nil
}

// resolveRuleVMs replaces raw VM references in rules with VM names.
// References to since-deleted VMs keep their raw value.
func resolveRuleVMs(cluster *Cluster, vmNames map[types.ManagedObjectReference]string) {
	for ri := range cluster.Rules {
		for vi, raw := range cluster.Rules[ri].VMs {
			ref := types.ManagedObjectReference{Type: "VirtualMachine", Value: raw}
			if name, ok := vmNames[ref]; ok {
				cluster.Rules[ri].VMs[vi] = name
			}
		}
	}
}
