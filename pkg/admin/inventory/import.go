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
	"fmt"

	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// Report summarizes what an import created, applied and skipped.
type Report struct {
	RolesCreated       int
	DatacentersCreated int
	ClustersCreated    int
	RulesApplied       int
	PermissionsApplied int
	// Skipped lists items the import could not or will not apply, with
	// reasons. Hosts and VMs are always skipped; they cannot be created
	// from an inventory record.
	Skipped []string
}

// Import applies the document to the vCenter. Roles, datacenters, clusters
// (with DRS settings and resolvable placement rules) and permissions are
// created or re-applied; existing objects are left untouched. The import is
// best-effort per item: a skipped item is recorded and does not abort the
// rest.
func Import(ctx context.Context, vc *vsphere.VirtualCenter, doc *Document) (*Report, error) {
	report := &Report{}
	roleIDs, err := importRoles(ctx, vc, doc, report)
	if err != nil {
		return report, err
	}
	if err := importDatacenters(ctx, vc, doc, report); err != nil {
		return report, err
	}
	importPermissions(ctx, vc, doc, roleIDs, report)
	return report, nil
}

func importRoles(ctx context.Context, vc *vsphere.VirtualCenter, doc *Document,
	report *Report) (map[string]int32, error) {
	log := logger.GetLogger(ctx)
	authMgr := object.NewAuthorizationManager(vc.Client.Client)
	existing, err := authMgr.RoleList(ctx)
	if err != nil {
		log.Errorf("failed to list roles on vCenter %q. err: %v", vc.Host, err)
		return nil, err
	}
	roleIDs := make(map[string]int32)
	for _, role := range existing {
		roleIDs[role.Name] = role.RoleId
	}
	for _, role := range doc.Roles {
		if role.System {
			continue
		}
		if _, ok := roleIDs[role.Name]; ok {
			log.Debugf("role %q already exists", role.Name)
			continue
		}
		id, err := authMgr.AddRole(ctx, role.Name, role.Privileges)
		if err != nil {
			log.Warnf("failed to create role %q: %v", role.Name, err)
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("role %s: %v", role.Name, err))
			continue
		}
		roleIDs[role.Name] = id
		report.RolesCreated++
	}
	log.Infof("created %d roles", report.RolesCreated)
	return roleIDs, nil
}

func importDatacenters(ctx context.Context, vc *vsphere.VirtualCenter, doc *Document,
	report *Report) error {
	log := logger.GetLogger(ctx)
	finder := find.NewFinder(vc.Client.Client, false)
	rootFolder := object.NewRootFolder(vc.Client.Client)

	for _, dcDoc := range doc.Datacenters {
		dc, err := finder.Datacenter(ctx, dcDoc.Name)
		if err != nil {
			if _, ok := err.(*find.NotFoundError); !ok {
				return err
			}
			dc, err = rootFolder.CreateDatacenter(ctx, dcDoc.Name)
			if err != nil {
				log.Errorf("failed to create datacenter %q: %v", dcDoc.Name, err)
				return err
			}
			report.DatacentersCreated++
			log.Infof("created datacenter %q", dcDoc.Name)
		}
		if err := importClusters(ctx, vc, dc, dcDoc, report); err != nil {
			return err
		}
	}
	return nil
}

func importClusters(ctx context.Context, vc *vsphere.VirtualCenter,
	dc *object.Datacenter, dcDoc Datacenter, report *Report) error {
	log := logger.GetLogger(ctx)
	folders, err := dc.Folders(ctx)
	if err != nil {
		return err
	}
	finder := find.NewFinder(vc.Client.Client, false)
	finder.SetDatacenter(dc)

	for _, clusterDoc := range dcDoc.Clusters {
		ccr, err := finder.ClusterComputeResource(ctx, clusterDoc.Name)
		if err == nil {
			log.Infof("cluster %q already exists in datacenter %q, leaving untouched",
				clusterDoc.Name, dcDoc.Name)
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("cluster %s: already exists", clusterDoc.Name))
			continue
		}
		if _, ok := err.(*find.NotFoundError); !ok {
			return err
		}
		spec := types.ClusterConfigSpecEx{
			DrsConfig: &types.ClusterDrsConfigInfo{
				Enabled: types.NewBool(clusterDoc.DrsEnabled),
			},
		}
		if clusterDoc.DrsBehavior != "" {
			spec.DrsConfig.DefaultVmBehavior = types.DrsBehavior(clusterDoc.DrsBehavior)
		}
		if clusterDoc.VsanEnabled {
			spec.VsanConfig = &types.VsanClusterConfigInfo{
				Enabled: types.NewBool(true),
			}
		}
		ccr, err = folders.HostFolder.CreateCluster(ctx, clusterDoc.Name, spec)
		if err != nil {
			log.Errorf("failed to create cluster %q: %v", clusterDoc.Name, err)
			return err
		}
		report.ClustersCreated++
		log.Infof("created cluster %q in datacenter %q", clusterDoc.Name, dcDoc.Name)

		for _, host := range clusterDoc.Hosts {
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("host %s: hosts must be added to cluster %s manually",
					host.Name, clusterDoc.Name))
		}
		for _, vm := range clusterDoc.VirtualMachines {
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("vm %s: VMs are not restored from inventory records", vm.Name))
		}
		importRules(ctx, finder, ccr, clusterDoc, report)
	}
	return nil
}

// importRules re-applies the cluster's placement rules. A rule is applied
// only when every VM it names resolves in the target inventory, which on a
// fresh import is usually not yet the case; unresolvable rules are
// recorded as skipped.
func importRules(ctx context.Context, finder *find.Finder,
	ccr *object.ClusterComputeResource, clusterDoc Cluster, report *Report) {
	log := logger.GetLogger(ctx)
	for _, rule := range clusterDoc.Rules {
		var vmRefs []types.ManagedObjectReference
		resolved := true
		for _, vmName := range rule.VMs {
			vm, err := finder.VirtualMachine(ctx, vmName)
			if err != nil {
				resolved = false
				break
			}
			vmRefs = append(vmRefs, vm.Reference())
		}
		if !resolved || len(vmRefs) < 2 {
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("rule %s: not all member VMs exist", rule.Name))
			continue
		}
		info := types.ClusterRuleInfo{
			Name:    rule.Name,
			Enabled: types.NewBool(rule.Enabled),
		}
		var ruleSpec types.BaseClusterRuleInfo
		if rule.Type == "anti-affinity" {
			ruleSpec = &types.ClusterAntiAffinityRuleSpec{
				ClusterRuleInfo: info, Vm: vmRefs,
			}
		} else {
			ruleSpec = &types.ClusterAffinityRuleSpec{
				ClusterRuleInfo: info, Vm: vmRefs,
			}
		}
		spec := types.ClusterConfigSpecEx{
			RulesSpec: []types.ClusterRuleSpec{{
				ArrayUpdateSpec: types.ArrayUpdateSpec{
					Operation: types.ArrayUpdateOperationAdd,
				},
				Info: ruleSpec,
			}},
		}
		task, err := ccr.Reconfigure(ctx, &spec, true)
		if err == nil {
			err = task.Wait(ctx)
		}
		if err != nil {
			log.Warnf("failed to apply rule %q on cluster %q: %v",
				rule.Name, clusterDoc.Name, err)
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("rule %s: %v", rule.Name, err))
			continue
		}
		report.RulesApplied++
	}
}

func importPermissions(ctx context.Context, vc *vsphere.VirtualCenter, doc *Document,
	roleIDs map[string]int32, report *Report) {
	log := logger.GetLogger(ctx)
	authMgr := object.NewAuthorizationManager(vc.Client.Client)
	searchIndex := object.NewSearchIndex(vc.Client.Client)
	for _, perm := range doc.Permissions {
		roleID, ok := roleIDs[perm.Role]
		if !ok {
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("permission for %s on %s: role %q does not exist",
					perm.Principal, perm.Entity, perm.Role))
			continue
		}
		var ref object.Reference
		if perm.Entity == "/" {
			ref = object.NewRootFolder(vc.Client.Client)
		} else {
			found, err := searchIndex.FindByInventoryPath(ctx, perm.Entity)
			if err != nil || found == nil {
				report.Skipped = append(report.Skipped,
					fmt.Sprintf("permission for %s on %s: entity not found",
						perm.Principal, perm.Entity))
				continue
			}
			ref = found
		}
		err := authMgr.SetEntityPermissions(ctx, ref.Reference(), []types.Permission{{
			Principal: perm.Principal,
			Group:     perm.Group,
			RoleId:    roleID,
			Propagate: perm.Propagate,
		}})
		if err != nil {
			log.Warnf("failed to apply permission for %q on %q: %v",
				perm.Principal, perm.Entity, err)
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("permission for %s on %s: %v", perm.Principal, perm.Entity, err))
			continue
		}
		report.PermissionsApplied++
	}
	log.Infof("applied %d permissions", report.PermissionsApplied)
}
