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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/vsphere-ops/vsanadm/cli/cmd/cliutil"
	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

var (
	auditVcServer   string
	auditDatacenter string
	auditCluster    string
	auditCfgFile    string
)

// auditCmd represents the diskgroup audit command.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit vSAN disk group consistency",
	Long: "Report every host's vSAN disk groups and flag hosts whose layout " +
		"deviates from the cluster's dominant layout.",
	Run: func(cmd *cobra.Command, args []string) {
		validateAuditFlags()
		runAudit()
	},
}

// initAudit helps initialize auditCmd.
func initAudit() {
	auditCmd.PersistentFlags().StringVarP(&auditVcServer, "vcserver", "v", viper.GetString("vcserver"),
		"vCenter server address (alternatively use VSANADM_VCSERVER env variable)")
	auditCmd.PersistentFlags().StringVarP(&auditDatacenter, "datacenter", "d", viper.GetString("datacenter"),
		"datacenter name (alternatively use VSANADM_DATACENTER env variable)")
	auditCmd.PersistentFlags().StringVarP(&auditCluster, "cluster", "c", viper.GetString("cluster"),
		"cluster name (alternatively use VSANADM_CLUSTER env variable)")
	auditCmd.PersistentFlags().StringVar(&auditCfgFile, "config", viper.GetString("config"),
		"path to the vsanadm config file (alternatively use VSANADM_CONFIG env variable)")
	diskgroupCmd.AddCommand(auditCmd)
}

func validateAuditFlags() {
	if auditVcServer == "" {
		cliutil.Fatal("vcserver flag or VSANADM_VCSERVER env variable must be set for 'audit' sub-command")
	}
	if auditDatacenter == "" || auditCluster == "" {
		cliutil.Fatal("datacenter and cluster flags must be set for 'audit' sub-command")
	}
}

func runAudit() {
	ctx, _ := logger.GetNewContextWithLogger()
	vc, err := cliutil.Connect(ctx, auditVcServer, auditCfgFile)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	defer vc.Disconnect(ctx)

	_, hosts, err := vc.ResolveScope(ctx, vsphere.Scope{
		Datacenter: auditDatacenter,
		Cluster:    auditCluster,
	})
	if err != nil {
		cliutil.Fatal("%v", err)
	}

	layouts := make(map[string][]string)
	hostLayouts := make(map[string]string, len(hosts))
	for _, host := range hosts {
		mappings, err := host.VsanDiskMappings(ctx)
		if err != nil {
			fmt.Printf("%s: failed to read disk groups: %v\n", host.Name(), err)
			continue
		}
		layout := layoutSignature(mappings)
		layouts[layout] = append(layouts[layout], host.Name())
		hostLayouts[host.Name()] = layout
		fmt.Printf("%s: %s\n", host.Name(), layout)
	}

	dominant := ""
	for layout, names := range layouts {
		if len(names) > len(layouts[dominant]) {
			dominant = layout
		}
	}
	for _, host := range hosts {
		layout, ok := hostLayouts[host.Name()]
		if ok && layout != dominant {
			fmt.Printf("WARNING: %s deviates from the dominant layout (%s)\n",
				host.Name(), dominant)
		}
	}
}

// layoutSignature renders disk groups as "2 groups [1+7 1+7]" so layouts
// compare as plain strings.
func layoutSignature(mappings []types.VsanHostDiskMapping) string {
	if len(mappings) == 0 {
		return "no disk groups"
	}
	var groups []string
	for _, m := range mappings {
		groups = append(groups, fmt.Sprintf("1+%d", len(m.NonSsd)))
	}
	plural := "s"
	if len(mappings) == 1 {
		plural = ""
	}
	return fmt.Sprintf("%d group%s [%s]", len(mappings), plural, strings.Join(groups, " "))
}
