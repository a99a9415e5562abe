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
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsphere-ops/vsanadm/cli/cmd/cliutil"
	admindg "github.com/vsphere-ops/vsanadm/pkg/admin/diskgroup"
	"github.com/vsphere-ops/vsanadm/pkg/admin/taskmon"
	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

var (
	createVcServer   string
	createDatacenter string
	createCluster    string
	createEsxi       string
	createVmhbas     string
	createNumGroups  int
	createSelect     bool
	createCfgFile    string
	createDeadline   time.Duration
)

// createCmd represents the diskgroup create command.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create vSAN disk groups",
	Long: "Create vSAN disk groups on one host or on every host of a cluster. " +
		"Disks are selected automatically per storage adapter, or manually " +
		"with --select-disks.",
	Run: func(cmd *cobra.Command, args []string) {
		validateCreateFlags()
		runCreate(cmd)
	},
}

// initCreate helps initialize createCmd.
func initCreate() {
	createCmd.PersistentFlags().StringVarP(&createVcServer, "vcserver", "v", viper.GetString("vcserver"),
		"vCenter server address (alternatively use VSANADM_VCSERVER env variable)")
	createCmd.PersistentFlags().StringVarP(&createDatacenter, "datacenter", "d", viper.GetString("datacenter"),
		"datacenter name (alternatively use VSANADM_DATACENTER env variable)")
	createCmd.PersistentFlags().StringVarP(&createCluster, "cluster", "c", viper.GetString("cluster"),
		"cluster name (alternatively use VSANADM_CLUSTER env variable)")
	createCmd.PersistentFlags().StringVar(&createEsxi, "esxi", "",
		"narrow the operation to one ESXi host by name")
	createCmd.PersistentFlags().StringVar(&createVmhbas, "vmhbas", "",
		"comma-separated storage adapters, one disk group per adapter (e.g. vmhba1,vmhba2)")
	createCmd.PersistentFlags().IntVar(&createNumGroups, "num-disk-groups", 1,
		"number of disk groups per host, at most the number of adapters in --vmhbas")
	createCmd.PersistentFlags().BoolVar(&createSelect, "select-disks", false,
		"select cache and capacity disks interactively instead of automatically")
	createCmd.PersistentFlags().StringVar(&createCfgFile, "config", viper.GetString("config"),
		"path to the vsanadm config file (alternatively use VSANADM_CONFIG env variable)")
	createCmd.PersistentFlags().DurationVar(&createDeadline, "deadline", 0,
		"bound on waiting for task completion, 0 waits forever")
	diskgroupCmd.AddCommand(createCmd)
}

func validateCreateFlags() {
	if createVcServer == "" {
		cliutil.Fatal("vcserver flag or VSANADM_VCSERVER env variable must be set for 'create' sub-command")
	}
	if createDatacenter == "" || createCluster == "" {
		cliutil.Fatal("datacenter and cluster flags must be set for 'create' sub-command")
	}
	if !createSelect && createVmhbas == "" {
		cliutil.Fatal("either vmhbas or select-disks must be set for 'create' sub-command")
	}
}

func runCreate(cmd *cobra.Command) {
	ctx, _ := logger.GetNewContextWithLogger()
	vc, err := cliutil.Connect(ctx, createVcServer, createCfgFile)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	defer vc.Disconnect(ctx)

	_, hosts, err := vc.ResolveScope(ctx, vsphere.Scope{
		Datacenter: createDatacenter,
		Cluster:    createCluster,
		Host:       createEsxi,
	})
	if err != nil {
		cliutil.Fatal("%v", err)
	}

	selector, err := buildSelector(cmd)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	provisioner := admindg.Provisioner{Selector: selector}

	dgHosts := make([]admindg.Host, 0, len(hosts))
	for _, host := range hosts {
		dgHosts = append(dgHosts, host)
	}
	tasks := provisioner.ProvisionCluster(ctx, dgHosts)
	if len(tasks) == 0 {
		fmt.Println("no disk groups were submitted")
		return
	}

	monitor := taskmon.Monitor{Deadline: createDeadline}
	final, err := monitor.AwaitAll(ctx, tasks)
	for _, status := range final {
		fmt.Printf("%s: disk group creation %s\n", status.Entity, status.State)
	}
	if err != nil {
		cliutil.Fatal("%v", err)
	}
}

func buildSelector(cmd *cobra.Command) (admindg.Selector, error) {
	if createSelect {
		return &admindg.ManualSelector{In: os.Stdin, Out: os.Stdout}, nil
	}
	adapters := strings.Split(createVmhbas, ",")
	for i := range adapters {
		adapters[i] = strings.TrimSpace(adapters[i])
	}
	// The adapter list length determines the number of disk groups per
	// host unless num-disk-groups overrides it with fewer.
	if cmd.Flags().Changed("num-disk-groups") {
		if createNumGroups < 1 || createNumGroups > len(adapters) {
			return nil, fmt.Errorf("num-disk-groups must be between 1 and %d (the number of adapters)",
				len(adapters))
		}
		adapters = adapters[:createNumGroups]
	}
	return &admindg.AutoClassifier{Adapters: adapters}, nil
}
