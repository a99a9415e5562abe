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

package vsancfg

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsphere-ops/vsanadm/cli/cmd/cliutil"
	"github.com/vsphere-ops/vsanadm/pkg/admin/taskmon"
	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

var (
	enableVcServer   string
	enableDatacenter string
	enableCluster    string
	enableAutoClaim  bool
	enableCfgFile    string
	enableDeadline   time.Duration
)

// enableCmd represents the vsan enable command.
var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable vSAN on a cluster",
	Long: "Enable the vSAN service on a cluster. Automatic disk claiming " +
		"stays off unless --autoclaim is set; use 'vsanadm diskgroup create' " +
		"to provision disk groups explicitly.",
	Run: func(cmd *cobra.Command, args []string) {
		validateEnableFlags()
		runEnable()
	},
}

// initEnable helps initialize enableCmd.
func initEnable() {
	enableCmd.PersistentFlags().StringVarP(&enableVcServer, "vcserver", "v", viper.GetString("vcserver"),
		"vCenter server address (alternatively use VSANADM_VCSERVER env variable)")
	enableCmd.PersistentFlags().StringVarP(&enableDatacenter, "datacenter", "d", viper.GetString("datacenter"),
		"datacenter name (alternatively use VSANADM_DATACENTER env variable)")
	enableCmd.PersistentFlags().StringVarP(&enableCluster, "cluster", "c", viper.GetString("cluster"),
		"cluster name (alternatively use VSANADM_CLUSTER env variable)")
	enableCmd.PersistentFlags().BoolVar(&enableAutoClaim, "autoclaim", false,
		"let vSAN claim host disks automatically")
	enableCmd.PersistentFlags().StringVar(&enableCfgFile, "config", viper.GetString("config"),
		"path to the vsanadm config file (alternatively use VSANADM_CONFIG env variable)")
	enableCmd.PersistentFlags().DurationVar(&enableDeadline, "deadline", 0,
		"bound on waiting for the reconfigure task, 0 waits forever")
	vsanCmd.AddCommand(enableCmd)
}

func validateEnableFlags() {
	if enableVcServer == "" {
		cliutil.Fatal("vcserver flag or VSANADM_VCSERVER env variable must be set for 'enable' sub-command")
	}
	if enableDatacenter == "" || enableCluster == "" {
		cliutil.Fatal("datacenter and cluster flags must be set for 'enable' sub-command")
	}
}

func runEnable() {
	ctx, _ := logger.GetNewContextWithLogger()
	vc, err := cliutil.Connect(ctx, enableVcServer, enableCfgFile)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	defer vc.Disconnect(ctx)

	dc, err := vc.GetDatacenter(ctx, enableDatacenter)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	cluster, err := dc.GetCluster(ctx, enableCluster)
	if err != nil {
		cliutil.Fatal("%v", err)
	}

	task, err := cluster.EnableVsan(ctx, enableAutoClaim)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	monitor := taskmon.Monitor{Deadline: enableDeadline}
	final, err := monitor.AwaitAll(ctx, []taskmon.Task{task})
	for _, status := range final {
		fmt.Printf("%s: vSAN enable %s\n", status.Entity, status.State)
	}
	if err != nil {
		cliutil.Fatal("%v", err)
	}
}
