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

package patch

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsphere-ops/vsanadm/cli/cmd/cliutil"
	"github.com/vsphere-ops/vsanadm/pkg/admin/rollingpatch"
	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

var (
	rollingVcServer      string
	rollingDatacenter    string
	rollingCluster       string
	rollingEsxi          string
	rollingDatastorePath string
	rollingLocalPath     string
	rollingDatastore     string
	rollingValidate      bool
	rollingMinVersion    string
	rollingCfgFile       string
	rollingDeadline      time.Duration
)

// rollingCmd represents the patch rolling command.
var rollingCmd = &cobra.Command{
	Use:   "rolling",
	Short: "Roll a patch bundle across a cluster",
	Long: "Apply an offline patch bundle to every host of a cluster, one host " +
		"at a time: dry-run evaluation, maintenance mode, installation, reboot " +
		"and maintenance mode exit. A host that fails to enter maintenance " +
		"mode halts the entire update.",
	Run: func(cmd *cobra.Command, args []string) {
		validateRollingFlags()
		runRolling()
	},
}

// initRolling helps initialize rollingCmd.
func initRolling() {
	rollingCmd.PersistentFlags().StringVarP(&rollingVcServer, "vcserver", "v", viper.GetString("vcserver"),
		"vCenter server address (alternatively use VSANADM_VCSERVER env variable)")
	rollingCmd.PersistentFlags().StringVarP(&rollingDatacenter, "datacenter", "d", viper.GetString("datacenter"),
		"datacenter name (alternatively use VSANADM_DATACENTER env variable)")
	rollingCmd.PersistentFlags().StringVarP(&rollingCluster, "cluster", "c", viper.GetString("cluster"),
		"cluster name (alternatively use VSANADM_CLUSTER env variable)")
	rollingCmd.PersistentFlags().StringVar(&rollingEsxi, "esxi", "",
		"narrow the operation to one ESXi host by name")
	rollingCmd.PersistentFlags().StringVar(&rollingDatastorePath, "datastore-path", "",
		"datastore path of the patch bundle, e.g. '[datastore1] patches/bundle.zip'")
	rollingCmd.PersistentFlags().StringVar(&rollingLocalPath, "local-path", "",
		"local patch bundle to upload before patching (requires --datastore)")
	rollingCmd.PersistentFlags().StringVar(&rollingDatastore, "datastore", "",
		"datastore to upload the local bundle to")
	rollingCmd.PersistentFlags().BoolVar(&rollingValidate, "validate", false,
		"dry-run only: evaluate the bundle without changing any host")
	rollingCmd.PersistentFlags().StringVar(&rollingMinVersion, "min-version", "",
		"skip hosts whose ESXi version is already at or above this version")
	rollingCmd.PersistentFlags().StringVar(&rollingCfgFile, "config", viper.GetString("config"),
		"path to the vsanadm config file (alternatively use VSANADM_CONFIG env variable)")
	rollingCmd.PersistentFlags().DurationVar(&rollingDeadline, "deadline", 0,
		"bound on each wait during the update, 0 waits forever")
	patchCmd.AddCommand(rollingCmd)
}

func validateRollingFlags() {
	if rollingVcServer == "" {
		cliutil.Fatal("vcserver flag or VSANADM_VCSERVER env variable must be set for 'rolling' sub-command")
	}
	if rollingDatacenter == "" || rollingCluster == "" {
		cliutil.Fatal("datacenter and cluster flags must be set for 'rolling' sub-command")
	}
	if rollingDatastorePath == "" && rollingLocalPath == "" {
		cliutil.Fatal("either datastore-path or local-path must be set for 'rolling' sub-command")
	}
	if rollingLocalPath != "" && rollingDatastore == "" {
		cliutil.Fatal("datastore must be set when local-path is used")
	}
}

func runRolling() {
	ctx, _ := logger.GetNewContextWithLogger()
	vc, err := cliutil.Connect(ctx, rollingVcServer, rollingCfgFile)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	defer vc.Disconnect(ctx)

	dc, err := vc.GetDatacenter(ctx, rollingDatacenter)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	_, hosts, err := vc.ResolveScope(ctx, vsphere.Scope{
		Datacenter: rollingDatacenter,
		Cluster:    rollingCluster,
		Host:       rollingEsxi,
	})
	if err != nil {
		cliutil.Fatal("%v", err)
	}

	bundle := rollingDatastorePath
	if rollingLocalPath != "" {
		bundle, err = dc.UploadToDatastore(ctx, rollingLocalPath, rollingDatastore, "")
		if err != nil {
			cliutil.Fatal("%v", err)
		}
	}

	orchestrator := rollingpatch.Orchestrator{
		Bundle:       bundle,
		ValidateOnly: rollingValidate,
		Policy:       rollingpatch.PollPolicy{Deadline: rollingDeadline},
	}
	if rollingMinVersion != "" {
		minVersion, err := version.NewVersion(rollingMinVersion)
		if err != nil {
			cliutil.Fatal("invalid min-version %q: %v", rollingMinVersion, err)
		}
		orchestrator.MinVersion = minVersion
	}

	targets := make([]rollingpatch.Host, 0, len(hosts))
	for _, host := range hosts {
		targets = append(targets, host)
	}
	reports, err := orchestrator.RollingUpdate(ctx, targets)
	for _, report := range reports {
		fmt.Printf("%s: %s (install %d, remove %d) %s\n", report.Host, report.Final,
			report.Scan.ToInstall, report.Scan.ToRemove, report.Message)
	}
	if err != nil {
		cliutil.Fatal("%v", err)
	}
}
