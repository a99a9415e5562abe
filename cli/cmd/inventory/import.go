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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsphere-ops/vsanadm/cli/cmd/cliutil"
	"github.com/vsphere-ops/vsanadm/pkg/admin/inventory"
	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

var (
	importVcServer string
	importCfgFile  string
	importFile     string
)

// importCmd represents the inventory import command.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Recreate inventory objects from an exported XML file",
	Long: "Read an inventory XML document and create missing roles, " +
		"datacenters, clusters, affinity rules and permissions on the " +
		"target vCenter. Hosts and virtual machines are never created; " +
		"they are reported as skipped.",
	Run: func(cmd *cobra.Command, args []string) {
		validateImportFlags()
		runImport()
	},
}

// initImport helps initialize importCmd.
func initImport() {
	importCmd.PersistentFlags().StringVarP(&importVcServer, "vcserver", "v", viper.GetString("vcserver"),
		"vCenter server address (alternatively use VSANADM_VCSERVER env variable)")
	importCmd.PersistentFlags().StringVar(&importCfgFile, "config", viper.GetString("config"),
		"path to the vsanadm config file (alternatively use VSANADM_CONFIG env variable)")
	importCmd.PersistentFlags().StringVarP(&importFile, "file", "f", "",
		"path of the XML file to read")
	inventoryCmd.AddCommand(importCmd)
}

func validateImportFlags() {
	if importVcServer == "" {
		cliutil.Fatal("vcserver flag or VSANADM_VCSERVER env variable must be set for 'import' sub-command")
	}
	if importFile == "" {
		cliutil.Fatal("file flag must be set for 'import' sub-command")
	}
}

func runImport() {
	ctx, _ := logger.GetNewContextWithLogger()

	f, err := os.Open(importFile)
	if err != nil {
		cliutil.Fatal("failed to open %s: %v", importFile, err)
	}
	doc, err := inventory.Load(f)
	f.Close()
	if err != nil {
		cliutil.Fatal("failed to parse %s: %v", importFile, err)
	}

	vc, err := cliutil.Connect(ctx, importVcServer, importCfgFile)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	defer vc.Disconnect(ctx)

	report, err := inventory.Import(ctx, vc, doc)
	if report != nil {
		fmt.Printf("created %d role(s), %d datacenter(s), %d cluster(s)\n",
			report.RolesCreated, report.DatacentersCreated, report.ClustersCreated)
		fmt.Printf("applied %d rule(s), %d permission(s)\n",
			report.RulesApplied, report.PermissionsApplied)
		for _, s := range report.Skipped {
			fmt.Printf("skipped: %s\n", s)
		}
	}
	if err != nil {
		cliutil.Fatal("%v", err)
	}
}
