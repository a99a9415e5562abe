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
	exportVcServer string
	exportCfgFile  string
	exportFile     string
)

// exportCmd represents the inventory export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the vCenter inventory to an XML file",
	Run: func(cmd *cobra.Command, args []string) {
		validateExportFlags()
		runExport()
	},
}

// initExport helps initialize exportCmd.
func initExport() {
	exportCmd.PersistentFlags().StringVarP(&exportVcServer, "vcserver", "v", viper.GetString("vcserver"),
		"vCenter server address (alternatively use VSANADM_VCSERVER env variable)")
	exportCmd.PersistentFlags().StringVar(&exportCfgFile, "config", viper.GetString("config"),
		"path to the vsanadm config file (alternatively use VSANADM_CONFIG env variable)")
	exportCmd.PersistentFlags().StringVarP(&exportFile, "file", "f", "",
		"path of the XML file to write")
	inventoryCmd.AddCommand(exportCmd)
}

func validateExportFlags() {
	if exportVcServer == "" {
		cliutil.Fatal("vcserver flag or VSANADM_VCSERVER env variable must be set for 'export' sub-command")
	}
	if exportFile == "" {
		cliutil.Fatal("file flag must be set for 'export' sub-command")
	}
}

func runExport() {
	ctx, _ := logger.GetNewContextWithLogger()
	vc, err := cliutil.Connect(ctx, exportVcServer, exportCfgFile)
	if err != nil {
		cliutil.Fatal("%v", err)
	}
	defer vc.Disconnect(ctx)

	doc, err := inventory.Export(ctx, vc)
	if err != nil {
		cliutil.Fatal("%v", err)
	}

	f, err := os.Create(exportFile)
	if err != nil {
		cliutil.Fatal("failed to create %s: %v", exportFile, err)
	}
	defer f.Close()
	if err := inventory.Save(doc, f); err != nil {
		cliutil.Fatal("failed to write %s: %v", exportFile, err)
	}
	fmt.Printf("exported %d role(s), %d permission(s), %d datacenter(s) to %s\n",
		len(doc.Roles), len(doc.Permissions), len(doc.Datacenters), exportFile)
}
