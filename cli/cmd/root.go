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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsphere-ops/vsanadm/cli/cmd/diskgroup"
	"github.com/vsphere-ops/vsanadm/cli/cmd/inventory"
	"github.com/vsphere-ops/vsanadm/cli/cmd/patch"
	"github.com/vsphere-ops/vsanadm/cli/cmd/vsancfg"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vsanadm",
	Short: "CLI tool for vSphere/vSAN cluster administration.",
	Long: "A CLI based tool for administering vSAN clusters in VMware vSphere: " +
		"enabling vSAN, provisioning and auditing disk groups, rolling host " +
		"patching and inventory export/import.",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initViper() {
	viper.SetEnvPrefix("vsanadm")
	for _, key := range []string{"vcserver", "datacenter", "cluster", "config"} {
		if err := viper.BindEnv(key); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
	viper.AutomaticEnv() // read in environment variables that match
}

// InitRoot helps initialize vsanadm packages.
func InitRoot(version string) {
	initViper()
	rootCmd.Version = version
	diskgroup.InitDiskGroup(rootCmd)
	patch.InitPatch(rootCmd)
	inventory.InitInventory(rootCmd)
	vsancfg.InitVsan(rootCmd)
}
