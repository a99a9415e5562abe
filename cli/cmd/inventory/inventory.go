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
	"github.com/spf13/cobra"
)

// inventoryCmd represents the inventory command group.
var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Export or import the vCenter inventory layout",
	Long: "Export roles, permissions, datacenters, clusters, affinity rules " +
		"and host/VM placement to an XML document, or recreate a compatible " +
		"subset of them on another vCenter.",
}

// InitInventory helps initialize inventoryCmd along with its sub-commands.
func InitInventory(root *cobra.Command) {
	root.AddCommand(inventoryCmd)
	initExport()
	initImport()
}
