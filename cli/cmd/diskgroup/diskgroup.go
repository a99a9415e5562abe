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
	"github.com/spf13/cobra"
)

// diskgroupCmd represents the diskgroup command.
var diskgroupCmd = &cobra.Command{
	Use:   "diskgroup",
	Short: "vSAN disk group operations",
	Long:  "Provision and audit vSAN disk groups across the hosts of a cluster.",
}

// InitDiskGroup helps initialize the diskgroup command and its subcommands.
func InitDiskGroup(root *cobra.Command) {
	root.AddCommand(diskgroupCmd)
	initCreate()
	initAudit()
}
