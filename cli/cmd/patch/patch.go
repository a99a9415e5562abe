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
	"github.com/spf13/cobra"
)

// patchCmd represents the patch command.
var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "ESXi host patching operations",
	Long:  "Evaluate and apply offline patch bundles to the ESXi hosts of a cluster.",
}

// InitPatch helps initialize the patch command and its subcommands.
func InitPatch(root *cobra.Command) {
	root.AddCommand(patchCmd)
	initRolling()
}
