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
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

func manualPaths() []vsphere.StoragePath {
	return []vsphere.StoragePath{
		disk("vmhba1", 0, "Local ATA Disk", 1900),
		disk("vmhba1", 1, "Local ATA Disk", 750),
		disk("vmhba1", 2, "Local ATA Disk", 1900),
		disk("vmhba1", 3, "Local ATA Disk", 1900),
		disk("vmhba1", 4, "Local ATA Disk", 1900),
	}
}

func TestManualSelectorValidSelection(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	s := &ManualSelector{In: strings.NewReader("1\n0, 2,3\n"), Out: &out}

	specs, err := s.Select(ctx, "esx-01", manualPaths())
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "vmhba1:C0:T1:L0", specs[0].Cache.RuntimeName)
	require.Len(t, specs[0].Capacity, 3)
	assert.Equal(t, "vmhba1:C0:T0:L0", specs[0].Capacity[0].RuntimeName)
	// The prompt enumerates every disk with its index.
	assert.Contains(t, out.String(), "[4]")
}

func TestManualSelectorOutOfRangeIndex(t *testing.T) {
	ctx := context.Background()
	s := &ManualSelector{In: strings.NewReader("9\n"), Out: &bytes.Buffer{}}

	specs, err := s.Select(ctx, "esx-01", manualPaths())
	assert.Nil(t, specs)
	var invalid *InvalidSelectionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 9, invalid.Index)
	assert.Equal(t, 5, invalid.Count)
}

func TestManualSelectorCacheInCapacitySet(t *testing.T) {
	ctx := context.Background()
	s := &ManualSelector{In: strings.NewReader("1\n0,1\n"), Out: &bytes.Buffer{}}

	specs, err := s.Select(ctx, "esx-01", manualPaths())
	assert.Nil(t, specs)
	var invalid *InvalidSelectionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
}

func TestManualSelectorEmptyCapacity(t *testing.T) {
	ctx := context.Background()
	s := &ManualSelector{In: strings.NewReader("1\n\n"), Out: &bytes.Buffer{}}

	specs, err := s.Select(ctx, "esx-01", manualPaths())
	assert.Nil(t, specs)
	var invalid *InvalidSelectionError
	require.ErrorAs(t, err, &invalid)
}
