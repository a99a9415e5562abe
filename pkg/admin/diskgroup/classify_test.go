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
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

const gib = int64(1024 * 1024 * 1024)

// disk builds a StoragePath for classification tests. The runtime name
// encodes the adapter, e.g. "vmhba1:C0:T2:L0".
func disk(adapter string, target int, display string, capacityGB int64) vsphere.StoragePath {
	return vsphere.StoragePath{
		CanonicalName: fmt.Sprintf("naa.%s%02d", adapter, target),
		RuntimeName:   fmt.Sprintf("%s:C0:T%d:L0", adapter, target),
		DisplayName:   display,
		CapacityBytes: capacityGB * gib,
	}
}

func TestClassifyAdapterSplitsCacheAndCapacity(t *testing.T) {
	ctx := context.Background()
	paths := []vsphere.StoragePath{
		disk("vmhba1", 0, "Local ATA Disk", 1900),
		disk("vmhba1", 1, "Local ATA Disk", 750),
		disk("vmhba1", 2, "Local ATA Disk", 1900),
		disk("vmhba2", 0, "Local ATA Disk", 750),
	}
	c := &AutoClassifier{Adapters: []string{"vmhba1"}}

	spec, err := c.ClassifyAdapter(ctx, "esx-01", paths, "vmhba1")
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "esx-01", spec.Host)
	assert.Equal(t, "vmhba1:C0:T1:L0", spec.Cache.RuntimeName)
	require.Len(t, spec.Capacity, 2)
	assert.Equal(t, "vmhba1:C0:T0:L0", spec.Capacity[0].RuntimeName)
	assert.Equal(t, "vmhba1:C0:T2:L0", spec.Capacity[1].RuntimeName)
}

func TestClassifyAdapterIgnoresNonDiskDevices(t *testing.T) {
	ctx := context.Background()
	paths := []vsphere.StoragePath{
		disk("vmhba1", 0, "Local ATA Disk", 1900),
		disk("vmhba1", 1, "Local ATA Disk", 750),
		disk("vmhba1", 2, "Local USB CD-ROM", 4),
	}
	c := &AutoClassifier{}

	spec, err := c.ClassifyAdapter(ctx, "esx-01", paths, "vmhba1")
	require.NoError(t, err)
	require.NotNil(t, spec)
	require.Len(t, spec.Capacity, 1)
	assert.Equal(t, "vmhba1:C0:T0:L0", spec.Capacity[0].RuntimeName)
}

func TestClassifyAdapterCacheBandIsExclusive(t *testing.T) {
	ctx := context.Background()
	// Exactly 700 and 800 GB are capacity, not cache.
	paths := []vsphere.StoragePath{
		disk("vmhba1", 0, "Local ATA Disk", 700),
		disk("vmhba1", 1, "Local ATA Disk", 800),
	}
	c := &AutoClassifier{}

	spec, err := c.ClassifyAdapter(ctx, "esx-01", paths, "vmhba1")
	require.NoError(t, err)
	assert.Nil(t, spec, "no cache disk means no group")
}

func TestClassifyAdapterLastCacheWins(t *testing.T) {
	ctx := context.Background()
	paths := []vsphere.StoragePath{
		disk("vmhba1", 0, "Local ATA Disk", 750),
		disk("vmhba1", 1, "Local ATA Disk", 760),
		disk("vmhba1", 2, "Local ATA Disk", 1900),
	}
	c := &AutoClassifier{}

	spec, err := c.ClassifyAdapter(ctx, "esx-01", paths, "vmhba1")
	require.NoError(t, err)
	require.NotNil(t, spec)
	// T1 is later in sorted runtime order, so it becomes the cache; T0
	// stays in the capacity set.
	assert.Equal(t, "vmhba1:C0:T1:L0", spec.Cache.RuntimeName)
	require.Len(t, spec.Capacity, 2)
	assert.Equal(t, "vmhba1:C0:T0:L0", spec.Capacity[0].RuntimeName)
}

func TestClassifyAdapterTooManyDisks(t *testing.T) {
	ctx := context.Background()
	var paths []vsphere.StoragePath
	for i := 0; i < 9; i++ {
		paths = append(paths, disk("vmhba1", i, "Local ATA Disk", 1900))
	}
	c := &AutoClassifier{}

	spec, err := c.ClassifyAdapter(ctx, "esx-01", paths, "vmhba1")
	assert.Nil(t, spec)
	var tooMany *TooManyDisksError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, "vmhba1", tooMany.Adapter)
	assert.Equal(t, 9, tooMany.Count)
}

func TestClassifyAdapterIsDeterministic(t *testing.T) {
	ctx := context.Background()
	// Same inventory presented in two different orders.
	ordered := []vsphere.StoragePath{
		disk("vmhba1", 0, "Local ATA Disk", 1900),
		disk("vmhba1", 1, "Local ATA Disk", 750),
		disk("vmhba1", 2, "Local ATA Disk", 1900),
	}
	shuffled := []vsphere.StoragePath{ordered[2], ordered[0], ordered[1]}
	c := &AutoClassifier{}

	a, err := c.ClassifyAdapter(ctx, "esx-01", ordered, "vmhba1")
	require.NoError(t, err)
	b, err := c.ClassifyAdapter(ctx, "esx-01", shuffled, "vmhba1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSelectSkipsFailingAdapters(t *testing.T) {
	ctx := context.Background()
	var paths []vsphere.StoragePath
	// vmhba1 overflows, vmhba2 is fine.
	for i := 0; i < 9; i++ {
		paths = append(paths, disk("vmhba1", i, "Local ATA Disk", 1900))
	}
	paths = append(paths,
		disk("vmhba2", 0, "Local ATA Disk", 750),
		disk("vmhba2", 1, "Local ATA Disk", 1900),
	)
	c := &AutoClassifier{Adapters: []string{"vmhba1", "vmhba2"}}

	specs, err := c.Select(ctx, "esx-01", paths)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "vmhba2:C0:T0:L0", specs[0].Cache.RuntimeName)
}

func TestSelectCustomCacheBand(t *testing.T) {
	ctx := context.Background()
	paths := []vsphere.StoragePath{
		disk("vmhba1", 0, "Local ATA Disk", 400),
		disk("vmhba1", 1, "Local ATA Disk", 1900),
	}
	c := &AutoClassifier{Adapters: []string{"vmhba1"}, MinCacheGB: 300, MaxCacheGB: 500}

	specs, err := c.Select(ctx, "esx-01", paths)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "vmhba1:C0:T0:L0", specs[0].Cache.RuntimeName)
}
