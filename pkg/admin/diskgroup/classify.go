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

// Package diskgroup computes and provisions vSAN disk groups. Disks are
// classified into one cache disk and a set of capacity disks per group,
// either automatically by a per-adapter capacity heuristic or manually by
// an operator selecting device indexes.
package diskgroup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

const (
	// DefaultMinCacheGB is the default lower capacity bound, exclusive,
	// for a disk to be picked as cache.
	DefaultMinCacheGB = 700
	// DefaultMaxCacheGB is the default upper capacity bound, exclusive,
	// for a disk to be picked as cache.
	DefaultMaxCacheGB = 800
	// maxDisksPerAdapter caps the candidate disks on one adapter. A
	// cache plus seven capacity disks is the supported maximum layout.
	maxDisksPerAdapter = 8
)

// Spec is a proposed disk group on one host: one cache disk and at least
// one capacity disk. The cache disk is never part of the capacity set.
type Spec struct {
	// Host is the name of the target host.
	Host string
	// Cache is the cache disk.
	Cache vsphere.StoragePath
	// Capacity is the non-empty set of capacity disks.
	Capacity []vsphere.StoragePath
}

// TooManyDisksError reports that automatic classification found more
// candidate disks on one adapter than a single disk group supports.
type TooManyDisksError struct {
	// Adapter is the storage adapter, e.g. "vmhba1".
	Adapter string
	// Count is the number of candidate disks found.
	Count int
}

func (e *TooManyDisksError) Error() string {
	return fmt.Sprintf("adapter %q has %d candidate disks, at most %d are supported per disk group",
		e.Adapter, e.Count, maxDisksPerAdapter)
}

// InvalidSelectionError reports a manual disk index outside the enumerated
// device list.
type InvalidSelectionError struct {
	// Index is the offending index.
	Index int
	// Count is the number of enumerated devices.
	Count int
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("disk index %d is out of range, host has %d disks", e.Index, e.Count)
}

// Selector computes the disk groups to create on one host from its current
// disk inventory.
type Selector interface {
	Select(ctx context.Context, host string, paths []vsphere.StoragePath) ([]Spec, error)
}

// AutoClassifier selects disks automatically: one disk group per entry in
// Adapters, with the cache disk picked by a capacity band heuristic.
type AutoClassifier struct {
	// Adapters assigns one storage adapter per disk group slot.
	Adapters []string
	// MinCacheGB and MaxCacheGB bound, exclusively, the capacity band
	// identifying a cache disk. Zero values take the defaults.
	MinCacheGB float64
	MaxCacheGB float64
}

func (c *AutoClassifier) bounds() (float64, float64) {
	minGB, maxGB := c.MinCacheGB, c.MaxCacheGB
	if minGB == 0 {
		minGB = DefaultMinCacheGB
	}
	if maxGB == 0 {
		maxGB = DefaultMaxCacheGB
	}
	return minGB, maxGB
}

// ClassifyAdapter partitions the disks on one adapter into a cache disk and
// capacity disks. It returns nil with no error when the adapter yields no
// usable group (no cache-band disk, or no capacity disk); the skip is
// logged. A TooManyDisksError aborts the slot without aborting the host.
//
// Candidates are the paths whose runtime name contains the adapter
// identifier and whose display name contains "disk", sorted by runtime name
// so classification is reproducible for a fixed inventory. When several
// disks fall in the cache band, the last one in sorted order wins; earlier
// ones are dropped from the group entirely. That overwrite mirrors the
// behavior this tool has always had. See DESIGN.md before changing it.
func (c *AutoClassifier) ClassifyAdapter(ctx context.Context, host string,
	paths []vsphere.StoragePath, adapter string) (*Spec, error) {
	log := logger.GetLogger(ctx)
	minGB, maxGB := c.bounds()

	var candidates []vsphere.StoragePath
	for _, p := range paths {
		if strings.Contains(p.RuntimeName, adapter) &&
			strings.Contains(strings.ToLower(p.DisplayName), "disk") {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].RuntimeName < candidates[j].RuntimeName
	})

	if len(candidates) > maxDisksPerAdapter {
		return nil, &TooManyDisksError{Adapter: adapter, Count: len(candidates)}
	}

	var cache *vsphere.StoragePath
	var capacity []vsphere.StoragePath
	for i := range candidates {
		gb := candidates[i].CapacityGB()
		if gb > minGB && gb < maxGB {
			cache = &candidates[i]
		} else {
			capacity = append(capacity, candidates[i])
		}
	}

	if cache == nil || len(capacity) == 0 {
		log.Warnf("host %q adapter %q: no disk group possible (cache found: %v, capacity disks: %d)",
			host, adapter, cache != nil, len(capacity))
		return nil, nil
	}
	return &Spec{Host: host, Cache: *cache, Capacity: capacity}, nil
}

// Select computes one disk group per configured adapter. Adapters that
// yield no group, including those failing with TooManyDisksError, are
// skipped with a log entry; the remaining adapters still produce groups.
func (c *AutoClassifier) Select(ctx context.Context, host string,
	paths []vsphere.StoragePath) ([]Spec, error) {
	log := logger.GetLogger(ctx)
	var specs []Spec
	for _, adapter := range c.Adapters {
		spec, err := c.ClassifyAdapter(ctx, host, paths, adapter)
		if err != nil {
			log.Warnf("host %q: skipping adapter %q: %v", host, adapter, err)
			continue
		}
		if spec == nil {
			continue
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}
