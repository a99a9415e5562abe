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
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// ManualSelector builds one disk group per host from operator-entered disk
// indexes. The enumerated disk list is written to Out and the selections
// are read from In. Beyond index bounds and the cache/capacity overlap, no
// validation of disk roles is performed; the operator is trusted.
type ManualSelector struct {
	In  io.Reader
	Out io.Writer
}

// Select enumerates the host's disks, prompts for one cache index and a
// comma-separated list of capacity indexes, and returns the resulting
// single-group spec. An out-of-range index fails this host only.
func (s *ManualSelector) Select(ctx context.Context, host string,
	paths []vsphere.StoragePath) ([]Spec, error) {
	fmt.Fprintf(s.Out, "Disks on host %s:\n", host)
	for i, p := range paths {
		fmt.Fprintf(s.Out, "  [%d] %-16s %-40s %8.0f GB\n",
			i, p.RuntimeName, p.CanonicalName, p.CapacityGB())
	}

	reader := bufio.NewReader(s.In)

	fmt.Fprint(s.Out, "Cache disk index: ")
	cacheIdx, err := readIndex(reader, len(paths))
	if err != nil {
		return nil, err
	}

	fmt.Fprint(s.Out, "Capacity disk indexes (comma-separated): ")
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	var capacity []vsphere.StoragePath
	for _, field := range strings.Split(strings.TrimSpace(line), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		idx, err := strconv.Atoi(field)
		if err != nil || idx < 0 || idx >= len(paths) {
			return nil, &InvalidSelectionError{Index: idx, Count: len(paths)}
		}
		if idx == cacheIdx {
			return nil, &InvalidSelectionError{Index: idx, Count: len(paths)}
		}
		capacity = append(capacity, paths[idx])
	}
	if len(capacity) == 0 {
		return nil, &InvalidSelectionError{Index: -1, Count: len(paths)}
	}
	return []Spec{{Host: host, Cache: paths[cacheIdx], Capacity: capacity}}, nil
}

func readIndex(reader *bufio.Reader, count int) (int, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 0, err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 0 || idx >= count {
		return 0, &InvalidSelectionError{Index: idx, Count: count}
	}
	return idx, nil
}
