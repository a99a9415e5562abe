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

package taskmon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// scriptedTask replays a fixed sequence of states; the last state repeats
// once the script is exhausted.
type scriptedTask struct {
	entity string
	states []string
	errAt  int // 1-based poll number that fails, 0 for never
	polls  int
}

func (t *scriptedTask) Poll(ctx context.Context) (vsphere.TaskStatus, error) {
	t.polls++
	if t.errAt != 0 && t.polls >= t.errAt {
		return vsphere.TaskStatus{Entity: t.entity}, errors.New("poll failed")
	}
	i := t.polls - 1
	if i >= len(t.states) {
		i = len(t.states) - 1
	}
	return vsphere.TaskStatus{Entity: t.entity, State: t.states[i]}, nil
}

func TestAwaitAllPollsUntilNoneRunning(t *testing.T) {
	ctx := context.Background()
	task := &scriptedTask{entity: "esx-01", states: []string{"running", "running", "success"}}
	m := &Monitor{PollInterval: time.Millisecond}

	final, err := m.AwaitAll(ctx, []Task{task})
	require.NoError(t, err)
	require.Len(t, final, 1)
	assert.Equal(t, "success", final[0].State)
	assert.Equal(t, 3, task.polls)
}

func TestAwaitAllReportsInSubmissionOrder(t *testing.T) {
	ctx := context.Background()
	// The second task finishes before the first; the result stays
	// index-aligned with submission order.
	slow := &scriptedTask{entity: "esx-01", states: []string{"running", "running", "success"}}
	fast := &scriptedTask{entity: "esx-02", states: []string{"success"}}
	m := &Monitor{PollInterval: time.Millisecond}

	final, err := m.AwaitAll(ctx, []Task{slow, fast})
	require.NoError(t, err)
	require.Len(t, final, 2)
	assert.Equal(t, "esx-01", final[0].Entity)
	assert.Equal(t, "esx-02", final[1].Entity)
	assert.Equal(t, "success", final[0].State)
	assert.Equal(t, "success", final[1].State)
}

func TestAwaitAllStateComparisonIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	task := &scriptedTask{entity: "esx-01", states: []string{"Running", "success"}}
	m := &Monitor{PollInterval: time.Millisecond}

	_, err := m.AwaitAll(ctx, []Task{task})
	require.NoError(t, err)
	assert.Equal(t, 2, task.polls)
}

func TestAwaitAllFailedPollDoesNotStopMonitor(t *testing.T) {
	ctx := context.Background()
	broken := &scriptedTask{entity: "esx-01", errAt: 1}
	healthy := &scriptedTask{entity: "esx-02", states: []string{"running", "success"}}
	m := &Monitor{PollInterval: time.Millisecond}

	final, err := m.AwaitAll(ctx, []Task{broken, healthy})
	require.NoError(t, err)
	assert.Equal(t, "error", final[0].State)
	assert.Equal(t, "success", final[1].State)
	// The broken task is terminal after its first failed poll.
	assert.Equal(t, 1, broken.polls)
}

func TestAwaitAllDeadline(t *testing.T) {
	ctx := context.Background()
	stuck := &scriptedTask{entity: "esx-01", states: []string{"running"}}
	m := &Monitor{PollInterval: time.Millisecond, Deadline: 10 * time.Millisecond}

	final, err := m.AwaitAll(ctx, []Task{stuck})
	var timeout *PollTimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Len(t, final, 1)
	assert.Equal(t, "running", final[0].State)
}

func TestAwaitAllContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stuck := &scriptedTask{entity: "esx-01", states: []string{"running"}}
	m := &Monitor{PollInterval: time.Minute}

	_, err := m.AwaitAll(ctx, []Task{stuck})
	assert.ErrorIs(t, err, context.Canceled)
}
