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

// Package taskmon tracks sets of outstanding asynchronous vCenter
// operations to completion.
package taskmon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// DefaultPollInterval is the delay between polling rounds.
const DefaultPollInterval = 15 * time.Second

// Task is one outstanding operation the monitor can poll.
type Task interface {
	Poll(ctx context.Context) (vsphere.TaskStatus, error)
}

// PollTimeoutError reports that a configured deadline expired while
// operations were still outstanding. It never occurs with the default
// unbounded wait.
type PollTimeoutError struct {
	// Operation describes what was being waited on.
	Operation string
	// Waited is how long the wait lasted.
	Waited time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("gave up waiting for %s after %v", e.Operation, e.Waited.Round(time.Second))
}

// Monitor polls a set of tasks until none is running.
type Monitor struct {
	// PollInterval is the delay between polling rounds. Zero takes
	// DefaultPollInterval.
	PollInterval time.Duration
	// Deadline bounds the whole wait. Zero means wait forever, which
	// matches upstream task semantics: vCenter tasks carry no SLA, so a
	// hung task hangs the monitor unless a deadline is configured.
	Deadline time.Duration
}

// AwaitAll polls every task until no task reports a "running" state,
// compared case-insensitively. Tasks are polled and reported in submission
// order on every round; completion order is unconstrained. The returned
// slice holds each task's last observed status, index-aligned with tasks.
//
// A task whose poll fails is logged, counted as terminal with state
// "error", and not polled again; it does not stop the monitor. The only
// errors returned are context cancellation and, when a deadline is set,
// PollTimeoutError.
func (m *Monitor) AwaitAll(ctx context.Context, tasks []Task) ([]vsphere.TaskStatus, error) {
	log := logger.GetLogger(ctx)
	interval := m.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	start := time.Now()
	var deadlineAt time.Time
	if m.Deadline > 0 {
		deadlineAt = start.Add(m.Deadline)
	}

	final := make([]vsphere.TaskStatus, len(tasks))
	dead := make([]bool, len(tasks))
	for {
		anyRunning := false
		for i, t := range tasks {
			if dead[i] {
				continue
			}
			status, err := t.Poll(ctx)
			if err != nil {
				log.Warnf("failed to poll task for %q, treating as failed. err: %v",
					status.Entity, err)
				status.State = "error"
				dead[i] = true
			}
			final[i] = status
			log.Infof("task for %q is %s", status.Entity, status.State)
			if strings.EqualFold(status.State, "running") {
				anyRunning = true
			}
		}
		if !anyRunning {
			return final, nil
		}
		if !deadlineAt.IsZero() && time.Now().After(deadlineAt) {
			return final, &PollTimeoutError{
				Operation: "outstanding tasks",
				Waited:    time.Since(start),
			}
		}
		select {
		case <-ctx.Done():
			return final, ctx.Err()
		case <-time.After(interval):
		}
	}
}
