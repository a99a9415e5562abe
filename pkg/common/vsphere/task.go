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

package vsphere

import (
	"context"

	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// TaskStatus is one observation of an outstanding vCenter task.
type TaskStatus struct {
	// Entity is the name of the object the task operates on.
	Entity string
	// State is the task state as reported by vCenter: one of queued,
	// running, success, error.
	State string
}

// TrackedTask follows one asynchronous vCenter operation. It is created at
// submission time and polled until a terminal state is observed.
type TrackedTask struct {
	client *vim25.Client
	ref    types.ManagedObjectReference
	entity string
}

// NewTrackedTask wraps the given task reference. The entity name is used in
// reports when the task info does not carry one.
func NewTrackedTask(client *vim25.Client, ref types.ManagedObjectReference, entity string) *TrackedTask {
	return &TrackedTask{client: client, ref: ref, entity: entity}
}

// Poll reads the task's current state from vCenter.
func (t *TrackedTask) Poll(ctx context.Context) (TaskStatus, error) {
	var taskMo mo.Task
	pc := property.DefaultCollector(t.client)
	if err := pc.RetrieveOne(ctx, t.ref, []string{"info"}, &taskMo); err != nil {
		return TaskStatus{Entity: t.entity}, err
	}
	entity := taskMo.Info.EntityName
	if entity == "" {
		entity = t.entity
	}
	return TaskStatus{Entity: entity, State: string(taskMo.Info.State)}, nil
}
