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

package rollingpatch

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// fakePatchHost simulates one ESXi host. Maintenance, patch and reboot
// requests mutate its runtime so the orchestrator's wait loops converge
// immediately.
type fakePatchHost struct {
	name    string
	version string
	scan    vsphere.PatchScan
	rt      vsphere.HostRuntime

	// dropsMaintenance makes the host silently leave maintenance mode
	// during patch installation.
	dropsMaintenance bool

	rebootPolls int
	calls       []string
}

func newFakePatchHost(name string, toInstall int) *fakePatchHost {
	return &fakePatchHost{
		name:    name,
		version: "7.0.3",
		scan:    vsphere.PatchScan{ToInstall: toInstall},
		rt:      vsphere.HostRuntime{Connected: true},
	}
}

func (h *fakePatchHost) Name() string { return h.name }

func (h *fakePatchHost) Version(ctx context.Context) (string, error) {
	h.calls = append(h.calls, "Version")
	return h.version, nil
}

func (h *fakePatchHost) Runtime(ctx context.Context) (vsphere.HostRuntime, error) {
	rt := h.rt
	if h.rebootPolls > 0 {
		h.rebootPolls--
		rt.Connected = false
	}
	return rt, nil
}

func (h *fakePatchHost) RequestEnterMaintenance(ctx context.Context) error {
	h.calls = append(h.calls, "EnterMaintenance")
	h.rt.InMaintenance = true
	h.rt.PoweredOnVMs = 0
	return nil
}

func (h *fakePatchHost) RequestExitMaintenance(ctx context.Context) error {
	h.calls = append(h.calls, "ExitMaintenance")
	h.rt.InMaintenance = false
	return nil
}

func (h *fakePatchHost) RequestReboot(ctx context.Context) error {
	h.calls = append(h.calls, "Reboot")
	h.rebootPolls = 1
	return nil
}

func (h *fakePatchHost) ScanPatch(ctx context.Context, bundleURL string) (vsphere.PatchScan, error) {
	h.calls = append(h.calls, "ScanPatch")
	return h.scan, nil
}

func (h *fakePatchHost) ApplyPatch(ctx context.Context, bundleURL string) (vsphere.PatchResult, error) {
	h.calls = append(h.calls, "ApplyPatch")
	if h.dropsMaintenance {
		h.rt.InMaintenance = false
	}
	return vsphere.PatchResult{Message: "installed", RebootRequired: true}, nil
}

func fastPolicy() PollPolicy {
	return PollPolicy{
		MaintenancePoll: time.Millisecond,
		MaintenanceWarn: time.Minute,
		DisconnectPoll:  time.Millisecond,
		ReconnectPoll:   time.Millisecond,
		RebootWarn:      time.Minute,
	}
}

func TestUpdateHostHappyPath(t *testing.T) {
	ctx := context.Background()
	host := newFakePatchHost("esx-01", 3)
	o := &Orchestrator{Bundle: "[ds1] patches/bundle.zip", Policy: fastPolicy()}

	report, err := o.UpdateHost(ctx, host)
	require.NoError(t, err)
	assert.Equal(t, StateDone, report.Final)
	assert.Equal(t, 3, report.Scan.ToInstall)
	assert.Equal(t, "installed", report.Message)
	assert.Equal(t, []string{"ScanPatch", "EnterMaintenance", "ApplyPatch", "Reboot", "ExitMaintenance"},
		host.calls)
	assert.False(t, host.rt.InMaintenance)
}

func TestUpdateHostValidateOnlyNeverEntersMaintenance(t *testing.T) {
	ctx := context.Background()
	host := newFakePatchHost("esx-01", 3)
	o := &Orchestrator{Bundle: "[ds1] patches/bundle.zip", ValidateOnly: true, Policy: fastPolicy()}

	report, err := o.UpdateHost(ctx, host)
	require.NoError(t, err)
	assert.Equal(t, StateNoOpNeeded, report.Final)
	assert.Equal(t, []string{"ScanPatch"}, host.calls)
}

func TestUpdateHostNothingToInstall(t *testing.T) {
	ctx := context.Background()
	host := newFakePatchHost("esx-01", 0)
	o := &Orchestrator{Bundle: "[ds1] patches/bundle.zip", Policy: fastPolicy()}

	report, err := o.UpdateHost(ctx, host)
	require.NoError(t, err)
	assert.Equal(t, StateNoOpNeeded, report.Final)
	assert.Equal(t, []string{"ScanPatch"}, host.calls)
}

func TestUpdateHostMinVersionSkipsWithoutScan(t *testing.T) {
	ctx := context.Background()
	host := newFakePatchHost("esx-01", 3)
	host.version = "8.0.2"
	o := &Orchestrator{
		Bundle:     "[ds1] patches/bundle.zip",
		MinVersion: version.Must(version.NewVersion("8.0.0")),
		Policy:     fastPolicy(),
	}

	report, err := o.UpdateHost(ctx, host)
	require.NoError(t, err)
	assert.Equal(t, StateNoOpNeeded, report.Final)
	assert.Equal(t, []string{"Version"}, host.calls)
}

func TestUpdateHostBelowMinVersionProceeds(t *testing.T) {
	ctx := context.Background()
	host := newFakePatchHost("esx-01", 3)
	host.version = "7.0.3"
	o := &Orchestrator{
		Bundle:     "[ds1] patches/bundle.zip",
		MinVersion: version.Must(version.NewVersion("8.0.0")),
		Policy:     fastPolicy(),
	}

	report, err := o.UpdateHost(ctx, host)
	require.NoError(t, err)
	assert.Equal(t, StateDone, report.Final)
	assert.Contains(t, host.calls, "ScanPatch")
}

func TestUpdateHostUnparseableVersionIsNotFatal(t *testing.T) {
	ctx := context.Background()
	host := newFakePatchHost("esx-01", 0)
	host.version = "unknown-build"
	o := &Orchestrator{
		Bundle:     "[ds1] patches/bundle.zip",
		MinVersion: version.Must(version.NewVersion("8.0.0")),
		Policy:     fastPolicy(),
	}

	report, err := o.UpdateHost(ctx, host)
	require.NoError(t, err)
	// An unknown version cannot satisfy the gate, so the dry run still runs.
	assert.Equal(t, []string{"Version", "ScanPatch"}, host.calls)
	assert.Equal(t, StateNoOpNeeded, report.Final)
}

func TestRollingUpdateHaltsOnMaintenanceDropout(t *testing.T) {
	ctx := context.Background()
	h1 := newFakePatchHost("esx-01", 3)
	h2 := newFakePatchHost("esx-02", 3)
	h2.dropsMaintenance = true
	h3 := newFakePatchHost("esx-03", 3)
	o := &Orchestrator{Bundle: "[ds1] patches/bundle.zip", Policy: fastPolicy()}

	reports, err := o.RollingUpdate(ctx, []Host{h1, h2, h3})
	var mmErr *MaintenanceModeEntryError
	require.ErrorAs(t, err, &mmErr)
	assert.Equal(t, "esx-02", mmErr.Host)

	require.Len(t, reports, 2)
	assert.Equal(t, StateDone, reports[0].Final)
	assert.Equal(t, StateFailed, reports[1].Final)
	// The failed host was never rebooted and the next host was never touched.
	assert.NotContains(t, h2.calls, "Reboot")
	assert.Empty(t, h3.calls)
}

func TestRollingUpdateAllHosts(t *testing.T) {
	ctx := context.Background()
	h1 := newFakePatchHost("esx-01", 1)
	h2 := newFakePatchHost("esx-02", 0)
	o := &Orchestrator{Bundle: "[ds1] patches/bundle.zip", Policy: fastPolicy()}

	reports, err := o.RollingUpdate(ctx, []Host{h1, h2})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, StateDone, reports[0].Final)
	assert.Equal(t, StateNoOpNeeded, reports[1].Final)
}
