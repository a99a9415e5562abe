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

// Package rollingpatch drives offline ESXi host patching: dry-run
// evaluation, maintenance mode entry, patch installation, reboot and
// maintenance mode exit, one host at a time across a cluster.
package rollingpatch

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/vsphere-ops/vsanadm/pkg/admin/taskmon"
	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
	"github.com/vsphere-ops/vsanadm/pkg/common/vsphere"
)

// State is one step of the per-host update state machine.
type State string

const (
	StateIdle                State = "Idle"
	StateDryRun              State = "DryRun"
	StateNoOpNeeded          State = "NoOpNeeded"
	StateEnteringMaintenance State = "EnteringMaintenance"
	StateInMaintenance       State = "InMaintenance"
	StatePatching            State = "Patching"
	StateRebooting           State = "Rebooting"
	StateDisconnected        State = "Disconnected"
	StateReconnecting        State = "Reconnecting"
	StateExitingMaintenance  State = "ExitingMaintenance"
	StateDone                State = "Done"
	StateFailed              State = "Failed"
)

// MaintenanceModeEntryError reports a host that never reached maintenance
// mode. Forcing a reboot on such a host is unsafe, so this error halts the
// entire rolling update instead of skipping to the next host.
type MaintenanceModeEntryError struct {
	Host string
}

func (e *MaintenanceModeEntryError) Error() string {
	return fmt.Sprintf("host %q never entered maintenance mode, halting rolling update", e.Host)
}

// Host is the view of one ESXi host the orchestrator needs.
// *vsphere.HostSystem implements it.
type Host interface {
	Name() string
	Version(ctx context.Context) (string, error)
	Runtime(ctx context.Context) (vsphere.HostRuntime, error)
	RequestEnterMaintenance(ctx context.Context) error
	RequestExitMaintenance(ctx context.Context) error
	RequestReboot(ctx context.Context) error
	ScanPatch(ctx context.Context, bundleURL string) (vsphere.PatchScan, error)
	ApplyPatch(ctx context.Context, bundleURL string) (vsphere.PatchResult, error)
}

// PollPolicy holds the polling and warning cadence of the orchestrator's
// wait loops.
type PollPolicy struct {
	// MaintenancePoll is the interval for maintenance mode entry and
	// exit polls.
	MaintenancePoll time.Duration
	// MaintenanceWarn is how often to warn while a maintenance wait
	// keeps going. The warning is informational; polling continues.
	MaintenanceWarn time.Duration
	// DisconnectPoll is the interval for polls awaiting the reboot
	// disconnect.
	DisconnectPoll time.Duration
	// ReconnectPoll is the interval for polls awaiting the post-reboot
	// reconnect.
	ReconnectPoll time.Duration
	// RebootWarn is how often to warn while a reboot wait keeps going.
	RebootWarn time.Duration
	// Deadline bounds each individual wait. Zero means wait forever,
	// which is the compatible default.
	Deadline time.Duration
}

// DefaultPollPolicy returns the standard cadence.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		MaintenancePoll: 10 * time.Second,
		MaintenanceWarn: 4 * time.Minute,
		DisconnectPoll:  5 * time.Second,
		ReconnectPoll:   10 * time.Second,
		RebootWarn:      5 * time.Minute,
	}
}

// HostReport is the outcome of one host's update.
type HostReport struct {
	// Host is the host name.
	Host string
	// Final is the state the host ended in.
	Final State
	// Scan is the dry-run evaluation outcome, when one ran.
	Scan vsphere.PatchScan
	// Message carries the platform's installation result or the skip
	// reason.
	Message string
}

// Orchestrator runs the per-host update state machine.
type Orchestrator struct {
	// Bundle is the patch bundle location, a datastore path or URL.
	Bundle string
	// ValidateOnly stops after the dry-run evaluation.
	ValidateOnly bool
	// MinVersion, when set, skips hosts whose ESXi version is already at
	// or above it without evaluating the bundle.
	MinVersion *version.Version
	// Policy is the polling cadence. The zero value takes
	// DefaultPollPolicy.
	Policy PollPolicy
}

func (o *Orchestrator) policy() PollPolicy {
	p := o.Policy
	def := DefaultPollPolicy()
	if p.MaintenancePoll <= 0 {
		p.MaintenancePoll = def.MaintenancePoll
	}
	if p.MaintenanceWarn <= 0 {
		p.MaintenanceWarn = def.MaintenanceWarn
	}
	if p.DisconnectPoll <= 0 {
		p.DisconnectPoll = def.DisconnectPoll
	}
	if p.ReconnectPoll <= 0 {
		p.ReconnectPoll = def.ReconnectPoll
	}
	if p.RebootWarn <= 0 {
		p.RebootWarn = def.RebootWarn
	}
	return p
}

// RollingUpdate updates every host strictly in order, at most one host out
// of service at a time. Any per-host failure halts the update: a host in an
// unexpected state makes proceeding to the next host unsafe. The reports
// cover the hosts processed up to and including the failure.
func (o *Orchestrator) RollingUpdate(ctx context.Context, hosts []Host) ([]HostReport, error) {
	log := logger.GetLogger(ctx)
	var reports []HostReport
	for _, host := range hosts {
		report, err := o.UpdateHost(ctx, host)
		reports = append(reports, *report)
		if err != nil {
			log.Errorf("rolling update halted at host %q: %v", host.Name(), err)
			return reports, err
		}
	}
	return reports, nil
}

// UpdateHost drives one host through the update state machine.
func (o *Orchestrator) UpdateHost(ctx context.Context, host Host) (*HostReport, error) {
	log := logger.GetLogger(ctx)
	p := o.policy()
	report := &HostReport{Host: host.Name(), Final: StateIdle}
	step := func(next State) {
		log.Infof("host %q: %s -> %s", host.Name(), report.Final, next)
		report.Final = next
	}
	fail := func(err error) (*HostReport, error) {
		report.Final = StateFailed
		return report, err
	}

	if o.MinVersion != nil {
		current, err := o.hostVersion(ctx, host)
		if err != nil {
			return fail(err)
		}
		if current != nil && current.GreaterThanOrEqual(o.MinVersion) {
			step(StateNoOpNeeded)
			report.Message = fmt.Sprintf("version %s already at or above %s",
				current, o.MinVersion)
			log.Infof("host %q: %s", host.Name(), report.Message)
			return report, nil
		}
	}

	step(StateDryRun)
	scan, err := host.ScanPatch(ctx, o.Bundle)
	if err != nil {
		return fail(err)
	}
	report.Scan = scan
	log.Infof("host %q: dry run: %d to install, %d to remove",
		host.Name(), scan.ToInstall, scan.ToRemove)
	if o.ValidateOnly || scan.ToInstall == 0 {
		step(StateNoOpNeeded)
		report.Message = "nothing to install"
		if o.ValidateOnly {
			report.Message = "validate-only run"
		}
		return report, nil
	}

	step(StateEnteringMaintenance)
	if err := host.RequestEnterMaintenance(ctx); err != nil {
		return fail(err)
	}
	err = o.waitUntil(ctx, host.Name(), "maintenance mode entry",
		p.MaintenancePoll, p.MaintenanceWarn, func(ctx context.Context) (bool, error) {
			rt, err := host.Runtime(ctx)
			if err != nil {
				return false, err
			}
			return rt.InMaintenance && rt.PoweredOnVMs == 0, nil
		})
	if err != nil {
		return fail(err)
	}
	step(StateInMaintenance)

	step(StatePatching)
	result, err := host.ApplyPatch(ctx, o.Bundle)
	if err != nil {
		return fail(err)
	}
	report.Message = result.Message
	log.Infof("host %q: patch applied: %s", host.Name(), result.Message)

	// Re-check before forcing the reboot. A host that reports no
	// maintenance mode here still carries VMs, so the whole rolling
	// update must stop rather than continue to the next host.
	rt, err := host.Runtime(ctx)
	if err != nil {
		return fail(err)
	}
	if !rt.InMaintenance {
		return fail(&MaintenanceModeEntryError{Host: host.Name()})
	}

	step(StateRebooting)
	if err := host.RequestReboot(ctx); err != nil {
		return fail(err)
	}
	err = o.waitUntil(ctx, host.Name(), "reboot disconnect",
		p.DisconnectPoll, p.RebootWarn, func(ctx context.Context) (bool, error) {
			rt, err := host.Runtime(ctx)
			if err != nil {
				return false, err
			}
			return !rt.Connected, nil
		})
	if err != nil {
		return fail(err)
	}
	step(StateDisconnected)

	step(StateReconnecting)
	err = o.waitUntil(ctx, host.Name(), "reconnect after reboot",
		p.ReconnectPoll, p.RebootWarn, func(ctx context.Context) (bool, error) {
			rt, err := host.Runtime(ctx)
			if err != nil {
				return false, err
			}
			return rt.Connected, nil
		})
	if err != nil {
		return fail(err)
	}

	step(StateExitingMaintenance)
	if err := host.RequestExitMaintenance(ctx); err != nil {
		return fail(err)
	}
	err = o.waitUntil(ctx, host.Name(), "maintenance mode exit",
		p.MaintenancePoll, p.MaintenanceWarn, func(ctx context.Context) (bool, error) {
			rt, err := host.Runtime(ctx)
			if err != nil {
				return false, err
			}
			return !rt.InMaintenance, nil
		})
	if err != nil {
		return fail(err)
	}

	step(StateDone)
	return report, nil
}

// hostVersion parses the host's ESXi version. An unparseable version is
// logged and treated as unknown rather than failing the host.
func (o *Orchestrator) hostVersion(ctx context.Context, host Host) (*version.Version, error) {
	log := logger.GetLogger(ctx)
	raw, err := host.Version(ctx)
	if err != nil {
		return nil, err
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		log.Warnf("host %q reports unparseable version %q: %v", host.Name(), raw, err)
		return nil, nil
	}
	return v, nil
}

// waitUntil polls cond at the given interval until it reports true, warning
// every warnEvery while the wait keeps going. The wait is unbounded unless
// the policy configures a deadline, in which case expiry yields a
// PollTimeoutError. Cancelling ctx aborts the wait.
func (o *Orchestrator) waitUntil(ctx context.Context, host, what string,
	interval, warnEvery time.Duration, cond func(context.Context) (bool, error)) error {
	log := logger.GetLogger(ctx)
	start := time.Now()
	lastWarn := start
	var deadlineAt time.Time
	if o.Policy.Deadline > 0 {
		deadlineAt = start.Add(o.Policy.Deadline)
	}
	for {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !deadlineAt.IsZero() && time.Now().After(deadlineAt) {
			return &taskmon.PollTimeoutError{
				Operation: fmt.Sprintf("%s on host %q", what, host),
				Waited:    time.Since(start),
			}
		}
		if time.Since(lastWarn) >= warnEvery {
			log.Warnf("still waiting for %s on host %q after %v",
				what, host, time.Since(start).Round(time.Second))
			lastWarn = time.Now()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
