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
	"crypto/tls"
	"errors"
	"net"
	"sort"
	"testing"

	"github.com/vmware/govmomi/simulator"

	"github.com/vsphere-ops/vsanadm/pkg/common/config"
)

// newSimulatorVC starts a vcsim VPX instance and returns a connected
// VirtualCenter against it. The default VPX model carries datacenter DC0
// with cluster DC0_C0 and three clustered hosts.
func newSimulatorVC(t *testing.T) (context.Context, *VirtualCenter) {
	t.Helper()
	ctx := context.Background()

	model := simulator.VPX()
	if err := model.Create(); err != nil {
		t.Fatalf("failed to create simulator model, err: %v", err)
	}
	model.Service.TLS = new(tls.Config)
	s := model.Service.NewServer()
	t.Cleanup(func() {
		s.Close()
		model.Remove()
	})

	host, port, err := net.SplitHostPort(s.URL.Host)
	if err != nil {
		t.Fatalf("failed to split simulator address %q, err: %v", s.URL.Host, err)
	}
	password, _ := s.URL.User.Password()

	cfg := &config.Config{}
	cfg.Global.User = s.URL.User.Username()
	cfg.Global.Password = password
	cfg.Global.Port = port
	cfg.Global.InsecureFlag = true

	vc := NewVirtualCenter(cfg, host)
	if err := vc.Connect(ctx); err != nil {
		t.Fatalf("failed to connect to simulator vCenter, err: %v", err)
	}
	t.Cleanup(func() { vc.Disconnect(ctx) })
	return ctx, vc
}

func TestGetDatacenter(t *testing.T) {
	ctx, vc := newSimulatorVC(t)

	dc, err := vc.GetDatacenter(ctx, "DC0")
	if err != nil {
		t.Fatalf("failed to get datacenter, err: %v", err)
	}
	if dc.Name() != "DC0" {
		t.Errorf("unexpected datacenter name %q", dc.Name())
	}

	_, err = vc.GetDatacenter(ctx, "no-such-dc")
	if !errors.Is(err, ErrDatacenterNotFound) {
		t.Errorf("expected ErrDatacenterNotFound, got %v", err)
	}
}

func TestGetCluster(t *testing.T) {
	ctx, vc := newSimulatorVC(t)
	dc, err := vc.GetDatacenter(ctx, "DC0")
	if err != nil {
		t.Fatalf("failed to get datacenter, err: %v", err)
	}

	cluster, err := dc.GetCluster(ctx, "DC0_C0")
	if err != nil {
		t.Fatalf("failed to get cluster, err: %v", err)
	}
	if cluster.Name() != "DC0_C0" {
		t.Errorf("unexpected cluster name %q", cluster.Name())
	}

	_, err = dc.GetCluster(ctx, "no-such-cluster")
	if !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestGetHostsSortedByName(t *testing.T) {
	ctx, vc := newSimulatorVC(t)
	dc, err := vc.GetDatacenter(ctx, "DC0")
	if err != nil {
		t.Fatalf("failed to get datacenter, err: %v", err)
	}
	cluster, err := dc.GetCluster(ctx, "DC0_C0")
	if err != nil {
		t.Fatalf("failed to get cluster, err: %v", err)
	}

	hosts, err := cluster.GetHosts(ctx)
	if err != nil {
		t.Fatalf("failed to get hosts, err: %v", err)
	}
	if len(hosts) == 0 {
		t.Fatal("expected at least one host in DC0_C0")
	}
	names := make([]string, 0, len(hosts))
	for _, h := range hosts {
		names = append(names, h.Name())
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("hosts are not sorted by name: %v", names)
	}

	host, err := cluster.GetHost(ctx, names[0])
	if err != nil {
		t.Fatalf("failed to get host %q, err: %v", names[0], err)
	}
	if host.Name() != names[0] {
		t.Errorf("unexpected host name %q", host.Name())
	}

	_, err = cluster.GetHost(ctx, "no-such-host")
	if !errors.Is(err, ErrHostNotFound) {
		t.Errorf("expected ErrHostNotFound, got %v", err)
	}
}

func TestResolveScope(t *testing.T) {
	ctx, vc := newSimulatorVC(t)

	cluster, hosts, err := vc.ResolveScope(ctx, Scope{Datacenter: "DC0", Cluster: "DC0_C0"})
	if err != nil {
		t.Fatalf("failed to resolve scope, err: %v", err)
	}
	if cluster.Name() != "DC0_C0" {
		t.Errorf("unexpected cluster name %q", cluster.Name())
	}
	if len(hosts) == 0 {
		t.Fatal("expected hosts from cluster-wide scope")
	}

	_, narrowed, err := vc.ResolveScope(ctx,
		Scope{Datacenter: "DC0", Cluster: "DC0_C0", Host: hosts[0].Name()})
	if err != nil {
		t.Fatalf("failed to resolve narrowed scope, err: %v", err)
	}
	if len(narrowed) != 1 || narrowed[0].Name() != hosts[0].Name() {
		t.Errorf("expected single host %q, got %v", hosts[0].Name(), narrowed)
	}

	_, _, err = vc.ResolveScope(ctx, Scope{Datacenter: "DC0", Cluster: "no-such-cluster"})
	if !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestHostRuntime(t *testing.T) {
	ctx, vc := newSimulatorVC(t)
	_, hosts, err := vc.ResolveScope(ctx, Scope{Datacenter: "DC0", Cluster: "DC0_C0"})
	if err != nil {
		t.Fatalf("failed to resolve scope, err: %v", err)
	}

	rt, err := hosts[0].Runtime(ctx)
	if err != nil {
		t.Fatalf("failed to read host runtime, err: %v", err)
	}
	if !rt.Connected {
		t.Error("expected simulator host to be connected")
	}
	if rt.InMaintenance {
		t.Error("expected simulator host to not be in maintenance mode")
	}
}

func TestEnableVsanTask(t *testing.T) {
	ctx, vc := newSimulatorVC(t)
	dc, err := vc.GetDatacenter(ctx, "DC0")
	if err != nil {
		t.Fatalf("failed to get datacenter, err: %v", err)
	}
	cluster, err := dc.GetCluster(ctx, "DC0_C0")
	if err != nil {
		t.Fatalf("failed to get cluster, err: %v", err)
	}

	task, err := cluster.EnableVsan(ctx, false)
	if err != nil {
		t.Fatalf("failed to submit vSAN reconfigure, err: %v", err)
	}
	status, err := task.Poll(ctx)
	if err != nil {
		t.Fatalf("failed to poll reconfigure task, err: %v", err)
	}
	if status.State == "" {
		t.Error("expected a task state from the simulator")
	}
}
