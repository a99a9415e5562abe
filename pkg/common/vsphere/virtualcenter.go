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
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"time"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"

	"github.com/vsphere-ops/vsanadm/pkg/common/config"
	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

const (
	// DefaultScheme is the default connection scheme.
	DefaultScheme = "https"
	// DefaultRoundTripperCount is the default SOAP round tripper count.
	DefaultRoundTripperCount = 3
)

// VirtualCenter holds one authenticated connection to a vCenter server.
// Instances are created explicitly and passed by reference to every
// component; there is no process-wide connection state.
type VirtualCenter struct {
	// Host is the vCenter host address.
	Host string
	// Config holds the effective settings for this vCenter.
	Config *config.VirtualCenterConfig
	// Client is the govmomi client instance for the connection.
	Client *govmomi.Client
	// ClientTimeout bounds individual SOAP requests. Zero means the
	// govmomi default.
	ClientTimeout time.Duration
}

func (vc *VirtualCenter) String() string {
	return fmt.Sprintf("VirtualCenter [Host: %q, Client: %v]", vc.Host, vc.Client)
}

// NewVirtualCenter builds an unconnected VirtualCenter for the given host
// using the effective settings from cfg.
func NewVirtualCenter(cfg *config.Config, host string) *VirtualCenter {
	return &VirtualCenter{
		Host:          host,
		Config:        cfg.ForVirtualCenter(host),
		ClientTimeout: time.Duration(cfg.Global.ClientTimeoutMinutes) * time.Minute,
	}
}

// newClient creates a new govmomi client instance and logs in.
func (vc *VirtualCenter) newClient(ctx context.Context) (*govmomi.Client, error) {
	log := logger.GetLogger(ctx)
	if vc.Config.User == "" {
		return nil, config.ErrUsernameMissing
	}
	if vc.Config.Password == "" {
		return nil, config.ErrPasswordMissing
	}

	url, err := soap.ParseURL(net.JoinHostPort(vc.Host, vc.Config.Port))
	if err != nil {
		log.Errorf("failed to parse URL for host %q with err: %v", vc.Host, err)
		return nil, err
	}

	soapClient := soap.NewClient(url, vc.Config.InsecureFlag)
	if len(vc.Config.CAFile) > 0 && !vc.Config.InsecureFlag {
		if err := soapClient.SetRootCAs(vc.Config.CAFile); err != nil {
			log.Errorf("failed to load CA file: %v", err)
			return nil, err
		}
	} else if len(vc.Config.Thumbprint) > 0 && !vc.Config.InsecureFlag {
		soapClient.SetThumbprint(url.Host, vc.Config.Thumbprint)
		log.Debugf("using thumbprint %s for url %s", vc.Config.Thumbprint, url.Host)
	}
	soapClient.Timeout = vc.ClientTimeout

	vimClient, err := vim25.NewClient(ctx, soapClient)
	if err != nil {
		log.Errorf("failed to create new vim client with err: %v", err)
		return nil, err
	}
	vimClient.UserAgent = "vsanadm-useragent"

	client := &govmomi.Client{
		Client:         vimClient,
		SessionManager: session.NewManager(vimClient),
	}
	err = client.SessionManager.Login(ctx,
		neturl.UserPassword(vc.Config.User, vc.Config.Password))
	if err != nil {
		log.Errorf("failed to login to vCenter %q with err: %v", vc.Host, err)
		return nil, err
	}

	s, err := client.SessionManager.UserSession(ctx)
	if err != nil {
		log.Errorf("failed to get UserSession. err: %v", err)
		return nil, err
	}
	if s == nil {
		return nil, errors.New("nil session obtained from session manager")
	}
	log.Infof("new session ID for '%s' = %s", s.UserName, s.Key)

	client.RoundTripper = vim25.Retry(client.RoundTripper,
		vim25.TemporaryNetworkError(DefaultRoundTripperCount))
	return client, nil
}

// Connect establishes a connection to the vCenter host if one is not active
// already.
func (vc *VirtualCenter) Connect(ctx context.Context) error {
	log := logger.GetLogger(ctx)
	if vc.Client != nil {
		active, err := vc.Client.SessionManager.SessionIsActive(ctx)
		if err == nil && active {
			return nil
		}
		log.Infof("session for vCenter %q is stale, creating a new client", vc.Host)
	}
	client, err := vc.newClient(ctx)
	if err != nil {
		return err
	}
	vc.Client = client
	log.Infof("connected to vCenter %q", vc.Host)
	return nil
}

// Disconnect logs out the current session, if any.
func (vc *VirtualCenter) Disconnect(ctx context.Context) {
	log := logger.GetLogger(ctx)
	if vc.Client == nil {
		return
	}
	if err := vc.Client.Logout(ctx); err != nil {
		log.Warnf("could not logout of vCenter session. err: %v", err)
	}
	vc.Client = nil
}
