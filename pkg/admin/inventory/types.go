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

// Package inventory exports a vCenter's inventory to an XML document and
// re-applies such a document to another vCenter. Roles, datacenters,
// clusters with their DRS settings and placement rules, and permissions
// round-trip; hosts and virtual machines are recorded for reference and
// skipped on import.
package inventory

import (
	"encoding/xml"
	"io"
)

// Document is the root of the exported inventory.
type Document struct {
	XMLName     xml.Name     `xml:"inventory"`
	VCenter     string       `xml:"vcenter,attr"`
	Roles       []Role       `xml:"roles>role"`
	Permissions []Permission `xml:"permissions>permission"`
	Datacenters []Datacenter `xml:"datacenters>datacenter"`
}

// Role is one authorization role and its privileges. System roles are
// exported for reference but never re-created.
type Role struct {
	Name       string   `xml:"name,attr"`
	System     bool     `xml:"system,attr"`
	Privileges []string `xml:"privilege"`
}

// Permission grants a role to a principal on one inventory object,
// identified by its inventory path.
type Permission struct {
	Entity    string `xml:"entity,attr"`
	Principal string `xml:"principal,attr"`
	Role      string `xml:"role,attr"`
	Group     bool   `xml:"group,attr"`
	Propagate bool   `xml:"propagate,attr"`
}

// Datacenter is one datacenter and its clusters.
type Datacenter struct {
	Name     string    `xml:"name,attr"`
	Clusters []Cluster `xml:"cluster"`
}

// Cluster is one compute cluster with its DRS and vSAN settings, placement
// rules, member hosts and virtual machines.
type Cluster struct {
	Name            string           `xml:"name,attr"`
	DrsEnabled      bool             `xml:"drsEnabled,attr"`
	DrsBehavior     string           `xml:"drsBehavior,attr,omitempty"`
	VsanEnabled     bool             `xml:"vsanEnabled,attr"`
	Rules           []Rule           `xml:"rule"`
	Hosts           []Host           `xml:"host"`
	VirtualMachines []VirtualMachine `xml:"vm"`
}

// Rule is one VM placement rule: "affinity" keeps the listed VMs together,
// "anti-affinity" keeps them apart.
type Rule struct {
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Enabled bool     `xml:"enabled,attr"`
	VMs     []string `xml:"vm"`
}

// Host is one ESXi host, recorded for reference.
type Host struct {
	Name    string `xml:"name,attr"`
	Vendor  string `xml:"vendor,attr,omitempty"`
	Model   string `xml:"model,attr,omitempty"`
	Version string `xml:"version,attr,omitempty"`
}

// VirtualMachine is one VM or template, recorded for reference.
type VirtualMachine struct {
	Name     string `xml:"name,attr"`
	Template bool   `xml:"template,attr"`
	Host     string `xml:"host,attr,omitempty"`
	Path     string `xml:"path,attr,omitempty"`
}

// Save writes the document as indented XML.
func Save(doc *Document, w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Load reads a document previously written by Save.
func Load(r io.Reader) (*Document, error) {
	doc := &Document{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
