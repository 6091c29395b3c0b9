// Package inventory builds, caches and serves the Ansible dynamic
// inventory for one XenServer host.
package inventory

import (
	"encoding/json"
	"fmt"
)

// metaKey is the reserved top-level key Ansible uses for per-host
// variables; it can never name a group.
const metaKey = "_meta"

// HostVars is the per-host variable set Ansible consumes. XenServer's
// guest tools report no FQDN, so the address is the guest's first
// assigned IP and may be null.
type HostVars struct {
	AnsibleHost *string `json:"ansible_host"`
}

// Document is one complete inventory: VM name labels grouped by network
// name, plus the _meta hostvars table with one entry per listed VM. A VM
// with several interfaces appears in every matching group but has exactly
// one hostvars entry.
type Document struct {
	Groups   map[string][]string
	Hostvars map[string]HostVars
}

func NewDocument() *Document {
	return &Document{
		Groups:   map[string][]string{},
		Hostvars: map[string]HostVars{},
	}
}

// AddToGroup appends name to the group's member list, creating the group
// on first use.
func (d *Document) AddToGroup(group, name string) {
	d.Groups[group] = append(d.Groups[group], name)
}

// MarshalJSON emits the flat Ansible shape: group lists at the top level
// next to the reserved _meta entry.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Groups)+1)
	for group, members := range d.Groups {
		if group == metaKey {
			continue
		}
		out[group] = members
	}
	out[metaKey] = map[string]interface{}{"hostvars": d.Hostvars}
	return json.Marshal(out)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Groups = map[string][]string{}
	d.Hostvars = map[string]HostVars{}
	for key, value := range raw {
		if key == metaKey {
			var meta struct {
				Hostvars map[string]HostVars `json:"hostvars"`
			}
			if err := json.Unmarshal(value, &meta); err != nil {
				return fmt.Errorf("decode %s: %w", metaKey, err)
			}
			if meta.Hostvars != nil {
				d.Hostvars = meta.Hostvars
			}
			continue
		}
		var members []string
		if err := json.Unmarshal(value, &members); err != nil {
			return fmt.Errorf("decode group %s: %w", key, err)
		}
		d.Groups[key] = members
	}
	return nil
}
