package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"xen-inventory/internal/xapi"
)

// Session is the authenticated XAPI surface the builder reads from.
type Session interface {
	VMs() ([]xapi.VMRecord, error)
	VIFRecord(ref string) (xapi.VIFRecord, error)
	NetworkRecord(ref string) (xapi.NetworkRecord, error)
	GuestMetricsRecord(ref string) (xapi.GuestMetricsRecord, error)
}

// Builder produces a full inventory document from a live session.
type Builder struct {
	session Session
	logger  *slog.Logger
}

func NewBuilder(session Session, logger *slog.Logger) *Builder {
	return &Builder{session: session, logger: logger}
}

// Build enumerates all VM records and groups eligible VMs by the name of
// each network their interfaces attach to. Control-domain VMs and
// templates are skipped; a VM with no interfaces is not listed at all.
// Any remote failure aborts the whole build, partial results are never
// returned.
func (b *Builder) Build(ctx context.Context) (*Document, error) {
	vms, err := b.session.VMs()
	if err != nil {
		return nil, fmt.Errorf("list vms: %w", err)
	}

	doc := NewDocument()
	for _, vm := range vms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if vm.IsControlDomain || vm.IsATemplate {
			continue
		}
		if len(vm.VIFs) == 0 {
			continue
		}
		ip := b.guestIP(vm)
		for _, vifRef := range vm.VIFs {
			vif, err := b.session.VIFRecord(vifRef)
			if err != nil {
				return nil, fmt.Errorf("vif record %s: %w", vifRef, err)
			}
			network, err := b.session.NetworkRecord(vif.Network)
			if err != nil {
				return nil, fmt.Errorf("network record %s: %w", vif.Network, err)
			}
			doc.AddToGroup(network.NameLabel, vm.NameLabel)
			doc.Hostvars[vm.NameLabel] = HostVars{AnsibleHost: ip}
		}
	}
	b.logger.Debug("inventory built", "groups", len(doc.Groups), "hosts", len(doc.Hostvars))
	return doc, nil
}

// guestIP resolves the guest's first assigned IPv4 address. A VM whose
// guest metrics are absent or unreadable still makes it into the
// inventory, just without an address.
func (b *Builder) guestIP(vm xapi.VMRecord) *string {
	if vm.GuestMetrics == "" || vm.GuestMetrics == xapi.NullRef {
		return nil
	}
	metrics, err := b.session.GuestMetricsRecord(vm.GuestMetrics)
	if err != nil {
		b.logger.Debug("guest metrics unavailable", "vm", vm.NameLabel, "error", err)
		return nil
	}
	ip, ok := metrics.Networks["0/ip"]
	if !ok {
		return nil
	}
	return &ip
}
