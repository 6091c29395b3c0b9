package xapi

import "fmt"

// VMRecord is the subset of a XAPI VM record the inventory needs.
type VMRecord struct {
	NameLabel       string
	IsControlDomain bool
	IsATemplate     bool
	VIFs            []string
	GuestMetrics    string
}

// VIFRecord links a virtual interface to its owning network.
type VIFRecord struct {
	Network string
}

// NetworkRecord carries the human-readable network name used as the
// inventory group key.
type NetworkRecord struct {
	NameLabel string
}

// GuestMetricsRecord holds the address table reported by the guest tools,
// keyed like "0/ip", "0/ipv6/0", "1/ip".
type GuestMetricsRecord struct {
	Networks map[string]string
}

func vmRecordFrom(v interface{}) (VMRecord, error) {
	fields, err := asStruct(v)
	if err != nil {
		return VMRecord{}, err
	}
	vifs, err := asStrings(fields["VIFs"])
	if err != nil {
		return VMRecord{}, fmt.Errorf("VIFs: %w", err)
	}
	return VMRecord{
		NameLabel:       asString(fields["name_label"]),
		IsControlDomain: asBool(fields["is_control_domain"]),
		IsATemplate:     asBool(fields["is_a_template"]),
		VIFs:            vifs,
		GuestMetrics:    asString(fields["guest_metrics"]),
	}, nil
}

func vifRecordFrom(v interface{}) (VIFRecord, error) {
	fields, err := asStruct(v)
	if err != nil {
		return VIFRecord{}, err
	}
	return VIFRecord{Network: asString(fields["network"])}, nil
}

func networkRecordFrom(v interface{}) (NetworkRecord, error) {
	fields, err := asStruct(v)
	if err != nil {
		return NetworkRecord{}, err
	}
	return NetworkRecord{NameLabel: asString(fields["name_label"])}, nil
}

func guestMetricsRecordFrom(v interface{}) (GuestMetricsRecord, error) {
	fields, err := asStruct(v)
	if err != nil {
		return GuestMetricsRecord{}, err
	}
	networks := map[string]string{}
	if raw, ok := fields["networks"].(map[string]interface{}); ok {
		for k, nv := range raw {
			networks[k] = asString(nv)
		}
	}
	return GuestMetricsRecord{Networks: networks}, nil
}

// XML-RPC decoding yields dynamic values; XAPI records arrive as structs
// of strings, booleans and string arrays.

func asStruct(v interface{}) (map[string]interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected record struct, got %T", v)
	}
	return m, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asStrings(v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected string array, got %T", v)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}
