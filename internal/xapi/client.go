package xapi

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kolo/xmlrpc"
)

// NullRef is XAPI's null object reference, returned where a record has no
// linked entity (e.g. a VM that never reported guest metrics).
const NullRef = "OpaqueRef:NULL"

// Client owns one authenticated XAPI session over XML-RPC.
type Client struct {
	rpc     *xmlrpc.Client
	session string
	logger  *slog.Logger
}

// AuthError means no session could be established with the host.
type AuthError struct {
	Hostname string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate to %s: %v", e.Hostname, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Failure is a remote XAPI error returned after a session is established.
type Failure struct {
	Description []string
}

func (e *Failure) Error() string {
	return "xapi failure: " + strings.Join(e.Description, " ")
}

// Connect logs in to the XAPI endpoint at http://hostname and returns a
// client holding the session reference. The caller owns the session and
// must release it with Logout.
func Connect(hostname, username, password string, logger *slog.Logger) (*Client, error) {
	rpc, err := xmlrpc.NewClient(fmt.Sprintf("http://%s", hostname), nil)
	if err != nil {
		return nil, &AuthError{Hostname: hostname, Err: err}
	}
	c := &Client{rpc: rpc, logger: logger}
	v, err := c.call("session.login_with_password", username, password)
	if err != nil {
		return nil, &AuthError{Hostname: hostname, Err: err}
	}
	ref, ok := v.(string)
	if !ok {
		return nil, &AuthError{Hostname: hostname, Err: fmt.Errorf("unexpected session reference of type %T", v)}
	}
	c.session = ref
	c.logger.Debug("xapi session established", "hostname", hostname, "username", username)
	return c, nil
}

// Logout releases the session. Safe to defer; a failed logout is logged,
// not returned, since the work is already done by then.
func (c *Client) Logout() {
	if c.session == "" {
		return
	}
	if _, err := c.call("session.logout", c.session); err != nil {
		c.logger.Warn("xapi logout failed", "error", err)
	}
	c.session = ""
	_ = c.rpc.Close()
}

// VMs enumerates every VM reference on the host and fetches its record.
func (c *Client) VMs() ([]VMRecord, error) {
	v, err := c.call("VM.get_all")
	if err != nil {
		return nil, err
	}
	refs, err := asStrings(v)
	if err != nil {
		return nil, fmt.Errorf("VM.get_all: %w", err)
	}
	out := make([]VMRecord, 0, len(refs))
	for _, ref := range refs {
		rv, err := c.call("VM.get_record", ref)
		if err != nil {
			return nil, err
		}
		rec, err := vmRecordFrom(rv)
		if err != nil {
			return nil, fmt.Errorf("VM.get_record %s: %w", ref, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// VIFRecord fetches one virtual interface record by reference.
func (c *Client) VIFRecord(ref string) (VIFRecord, error) {
	v, err := c.call("VIF.get_record", ref)
	if err != nil {
		return VIFRecord{}, err
	}
	rec, err := vifRecordFrom(v)
	if err != nil {
		return VIFRecord{}, fmt.Errorf("VIF.get_record %s: %w", ref, err)
	}
	return rec, nil
}

// NetworkRecord fetches one network record by reference.
func (c *Client) NetworkRecord(ref string) (NetworkRecord, error) {
	v, err := c.call("network.get_record", ref)
	if err != nil {
		return NetworkRecord{}, err
	}
	rec, err := networkRecordFrom(v)
	if err != nil {
		return NetworkRecord{}, fmt.Errorf("network.get_record %s: %w", ref, err)
	}
	return rec, nil
}

// GuestMetricsRecord fetches one guest-metrics record by reference.
func (c *Client) GuestMetricsRecord(ref string) (GuestMetricsRecord, error) {
	v, err := c.call("VM_guest_metrics.get_record", ref)
	if err != nil {
		return GuestMetricsRecord{}, err
	}
	rec, err := guestMetricsRecordFrom(v)
	if err != nil {
		return GuestMetricsRecord{}, fmt.Errorf("VM_guest_metrics.get_record %s: %w", ref, err)
	}
	return rec, nil
}

// methodResponse is the envelope every XAPI call returns: a Status, and
// either a Value or an ErrorDescription list.
type methodResponse struct {
	Status           string      `xmlrpc:"Status"`
	Value            interface{} `xmlrpc:"Value"`
	ErrorDescription []string    `xmlrpc:"ErrorDescription"`
}

// call invokes a XAPI method with the session reference prepended for all
// methods past login.
func (c *Client) call(method string, args ...interface{}) (interface{}, error) {
	params := args
	if c.session != "" && method != "session.login_with_password" && method != "session.logout" {
		params = append([]interface{}{c.session}, args...)
	}
	var resp methodResponse
	if err := c.rpc.Call(method, params, &resp); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if resp.Status != "Success" {
		return nil, &Failure{Description: resp.ErrorDescription}
	}
	return resp.Value, nil
}
