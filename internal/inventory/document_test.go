package inventory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToGroupCreatesGroupOnFirstUse(t *testing.T) {
	doc := NewDocument()

	doc.AddToGroup("prod", "A")
	doc.AddToGroup("prod", "B")
	doc.AddToGroup("mgmt", "A")

	assert.Equal(t, []string{"A", "B"}, doc.Groups["prod"])
	assert.Equal(t, []string{"A"}, doc.Groups["mgmt"])
}

func TestDocumentMarshalsFlatAnsibleShape(t *testing.T) {
	ip := "10.0.0.5"
	doc := NewDocument()
	doc.AddToGroup("prod", "A")
	doc.Hostvars["A"] = HostVars{AnsibleHost: &ip}

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{"_meta":{"hostvars":{"A":{"ansible_host":"10.0.0.5"}}},"prod":["A"]}`, string(out))
}

func TestDocumentMarshalsNullAddress(t *testing.T) {
	doc := NewDocument()
	doc.AddToGroup("lab", "B")
	doc.Hostvars["B"] = HostVars{}

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{"_meta":{"hostvars":{"B":{"ansible_host":null}}},"lab":["B"]}`, string(out))
}

func TestDocumentEmptyStillCarriesMeta(t *testing.T) {
	out, err := json.Marshal(NewDocument())
	require.NoError(t, err)

	assert.JSONEq(t, `{"_meta":{"hostvars":{}}}`, string(out))
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	ip := "192.168.1.20"
	doc := NewDocument()
	doc.AddToGroup("prod", "A")
	doc.AddToGroup("mgmt", "A")
	doc.AddToGroup("prod", "B")
	doc.Hostvars["A"] = HostVars{AnsibleHost: &ip}
	doc.Hostvars["B"] = HostVars{}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, doc.Groups, decoded.Groups)
	assert.Equal(t, doc.Hostvars, decoded.Hostvars)
}

func TestDocumentUnmarshalRejectsNonGroupValue(t *testing.T) {
	var doc Document
	err := json.Unmarshal([]byte(`{"prod":"not-a-list"}`), &doc)
	assert.Error(t, err)
}
