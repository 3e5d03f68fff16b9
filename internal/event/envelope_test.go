package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRoute = Route{
	Source:     DefaultSource,
	DetailType: DefaultDetailType,
	BusName:    DefaultBusName,
}

func TestNew(t *testing.T) {
	env := New("client-42", testRoute)

	assert.Equal(t, "clientevents", env.Source)
	assert.Equal(t, "detailTypeField", env.DetailType)
	assert.Equal(t, "{}", env.Detail)
	assert.Equal(t, []string{"client-42"}, env.Resources)
	assert.Equal(t, "clientevents-bus", env.BusName)
}

func TestNew_Deterministic(t *testing.T) {
	a := New("client-42", testRoute)
	b := New("client-42", testRoute)
	assert.Equal(t, a, b)
}

func TestEnvelope_WireShape(t *testing.T) {
	data, err := json.Marshal(New("client-42", testRoute))
	require.NoError(t, err)

	want := `{"source":"clientevents","detailType":"detailTypeField","detail":"{}","resources":["client-42"],"busName":"clientevents-bus"}`
	assert.JSONEq(t, want, string(data))
}
