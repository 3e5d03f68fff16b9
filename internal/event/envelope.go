// Package event defines the canonical envelope published onto the bus.
package event

// Route carries the fixed routing metadata stamped onto every envelope
// produced by the gateway. It is populated once from configuration.
type Route struct {
	Source     string
	DetailType string
	BusName    string
}

// Default routing values for the client event entry point.
const (
	DefaultSource     = "clientevents"
	DefaultDetailType = "detailTypeField"
	DefaultBusName    = "clientevents-bus"
)

// emptyDetail is the payload for this flow; the entry point consumes no body.
const emptyDetail = "{}"

// Envelope is the canonical record submitted to the bus for fan-out.
// Envelopes are immutable once built. Uniqueness is not enforced; duplicates
// are expected under client retry.
type Envelope struct {
	Source     string   `json:"source"`
	DetailType string   `json:"detailType"`
	Detail     string   `json:"detail"`
	Resources  []string `json:"resources"`
	BusName    string   `json:"busName"`
}

// New builds an envelope for the given authenticated client. Given the same
// client ID and route it always produces the same envelope.
func New(clientID string, r Route) Envelope {
	return Envelope{
		Source:     r.Source,
		DetailType: r.DetailType,
		Detail:     emptyDetail,
		Resources:  []string{clientID},
		BusName:    r.BusName,
	}
}
