package entities

import "fmt"

// GateState is the access state of an interactive session.
type GateState string

const (
	StateLoggedOut      GateState = "logged_out"
	StateActive         GateState = "active"
	StatePaywallPending GateState = "paywall_pending"
	StatePaymentForm    GateState = "payment_form"
	StatePostPayment    GateState = "post_payment"
)

// Place is a resolved geographic location.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// MapURL returns a shareable OpenStreetMap link centered on the place.
func (p Place) MapURL() string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%f&mlon=%f#map=15/%f/%f", p.Lat, p.Lon, p.Lat, p.Lon)
}

// Annotation is a nearby point of interest used to decorate the map.
type Annotation struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Name         string  `json:"name"`
	ReferenceURL string  `json:"reference_url"`
}

// PlaceSummary carries encyclopedia excerpts about a resolved place. Note is a
// user-facing message set on the failure paths (ambiguous, missing, other); both
// excerpts are empty whenever Note is set.
type PlaceSummary struct {
	Geography string `json:"geography"`
	History   string `json:"history"`
	Note      string `json:"note,omitempty"`
}

// PromptResult is everything the interactive layers render after a granted prompt.
type PromptResult struct {
	Place       Place        `json:"place"`
	MapURL      string       `json:"map_url"`
	Annotations []Annotation `json:"annotations"`
	Summary     PlaceSummary `json:"summary"`
}
