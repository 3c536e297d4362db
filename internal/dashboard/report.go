package dashboard

// Report is the machine-readable form of a view's state.
type Report struct {
	Loading bool   `json:"loading"`
	Outcome Kind   `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
	Stats   Model  `json:"stats"`
	Cards   []Card `json:"cards"`
}

// Report builds the document for s. The failure reason is included only when
// withReason is set, matching the show_fetch_errors policy of the renderers.
func (f *Formatter) Report(s State, withReason bool) Report {
	r := Report{
		Loading: s.Loading,
		Outcome: s.Outcome.Kind,
		Stats:   s.Model,
		Cards:   f.Cards(s.Model),
	}
	if withReason {
		r.Reason = s.Outcome.Reason()
	}
	return r
}
