package harness

// TraceEvent is one executed step as it appears in the trace.
type TraceEvent struct {
	Step     int    `json:"step"`
	Action   string `json:"action"`
	User     string `json:"user,omitempty"`
	Sequence string `json:"sequence,omitempty"`
	Item     int    `json:"item,omitempty"`

	// Today is the clock's date in the step's zone after the step ran.
	Today string `json:"today"`

	Outcome string                 `json:"outcome"`
	Result  map[string]interface{} `json:"result,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
