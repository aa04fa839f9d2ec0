package gracedec

// Event describes one absorbed failure.
type Event struct {
	Model string // innermost model being decoded
	// Field is the primary wire key of the field, or "" when a container
	// element or entry was dropped.
	Field   string
	Path    string
	Reason  Reason
	Policy  Policy
	Element bool
	Cause   error // nested *GracefulFailure, when Reason is ReasonNested
}

// Reporter observes decode failures. Implementations must be safe for
// concurrent use.
type Reporter interface {
	// Absorbed is called when a tolerant field or a container absorbs a failure.
	Absorbed(Event)
	// Escalated is called once per top-level decode that fails.
	Escalated(*GracefulFailure)
}

// ReporterFuncs adapts plain functions to Reporter. Nil members are skipped.
type ReporterFuncs struct {
	OnAbsorbed  func(Event)
	OnEscalated func(*GracefulFailure)
}

func (f ReporterFuncs) Absorbed(e Event) {
	if f.OnAbsorbed != nil {
		f.OnAbsorbed(e)
	}
}

func (f ReporterFuncs) Escalated(gf *GracefulFailure) {
	if f.OnEscalated != nil {
		f.OnEscalated(gf)
	}
}

func (st *decodeState) report(e Event) {
	if st.quiet {
		return
	}
	st.opts.Logger.Debug().
		Str("model", e.Model).
		Str("field", e.Field).
		Str("path", e.Path).
		Str("reason", string(e.Reason)).
		Bool("element", e.Element).
		Msg("absorbed decode failure")
	if st.opts.Reporter != nil {
		st.opts.Reporter.Absorbed(e)
	}
}

func (r *Registry) escalated(gf *GracefulFailure) {
	r.opts.Logger.Debug().
		Str("model", gf.Model).
		Str("field", gf.Field).
		Str("path", gf.Path).
		Str("reason", string(gf.Reason)).
		Msg("decode failed")
	if r.opts.Reporter != nil {
		r.opts.Reporter.Escalated(gf)
	}
}

func (r *Registry) streamIssue(code, path, message string) {
	r.opts.Logger.Warn().Str("code", code).Str("path", path).Msg(message)
}
