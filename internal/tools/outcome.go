package tools

// Kind classifies a tool invocation result.
//
// The split mirrors how failures are treated at the boundary: Empty is an
// expected successful-but-empty outcome and is not logged as an error,
// while Upstream and Malformed are logged at error severity with the
// underlying cause. A missing API key surfaces as Upstream because the
// provider rejects the call.
type Kind int

const (
	// KindOK indicates a successful result with content.
	KindOK Kind = iota

	// KindEmpty indicates a well-formed response with zero matches.
	KindEmpty

	// KindUpstream indicates the upstream service was unavailable:
	// network error, timeout, or non-2xx status.
	KindUpstream

	// KindMalformed indicates the upstream responded but the payload was
	// missing expected fields or could not be decoded.
	KindMalformed
)

// String returns a human-readable kind for logging.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEmpty:
		return "empty"
	case KindUpstream:
		return "upstream_unavailable"
	case KindMalformed:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Outcome is the typed result of a tool invocation.
//
// Text is always display-ready natural language in the same language as a
// success result; callers at the dialogue boundary use it verbatim. Kind
// and Err exist so internal code and tests can reason about the failure
// class without parsing strings. No error ever crosses the tool boundary:
// failures carry a fixed, domain-specific apology in Text.
type Outcome struct {
	Kind Kind
	Text string
	Err  error
}

// Failed reports whether the outcome represents an upstream or decoding
// failure (as opposed to success or an empty result).
func (o Outcome) Failed() bool {
	return o.Kind == KindUpstream || o.Kind == KindMalformed
}

// OK returns a successful outcome with the given display text.
func OK(text string) Outcome {
	return Outcome{Kind: KindOK, Text: text}
}

// Empty returns a successful-but-empty outcome with the given fixed text.
func Empty(text string) Outcome {
	return Outcome{Kind: KindEmpty, Text: text}
}

// Upstream returns a failure outcome for an unavailable upstream.
// apology is the user-facing text; err is the cause for logging.
func Upstream(apology string, err error) Outcome {
	return Outcome{Kind: KindUpstream, Text: apology, Err: err}
}

// Malformed returns a failure outcome for an undecodable or incomplete
// upstream response.
func Malformed(apology string, err error) Outcome {
	return Outcome{Kind: KindMalformed, Text: apology, Err: err}
}
