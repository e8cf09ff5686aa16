package imagebot

// Outcome tags a search Result.
type Outcome int

const (
	OutcomeFound        Outcome = iota // URL holds the image to send
	OutcomeNotFound                    // search worked but yielded nothing usable
	OutcomeSearchFailed                // the search API call itself failed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "search_failed"
	}
}

// Reason refines NotFound and SearchFailed outcomes.
type Reason int

const (
	ReasonNone          Reason = iota
	ReasonNoResults            // the API returned zero items
	ReasonNoValidSource        // items existed but none carried a usable link
	ReasonTimeout
	ReasonConnection
	ReasonHTTP      // non-2xx from the API
	ReasonRequest   // any other transport/request failure
	ReasonMalformed // response could not be parsed
)

func (r Reason) String() string {
	switch r {
	case ReasonNoResults:
		return "no_results"
	case ReasonNoValidSource:
		return "no_valid_source"
	case ReasonTimeout:
		return "timeout"
	case ReasonConnection:
		return "connection"
	case ReasonHTTP:
		return "http"
	case ReasonRequest:
		return "request"
	case ReasonMalformed:
		return "malformed"
	default:
		return "none"
	}
}

// Result is the outcome of an image search for one query.
type Result struct {
	Outcome Outcome
	URL     string // set when Outcome is OutcomeFound
	Reason  Reason // set otherwise
}

// Found returns a Result carrying url.
func Found(url string) Result { return Result{Outcome: OutcomeFound, URL: url} }

// NotFound returns a Result for a search that produced nothing usable.
func NotFound(reason Reason) Result { return Result{Outcome: OutcomeNotFound, Reason: reason} }

// SearchFailed returns a Result for a failed search call.
func SearchFailed(reason Reason) Result { return Result{Outcome: OutcomeSearchFailed, Reason: reason} }

// IsFound reports whether the Result carries an image URL.
func (r Result) IsFound() bool { return r.Outcome == OutcomeFound }

// String returns the display form: the URL, or the localized message for
// the reason.
func (r Result) String() string {
	if r.IsFound() {
		return r.URL
	}
	return r.Reason.Message()
}
