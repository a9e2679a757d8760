package check

// Kind classifies an issue.
type Kind string

const (
	MissingKey          Kind = "missing_key"
	ExtraKey            Kind = "extra_key"
	EmptyValue          Kind = "empty_value"
	Untranslated        Kind = "untranslated"
	PlaceholderMismatch Kind = "placeholder_mismatch"
	ParseError          Kind = "parse_error"
)

// Issue is one finding of a check run.
type Issue struct {
	Kind    Kind     `json:"type"`
	File    string   `json:"file"`
	Key     string   `json:"key,omitempty"`
	Message string   `json:"message"`
	Details *Details `json:"details,omitempty"`
}

// Details carries the token sets of a placeholder mismatch.
type Details struct {
	Base   []string `json:"base"`
	Target []string `json:"target"`
	Style  string   `json:"style"`
}

// Summary counts issues per kind.
type Summary struct {
	MissingKeys           int `json:"missingKeys"`
	ExtraKeys             int `json:"extraKeys"`
	EmptyValues           int `json:"emptyValues"`
	Untranslated          int `json:"untranslated"`
	PlaceholderMismatches int `json:"placeholderMismatches"`
	ParseErrors           int `json:"parseErrors"`
}

// Total returns the number of issues of every kind.
func (s Summary) Total() int {
	return s.MissingKeys + s.ExtraKeys + s.EmptyValues + s.Untranslated + s.PlaceholderMismatches + s.ParseErrors
}

// Report is the result of one check run.
type Report struct {
	Base    string   `json:"base"`
	Targets []string `json:"targets"`
	Issues  []Issue  `json:"issues"`
	Summary Summary  `json:"summary"`
}

// NewReport returns an empty report.
func NewReport(base string, targets []string) *Report {
	return &Report{
		Base:    base,
		Targets: append([]string(nil), targets...),
		Issues:  []Issue{},
	}
}

// Add appends an issue and counts it.
func (r *Report) Add(is Issue) {
	r.Issues = append(r.Issues, is)
	switch is.Kind {
	case MissingKey:
		r.Summary.MissingKeys++
	case ExtraKey:
		r.Summary.ExtraKeys++
	case EmptyValue:
		r.Summary.EmptyValues++
	case Untranslated:
		r.Summary.Untranslated++
	case PlaceholderMismatch:
		r.Summary.PlaceholderMismatches++
	case ParseError:
		r.Summary.ParseErrors++
	}
}

// IssuesFor returns the issues reported for file, in report order.
func (r *Report) IssuesFor(file string) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.File == file {
			out = append(out, is)
		}
	}
	return out
}

// HasParseErrors reports whether any file failed to decode.
func (r *Report) HasParseErrors() bool {
	return r.Summary.ParseErrors > 0
}
