package generator

// PackageResult is the outcome of generating one package.
type PackageResult struct {
	PkgPath string `json:"package" yaml:"package"`
	Dir     string `json:"dir" yaml:"dir"`
	// Output is the path of the generated file.
	Output      string `json:"output" yaml:"output"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Plans       []Plan `json:"functions" yaml:"functions"`
	// Content is the rendered file; nil when the package has diagnostics.
	Content     []byte  `json:"-" yaml:"-"`
	Diagnostics []error `json:"-" yaml:"-"`
	// Written is set when Content was stored on disk.
	Written bool `json:"written" yaml:"written"`
}

// Plan describes how one stub is implemented.
type Plan struct {
	Func     string     `json:"func" yaml:"func"`
	Mode     string     `json:"mode" yaml:"mode"`
	Template string     `json:"template" yaml:"template"`
	File     string     `json:"file" yaml:"file"`
	Line     int        `json:"line" yaml:"line"`
	Literal  int        `json:"literal" yaml:"literal"`
	Terms    []TermPlan `json:"terms,omitempty" yaml:"terms,omitempty"`
	Bound    int        `json:"bound" yaml:"bound"`
	Capacity int        `json:"capacity" yaml:"capacity"`
	Fits     bool       `json:"fits" yaml:"fits"`
}

// TermPlan is one argument of a Plan.
type TermPlan struct {
	Binding string `json:"binding" yaml:"binding"`
	Source  string `json:"source" yaml:"source"`
	Type    string `json:"type" yaml:"type"`
	MaxLen  int    `json:"max_len" yaml:"max_len"`
	Method  string `json:"method" yaml:"method"`
}

// Failed reports whether the package has diagnostics.
func (r *PackageResult) Failed() bool { return len(r.Diagnostics) > 0 }

// Diagnostics returns the diagnostics of all results in order.
func Diagnostics(results []*PackageResult) []error {
	var out []error
	for _, r := range results {
		out = append(out, r.Diagnostics...)
	}
	return out
}
