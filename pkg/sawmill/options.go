package sawmill

type options struct {
	errorLevels   []string
	errorKeywords []string
	verbosity     string
}

// Option configures a Sawmill instance.
type Option func(*options)

// WithExtraErrorLevels adds level names (matched case-insensitively) that
// count as errors on top of ERROR, SEVERE, FATAL, CRITICAL and ERRO.
func WithExtraErrorLevels(levels ...string) Option {
	return func(o *options) {
		o.errorLevels = append(o.errorLevels, levels...)
	}
}

// WithExtraErrorKeywords adds message keywords that promote any entry to an
// error regardless of its declared level.
func WithExtraErrorKeywords(keywords ...string) Option {
	return func(o *options) {
		o.errorKeywords = append(o.errorKeywords, keywords...)
	}
}

// WithVerbosity trims reports before they are returned: "minimal",
// "standard" or "full". Default: "full" (nothing trimmed).
func WithVerbosity(v string) Option {
	return func(o *options) {
		o.verbosity = v
	}
}

func defaultOptions() options {
	return options{verbosity: "full"}
}
