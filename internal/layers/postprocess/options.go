package postprocess

// Options toggles the post-processing layer's optional steps (spec §4.12).
// Every step defaults on except AddMissingPeriods and
// DoubleSpaceAfterSentence, which default off; AddMissingPeriods because
// inventing punctuation the source never had is a more aggressive change
// than the others.
type Options struct {
	EnableSpacing            bool
	EnableCapitalization     bool
	EnablePunctuation        bool
	EnableLanguageFormatting bool
	EnableRules              bool
	EnableFinalCleanup       bool
	AddMissingPeriods        bool
	DoubleSpaceAfterSentence bool
}

// DefaultOptions returns every step enabled except AddMissingPeriods and
// DoubleSpaceAfterSentence.
func DefaultOptions() Options {
	return Options{
		EnableSpacing:            true,
		EnableCapitalization:     true,
		EnablePunctuation:        true,
		EnableLanguageFormatting: true,
		EnableRules:              true,
		EnableFinalCleanup:       true,
	}
}
