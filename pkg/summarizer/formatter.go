package summarizer

// Formatter renders a run summary for one output medium. The CLI writes the
// Markdown rendering next to the extracted frames.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc lets a plain function render summaries, as tests do for
// writers that do not care about layout.
type FormatFunc func(summary *Summary) string

// Format calls f.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}
