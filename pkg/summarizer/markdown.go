package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as Markdown.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate headings and labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Synchronization Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Run"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Run ID"), orDash(s.Run.ID))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Input"), orDash(s.Run.Input))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Output"), orDash(s.Run.Output))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Mode"), orDash(s.Run.Mode))
	fmt.Fprintf(&b, "| %s | %s |\n\n", t("Duration"), s.Run.Duration.Round(time.Millisecond))

	fmt.Fprintf(&b, "## %s\n\n", t("Streams"))
	if len(s.Streams) == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No streams found"))
	} else {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n|---:|---|---|---:|\n", t("Camera"), t("Source"), t("Kind"), t("Frames"))
		for _, st := range s.Streams {
			frames := fmt.Sprintf("%d", st.Frames)
			if st.Excluded {
				frames = t("Excluded")
				if st.Error != "" {
					frames += ": " + escape(st.Error)
				}
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", st.ID, escape(st.Locator), st.Kind, frames)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Synchronization"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	fmt.Fprintf(&b, "| %s | %d |\n", t("Batches"), s.Sync.Batches)
	cutoff := t("N/A")
	if s.Sync.Cutoff >= 0 {
		cutoff = fmt.Sprintf("%d", s.Sync.Cutoff)
	}
	fmt.Fprintf(&b, "| %s | %s |\n", t("Cutoff"), cutoff)
	fmt.Fprintf(&b, "| %s | %d |\n", t("Packets received"), s.Sync.Received)
	fmt.Fprintf(&b, "| %s | %d |\n", t("Packets discarded"), s.Sync.Discarded)
	fps := t("Unknown")
	if s.Sync.ReferenceFPS > 0 {
		fps = fmt.Sprintf("%.2f fps", s.Sync.ReferenceFPS)
		fmt.Fprintf(&b, "| %s | %s |\n", t("Reference frame rate"), fps)
		fmt.Fprintf(&b, "| %s | %.3f s |\n\n", t("Synchronized length"), float64(s.Sync.Batches)/s.Sync.ReferenceFPS)
	} else {
		fmt.Fprintf(&b, "| %s | %s |\n\n", t("Reference frame rate"), fps)
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Output"))
	fmt.Fprintf(&b, "- %s: %d\n", t("Images written"), s.Output.Images)
	if s.Output.Mosaic {
		fmt.Fprintf(&b, "- %s\n", t("Mosaic images enabled"))
	}
	if s.Output.Catalog != "" {
		fmt.Fprintf(&b, "- %s: %s\n", t("Catalog"), s.Output.Catalog)
	}
	b.WriteString("\n---\n\n")

	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" (camsync %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return escape(s)
}

// escape keeps pipes from breaking table cells.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
