package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/casewise/internal/explain"
)

const footer = "Generated by casewise. Matches are based on similarity to prior cases and are not a diagnosis."

// Renderer writes outcomes as JSON, Markdown, HTML and terminal summaries
type Renderer struct {
	includeFooter bool

	title lipgloss.Style
	label lipgloss.Style
	muted lipgloss.Style
	bands map[string]lipgloss.Style
	box   lipgloss.Style
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		title:         lipgloss.NewStyle().Bold(true),
		label:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:         lipgloss.NewStyle().Faint(true),
		bands: map[string]lipgloss.Style{
			"high":     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			"moderate": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
			"low":      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		},
		box: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// WriteJSON encodes the outcome as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, o *Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	return nil
}

// RenderJSON writes the outcome to a JSON file
func (r *Renderer) RenderJSON(o *Outcome, path string) error {
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf, o); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// Markdown renders the outcome as a Markdown report
func (r *Renderer) Markdown(o *Outcome) string {
	var b strings.Builder

	b.WriteString("# Case match report\n\n")
	fmt.Fprintf(&b, "- **Request**: `%s`\n", o.RequestID)
	fmt.Fprintf(&b, "- **Result**: %s\n", o.Kind)
	if len(o.Query) > 0 {
		fmt.Fprintf(&b, "- **Symptoms**: %s\n", strings.Join(o.Query, ", "))
	}
	b.WriteString("\n")

	if !o.Matched() {
		fmt.Fprintf(&b, "%s\n", o.Message())
		r.markdownResolutions(&b, o)
		r.markdownFooter(&b)
		return b.String()
	}

	e := o.Explanation
	fmt.Fprintf(&b, "## Closest case #%d\n\n", o.Case.ID)
	fmt.Fprintf(&b, "**Similarity**: %.1f%% (%s confidence)\n\n", o.Score*100, o.Band)

	if len(e.Overlap) > 0 {
		fmt.Fprintf(&b, "**Matching symptoms**: %s\n\n", strings.Join(e.Overlap, ", "))
	} else {
		fmt.Fprintf(&b, "_Note: %s with prior cases._\n\n", explain.NoOverlap)
	}
	if e.PossibleCause != "" {
		fmt.Fprintf(&b, "**Possible cause**: %s\n\n", e.PossibleCause)
	}
	if e.Risk != "" {
		fmt.Fprintf(&b, "**Estimated risk level**: %s\n\n", strings.ToUpper(e.Risk.String()))
	}
	if len(e.Strategies) > 0 {
		b.WriteString("### Recommended strategies\n\n")
		for i, s := range e.Strategies {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
		b.WriteString("\n")
	}
	if e.Recommendation != "" {
		fmt.Fprintf(&b, "**General recommendation**: %s\n\n", e.Recommendation)
	}
	if len(e.SelfAssessments) > 0 {
		b.WriteString("### Suggested self-assessments\n\n")
		for _, s := range e.SelfAssessments {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(e.Referrals) > 0 {
		fmt.Fprintf(&b, "**Consider referral to**: %s\n\n", strings.Join(e.Referrals, ", "))
	}
	if e.Outcome != "" {
		fmt.Fprintf(&b, "**Outcome observed in similar cases**: %s\n\n", e.Outcome)
	}

	if len(o.Signals) > 0 {
		b.WriteString("### Scoring\n\n")
		for _, s := range o.Signals {
			fmt.Fprintf(&b, "- `%s`: %s\n", s.Type, s.Description)
		}
		b.WriteString("\n")
	}

	r.markdownResolutions(&b, o)
	fmt.Fprintf(&b, "> %s\n", e.Disclaimer)
	r.markdownFooter(&b)
	return b.String()
}

func (r *Renderer) markdownResolutions(b *strings.Builder, o *Outcome) {
	if len(o.Resolutions) == 0 {
		return
	}
	b.WriteString("\n### Symptom resolution\n\n")
	b.WriteString("| fragment | symptom | tier | score |\n|---|---|---|---|\n")
	for _, res := range o.Resolutions {
		fmt.Fprintf(b, "| %s | %s | %s | %.2f |\n", res.Input, res.Canonical, res.Tier, res.Score)
	}
	b.WriteString("\n")
}

func (r *Renderer) markdownFooter(b *strings.Builder) {
	if r.includeFooter {
		fmt.Fprintf(b, "\n---\n_%s_\n", footer)
	}
}

// RenderMarkdown writes the Markdown report to path
func (r *Renderer) RenderMarkdown(o *Outcome, path string) error {
	return writeFile(path, []byte(r.Markdown(o)))
}

// RenderLLMMarkdown writes a separately rendered narrative to path
func (r *Renderer) RenderLLMMarkdown(md string, path string) error {
	return writeFile(path, []byte(md))
}

// WriteHTML renders the outcome as a standalone HTML document
func (r *Renderer) WriteHTML(w io.Writer, o *Outcome) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	root.AppendChild(head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	head.AppendChild(textElement(atom.Title, "Case match report"))

	body := element(atom.Body)
	root.AppendChild(body)
	body.AppendChild(textElement(atom.H1, "Case match report"))

	summary := element(atom.Ul)
	summary.AppendChild(textElement(atom.Li, "Request: "+o.RequestID))
	summary.AppendChild(textElement(atom.Li, "Result: "+string(o.Kind)))
	if len(o.Query) > 0 {
		summary.AppendChild(textElement(atom.Li, "Symptoms: "+strings.Join(o.Query, ", ")))
	}
	body.AppendChild(summary)

	if !o.Matched() {
		body.AppendChild(textElement(atom.P, o.Message()))
	} else {
		e := o.Explanation
		body.AppendChild(textElement(atom.H2, fmt.Sprintf("Closest case #%d", o.Case.ID)))

		section := element(atom.Section)
		section.Attr = []html.Attribute{{Key: "class", Val: "band-" + string(o.Band)}}
		section.AppendChild(textElement(atom.P, fmt.Sprintf("Similarity: %.1f%% (%s confidence)", o.Score*100, o.Band)))
		if len(e.Overlap) > 0 {
			section.AppendChild(textElement(atom.P, "Matching symptoms: "+strings.Join(e.Overlap, ", ")))
		} else {
			section.AppendChild(textElement(atom.P, "Note: "+explain.NoOverlap+" with prior cases."))
		}
		if e.PossibleCause != "" {
			section.AppendChild(textElement(atom.P, "Possible cause: "+e.PossibleCause))
		}
		if e.Risk != "" {
			section.AppendChild(textElement(atom.P, "Estimated risk level: "+strings.ToUpper(e.Risk.String())))
		}
		body.AppendChild(section)

		if len(e.Strategies) > 0 {
			body.AppendChild(textElement(atom.H3, "Recommended strategies"))
			body.AppendChild(list(atom.Ol, e.Strategies))
		}
		if e.Recommendation != "" {
			body.AppendChild(textElement(atom.P, "General recommendation: "+e.Recommendation))
		}
		if len(e.SelfAssessments) > 0 {
			body.AppendChild(textElement(atom.H3, "Suggested self-assessments"))
			body.AppendChild(list(atom.Ul, e.SelfAssessments))
		}
		if len(e.Referrals) > 0 {
			body.AppendChild(textElement(atom.P, "Consider referral to: "+strings.Join(e.Referrals, ", ")))
		}
		if e.Outcome != "" {
			body.AppendChild(textElement(atom.P, "Outcome observed in similar cases: "+e.Outcome))
		}
		body.AppendChild(textElement(atom.Blockquote, e.Disclaimer))
	}

	if r.includeFooter {
		body.AppendChild(textElement(atom.Footer, footer))
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// RenderHTML writes the HTML report to path
func (r *Renderer) RenderHTML(o *Outcome, path string) error {
	var buf bytes.Buffer
	if err := r.WriteHTML(&buf, o); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// Summary renders a short styled block for the terminal
func (r *Renderer) Summary(o *Outcome) string {
	var lines []string

	switch o.Kind {
	case KindMatched:
		band, ok := r.bands[string(o.Band)]
		if !ok {
			band = r.title
		}
		lines = append(lines,
			r.title.Render(fmt.Sprintf("Closest case #%d", o.Case.ID))+"  "+
				band.Render(fmt.Sprintf("%.1f%% %s", o.Score*100, o.Band)))
		if o.Explanation != nil {
			lines = append(lines, "", o.Explanation.Text())
		}
		if o.Narrative != nil && o.Narrative.Enabled && o.Narrative.Text != "" {
			lines = append(lines, "", r.label.Render("Narrative ("+o.Narrative.Provider+")"), o.Narrative.Text)
		}
	default:
		lines = append(lines, r.title.Render(o.Message()))
	}

	if len(o.Query) > 0 {
		lines = append(lines, "", r.muted.Render("symptoms: "+strings.Join(o.Query, ", ")))
	}
	lines = append(lines, r.muted.Render("request: "+o.RequestID))

	return r.box.Render(strings.Join(lines, "\n"))
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

func textElement(a atom.Atom, text string) *html.Node {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func list(a atom.Atom, items []string) *html.Node {
	n := element(a)
	for _, it := range items {
		n.AppendChild(textElement(atom.Li, it))
	}
	return n
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
