package usecase

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	pkgerrors "github.com/pkg/errors"

	"api-probe/internal/domain"
)

const (
	SuccessHeader = "✅ Response received:"
	FailureHeader = "❌ Error occurred while testing the API key or endpoint:"
	// NoContent stands in for a first choice whose content was null or absent.
	NoContent = "(no content)"
)

// Renderer writes human-readable probe reports.
type Renderer struct {
	w       io.Writer
	success lipgloss.Style
	failure lipgloss.Style
}

// NewRenderer styles headers for w; colors are dropped when w is not a
// terminal.
func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		w:       w,
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

func (r *Renderer) Render(report domain.Report) error {
	_, err := io.WriteString(r.w, r.format(report))
	return err
}

func (r *Renderer) format(report domain.Report) string {
	var b strings.Builder
	if report.OK() {
		b.WriteString(r.success.Render(SuccessHeader))
		b.WriteString("\n")
		if report.HasContent {
			b.WriteString(report.Content)
		} else {
			b.WriteString(NoContent)
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(r.failure.Render(FailureHeader))
	b.WriteString("\n")
	writeTrace(&b, report.Err)
	return b.String()
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// writeTrace prints every layer of the error chain with its dynamic type,
// innermost last, followed by the outermost captured stack.
func writeTrace(b *strings.Builder, err error) {
	fmt.Fprintf(b, "error: %v\n", err)
	b.WriteString("chain:\n")

	var stack pkgerrors.StackTrace
	depth := 0
	for e := err; e != nil; e = errors.Unwrap(e) {
		next := errors.Unwrap(e)
		if st, ok := e.(stackTracer); ok {
			if stack == nil {
				stack = st.StackTrace()
			}
			// pkg/errors wrappers only carry the stack.
			if next != nil {
				continue
			}
		}
		fmt.Fprintf(b, "  [%d] %T: %s\n", depth, e, e.Error())
		depth++
	}

	if len(stack) > 0 {
		b.WriteString("stack:")
		fmt.Fprintf(b, "%+v\n", stack)
	}
}
