package maintenance

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/rulesai/pkg/rulesai/inference"
)

// FactWriter persists a rendered fact set to a destination (file, stdout, etc.).
type FactWriter interface {
	WriteFacts(ctx context.Context, content string) error
}

// StreamWriter is a FactWriter over an io.Writer.
type StreamWriter struct {
	W io.Writer
}

func (s StreamWriter) WriteFacts(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(s.W, content)
	return err
}

// FactExporter renders facts in rule-program syntax, one per line, with
// bound entity references as a trailing comment.
type FactExporter struct {
	Writer FactWriter
}

func (e *FactExporter) Export(ctx context.Context, facts []inference.Fact) error {
	if e.Writer == nil {
		return fmt.Errorf("fact exporter: nil writer")
	}
	var b strings.Builder
	for _, f := range facts {
		b.WriteString(FormatFact(f))
		b.WriteByte('\n')
	}
	return e.Writer.WriteFacts(ctx, b.String())
}

// FormatFact renders one fact, e.g. `own("worker"). % actor u3`.
func FormatFact(f inference.Fact) string {
	var b strings.Builder
	b.WriteString(f.Atom.String())
	b.WriteByte('.')
	sep := " %"
	for _, role := range []inference.Role{inference.RoleActor, inference.RoleResource, inference.RoleTarget} {
		if ref := f.Get(role); ref != nil {
			fmt.Fprintf(&b, "%s %s %s", sep, role, ref.Ref())
			sep = ""
		}
	}
	return b.String()
}
