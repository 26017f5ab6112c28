package grounding

import (
	"strings"

	"go.uber.org/zap"
)

const documentSeparator = "\n\n"

// Context is inline grounding: the flattened text of every document.
type Context struct {
	Documents []DocumentRef
	Text      string
	// Warnings lists documents whose extraction failed.
	Warnings []string
}

// Empty reports whether there is nothing to ground answers on.
func (c Context) Empty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// BuildInlineContext extracts and concatenates the text of refs. A document
// that fails to extract contributes nothing and is reported as a warning.
func (p *Provider) BuildInlineContext(refs []DocumentRef) Context {
	ctx := Context{Documents: refs}
	parts := make([]string, 0, len(refs))

	for _, ref := range refs {
		text, err := extract(ref)
		if err != nil {
			p.logger.Warn("could not extract document text",
				zap.String("document", ref.Name),
				zap.String("kind", string(ref.Kind)),
				zap.Error(err),
			)
			ctx.Warnings = append(ctx.Warnings, ref.Name+": "+err.Error())
			continue
		}

		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	ctx.Text = strings.Join(parts, documentSeparator)

	p.logger.Debug("built inline context",
		zap.Int("documents", len(refs)),
		zap.Int("characters", len(ctx.Text)),
		zap.Int("warnings", len(ctx.Warnings)),
	)

	return ctx
}
