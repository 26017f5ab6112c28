// Package grounding turns the candidate's local documents into context for the
// completion service: either inlined text or a managed search index.
package grounding

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Kind is the extraction format of a document.
type Kind string

const (
	KindHTML    Kind = "html"
	KindPDF     Kind = "pdf"
	KindText    Kind = "text"
	KindUnknown Kind = "unknown"
)

var defaultPatterns = []string{"*DVO*", "*Project*DVO*"}

// Config names the documents to look for.
type Config struct {
	// Dir is the directory searched; empty means the working directory.
	Dir string `mapstructure:"dir"`
	// CV is the fixed CV filename.
	CV string `mapstructure:"cv"`
	// Concept is the fixed concept document filename.
	Concept string `mapstructure:"concept"`
	// Patterns are glob patterns for additional project artifacts.
	Patterns []string `mapstructure:"patterns"`
}

// DocumentRef points at one discovered local document.
type DocumentRef struct {
	Name string
	Path string
	Kind Kind
}

// Provider discovers documents and builds inline context from them.
type Provider struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Patterns == nil {
		cfg.Patterns = defaultPatterns
	}

	return &Provider{cfg: cfg, logger: logger}
}

// Discover returns the fixed candidates followed by pattern matches. Missing
// files, directories and repeated base names are skipped without error.
func (p *Provider) Discover() []DocumentRef {
	candidates := make([]string, 0, 2)
	for _, name := range []string{p.cfg.CV, p.cfg.Concept} {
		if name = strings.TrimSpace(name); name != "" {
			candidates = append(candidates, p.path(name))
		}
	}

	for _, pattern := range p.cfg.Patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		matches, err := filepath.Glob(p.path(pattern))
		if err != nil {
			p.logger.Warn("skipping malformed document pattern", zap.String("pattern", pattern), zap.Error(err))
			continue
		}

		sort.Strings(matches)
		candidates = append(candidates, matches...)
	}

	refs := make([]DocumentRef, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, path := range candidates {
		name := filepath.Base(path)
		if _, ok := seen[name]; ok {
			continue
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		seen[name] = struct{}{}
		refs = append(refs, DocumentRef{Name: name, Path: path, Kind: kindOf(name)})
	}

	p.logger.Debug("discovered grounding documents", zap.Int("count", len(refs)), zap.Strings("documents", Names(refs)))

	return refs
}

// Names returns the base names of refs in order.
func Names(refs []DocumentRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

func (p *Provider) path(name string) string {
	if filepath.IsAbs(name) || p.cfg.Dir == "" {
		return name
	}
	return filepath.Join(p.cfg.Dir, name)
}

func kindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return KindHTML
	case ".pdf":
		return KindPDF
	case ".txt", ".md", ".markdown":
		return KindText
	default:
		return KindUnknown
	}
}
