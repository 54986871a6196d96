// Package markdown splits markdown documents into sections at header
// boundaries, keeping each section's place in the header hierarchy.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Section is one slice of a markdown document.
type Section struct {
	Index      int    // position in the document (0, 1, 2...)
	HeaderPath string // hierarchy, e.g. "# Guide > ## Setup"
	Body       string // source from this section's heading text to the next H1/H2
}

// Splitter cuts markdown documents at H1 and H2 boundaries.
type Splitter struct {
	parser goldmark.Markdown
}

// NewSplitter creates a splitter with a goldmark parser configured for
// header-based splitting.
func NewSplitter() *Splitter {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Splitter{parser: md}
}

// Split cuts source at H1 and H2 headers. Deeper headers stay inside their
// parent section. A document without headers comes back as one section with
// an empty header path.
func (s *Splitter) Split(source []byte) ([]Section, error) {
	reader := text.NewReader(source)
	doc := s.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect headers: %w", err)
	}

	if len(tree.Items) == 0 {
		return []Section{{
			Index: 0,
			Body:  strings.TrimSpace(string(source)),
		}}, nil
	}

	var sections []Section
	s.collect(doc, source, tree.Items, nil, &sections)
	return sections, nil
}

// collect walks the header tree depth-first, emitting one section per H1/H2.
func (s *Splitter) collect(doc ast.Node, source []byte, items toc.Items, ancestors []string, sections *[]Section) {
	for i, item := range items {
		path := append(ancestors, string(item.Title))

		headerNode := findHeaderByID(doc, string(item.ID))
		if headerNode == nil {
			continue
		}

		startLine := headerNode.Lines().At(0)
		var endLine text.Segment
		if i+1 < len(items) {
			if next := findHeaderByID(doc, string(items[i+1].ID)); next != nil {
				endLine = next.Lines().At(0)
			}
		} else {
			// Last item at this level: the section runs until the next
			// header at the same or a shallower depth.
			endLine = nextBoundary(doc, headerNode, headerNode.(*ast.Heading).Level)
		}

		*sections = append(*sections, Section{
			Index:      len(*sections),
			HeaderPath: formatHeaderPath(path),
			Body:       sliceBody(source, startLine, endLine),
		})

		if len(item.Items) > 0 {
			s.collect(doc, source, item.Items, path, sections)
		}
	}
}

// formatHeaderPath renders a hierarchy as markdown headers joined by " > ":
// ["Guide", "Setup"] becomes "# Guide > ## Setup".
func formatHeaderPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, segment := range path {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", i+1), segment)
	}
	return strings.Join(parts, " > ")
}

// findHeaderByID locates a heading node by its auto-generated ID.
func findHeaderByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// nextBoundary finds the first header after current at the same or a
// shallower level. A zero segment means the section runs to the end.
func nextBoundary(root ast.Node, current ast.Node, currentLevel int) text.Segment {
	var boundary ast.Node
	passedCurrent := false

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}

		if !passedCurrent {
			if n == current {
				passedCurrent = true
			}
			return ast.WalkContinue, nil
		}

		if n.(*ast.Heading).Level <= currentLevel {
			boundary = n
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if boundary != nil {
		return boundary.Lines().At(0)
	}
	return text.Segment{}
}

// sliceBody extracts the source text between two line segments.
func sliceBody(source []byte, start, end text.Segment) string {
	var buf bytes.Buffer
	if end.Start == 0 && end.Stop == 0 {
		buf.Write(source[start.Start:])
	} else {
		buf.Write(source[start.Start:end.Start])
	}
	return strings.TrimSpace(buf.String())
}
