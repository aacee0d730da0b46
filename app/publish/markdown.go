package publish

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MarkdownConverter renders chart descriptions. Raw HTML in the source is
// dropped, links open in a new tab and headings start below the chart
// title.
type MarkdownConverter struct {
	goldmark goldmark.Markdown
}

func NewMarkdownConverter() *MarkdownConverter {
	return &MarkdownConverter{
		goldmark: goldmark.New(goldmark.WithExtensions(&descriptionExtension{})),
	}
}

func (mc *MarkdownConverter) ConvertToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := mc.goldmark.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type descriptionExtension struct{}

func (e *descriptionExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&descriptionTransformer{}, 100),
		),
	)
}

type descriptionTransformer struct{}

// the published page renders the title as h1
const minHeadingLevel = 2

func (t *descriptionTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	var autoLinks []*ast.AutoLink
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			h := n.(*ast.Heading)
			h.Level = min(h.Level+minHeadingLevel-1, 6)
		case ast.KindLink:
			setExternal(n)
		case ast.KindAutoLink:
			autoLinks = append(autoLinks, n.(*ast.AutoLink))
		}
		return ast.WalkContinue, nil
	})

	// autolinks cannot carry attributes, so they become plain links
	for _, al := range autoLinks {
		link := ast.NewLink()
		link.Destination = al.URL(reader.Source())
		setExternal(link)
		link.AppendChild(link, ast.NewString(al.Label(reader.Source())))
		al.Parent().ReplaceChild(al.Parent(), al, link)
	}
}

func setExternal(n ast.Node) {
	n.SetAttributeString("target", []byte("_blank"))
	n.SetAttributeString("rel", []byte("noopener noreferrer"))
}
