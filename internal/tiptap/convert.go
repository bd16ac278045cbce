package tiptap

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Converter turns Markdown source into a TipTap document tree. The converter
// is intentionally stateless so callers can reuse a single instance across
// requests without additional locking.
//
// Conversion is best effort: unsupported constructs degrade to the nearest
// supported node (usually a plain paragraph) rather than failing, because a
// partial render is preferable to blocking a publish.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter constructs a converter backed by a CommonMark goldmark engine.
// No extensions are enabled; the output vocabulary is fixed by the Circle
// editor, so extension nodes would only widen the degradation surface.
func NewConverter() *Converter {
	return &Converter{md: goldmark.New()}
}

// Convert parses the Markdown source and returns the equivalent TipTap
// document. Identical input always yields an identical tree.
func (c *Converter) Convert(source []byte) Document {
	root := c.md.Parser().Parse(text.NewReader(source))
	return NewDocument(c.convertBlocks(root, source)...)
}

// ConvertBody is like Convert but returns only the top-level nodes, for
// callers composing a larger document.
func (c *Converter) ConvertBody(source []byte) []Node {
	root := c.md.Parser().Parse(text.NewReader(source))
	return c.convertBlocks(root, source)
}

func (c *Converter) convertBlocks(parent ast.Node, source []byte) []Node {
	nodes := []Node{}
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if node, ok := c.convertBlock(child, source); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (c *Converter) convertBlock(block ast.Node, source []byte) (Node, bool) {
	switch typed := block.(type) {
	case *ast.Heading:
		level := typed.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return Node{
			Type:    TypeHeading,
			Attrs:   map[string]any{"level": level},
			Content: c.convertInlines(typed, source),
		}, true

	case *ast.Paragraph:
		return Node{Type: TypeParagraph, Content: c.convertInlines(typed, source)}, true

	case *ast.TextBlock:
		// Tight list items carry text blocks instead of paragraphs.
		return Node{Type: TypeParagraph, Content: c.convertInlines(typed, source)}, true

	case *ast.List:
		listType := TypeBulletList
		if typed.IsOrdered() {
			listType = TypeOrderedList
		}
		return Node{Type: listType, Content: c.convertListItems(typed, source)}, true

	case *ast.Blockquote:
		return Node{Type: TypeBlockquote, Content: c.convertBlocks(typed, source)}, true

	case *ast.FencedCodeBlock:
		node := Node{
			Type:    TypeCodeBlock,
			Content: []Node{TextRun(blockLines(typed, source))},
		}
		if lang := string(typed.Language(source)); lang != "" {
			node.Attrs = map[string]any{"language": lang}
		}
		return node, true

	case *ast.CodeBlock:
		return Node{
			Type:    TypeCodeBlock,
			Content: []Node{TextRun(blockLines(typed, source))},
		}, true

	case *ast.ThematicBreak:
		return HorizontalRule(), true

	case *ast.HTMLBlock:
		// Raw HTML is outside the node vocabulary; degrade to plain text.
		raw := strings.TrimSpace(blockLines(typed, source))
		if raw == "" {
			return Node{}, false
		}
		return Paragraph(TextRun(raw)), true

	default:
		// Unknown block types degrade to a paragraph over their inline text.
		if block.Type() == ast.TypeBlock {
			if content := c.convertInlines(block, source); len(content) > 0 {
				return Node{Type: TypeParagraph, Content: content}, true
			}
		}
		return Node{}, false
	}
}

func (c *Converter) convertListItems(list *ast.List, source []byte) []Node {
	items := []Node{}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if _, ok := item.(*ast.ListItem); !ok {
			continue
		}
		items = append(items, Node{
			Type:    TypeListItem,
			Content: c.convertBlocks(item, source),
		})
	}
	return items
}

// convertInlines flattens the inline children of a block into TipTap text
// runs. Nested marks collapse to the outermost one, matching the rendering
// the Circle editor produces for the same markdown.
func (c *Converter) convertInlines(parent ast.Node, source []byte) []Node {
	runs := []Node{}
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		runs = append(runs, c.convertInline(child, source)...)
	}
	return runs
}

func (c *Converter) convertInline(inline ast.Node, source []byte) []Node {
	switch typed := inline.(type) {
	case *ast.Text:
		runs := []Node{}
		if value := string(typed.Segment.Value(source)); value != "" {
			runs = append(runs, TextRun(value))
		}
		if typed.SoftLineBreak() || typed.HardLineBreak() {
			// Line breaks inside a paragraph collapse to a single space.
			runs = append(runs, TextRun(" "))
		}
		return runs

	case *ast.String:
		if len(typed.Value) == 0 {
			return nil
		}
		return []Node{TextRun(string(typed.Value))}

	case *ast.Emphasis:
		flat := flattenText(typed, source)
		if flat == "" {
			return nil
		}
		mark := Mark{Type: MarkItalic}
		if typed.Level >= 2 {
			mark = Mark{Type: MarkBold}
		}
		return []Node{MarkedText(flat, mark)}

	case *ast.Link:
		label := flattenText(typed, source)
		href := string(typed.Destination)
		if label == "" {
			label = href
		}
		if label == "" {
			return nil
		}
		return []Node{LinkedText(label, href)}

	case *ast.AutoLink:
		url := string(typed.URL(source))
		if url == "" {
			return nil
		}
		return []Node{LinkedText(url, url)}

	case *ast.CodeSpan:
		// Circle mishandles the inline code mark; render as plain text.
		if flat := flattenText(typed, source); flat != "" {
			return []Node{TextRun(flat)}
		}
		return nil

	case *ast.Image:
		// Images cannot be embedded through the post body; keep the alt text.
		if alt := flattenText(typed, source); alt != "" {
			return []Node{TextRun(alt)}
		}
		return nil

	case *ast.RawHTML:
		return nil

	default:
		if flat := flattenText(inline, source); flat != "" {
			return []Node{TextRun(flat)}
		}
		return nil
	}
}

// flattenText collects the plain text of an inline subtree in source order.
func flattenText(node ast.Node, source []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch typed := n.(type) {
		case *ast.Text:
			sb.Write(typed.Segment.Value(source))
			if typed.SoftLineBreak() || typed.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(typed.Value)
		default:
			for child := n.FirstChild(); child != nil; child = child.NextSibling() {
				walk(child)
			}
		}
	}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		walk(child)
	}
	return sb.String()
}

// blockLines joins the raw source lines of a block node.
func blockLines(block ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return buf.String()
}
