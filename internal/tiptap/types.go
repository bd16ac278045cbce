package tiptap

// Node type identifiers understood by the Circle editor. The vocabulary is
// fixed: anything outside it degrades to a paragraph during conversion.
const (
	TypeDoc            = "doc"
	TypeHeading        = "heading"
	TypeParagraph      = "paragraph"
	TypeBulletList     = "bulletList"
	TypeOrderedList    = "orderedList"
	TypeListItem       = "listItem"
	TypeCodeBlock      = "codeBlock"
	TypeBlockquote     = "blockquote"
	TypeHorizontalRule = "horizontalRule"
	TypeText           = "text"
)

// Mark type identifiers applied to text runs.
const (
	MarkBold   = "bold"
	MarkItalic = "italic"
	MarkLink   = "link"
)

// Mark decorates a text run with inline formatting.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node is a single content node in a TipTap document tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Document is the root of a TipTap tree, serialized as the post body payload.
type Document struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// NewDocument wraps the supplied nodes in a document root.
func NewDocument(nodes ...Node) Document {
	if nodes == nil {
		nodes = []Node{}
	}
	return Document{Type: TypeDoc, Content: nodes}
}

// Append returns the document with the supplied nodes added to the body.
func (d Document) Append(nodes ...Node) Document {
	d.Content = append(d.Content, nodes...)
	return d
}

// TextRun builds a plain text node.
func TextRun(text string) Node {
	return Node{Type: TypeText, Text: text}
}

// MarkedText builds a text node carrying a single mark.
func MarkedText(text string, mark Mark) Node {
	return Node{Type: TypeText, Marks: []Mark{mark}, Text: text}
}

// LinkMark builds a link mark pointing at href.
func LinkMark(href string) Mark {
	return Mark{Type: MarkLink, Attrs: map[string]any{"href": href}}
}

// LinkedText builds a text node rendered as a link to href.
func LinkedText(text, href string) Node {
	return MarkedText(text, LinkMark(href))
}

// Heading builds a heading node at the given level containing a single text run.
func Heading(level int, text string) Node {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return Node{
		Type:    TypeHeading,
		Attrs:   map[string]any{"level": level},
		Content: []Node{TextRun(text)},
	}
}

// Paragraph builds a paragraph node from the supplied inline nodes.
func Paragraph(content ...Node) Node {
	return Node{Type: TypeParagraph, Content: content}
}

// HorizontalRule builds a section separator node.
func HorizontalRule() Node {
	return Node{Type: TypeHorizontalRule}
}

// DownloadAction builds the download call-to-action node: a paragraph whose
// single text run carries the download URL as a link mark. Circle has no
// dedicated button node, so the link paragraph is the action surface.
func DownloadAction(url, label string) Node {
	return Paragraph(LinkedText(label, url))
}

// IsDownloadAction reports whether the node is a download action carrying the
// supplied URL. Used by callers asserting document shape.
func (n Node) IsDownloadAction(url string) bool {
	if n.Type != TypeParagraph || len(n.Content) != 1 {
		return false
	}
	run := n.Content[0]
	if run.Type != TypeText || len(run.Marks) != 1 {
		return false
	}
	mark := run.Marks[0]
	if mark.Type != MarkLink {
		return false
	}
	href, _ := mark.Attrs["href"].(string)
	return href == url
}
