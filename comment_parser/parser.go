package comment_parser

import (
	"strings"

	"github.com/SirZenith/hnfeed/common/html_util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentNewLine
	SegmentLink
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentText:
		return "text"
	case SegmentNewLine:
		return "newline"
	case SegmentLink:
		return "link"
	default:
		return "unknown"
	}
}

type Style struct {
	Italic    bool
	Monospace bool
}

// Segment is one renderable piece of comment text.
type Segment struct {
	Kind  SegmentKind
	Text  string
	URL   string // target of link segment
	Style Style
}

type parseState struct {
	italic    int
	monospace int
	segments  []Segment
}

func (s *parseState) style() Style {
	return Style{
		Italic:    s.italic > 0,
		Monospace: s.monospace > 0,
	}
}

// ReplaceControl replaces control characters other than new line and tab
// with U+FFFD, so that decoded text is safe to write to a terminal.
func ReplaceControl(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return '\uFFFD'
		}
		return r
	}, text)
}

func (s *parseState) appendText(text string) {
	if text == "" {
		return
	}
	text = ReplaceControl(text)

	style := s.style()

	if cnt := len(s.segments); cnt > 0 {
		last := &s.segments[cnt-1]
		if last.Kind == SegmentText && last.Style == style {
			last.Text += text
			return
		}
	}

	s.segments = append(s.segments, Segment{
		Kind:  SegmentText,
		Text:  text,
		Style: style,
	})
}

func (s *parseState) walk(node *html.Node) {
	switch node.Type {
	case html.TextNode:
		s.appendText(node.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch node.DataAtom {
	case atom.P:
		s.segments = append(s.segments, Segment{Kind: SegmentNewLine})
	case atom.Br:
		s.segments = append(s.segments, Segment{Kind: SegmentNewLine})
		return
	case atom.A:
		href, ok := html_util.GetNodeAttrVal(node, "href", "")
		if ok {
			text := ReplaceControl(strings.Join(html_util.ExtractText(node), ""))
			s.segments = append(s.segments, Segment{
				Kind:  SegmentLink,
				Text:  text,
				URL:   href,
				Style: s.style(),
			})
			return
		}
	case atom.I, atom.Em:
		s.italic++
		defer func() { s.italic-- }()
	case atom.Pre, atom.Code:
		s.monospace++
		defer func() { s.monospace-- }()
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		s.walk(child)
	}
}

// Parse splits HN formatted text into segments. Entities are decoded, <p>
// starts a new line, <i> is italic, <pre> and <code> are monospace, and
// <a href> becomes a link segment. Other tags are dropped with their text kept.
// Numeric entities follow HTML rules, so `&#27;` is ESC rather than `'`;
// decoded control characters are replaced with U+FFFD (see ReplaceControl).
// Malformed markup is handled the way a browser would, Parse never fails.
func Parse(content string) []Segment {
	if content == "" {
		return nil
	}

	root, err := html_util.ParseFragment(content)
	if err != nil {
		return []Segment{{Kind: SegmentText, Text: ReplaceControl(html.UnescapeString(content))}}
	}

	state := &parseState{}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		state.walk(child)
	}

	return state.segments
}

// PlainText joins segments into plain string, new lines become "\n" and links
// are replaced by their text.
func PlainText(segments []Segment) string {
	buffer := strings.Builder{}
	for _, seg := range segments {
		switch seg.Kind {
		case SegmentNewLine:
			buffer.WriteByte('\n')
		default:
			buffer.WriteString(seg.Text)
		}
	}

	return buffer.String()
}

// ToPlainText parses content and returns its plain text form.
func ToPlainText(content string) string {
	return PlainText(Parse(content))
}
