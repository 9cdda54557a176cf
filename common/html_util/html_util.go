package html_util

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses HTML snippet as children of a <body> element. Returned
// node is the synthetic body, fragment nodes are attached to it.
func ParseFragment(content string) (*html.Node, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}

	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, err
	}

	for _, node := range nodes {
		body.AppendChild(node)
	}

	return body, nil
}

func GetNodeAttr(node *html.Node, attrName string) *html.Attribute {
	var result *html.Attribute

	for i := range node.Attr {
		attr := &node.Attr[i]
		if attr.Key == attrName {
			result = attr
			break
		}
	}

	return result
}

// GetNodeAttrVal returns value of specified attreibute. If such attribute cannot
// be found, this function will return `defaultValue` instead.
func GetNodeAttrVal(node *html.Node, attrName string, defaultValue string) (string, bool) {
	if attr := GetNodeAttr(node, attrName); attr != nil {
		return attr.Val, true
	} else {
		return defaultValue, false
	}
}

// ExtractText extracts all text node under given node as a slice.
func ExtractText(node *html.Node) []string {
	content := []string{}

	child := node.FirstChild
	for child != nil {
		if child.FirstChild != nil {
			child = child.FirstChild
			continue
		}

		if child.Type == html.TextNode {
			content = append(content, child.Data)
		}

		if child.NextSibling != nil {
			child = child.NextSibling
		} else {
			parent := child.Parent
			child = nil

			for parent != nil && parent != node {
				if parent.NextSibling != nil {
					child = parent.NextSibling
					break
				}

				parent = parent.Parent
			}
		}
	}

	return content
}
