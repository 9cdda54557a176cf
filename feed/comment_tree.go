package feed

import (
	"github.com/SirZenith/hnfeed/hn"
)

// Node is one comment in a tree, its item may not be loaded yet.
type Node struct {
	ID        hn.ItemID
	Item      *hn.Item
	Err       error
	Requested bool
	Collapsed bool
	Depth     int
}

func (n *Node) Loaded() bool {
	return n.Item != nil
}

// Row is one visible line of a flattened comment tree.
type Row struct {
	ID        hn.ItemID
	Depth     int
	Item      *hn.Item
	Err       error
	Loading   bool
	Collapsed bool
}

// CommentTree tracks lazily loaded comments of a story. Children of a comment
// are requested only once the comment itself is loaded and expanded.
type CommentTree struct {
	Story *hn.Item
	nodes map[hn.ItemID]*Node
}

func NewCommentTree(story *hn.Item) *CommentTree {
	t := &CommentTree{
		Story: story,
		nodes: map[hn.ItemID]*Node{},
	}
	t.addChildren(story.Kids, 1)

	return t
}

func (t *CommentTree) addChildren(ids []hn.ItemID, depth int) {
	for _, id := range ids {
		if _, ok := t.nodes[id]; ok {
			continue
		}
		t.nodes[id] = &Node{ID: id, Depth: depth}
	}
}

func (t *CommentTree) Node(id hn.ItemID) *Node {
	return t.nodes[id]
}

// Pending returns IDs of visible nodes that were never requested and marks
// them as requested.
func (t *CommentTree) Pending() []hn.ItemID {
	result := []hn.ItemID{}

	var walk func(ids []hn.ItemID)
	walk = func(ids []hn.ItemID) {
		for _, id := range ids {
			node := t.nodes[id]
			if node == nil {
				continue
			}

			if !node.Requested {
				node.Requested = true
				result = append(result, id)
			}

			if node.Item != nil && !node.Collapsed {
				walk(node.Item.Kids)
			}
		}
	}
	walk(t.Story.Kids)

	return result
}

// SetItem stores loaded comment, items not belonging to this tree are
// ignored.
func (t *CommentTree) SetItem(item *hn.Item) {
	node := t.nodes[item.ID]
	if node == nil {
		return
	}

	node.Item = item
	node.Err = nil
	node.Requested = true
	t.addChildren(item.Kids, node.Depth+1)
}

func (t *CommentTree) SetError(id hn.ItemID, err error) {
	if node := t.nodes[id]; node != nil {
		node.Err = err
	}
}

// Retry clears error of a node so that it is returned by Pending again.
func (t *CommentTree) Retry(id hn.ItemID) bool {
	node := t.nodes[id]
	if node == nil || node.Err == nil {
		return false
	}

	node.Err = nil
	node.Requested = false

	return true
}

// Toggle collapses or expands a node, returns collapsed state after toggling.
func (t *CommentTree) Toggle(id hn.ItemID) bool {
	node := t.nodes[id]
	if node == nil {
		return false
	}

	node.Collapsed = !node.Collapsed

	return node.Collapsed
}

// Rows flattens visible part of the tree depth first, children in order of
// `kids`. Descendants of collapsed nodes are skipped.
func (t *CommentTree) Rows() []Row {
	rows := []Row{}

	var walk func(ids []hn.ItemID)
	walk = func(ids []hn.ItemID) {
		for _, id := range ids {
			node := t.nodes[id]
			if node == nil {
				continue
			}

			rows = append(rows, Row{
				ID:        id,
				Depth:     node.Depth,
				Item:      node.Item,
				Err:       node.Err,
				Loading:   node.Item == nil && node.Err == nil,
				Collapsed: node.Collapsed,
			})

			if node.Item != nil && !node.Collapsed {
				walk(node.Item.Kids)
			}
		}
	}
	walk(t.Story.Kids)

	return rows
}

// Counts returns number of loaded, requested and failed nodes.
func (t *CommentTree) Counts() (loaded, requested, failed int) {
	for _, node := range t.nodes {
		if node.Item != nil {
			loaded++
		}
		if node.Requested {
			requested++
		}
		if node.Err != nil {
			failed++
		}
	}
	return loaded, requested, failed
}
