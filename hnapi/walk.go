package hnapi

import (
	"context"

	"github.com/SirZenith/hnfeed/hn"
	"golang.org/x/sync/errgroup"
)

// Comment is one node reached by WalkComments. Item is nil when it could not
// be loaded, Err tells why. Depth of direct replies to root is 1.
type Comment struct {
	ID    hn.ItemID
	Item  *hn.Item
	Err   error
	Depth int
}

type VisitFunc func(comment Comment) error

// WalkComments loads comment tree under root level by level, each level is
// fetched concurrently. A comment that fails to load is visited with its
// error and its siblings are kept. Non-positive maxDepth means no limit.
// Visiting stops at first error returned by `visit` or when ctx is done.
func (c *Client) WalkComments(ctx context.Context, root *hn.Item, maxDepth int, visit VisitFunc) error {
	level := root.Kids

	for depth := 1; len(level) > 0; depth++ {
		if maxDepth > 0 && depth > maxDepth {
			break
		}

		items, errs := c.fetchEach(ctx, level)
		if err := ctx.Err(); err != nil {
			return err
		}

		next := []hn.ItemID{}
		for i, id := range level {
			comment := Comment{ID: id, Item: items[i], Err: errs[i], Depth: depth}
			if visit != nil {
				if err := visit(comment); err != nil {
					return err
				}
			}
			if comment.Item != nil {
				next = append(next, comment.Item.Kids...)
			}
		}

		level = next
	}

	return nil
}

// fetchEach fetches items concurrently, unlike FetchItems a failed item does
// not cancel the others. Result slices are in order of `ids`.
func (c *Client) fetchEach(ctx context.Context, ids []hn.ItemID) ([]*hn.Item, []error) {
	items := make([]*hn.Item, len(ids))
	errs := make([]error, len(ids))

	group := errgroup.Group{}
	group.SetLimit(c.parallelism)

	for i, id := range ids {
		group.Go(func() error {
			items[i], errs[i] = c.fetchItem(ctx, id, false)
			return nil
		})
	}
	group.Wait()

	return items, errs
}

// CommentTree holds every item of a loaded comment tree, together with
// comments that failed to load.
type CommentTree struct {
	Root   *hn.Item
	Items  map[hn.ItemID]*hn.Item
	Errors map[hn.ItemID]error
}

// LoadCommentTree loads whole comment tree of root into memory. Failed
// comments are recorded in Errors, only cancellation fails the whole tree.
func (c *Client) LoadCommentTree(ctx context.Context, root *hn.Item, maxDepth int) (*CommentTree, error) {
	tree := &CommentTree{
		Root:   root,
		Items:  map[hn.ItemID]*hn.Item{root.ID: root},
		Errors: map[hn.ItemID]error{},
	}

	err := c.WalkComments(ctx, root, maxDepth, func(comment Comment) error {
		if comment.Err != nil {
			tree.Errors[comment.ID] = comment.Err
		} else {
			tree.Items[comment.ID] = comment.Item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tree, nil
}

// Walk visits comments depth first in order of `kids`, starting from
// children of root. Failed comments are visited with Err set, comments never
// loaded are skipped.
func (t *CommentTree) Walk(visit func(comment Comment)) {
	var walk func(ids []hn.ItemID, depth int)
	walk = func(ids []hn.ItemID, depth int) {
		for _, id := range ids {
			if item := t.Items[id]; item != nil {
				visit(Comment{ID: id, Item: item, Depth: depth})
				walk(item.Kids, depth+1)
			} else if err := t.Errors[id]; err != nil {
				visit(Comment{ID: id, Err: err, Depth: depth})
			}
		}
	}

	walk(t.Root.Kids, 1)
}
