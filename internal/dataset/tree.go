package dataset

import (
	"maps"
	"slices"
)

// Node is one entry of a tree built by BuildTree. Nodes are owned by the
// tree; the items they wrap are copies.
type Node[T any] struct {
	ID       int
	Item     T
	Children []*Node[T]
	// Synthetic marks nodes that do not exist in the source map, such as
	// the "Other" leaves and sections added to filter option trees.
	Synthetic bool
}

// HasChild reports whether n has a direct child with the given id.
func (n *Node[T]) HasChild(id int) bool {
	for _, child := range n.Children {
		if child.ID == id {
			return true
		}
	}
	return false
}

// BuildTree turns a flat id map into its root nodes in a single pass over
// the items in ascending id order. Items without a parent become roots;
// items whose parent is in the map are appended to the parent's children;
// items whose parent is missing are dropped. items is not modified.
func BuildTree[T any](items map[int]T, parentOf func(T) (int, bool)) []*Node[T] {
	ids := slices.Sorted(maps.Keys(items))

	arena := make(map[int]*Node[T], len(items))
	for _, id := range ids {
		arena[id] = &Node[T]{ID: id, Item: items[id]}
	}

	var roots []*Node[T]
	for _, id := range ids {
		node := arena[id]
		parentID, ok := parentOf(node.Item)
		if !ok {
			roots = append(roots, node)
			continue
		}
		if parent, found := arena[parentID]; found && parent != node {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}

// Walk visits every node depth-first, parents before children.
func Walk[T any](roots []*Node[T], fn func(node *Node[T], depth int)) {
	var visit func(nodes []*Node[T], depth int)
	visit = func(nodes []*Node[T], depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(roots, 0)
}
