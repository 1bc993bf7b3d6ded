package domain

import "time"

type NodeKind int

const (
	NodeContainer NodeKind = iota
	NodeNetworkLink
	NodeContent
)

func (kind NodeKind) String() string {
	switch kind {
	case NodeContainer:
		return "container"
	case NodeNetworkLink:
		return "network link"
	case NodeContent:
		return "content"
	default:
		return "unknown"
	}
}

// Node is one feature of a loaded KML document. Children keep document order.
type Node struct {
	ID              string
	Name            string
	Kind            NodeKind
	Description     string
	Visible         bool
	Href            string
	RefreshMode     string
	RefreshInterval time.Duration
	LoadError       string
	Children        []*Node
}

// Tree is a fully built document. It is not mutated once published.
type Tree struct {
	Source string
	Name   string
	Roots  []*Node
}

func (tree Tree) Empty() bool {
	return len(tree.Roots) == 0
}

// Count returns the number of nodes reachable from the roots.
func (tree Tree) Count() int {
	var walk func(nodes []*Node) int
	walk = func(nodes []*Node) int {
		total := 0
		for _, node := range nodes {
			total += 1 + walk(node.Children)
		}
		return total
	}
	return walk(tree.Roots)
}
