package types

import "errors"

// SummaryLevel discriminates the levels of the summary tree
type SummaryLevel string

const (
	LevelFile       SummaryLevel = "file"
	LevelModule     SummaryLevel = "module"
	LevelRepository SummaryLevel = "repository"
)

// SummaryNode is one node of the hierarchical summary tree. File nodes are
// leaves (one per FileAnalysis), module nodes group files by directory, and
// a single repository node forms the root. A node's text is derived only
// from its children; no node skips a level.
//
// Ownership is strictly top-down: a parent exclusively owns its children
// and nodes carry no back-references.
type SummaryNode struct {
	Level SummaryLevel

	// ID is the file path for file nodes, the directory path for module
	// nodes, and "repository" for the root
	ID string

	// Text is the generated summary, bounded by the configured budget
	Text string

	// Sources lists the file paths or child node IDs that contributed
	Sources []string

	TokenCount int

	// Degraded marks a node whose text is a fallback placeholder after
	// analysis or provider failure
	Degraded bool

	// Children are ordered for reproducibility; order does not affect
	// correctness of the tree
	Children []*SummaryNode
}

// ValidateLevel checks if the summary level is valid
func (n *SummaryNode) ValidateLevel() error {
	switch n.Level {
	case LevelFile, LevelModule, LevelRepository:
		return nil
	default:
		return errors.New("invalid summary level")
	}
}

// Validate checks level tags and parent/child level relations for the
// whole subtree rooted at n
func (n *SummaryNode) Validate() error {
	if n.ID == "" {
		return errors.New("summary node ID is required")
	}

	if err := n.ValidateLevel(); err != nil {
		return err
	}

	if n.Level == LevelFile && len(n.Children) > 0 {
		return errors.New("file nodes must be leaves")
	}

	for _, child := range n.Children {
		if !validChildLevel(n.Level, child.Level) {
			return errors.New("summary tree skips a level")
		}
		if err := child.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// validChildLevel reports whether child may appear directly under parent
func validChildLevel(parent, child SummaryLevel) bool {
	switch parent {
	case LevelRepository:
		return child == LevelModule
	case LevelModule:
		// Module nodes may nest (superdirectory grouping) or hold files
		return child == LevelModule || child == LevelFile
	default:
		return false
	}
}

// Walk visits the subtree rooted at n in depth-first pre-order. Traversal
// stops if fn returns false.
func (n *SummaryNode) Walk(fn func(*SummaryNode) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Leaves returns all file-level nodes of the subtree in traversal order
func (n *SummaryNode) Leaves() []*SummaryNode {
	var leaves []*SummaryNode
	n.Walk(func(node *SummaryNode) bool {
		if node.Level == LevelFile {
			leaves = append(leaves, node)
		}
		return true
	})
	return leaves
}

// CountDegraded returns the number of degraded nodes in the subtree
func (n *SummaryNode) CountDegraded() int {
	count := 0
	n.Walk(func(node *SummaryNode) bool {
		if node.Degraded {
			count++
		}
		return true
	})
	return count
}
