package formatter

import (
	"github.com/xlab/treeprint"
)

// Node is a labelled tree node.
type Node struct {
	Label    string
	Children []Node
}

// RenderTree renders root as an ASCII tree. Nodes without children become leaves.
func RenderTree(root Node) string {
	tree := treeprint.NewWithRoot(root.Label)
	addChildren(tree, root.Children)
	return tree.String()
}

func addChildren(branch treeprint.Tree, children []Node) {
	for _, c := range children {
		if len(c.Children) == 0 {
			branch.AddNode(c.Label)
			continue
		}
		addChildren(branch.AddBranch(c.Label), c.Children)
	}
}
