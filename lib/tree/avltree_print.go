package tree

import (
	"fmt"
	"io"
)

type printBranch uint8

const (
	printRoot printBranch = iota
	printLeft
	printRight
)

// Print renders the tree sideways, the right subtree above its parent and
// the left one below. It returns the depth printed.
//
//	       /------+ 30 h=1
//	|------+ 20 h=2
//	       \------+ 10 h=1
func Print[E any](w io.Writer, tree AVLTree[E]) int {
	return printNode[E](w, tree, tree.Root(), "", printRoot)
}

func printNode[E any](w io.Writer, tree AVLTree[E], node AVLNode[E], prefix string, br printBranch) int {
	if node == nil {
		return 0
	}

	rd, ld := 0, 0
	if right := node.Right(); right != nil {
		pad := "       "
		if br == printLeft {
			pad = "|      "
		}
		rd = printNode[E](w, tree, right, prefix+pad, printRight)
	}

	switch br {
	case printRoot:
		_, _ = fmt.Fprintf(w, "%s|------+ ", prefix)
	case printLeft:
		_, _ = fmt.Fprintf(w, "%s\\------+ ", prefix)
	case printRight:
		_, _ = fmt.Fprintf(w, "%s/------+ ", prefix)
	}
	_, _ = fmt.Fprintf(w, "%d h=%d\n", tree.HashField()(node.Element()), node.Height())

	if left := node.Left(); left != nil {
		pad := "       "
		if br == printRight {
			pad = "|      "
		}
		ld = printNode[E](w, tree, left, prefix+pad, printLeft)
	}
	return 1 + max(rd, ld)
}
