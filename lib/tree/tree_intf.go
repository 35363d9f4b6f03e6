package tree

import "github.com/benz9527/xavl/lib/infra"

// AVLNode wraps one caller element. The tree owns the node links only,
// the element is referenced and never released by the tree.
type AVLNode[E any] interface {
	Element() E
	// Left returns nil if there is no left subtree.
	Left() AVLNode[E]
	// Right returns nil if there is no right subtree.
	Right() AVLNode[E]
	Height() int64
}

// AVLTree is an intrusive AVL balanced index keyed by infra.HashKey.
// It is not thread safe, the callers have to serialize the access.
type AVLTree[E any] interface {
	Len() int64
	Root() AVLNode[E]
	HashField() infra.HashField[E]
	// Insert adopts a fresh or detached node. It returns false and leaves
	// the tree untouched if the key is already indexed.
	// A node still adopted by any tree, this one included, must be removed
	// first. Inserting it again panics.
	Insert(node AVLNode[E]) bool
	InsertElement(elem E) bool
	// Remove detaches the node of key. The detached node has no children
	// and a height of 1, its ownership returns to the caller.
	Remove(key infra.HashKey) (AVLNode[E], bool)
	Find(key infra.HashKey) (AVLNode[E], bool)
	// Release unlinks all nodes. The elements are left untouched.
	Release()
}
