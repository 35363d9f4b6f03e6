package tree

import (
	"go.uber.org/zap"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/xlog"
)

var (
	_ AVLNode[any] = (*avlNode[any])(nil)
	_ AVLTree[any] = (*avlTree[any])(nil)
)

// References:
// https://en.wikipedia.org/wiki/AVL_tree
// The height of an absent subtree is 0, so a leaf has height 1.
// Balance factor is height(right) - height(left) and it stays in [-1, 1].

type avlNode[E any] struct {
	left   *avlNode[E]
	right  *avlNode[E]
	elem   E
	height int64
	// Set while the node is adopted by a tree.
	indexed bool
}

// NewAVLNode wraps elem into a leaf node. The caller owns the node until
// it is adopted by Insert.
func NewAVLNode[E any](elem E) AVLNode[E] {
	return &avlNode[E]{
		elem:   elem,
		height: 1,
	}
}

func (node *avlNode[E]) Element() E {
	return node.elem
}

func (node *avlNode[E]) Left() AVLNode[E] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *avlNode[E]) Right() AVLNode[E] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *avlNode[E]) Height() int64 {
	if node == nil {
		return 0
	}
	return node.height
}

// NodeHeight returns 0 for an absent node.
func NodeHeight[E any](node AVLNode[E]) int64 {
	if node == nil {
		return 0
	}
	return node.Height()
}

func (node *avlNode[E]) balance() int64 {
	if node == nil {
		return 0
	}
	return node.right.Height() - node.left.Height()
}

func (node *avlNode[E]) fixHeight() {
	node.height = max(node.left.Height(), node.right.Height()) + 1
}

func (node *avlNode[E]) unlink() {
	node.left, node.right = nil, nil
	node.height = 1
}

/*
	    |                      |
	    X                      L
	   / \   rotateRight(X)   / \
	  L   R  ============>  Ll   X
	 / \                        / \
	Ll  Lr                     Lr  R
*/
func (node *avlNode[E]) rotateRight() *avlNode[E] {
	pivot := node.left
	node.left, pivot.right = pivot.right, node
	// Child first, the pivot height depends on it.
	node.fixHeight()
	pivot.fixHeight()
	return pivot
}

/*
	    |                     |
	    X                     R
	   / \   rotateLeft(X)   / \
	  L   R  ===========>   X   Rr
	     / \               / \
	    Rl  Rr            L   Rl
*/
func (node *avlNode[E]) rotateLeft() *avlNode[E] {
	pivot := node.right
	node.right, pivot.left = pivot.left, node
	node.fixHeight()
	pivot.fixHeight()
	return pivot
}

// Zigzag, the heavy grandchild is the right child of the left child.
func (node *avlNode[E]) rotateLeftRight() *avlNode[E] {
	node.left = node.left.rotateLeft()
	return node.rotateRight()
}

// Zigzag, the heavy grandchild is the left child of the right child.
func (node *avlNode[E]) rotateRightLeft() *avlNode[E] {
	node.right = node.right.rotateRight()
	return node.rotateLeft()
}

// Removal may shrink a subtree on either side, so a zero balanced child
// is valid here and it is resolved by a single rotation.
func (node *avlNode[E]) rebalance() *avlNode[E] {
	node.fixHeight()
	switch b := node.balance(); {
	case b > 1:
		if node.right.balance() >= 0 {
			return node.rotateLeft()
		}
		return node.rotateRightLeft()
	case b < -1:
		if node.left.balance() <= 0 {
			return node.rotateRight()
		}
		return node.rotateLeftRight()
	default:
	}
	return node
}

type avlTree[E any] struct {
	root      *avlNode[E]
	hashField infra.HashField[E]
	logger    xlog.XLogger
	count     int64
}

func (tree *avlTree[E]) Len() int64 {
	return tree.count
}

func (tree *avlTree[E]) Root() AVLNode[E] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

func (tree *avlTree[E]) HashField() infra.HashField[E] {
	return tree.hashField
}

func (tree *avlTree[E]) keyOf(node *avlNode[E]) infra.HashKey {
	return tree.hashField(node.elem)
}

func (tree *avlTree[E]) Insert(node AVLNode[E]) bool {
	z, ok := node.(*avlNode[E])
	if !ok || z == nil {
		// impossible run to here
		panic( /* debug assertion */ "[avltree] insert a nil or foreign node")
	}
	if z.left != nil || z.right != nil {
		panic( /* debug assertion */ "[avltree] insert a node which still owns a subtree")
	}
	// A leaf of another tree has no children either. Sharing it would
	// alias the node between two trees.
	if z.indexed {
		panic( /* debug assertion */ "[avltree] insert a node which is still indexed")
	}
	z.height = 1

	key := tree.keyOf(z)
	var inserted bool
	tree.root, inserted = tree.insert(tree.root, z, key)
	if !inserted {
		tree.logger.Debug("[avltree] duplicate key ignored", zap.Uint64("key", key))
		return false
	}
	z.indexed = true
	tree.count++
	return true
}

func (tree *avlTree[E]) InsertElement(elem E) bool {
	return tree.Insert(NewAVLNode[E](elem))
}

// Only one node is added, so at most one single or double rotation at the
// lowest unbalanced ancestor restores the whole tree.
func (tree *avlTree[E]) insert(root, z *avlNode[E], key infra.HashKey) (*avlNode[E], bool) {
	if root == nil {
		return z, true
	}

	inserted := false
	switch rootKey := tree.keyOf(root); {
	case key < rootKey:
		root.left, inserted = tree.insert(root.left, z, key)
		if root.balance() == -2 {
			if key < tree.keyOf(root.left) {
				root = root.rotateRight()
			} else {
				root = root.rotateLeftRight()
			}
		}
	case key > rootKey:
		root.right, inserted = tree.insert(root.right, z, key)
		if root.balance() == 2 {
			if key > tree.keyOf(root.right) {
				root = root.rotateLeft()
			} else {
				root = root.rotateRightLeft()
			}
		}
	default:
		return root, false
	}
	root.fixHeight()
	return root, inserted
}

func (tree *avlTree[E]) Remove(key infra.HashKey) (AVLNode[E], bool) {
	var removed *avlNode[E]
	tree.root, removed = tree.remove(tree.root, key)
	if removed == nil {
		tree.logger.Debug("[avltree] remove key not found", zap.Uint64("key", key))
		return nil, false
	}
	removed.indexed = false
	tree.count--
	return removed, true
}

/*
r1: The target X owns both subtrees. Its in-order successor S (the
minimum of the right subtree) is removed from the right subtree first,
then S takes the place of X and inherits X's children.

	    |                       |
	    X                       S
	   / \    splice(S, X)     / \
	  L   R   ===========>    L   R'
	     /
	    S

r2: The target X owns at most one subtree, which replaces X directly.

Unlike insertion, every ancestor on the way back may need a rotation.
*/
func (tree *avlTree[E]) remove(root *avlNode[E], key infra.HashKey) (newRoot, removed *avlNode[E]) {
	if root == nil {
		return nil, nil
	}

	switch rootKey := tree.keyOf(root); {
	case key < rootKey:
		root.left, removed = tree.remove(root.left, key)
	case key > rootKey:
		root.right, removed = tree.remove(root.right, key)
	default:
		removed = root
		if /* r1 */ root.left != nil && root.right != nil {
			succ := root.right
			for succ.left != nil {
				succ = succ.left
			}
			root.right, succ = tree.remove(root.right, tree.keyOf(succ))
			succ.left, succ.right = root.left, root.right
			root = succ
		} else /* r2 */ if root.left == nil {
			root = root.right
		} else {
			root = root.left
		}
		removed.unlink()
	}

	if root == nil || removed == nil {
		return root, removed
	}
	return root.rebalance(), removed
}

func (tree *avlTree[E]) Find(key infra.HashKey) (AVLNode[E], bool) {
	for aux := tree.root; aux != nil; {
		switch auxKey := tree.keyOf(aux); {
		case key < auxKey:
			aux = aux.left
		case key > auxKey:
			aux = aux.right
		default:
			return aux, true
		}
	}
	return nil, false
}

func (tree *avlTree[E]) Release() {
	released := releaseSubtree(tree.root)
	tree.root = nil
	tree.count = 0
	tree.logger.Debug("[avltree] released", zap.Int64("nodes", released))
}

// DestroyNode unlinks a detached node and its whole subtree. The elements
// are left to the caller.
func DestroyNode[E any](node AVLNode[E]) {
	if node == nil {
		return
	}
	z, ok := node.(*avlNode[E])
	if !ok {
		panic( /* debug assertion */ "[avltree] destroy a foreign node")
	}
	releaseSubtree(z)
}

// Iterative, a deep detached chain must not grow the goroutine stack.
func releaseSubtree[E any](root *avlNode[E]) int64 {
	if root == nil {
		return 0
	}

	released := int64(0)
	stack := make([]*avlNode[E], 0, root.height+1)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, root)
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.left, aux.right, aux.height = nil, nil, 0
		aux.indexed = false
		released++
	}
	return released
}

type AVLTreeOpt[E any] func(*avlTree[E])

func WithAVLTreeLogger[E any](logger xlog.XLogger) AVLTreeOpt[E] {
	return func(tree *avlTree[E]) {
		if logger != nil {
			tree.logger = logger
		}
	}
}

func NewAVLTree[E any](hashField infra.HashField[E], opts ...AVLTreeOpt[E]) (AVLTree[E], error) {
	if hashField == nil {
		return nil, infra.NewErrorStack("[avltree] nil hash field extractor")
	}
	tree := &avlTree[E]{
		hashField: hashField,
		logger:    xlog.NewNopXLogger(),
	}
	for _, o := range opts {
		if o != nil {
			o(tree)
		}
	}
	return tree, nil
}

// NewHashableAVLTree orders the elements by their own HashKey.
func NewHashableAVLTree[E infra.Hashable](opts ...AVLTreeOpt[E]) AVLTree[E] {
	tree, _ := NewAVLTree[E](infra.HashFieldOf[E](), opts...)
	return tree
}
