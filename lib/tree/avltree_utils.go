package tree

import (
	"go.uber.org/multierr"

	"github.com/benz9527/xavl/lib/infra"
)

// avltree rule validation utilities.

// Inorder traversal, stops once action returns false.
func inorder[E any](tree AVLTree[E], action func(idx int64, node AVLNode[E]) bool) {
	aux := tree.Root()
	if aux == nil {
		return
	}

	stack := make([]AVLNode[E], 0, aux.Height())
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if !action(idx, aux) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
}

// Postorder traversal, visit receives the measured child heights instead
// of the cached ones.
func measure[E any](node AVLNode[E], visit func(node AVLNode[E], lh, rh int64)) int64 {
	if node == nil {
		return 0
	}
	lh := measure(node.Left(), visit)
	rh := measure(node.Right(), visit)
	visit(node, lh, rh)
	return max(lh, rh) + 1
}

// OrderViolationValidate checks the in-order keys strictly increase.
func OrderViolationValidate[E any](tree AVLTree[E]) (err error) {
	hashField := tree.HashField()
	var prev infra.HashKey
	inorder[E](tree, func(idx int64, node AVLNode[E]) bool {
		key := hashField(node.Element())
		if idx > 0 && key <= prev {
			err = infra.NewErrorStackf("[avltree] order violation, key %d follows key %d", key, prev)
			return false
		}
		prev = key
		return true
	})
	return err
}

// HeightViolationValidate checks every cached height equals
// 1 + max(height(left), height(right)).
func HeightViolationValidate[E any](tree AVLTree[E]) (err error) {
	hashField := tree.HashField()
	measure[E](tree.Root(), func(node AVLNode[E], lh, rh int64) {
		if err == nil && node.Height() != max(lh, rh)+1 {
			err = infra.NewErrorStackf("[avltree] height violation at key %d, cached %d, actual %d",
				hashField(node.Element()), node.Height(), max(lh, rh)+1)
		}
	})
	return err
}

// BalanceViolationValidate checks |height(right) - height(left)| <= 1 at
// every node.
func BalanceViolationValidate[E any](tree AVLTree[E]) (err error) {
	hashField := tree.HashField()
	measure[E](tree.Root(), func(node AVLNode[E], lh, rh int64) {
		if b := rh - lh; err == nil && (b > 1 || b < -1) {
			err = infra.NewErrorStackf("[avltree] balance violation at key %d, balance %d",
				hashField(node.Element()), b)
		}
	})
	return err
}

// SizeViolationValidate checks Len matches the reachable nodes.
func SizeViolationValidate[E any](tree AVLTree[E]) error {
	size := int64(0)
	inorder[E](tree, func(int64, AVLNode[E]) bool {
		size++
		return true
	})
	if size != tree.Len() {
		return infra.NewErrorStackf("[avltree] size violation, len %d, reachable %d", tree.Len(), size)
	}
	return nil
}

// Validate reports all the violated rules at once.
func Validate[E any](tree AVLTree[E]) error {
	return multierr.Combine(
		OrderViolationValidate[E](tree),
		HeightViolationValidate[E](tree),
		BalanceViolationValidate[E](tree),
		SizeViolationValidate[E](tree),
	)
}
