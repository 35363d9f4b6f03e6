// Package tree provides ordered indexes over caller-owned elements.
//
// The AVL tree is intrusive: every node wraps one element and the tree
// owns the node links only. Elements are ordered by the 64-bit key a
// caller-supplied infra.HashField extracts from them, so the key of an
// indexed element must not change while it stays in the tree.
//
// Note: a tree is not thread safe, either access it from a single
// goroutine or guard the whole tree with a mutex.
package tree
