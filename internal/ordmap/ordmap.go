// Package ordmap provides an unbalanced binary search tree keyed by an
// ordered type. Nodes are kept in a growable slice and children are referenced
// by index, so no operation recurses and a degenerate (list shaped) tree costs
// no stack.
package ordmap

import (
	"cmp"
	"iter"
)

const none = -1

type node[K, V any] struct {
	key         K
	value       V
	left, right int
}

// Map is not safe for concurrent use.
type Map[K, V any] struct {
	compare func(a, b K) int
	nodes   []node[K, V]
	root    int
}

func New[K cmp.Ordered, V any]() *Map[K, V] {
	return NewFunc[K, V](cmp.Compare[K])
}

// NewFunc returns a map ordered by compare, which must be a total order
// returning <0, 0 or >0.
func NewFunc[K, V any](compare func(a, b K) int) *Map[K, V] {
	return &Map[K, V]{compare: compare, root: none}
}

func (m *Map[K, V]) Len() int { return len(m.nodes) }

// Set inserts key as a new leaf, or replaces the value stored under an equal
// key without touching the tree shape.
func (m *Map[K, V]) Set(key K, value V) {
	if m.root == none {
		m.root = m.newNode(key, value)
		return
	}

	i := m.root
	for {
		n := &m.nodes[i]
		c := m.compare(key, n.key)
		switch {
		case c == 0:
			n.value = value
			return
		case c < 0:
			if n.left == none {
				idx := m.newNode(key, value)
				m.nodes[i].left = idx
				return
			}
			i = n.left
		default:
			if n.right == none {
				idx := m.newNode(key, value)
				m.nodes[i].right = idx
				return
			}
			i = n.right
		}
	}
}

func (m *Map[K, V]) newNode(key K, value V) int {
	m.nodes = append(m.nodes, node[K, V]{key: key, value: value, left: none, right: none})
	return len(m.nodes) - 1
}

// Get descends from the root and reports whether key is present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	i := m.root
	for i != none {
		n := &m.nodes[i]
		c := m.compare(key, n.key)
		switch {
		case c == 0:
			return n.value, true
		case c < 0:
			i = n.left
		default:
			i = n.right
		}
	}
	var zero V
	return zero, false
}

// All yields every pair in ascending key order. Each call starts a fresh walk.
// The map must not be modified while a walk is in progress.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		stack := make([]int, 0, 32)
		i := m.root
		for i != none || len(stack) > 0 {
			for i != none {
				stack = append(stack, i)
				i = m.nodes[i].left
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n := m.nodes[top]
			if !yield(n.key, n.value) {
				return
			}
			i = n.right
		}
	}
}

func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, len(m.nodes))
	for k := range m.All() {
		out = append(out, k)
	}
	return out
}

// Height is the number of nodes on the longest root-to-leaf path.
func (m *Map[K, V]) Height() int {
	if m.root == none {
		return 0
	}

	type frame struct{ idx, depth int }
	best := 0
	stack := []frame{{m.root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > best {
			best = f.depth
		}
		n := m.nodes[f.idx]
		if n.left != none {
			stack = append(stack, frame{n.left, f.depth + 1})
		}
		if n.right != none {
			stack = append(stack, frame{n.right, f.depth + 1})
		}
	}
	return best
}
