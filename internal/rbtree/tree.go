// Package rbtree implements a red-black tree keyed by uint64 price ticks.
//
// Nodes live in an arena (a map keyed by the node key) and reference each
// other by key. Key 0 is reserved: it holds the black sentinel that stands in
// for every leaf and for the root's parent, so it can never be inserted.
package rbtree

import "errors"

const empty uint64 = 0

var (
	ErrKeyIsEmpty  = errors.New("rbtree: key 0 is reserved")
	ErrKeyExists   = errors.New("rbtree: key already exists")
	ErrKeyNotFound = errors.New("rbtree: key not found")
	ErrTreeIsEmpty = errors.New("rbtree: tree is empty")
)

type node[V any] struct {
	parent uint64
	left   uint64
	right  uint64
	red    bool
	value  V
}

// Node is a read-only view of one arena entry.
type Node[V any] struct {
	Key    uint64
	Parent uint64
	Left   uint64
	Right  uint64
	Red    bool
	Value  V
}

// Tree is not safe for concurrent use; callers serialize access.
type Tree[V any] struct {
	root  uint64
	nodes map[uint64]*node[V]
}

// New returns an empty tree holding only the sentinel.
func New[V any]() *Tree[V] {
	return &Tree[V]{
		root:  empty,
		nodes: map[uint64]*node[V]{empty: {}},
	}
}

// Len returns the number of keys in the tree.
func (t *Tree[V]) Len() int { return len(t.nodes) - 1 }

// Root returns the root key, or 0 when the tree is empty.
func (t *Tree[V]) Root() uint64 { return t.root }

// Exists reports whether key is in the tree. The reserved zero key never is.
func (t *Tree[V]) Exists(key uint64) bool {
	if key == empty {
		return false
	}
	_, ok := t.nodes[key]
	return ok
}

// Get returns the value stored at key.
func (t *Tree[V]) Get(key uint64) (V, bool) {
	if key == empty {
		var zero V
		return zero, false
	}
	n, ok := t.nodes[key]
	if !ok {
		var zero V
		return zero, false
	}
	return n.value, true
}

// GetNode exposes the structure around key, mostly for inspection and tests.
func (t *Tree[V]) GetNode(key uint64) (Node[V], error) {
	if key == empty {
		return Node[V]{}, ErrKeyIsEmpty
	}
	n, ok := t.nodes[key]
	if !ok {
		return Node[V]{}, ErrKeyNotFound
	}
	return Node[V]{
		Key:    key,
		Parent: n.parent,
		Left:   n.left,
		Right:  n.right,
		Red:    n.red,
		Value:  n.value,
	}, nil
}

// First returns the smallest key, or 0 when the tree is empty.
func (t *Tree[V]) First() uint64 { return t.min(t.root) }

// Last returns the largest key, or 0 when the tree is empty.
func (t *Tree[V]) Last() uint64 { return t.max(t.root) }

// Next returns the in-order successor of key, or 0 if key is the largest.
func (t *Tree[V]) Next(key uint64) (uint64, error) {
	if err := t.checkPresent(key); err != nil {
		return empty, err
	}
	return t.next(key), nil
}

// Prev returns the in-order predecessor of key, or 0 if key is the smallest.
func (t *Tree[V]) Prev(key uint64) (uint64, error) {
	if err := t.checkPresent(key); err != nil {
		return empty, err
	}
	return t.prev(key), nil
}

// Ceiling returns the smallest present key >= key, or 0.
func (t *Tree[V]) Ceiling(key uint64) uint64 {
	best := empty
	for x := t.root; x != empty; {
		switch {
		case key == x:
			return x
		case key < x:
			best = x
			x = t.nodes[x].left
		default:
			x = t.nodes[x].right
		}
	}
	return best
}

// Floor returns the largest present key <= key, or 0.
func (t *Tree[V]) Floor(key uint64) uint64 {
	best := empty
	for x := t.root; x != empty; {
		switch {
		case key == x:
			return x
		case key > x:
			best = x
			x = t.nodes[x].right
		default:
			x = t.nodes[x].left
		}
	}
	return best
}

// Ascend visits keys from smallest to largest until fn returns false.
func (t *Tree[V]) Ascend(fn func(key uint64, value V) bool) {
	for x := t.min(t.root); x != empty; x = t.next(x) {
		if !fn(x, t.nodes[x].value) {
			return
		}
	}
}

// Descend visits keys from largest to smallest until fn returns false.
func (t *Tree[V]) Descend(fn func(key uint64, value V) bool) {
	for x := t.max(t.root); x != empty; x = t.prev(x) {
		if !fn(x, t.nodes[x].value) {
			return
		}
	}
}

// Insert adds key with value and rebalances.
func (t *Tree[V]) Insert(key uint64, value V) error {
	if key == empty {
		return ErrKeyIsEmpty
	}
	if _, ok := t.nodes[key]; ok {
		return ErrKeyExists
	}

	y := empty
	for x := t.root; x != empty; {
		y = x
		if key < x {
			x = t.nodes[x].left
		} else {
			x = t.nodes[x].right
		}
	}

	t.nodes[key] = &node[V]{parent: y, left: empty, right: empty, red: true, value: value}
	switch {
	case y == empty:
		t.root = key
	case key < y:
		t.nodes[y].left = key
	default:
		t.nodes[y].right = key
	}
	t.insertFixup(key)
	return nil
}

// Remove deletes key and rebalances. A node with two children is replaced by
// its in-order successor.
func (t *Tree[V]) Remove(key uint64) error {
	if key == empty {
		return ErrKeyIsEmpty
	}
	z, ok := t.nodes[key]
	if !ok {
		return ErrKeyNotFound
	}

	removedRed := z.red
	var x uint64
	switch {
	case z.left == empty:
		x = z.right
		t.transplant(key, z.right)
	case z.right == empty:
		x = z.left
		t.transplant(key, z.left)
	default:
		y := t.min(z.right)
		yn := t.nodes[y]
		removedRed = yn.red
		x = yn.right
		if yn.parent == key {
			t.nodes[x].parent = y
		} else {
			t.transplant(y, yn.right)
			yn.right = z.right
			t.nodes[yn.right].parent = y
		}
		t.transplant(key, y)
		yn.left = z.left
		t.nodes[yn.left].parent = y
		yn.red = z.red
	}
	delete(t.nodes, key)

	if !removedRed {
		t.deleteFixup(x)
	}
	// the fix-up may have parked a parent on the sentinel
	t.nodes[empty].parent = empty
	t.nodes[empty].red = false
	return nil
}

func (t *Tree[V]) checkPresent(key uint64) error {
	if key == empty {
		return ErrKeyIsEmpty
	}
	if t.root == empty {
		return ErrTreeIsEmpty
	}
	if _, ok := t.nodes[key]; !ok {
		return ErrKeyNotFound
	}
	return nil
}

func (t *Tree[V]) min(x uint64) uint64 {
	if x == empty {
		return empty
	}
	for t.nodes[x].left != empty {
		x = t.nodes[x].left
	}
	return x
}

func (t *Tree[V]) max(x uint64) uint64 {
	if x == empty {
		return empty
	}
	for t.nodes[x].right != empty {
		x = t.nodes[x].right
	}
	return x
}

func (t *Tree[V]) next(x uint64) uint64 {
	if r := t.nodes[x].right; r != empty {
		return t.min(r)
	}
	p := t.nodes[x].parent
	for p != empty && x == t.nodes[p].right {
		x = p
		p = t.nodes[p].parent
	}
	return p
}

func (t *Tree[V]) prev(x uint64) uint64 {
	if l := t.nodes[x].left; l != empty {
		return t.max(l)
	}
	p := t.nodes[x].parent
	for p != empty && x == t.nodes[p].left {
		x = p
		p = t.nodes[p].parent
	}
	return p
}

func (t *Tree[V]) isRed(x uint64) bool { return t.nodes[x].red }

func (t *Tree[V]) rotateLeft(x uint64) {
	xn := t.nodes[x]
	y := xn.right
	yn := t.nodes[y]

	xn.right = yn.left
	if yn.left != empty {
		t.nodes[yn.left].parent = x
	}
	yn.parent = xn.parent
	switch {
	case xn.parent == empty:
		t.root = y
	case x == t.nodes[xn.parent].left:
		t.nodes[xn.parent].left = y
	default:
		t.nodes[xn.parent].right = y
	}
	yn.left = x
	xn.parent = y
}

func (t *Tree[V]) rotateRight(x uint64) {
	xn := t.nodes[x]
	y := xn.left
	yn := t.nodes[y]

	xn.left = yn.right
	if yn.right != empty {
		t.nodes[yn.right].parent = x
	}
	yn.parent = xn.parent
	switch {
	case xn.parent == empty:
		t.root = y
	case x == t.nodes[xn.parent].right:
		t.nodes[xn.parent].right = y
	default:
		t.nodes[xn.parent].left = y
	}
	yn.right = x
	xn.parent = y
}

func (t *Tree[V]) insertFixup(z uint64) {
	for t.isRed(t.nodes[z].parent) {
		p := t.nodes[z].parent
		g := t.nodes[p].parent
		if p == t.nodes[g].left {
			u := t.nodes[g].right
			if t.isRed(u) {
				t.nodes[p].red = false
				t.nodes[u].red = false
				t.nodes[g].red = true
				z = g
				continue
			}
			if z == t.nodes[p].right {
				z = p
				t.rotateLeft(z)
				p = t.nodes[z].parent
			}
			t.nodes[p].red = false
			t.nodes[g].red = true
			t.rotateRight(g)
		} else {
			u := t.nodes[g].left
			if t.isRed(u) {
				t.nodes[p].red = false
				t.nodes[u].red = false
				t.nodes[g].red = true
				z = g
				continue
			}
			if z == t.nodes[p].left {
				z = p
				t.rotateRight(z)
				p = t.nodes[z].parent
			}
			t.nodes[p].red = false
			t.nodes[g].red = true
			t.rotateLeft(g)
		}
	}
	t.nodes[t.root].red = false
}

// transplant replaces the subtree rooted at u with the one rooted at v.
// v may be the sentinel, whose parent is then set on purpose.
func (t *Tree[V]) transplant(u, v uint64) {
	up := t.nodes[u].parent
	switch {
	case up == empty:
		t.root = v
	case u == t.nodes[up].left:
		t.nodes[up].left = v
	default:
		t.nodes[up].right = v
	}
	t.nodes[v].parent = up
}

func (t *Tree[V]) deleteFixup(x uint64) {
	for x != t.root && !t.isRed(x) {
		xp := t.nodes[x].parent
		if x == t.nodes[xp].left {
			w := t.nodes[xp].right
			if t.isRed(w) {
				t.nodes[w].red = false
				t.nodes[xp].red = true
				t.rotateLeft(xp)
				w = t.nodes[xp].right
			}
			if !t.isRed(t.nodes[w].left) && !t.isRed(t.nodes[w].right) {
				t.nodes[w].red = true
				x = xp
				continue
			}
			if !t.isRed(t.nodes[w].right) {
				t.nodes[t.nodes[w].left].red = false
				t.nodes[w].red = true
				t.rotateRight(w)
				w = t.nodes[xp].right
			}
			t.nodes[w].red = t.nodes[xp].red
			t.nodes[xp].red = false
			t.nodes[t.nodes[w].right].red = false
			t.rotateLeft(xp)
			x = t.root
		} else {
			w := t.nodes[xp].left
			if t.isRed(w) {
				t.nodes[w].red = false
				t.nodes[xp].red = true
				t.rotateRight(xp)
				w = t.nodes[xp].left
			}
			if !t.isRed(t.nodes[w].left) && !t.isRed(t.nodes[w].right) {
				t.nodes[w].red = true
				x = xp
				continue
			}
			if !t.isRed(t.nodes[w].left) {
				t.nodes[t.nodes[w].right].red = false
				t.nodes[w].red = true
				t.rotateLeft(w)
				w = t.nodes[xp].left
			}
			t.nodes[w].red = t.nodes[xp].red
			t.nodes[xp].red = false
			t.nodes[t.nodes[w].left].red = false
			t.rotateRight(xp)
			x = t.root
		}
	}
	t.nodes[x].red = false
}
