package rbtree_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/clob-exchange/internal/rbtree"
)

// checkInvariants walks the tree through GetNode and returns the black height.
func checkInvariants(t *testing.T, tree *rbtree.Tree[string]) int {
	t.Helper()
	root := tree.Root()
	if root == 0 {
		return 1
	}
	n, err := tree.GetNode(root)
	require.NoError(t, err)
	require.False(t, n.Red, "root must be black")
	require.Equal(t, uint64(0), n.Parent, "root has no parent")

	var walk func(key, lo, hi uint64) int
	walk = func(key, lo, hi uint64) int {
		if key == 0 {
			return 1
		}
		n, err := tree.GetNode(key)
		require.NoError(t, err)
		require.True(t, key > lo && (hi == 0 || key < hi), "ordering broken at %d", key)
		for _, child := range []uint64{n.Left, n.Right} {
			if child == 0 {
				continue
			}
			c, err := tree.GetNode(child)
			require.NoError(t, err)
			require.Equal(t, key, c.Parent, "parent link broken at %d", child)
			if n.Red {
				require.False(t, c.Red, "red node %d has red child %d", key, child)
			}
		}
		left := walk(n.Left, lo, key)
		right := walk(n.Right, key, hi)
		require.Equal(t, left, right, "black height differs under %d", key)
		if n.Red {
			return left
		}
		return left + 1
	}
	return walk(root, 0, 0)
}

func collect(tree *rbtree.Tree[string]) []uint64 {
	var keys []uint64
	tree.Ascend(func(key uint64, _ string) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func TestTree_Empty(t *testing.T) {
	tree := rbtree.New[string]()

	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, uint64(0), tree.First())
	assert.Equal(t, uint64(0), tree.Last())
	assert.False(t, tree.Exists(5))

	_, err := tree.Next(5)
	assert.ErrorIs(t, err, rbtree.ErrTreeIsEmpty)
	_, err = tree.Prev(5)
	assert.ErrorIs(t, err, rbtree.ErrTreeIsEmpty)
	assert.ErrorIs(t, tree.Remove(5), rbtree.ErrKeyNotFound)
}

func TestTree_Errors(t *testing.T) {
	tree := rbtree.New[string]()
	require.NoError(t, tree.Insert(10, "ten"))

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"insert zero key", tree.Insert(0, "zero"), rbtree.ErrKeyIsEmpty},
		{"insert duplicate", tree.Insert(10, "again"), rbtree.ErrKeyExists},
		{"remove zero key", tree.Remove(0), rbtree.ErrKeyIsEmpty},
		{"remove missing", tree.Remove(11), rbtree.ErrKeyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
		})
	}
	assert.True(t, tree.Exists(10))
	assert.False(t, tree.Exists(0), "the zero key is the sentinel")

	_, err := tree.Next(11)
	assert.ErrorIs(t, err, rbtree.ErrKeyNotFound)
	_, err = tree.GetNode(0)
	assert.ErrorIs(t, err, rbtree.ErrKeyIsEmpty)
	_, err = tree.GetNode(11)
	assert.ErrorIs(t, err, rbtree.ErrKeyNotFound)

	v, ok := tree.Get(10)
	assert.True(t, ok)
	assert.Equal(t, "ten", v)
}

func TestTree_NeighboursAndBounds(t *testing.T) {
	tree := rbtree.New[string]()
	for _, k := range []uint64{50, 20, 80, 10, 30, 70, 90} {
		require.NoError(t, tree.Insert(k, ""))
	}

	assert.Equal(t, uint64(10), tree.First())
	assert.Equal(t, uint64(90), tree.Last())

	next, err := tree.Next(30)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), next)

	prev, err := tree.Prev(70)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), prev)

	next, err = tree.Next(90)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), next)

	prev, err = tree.Prev(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), prev)

	assert.Equal(t, uint64(70), tree.Ceiling(55))
	assert.Equal(t, uint64(50), tree.Floor(55))
	assert.Equal(t, uint64(30), tree.Ceiling(30))
	assert.Equal(t, uint64(0), tree.Ceiling(91))
	assert.Equal(t, uint64(0), tree.Floor(9))

	var desc []uint64
	tree.Descend(func(key uint64, _ string) bool {
		desc = append(desc, key)
		return len(desc) < 3
	})
	assert.Equal(t, []uint64{90, 80, 70}, desc)
}

func TestTree_ShuffledInsertRemove(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		tree := rbtree.New[string]()

		keys := make([]uint64, 100)
		for i := range keys {
			keys[i] = uint64(i+1) * 7
		}
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

		for i, k := range keys {
			require.NoError(t, tree.Insert(k, "v"))
			checkInvariants(t, tree)
			require.Equal(t, i+1, tree.Len())
		}

		sorted := append([]uint64(nil), keys...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		require.Equal(t, sorted, collect(tree))
		require.Equal(t, sorted[0], tree.First())
		require.Equal(t, sorted[len(sorted)-1], tree.Last())

		for i, k := range sorted {
			next, err := tree.Next(k)
			require.NoError(t, err)
			prev, err := tree.Prev(k)
			require.NoError(t, err)
			if i+1 < len(sorted) {
				require.Equal(t, sorted[i+1], next)
			} else {
				require.Equal(t, uint64(0), next)
			}
			if i > 0 {
				require.Equal(t, sorted[i-1], prev)
			} else {
				require.Equal(t, uint64(0), prev)
			}
		}

		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		remaining := map[uint64]bool{}
		for _, k := range keys {
			remaining[k] = true
		}
		for _, k := range keys {
			require.NoError(t, tree.Remove(k))
			delete(remaining, k)
			checkInvariants(t, tree)
			require.False(t, tree.Exists(k))
			require.Equal(t, len(remaining), tree.Len())

			if len(remaining) == 0 {
				require.Equal(t, uint64(0), tree.First())
				continue
			}
			lo, hi := uint64(0), uint64(0)
			for r := range remaining {
				if lo == 0 || r < lo {
					lo = r
				}
				if r > hi {
					hi = r
				}
			}
			require.Equal(t, lo, tree.First())
			require.Equal(t, hi, tree.Last())
		}
		require.Equal(t, uint64(0), tree.Root())
	}
}

func TestTree_InterleavedOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := rbtree.New[string]()
	present := map[uint64]bool{}

	for i := 0; i < 2000; i++ {
		k := uint64(rng.Intn(200) + 1)
		if present[k] {
			require.NoError(t, tree.Remove(k))
			delete(present, k)
		} else {
			require.NoError(t, tree.Insert(k, "v"))
			present[k] = true
		}
		if i%50 == 0 {
			checkInvariants(t, tree)
		}
	}
	checkInvariants(t, tree)
	assert.Equal(t, len(present), tree.Len())
}

func FuzzTree(f *testing.F) {
	f.Add([]byte{5, 3, 9, 1, 5, 3})
	f.Add([]byte{1, 2, 3, 4, 5, 6, 7, 8, 1, 2, 3, 4})
	f.Fuzz(func(t *testing.T, ops []byte) {
		tree := rbtree.New[string]()
		present := map[uint64]bool{}
		for _, op := range ops {
			k := uint64(op%64) + 1
			if present[k] {
				require.NoError(t, tree.Remove(k))
				delete(present, k)
			} else {
				require.NoError(t, tree.Insert(k, ""))
				present[k] = true
			}
			checkInvariants(t, tree)
		}
		require.Equal(t, len(present), tree.Len())
	})
}
