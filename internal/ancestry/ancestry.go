// Package ancestry answers parent/child questions over a single process snapshot.
//
// Parent links come from the OS and are not guaranteed to form a tree:
// every walk is bounded by the snapshot size and guarded by a visited set.
package ancestry

import (
	"sort"

	"safekill.dev/internal/process"
)

// Tree indexes the parent links of one snapshot
type Tree struct {
	snap     *process.Snapshot
	children map[int][]int
}

// New builds the child index for snap
func New(snap *process.Snapshot) *Tree {
	t := &Tree{
		snap:     snap,
		children: make(map[int][]int),
	}
	for _, r := range snap.Records() {
		if r.HasParent {
			t.children[r.PPID] = append(t.children[r.PPID], r.PID)
		}
	}
	return t
}

// IsDescendant reports whether following pid's parent links reaches root.
// The root counts as its own descendant; a root missing from the snapshot
// has none.
func (t *Tree) IsDescendant(pid, root int) bool {
	if _, ok := t.snap.Lookup(root); !ok {
		return false
	}
	if pid == root {
		return true
	}

	seen := make(map[int]bool)
	current := pid
	for steps := 0; steps < t.snap.Len(); steps++ {
		if seen[current] {
			return false // loop protection
		}
		seen[current] = true

		r, ok := t.snap.Lookup(current)
		if !ok || !r.HasParent {
			return false
		}
		if r.PPID == root {
			return true
		}
		current = r.PPID
	}
	return false
}

// DescendantsOf returns root and every pid below it, sorted
func (t *Tree) DescendantsOf(root int) []int {
	if _, ok := t.snap.Lookup(root); !ok {
		return nil
	}

	out := []int{root}
	seen := map[int]bool{root: true}
	queue := []int{root}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		for _, child := range t.children[pid] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}

	sort.Ints(out)
	return out
}

// Chain returns pid followed by its ancestors, nearest first.
// It stops at a missing parent, a pid absent from the snapshot or a revisit.
func (t *Tree) Chain(pid int) []int {
	var chain []int
	seen := make(map[int]bool)

	current := pid
	for len(chain) <= t.snap.Len() {
		if seen[current] {
			break
		}
		seen[current] = true

		r, ok := t.snap.Lookup(current)
		if !ok {
			break
		}
		chain = append(chain, current)
		if !r.HasParent {
			break
		}
		current = r.PPID
	}
	return chain
}
