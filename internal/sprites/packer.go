package sprites

import "sort"

// Block is a rectangle to place. X and Y are set by Pack.
type Block struct {
	Name string
	W, H int
	X, Y int
}

type node struct {
	x, y, w, h  int
	used        bool
	right, down *node
}

// Pack places blocks with a growing binary-tree packer and returns the canvas
// size. Blocks are placed largest side first, ties broken by height then
// name, so the layout only depends on the set of blocks. pad pixels are kept
// between neighbours.
func Pack(blocks []*Block, pad int) (width, height int) {
	if len(blocks) == 0 {
		return 0, 0
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if ma, mb := max(a.W, a.H), max(b.W, b.H); ma != mb {
			return ma > mb
		}
		if a.H != b.H {
			return a.H > b.H
		}
		return a.Name < b.Name
	})

	root := &node{w: blocks[0].W + pad, h: blocks[0].H + pad}
	for _, b := range blocks {
		w, h := b.W+pad, b.H+pad
		n := find(root, w, h)
		if n != nil {
			n = split(n, w, h)
		} else {
			root, n = grow(root, w, h)
		}
		b.X, b.Y = n.x, n.y
	}
	return root.w - pad, root.h - pad
}

func find(n *node, w, h int) *node {
	if n == nil {
		return nil
	}
	if n.used {
		if r := find(n.right, w, h); r != nil {
			return r
		}
		return find(n.down, w, h)
	}
	if w <= n.w && h <= n.h {
		return n
	}
	return nil
}

func split(n *node, w, h int) *node {
	n.used = true
	n.down = &node{x: n.x, y: n.y + h, w: n.w, h: n.h - h}
	n.right = &node{x: n.x + w, y: n.y, w: n.w - w, h: h}
	return n
}

func grow(root *node, w, h int) (*node, *node) {
	canDown := w <= root.w
	canRight := h <= root.h
	shouldRight := canRight && root.h >= root.w+w
	shouldDown := canDown && root.w >= root.h+h

	switch {
	case shouldRight:
		return growRight(root, w, h)
	case shouldDown:
		return growDown(root, w, h)
	case canRight:
		return growRight(root, w, h)
	case canDown:
		return growDown(root, w, h)
	}
	// Unreachable when blocks arrive largest first; grow down at full width.
	next := &node{used: true, w: max(root.w, w), h: root.h + h, down: &node{y: root.h, w: max(root.w, w), h: h}, right: root}
	return next, split(next.down, w, h)
}

func growRight(root *node, w, h int) (*node, *node) {
	next := &node{used: true, w: root.w + w, h: root.h, down: root, right: &node{x: root.w, w: w, h: root.h}}
	return next, split(find(next, w, h), w, h)
}

func growDown(root *node, w, h int) (*node, *node) {
	next := &node{used: true, w: root.w, h: root.h + h, down: &node{y: root.h, w: root.w, h: h}, right: root}
	return next, split(find(next, w, h), w, h)
}
