package ember

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// nodeIDCounter is a plain counter; ember is single-threaded.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is a minimal 3D transform hierarchy. Systems, emitters, affectors and
// shapes reference nodes to find where they sit relative to each other.
type Node struct {
	ID   uint32
	Name string

	Parent   *Node
	children []*Node

	// Local transform. Rotation is Euler degrees (pitch X, yaw Y, roll Z).
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3

	local          mgl32.Mat4
	localRotation  mgl32.Quat
	transformDirty bool
}

// NewNode creates a node at the origin with unit scale.
func NewNode(name string) *Node {
	return &Node{
		ID:             nextNodeID(),
		Name:           name,
		Scale:          mgl32.Vec3{1, 1, 1},
		transformDirty: true,
	}
}

// AddChild attaches child as the last child of n, detaching it from any
// previous parent. A nil child or one that is an ancestor of n panics.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("ember: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("ember: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	if globalDebug {
		debugCheckTreeDepth(child)
	}
}

// RemoveChild detaches child. It panics when n is not child's parent.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("ember: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveFromParent detaches n from its parent, if any.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the children in insertion order. Callers must not modify it.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren reports len(Children()).
func (n *Node) NumChildren() int {
	return len(n.children)
}

func (n *Node) removeChildByPtr(child *Node) {
	if i := slices.Index(n.children, child); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
	}
}

// isAncestor reports whether candidate is node or one of its parents.
func isAncestor(candidate, node *Node) bool {
	for ; node != nil; node = node.Parent {
		if node == candidate {
			return true
		}
	}
	return false
}

// sharedAncestor returns the nearest node that is an ancestor of both a and b
// (either may be the ancestor itself), or nil when they live in different trees.
func sharedAncestor(a, b *Node) *Node {
	if a == nil || b == nil {
		return nil
	}
	for p := a; p != nil; p = p.Parent {
		if isAncestor(p, b) {
			return p
		}
	}
	return nil
}
