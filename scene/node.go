package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/wheelchair/controller"
)

// Node is a named transform in the chair's model hierarchy. A nil *Node reads as an
// empty leaf and ignores writes, so a failed Find can go straight into a rig.
type Node struct {
	name     string
	rotation mgl64.Quat
	parent   *Node
	children []*Node
}

func NewNode(name string, children ...*Node) *Node {
	n := &Node{name: name, rotation: mgl64.QuatIdent()}
	for _, c := range children {
		n.Add(c)
	}
	return n
}

func (n *Node) Add(child *Node) {
	if n == nil || child == nil {
		return
	}
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.name
}

func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

func (n *Node) SetLocalRotation(q mgl64.Quat) {
	if n == nil {
		return
	}
	n.rotation = q
}

func (n *Node) LocalRotation() mgl64.Quat {
	if n == nil {
		return mgl64.QuatIdent()
	}
	return n.rotation
}

func (n *Node) Children() []controller.NamedNode {
	if n == nil {
		return nil
	}
	out := make([]controller.NamedNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	return out
}

// Find returns the first node named name in depth-first order.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// Walk visits n and its descendants depth-first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}
