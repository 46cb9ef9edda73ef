package controller

import (
	"reflect"
	"strings"
)

// WheelKeywords are the lowercase name fragments used to classify scene nodes.
type WheelKeywords struct {
	Wheel  []string
	Left   []string
	Right  []string
	Caster []string
	Front  []string
}

func DefaultWheelKeywords() WheelKeywords {
	return WheelKeywords{
		Wheel:  []string{"wheel", "roda"},
		Left:   []string{"left", "esquerda"},
		Right:  []string{"right", "direita"},
		Caster: []string{"caster"},
		Front:  []string{"front", "frente"},
	}
}

// DiscoverWheels walks root depth-first and fills the unassigned slots of rig by name.
// Explicit assignments are never replaced and the first match wins.
func DiscoverWheels(root NamedNode, rig WheelRig, kw WheelKeywords) WheelRig {
	if isNilNode(root) {
		return rig
	}
	findCasters := len(rig.Casters) == 0

	var walk func(n NamedNode)
	walk = func(n NamedNode) {
		if isNilNode(n) {
			return
		}
		name := strings.ToLower(n.Name())
		wheel := containsAny(name, kw.Wheel)

		switch {
		case containsAny(name, kw.Caster) || (wheel && containsAny(name, kw.Front)):
			if findCasters {
				rig.Casters = append(rig.Casters, n)
			}
		case wheel && containsAny(name, kw.Left):
			if isNilNode(rig.Left) {
				rig.Left = n
			}
		case wheel && containsAny(name, kw.Right):
			if isNilNode(rig.Right) {
				rig.Right = n
			}
		}

		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(root)

	return rig
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// isNilNode also catches typed nils such as a (*scene.Node)(nil) from a failed lookup.
func isNilNode(n WheelNode) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
