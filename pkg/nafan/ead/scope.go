package ead

import "strconv"

// BelongsToLevel reports whether el was declared by the component tagged
// level rather than by one of its descendants. The element's parent decides,
// looking through a did wrapper.
func BelongsToLevel(el *Node, level string) bool {
	if el == nil {
		return false
	}
	p := el.Parent()
	if p.Is("did") {
		p = p.Parent()
	}
	return p.Is(level)
}

// LevelTag returns the component tag for a nesting depth: c01..c09, then
// c10, c11 and so on.
func LevelTag(depth int) string {
	if depth < 10 {
		return "c0" + strconv.Itoa(depth)
	}
	return "c" + strconv.Itoa(depth)
}
