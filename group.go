package trellis

// Group is an object that owns an ordered list of children. Children are
// kept most recently added first.
type Group struct {
	Base
}

// Add makes child the first child of the group. A child still attached
// elsewhere is moved here.
func (g Group) Add(child Object) {
	g.send(opAddChild{child: child.Upcast().node})
}

// Remove detaches child from the group. Removing something that is not a
// child is reported as an error by the Hub.
func (g Group) Remove(child Object) {
	g.send(opRemoveChild{child: child.Upcast().node})
}
