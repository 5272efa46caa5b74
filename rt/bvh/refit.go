package bvh

// Refit recomputes every node's bounds bottom-up from the current
// primitive positions without touching topology. The slice must have
// the same length and index correspondence as the one handed to the
// last Build; a mismatch is a caller bug and panics on the leaf lookup
// rather than producing a geometrically wrong tree. Returns the root's
// recomputed bounds. Calling Refit before any build is a no-op.
func (b *Builder) Refit(prims []BoundedVolume) AABB {
	if len(b.nodes) == 0 {
		return NewAABB()
	}
	return b.refitNode(0, prims)
}

func (b *Builder) refitNode(nodeIdx int32, prims []BoundedVolume) AABB {
	node := &b.nodes[nodeIdx]

	if node.IsLeaf() {
		primOffset := node.PrimOffset()
		primCount := node.PrimCount()

		bounds := NewAABB()
		for i := int32(0); i < primCount; i++ {
			primIdx := b.primitiveIndices[primOffset+i]
			bounds.ExpandBox(prims[primIdx].BBox())
		}
		node.Min = bounds.Min
		node.Max = bounds.Max
		return bounds
	}

	left := b.refitNode(node.LeftChild, prims)
	right := b.refitNode(node.RightChild, prims)

	bounds := left
	bounds.ExpandBox(right)
	node.Min = bounds.Min
	node.Max = bounds.Max
	return bounds
}
