package bvh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxPrimsInLeaf is the range size at or below which the builder
	// always materializes a leaf.
	MaxPrimsInLeaf = 4

	numBuckets = 12

	traversalCost    float32 = 0.125
	intersectionCost float32 = 1.0
)

// The BoundedVolume interface is implemented by every primitive the
// builder can partition. Refit calls BBox again on the same slice (same
// length, same order) to pick up moved geometry.
type BoundedVolume interface {
	BBox() AABB
	Centroid() mgl32.Vec3
}

// Node is one flattened tree node. LeftChild < 0 marks a leaf: the
// primitive run starts at -LeftChild-1 in the primitive index array and
// RightChild holds its length. For internal nodes both fields are
// non-negative node array indices.
type Node struct {
	Min        mgl32.Vec3
	Max        mgl32.Vec3
	LeftChild  int32
	RightChild int32
}

func (n *Node) IsLeaf() bool {
	return n.LeftChild < 0
}

func (n *Node) PrimOffset() int32 {
	return -n.LeftChild - 1
}

func (n *Node) PrimCount() int32 {
	return n.RightChild
}

type primInfo struct {
	bounds    AABB
	centroid  mgl32.Vec3
	primIndex int32
}

// BuildStats carries counters from the last full build.
type BuildStats struct {
	Nodes    int
	Leafs    int
	MaxDepth int
	Prims    int
}

// Builder constructs and owns a flattened BVH. A Builder instance has a
// single logical owner; the node and primitive index slices it exposes
// are read-only views for upload and must not be mutated by callers.
type Builder struct {
	nodes            []Node
	primitiveIndices []int32
	stats            BuildStats
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build performs a full rebuild, discarding any prior tree. An empty
// input yields an empty tree, which is not an error: traversal treats
// zero nodes as "no hit possible".
func (b *Builder) Build(prims []BoundedVolume) {
	b.nodes = b.nodes[:0]
	b.primitiveIndices = b.primitiveIndices[:0]
	b.stats = BuildStats{Prims: len(prims)}

	if len(prims) == 0 {
		return
	}

	info := make([]primInfo, len(prims))
	for i, p := range prims {
		info[i] = primInfo{
			bounds:    p.BBox(),
			centroid:  p.Centroid(),
			primIndex: int32(i),
		}
	}

	if cap(b.nodes) < 2*len(prims) {
		b.nodes = make([]Node, 0, 2*len(prims))
	}
	if cap(b.primitiveIndices) < len(prims) {
		b.primitiveIndices = make([]int32, 0, len(prims))
	}

	b.buildRange(info, 0, len(info), 0)
}

// Nodes returns the flattened node array. Index 0 is the root.
func (b *Builder) Nodes() []Node {
	return b.nodes
}

// PrimitiveIndices returns the leaf-grouped permutation of the original
// primitive indices.
func (b *Builder) PrimitiveIndices() []int32 {
	return b.primitiveIndices
}

func (b *Builder) Stats() BuildStats {
	return b.stats
}

func (b *Builder) buildRange(info []primInfo, start, end, depth int) int32 {
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{}) // placeholder, filled below
	b.stats.Nodes++
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	bounds := NewAABB()
	for i := start; i < end; i++ {
		bounds.ExpandBox(info[i].bounds)
	}

	numPrims := end - start
	if numPrims <= MaxPrimsInLeaf {
		b.createLeaf(nodeIndex, bounds, info, start, end)
		return nodeIndex
	}

	splitCost, splitPos := b.findBestSplit(info, start, end, bounds)

	// A leaf costs one intersection per primitive. If the best split is
	// not cheaper than that, stop here.
	if splitCost >= float32(numPrims) {
		b.createLeaf(nodeIndex, bounds, info, start, end)
		return nodeIndex
	}

	left := b.buildRange(info, start, splitPos, depth+1)
	right := b.buildRange(info, splitPos, end, depth+1)

	node := &b.nodes[nodeIndex]
	node.Min = bounds.Min
	node.Max = bounds.Max
	node.LeftChild = left
	node.RightChild = right

	return nodeIndex
}

func (b *Builder) createLeaf(nodeIndex int32, bounds AABB, info []primInfo, start, end int) {
	primOffset := int32(len(b.primitiveIndices))

	node := &b.nodes[nodeIndex]
	node.Min = bounds.Min
	node.Max = bounds.Max
	// The +1 bias keeps the encoded offset strictly negative so the sign
	// alone discriminates leaf from internal.
	node.LeftChild = -(primOffset + 1)
	node.RightChild = int32(end - start)

	for i := start; i < end; i++ {
		b.primitiveIndices = append(b.primitiveIndices, info[i].primIndex)
	}
	b.stats.Leafs++
}

// findBestSplit runs a binned SAH search over all three axes. On every
// new cost minimum the range is partitioned in place and the boundary
// recorded, so the winning layout is the one left behind. Returns
// MaxFloat32 when no axis can discriminate (all centroids coincide).
func (b *Builder) findBestSplit(info []primInfo, start, end int, bounds AABB) (bestCost float32, bestPos int) {
	bestCost = math.MaxFloat32
	bestPos = (start + end) / 2

	parentArea := bounds.SurfaceArea()

	for dim := 0; dim < 3; dim++ {
		minCentroid := float32(math.MaxFloat32)
		maxCentroid := float32(-math.MaxFloat32)
		for i := start; i < end; i++ {
			c := info[i].centroid[dim]
			minCentroid = minf(minCentroid, c)
			maxCentroid = maxf(maxCentroid, c)
		}
		if minCentroid == maxCentroid {
			continue // cannot split on this axis
		}

		type bucket struct {
			count  int
			bounds AABB
		}
		var buckets [numBuckets]bucket
		for i := range buckets {
			buckets[i].bounds = NewAABB()
		}

		invExtent := 1.0 / (maxCentroid - minCentroid)
		for i := start; i < end; i++ {
			bi := int(float32(numBuckets) * (info[i].centroid[dim] - minCentroid) * invExtent)
			if bi > numBuckets-1 {
				bi = numBuckets - 1 // guard the upper edge
			}
			buckets[bi].count++
			buckets[bi].bounds.ExpandBox(info[i].bounds)
		}

		for splitBucket := 1; splitBucket < numBuckets; splitBucket++ {
			leftBounds := NewAABB()
			rightBounds := NewAABB()
			leftCount, rightCount := 0, 0

			for i := 0; i < splitBucket; i++ {
				leftBounds.ExpandBox(buckets[i].bounds)
				leftCount += buckets[i].count
			}
			for i := splitBucket; i < numBuckets; i++ {
				rightBounds.ExpandBox(buckets[i].bounds)
				rightCount += buckets[i].count
			}

			if leftCount == 0 || rightCount == 0 {
				continue
			}

			cost := traversalCost + intersectionCost*
				(float32(leftCount)*leftBounds.SurfaceArea()+
					float32(rightCount)*rightBounds.SurfaceArea())/parentArea

			if cost < bestCost {
				bestCost = cost

				splitCentroid := minCentroid + (maxCentroid-minCentroid)*float32(splitBucket)/float32(numBuckets)
				pos := partition(info, start, end, func(p *primInfo) bool {
					return p.centroid[dim] < splitCentroid
				})

				// Both children must be non-empty.
				if pos < start+1 {
					pos = start + 1
				}
				if pos > end-1 {
					pos = end - 1
				}
				bestPos = pos
			}
		}
	}

	return bestCost, bestPos
}

// partition reorders info[start:end] so that every element satisfying
// pred precedes every element that does not, returning the boundary.
func partition(info []primInfo, start, end int, pred func(*primInfo) bool) int {
	first := start
	for first < end && pred(&info[first]) {
		first++
	}
	for i := first + 1; i < end; i++ {
		if pred(&info[i]) {
			info[first], info[i] = info[i], info[first]
			first++
		}
	}
	return first
}
