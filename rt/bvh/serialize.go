package bvh

import (
	"encoding/binary"
	"math"
)

// Matches the shader-side BVHNode:
// struct BVHNode {
//    min : vec4<f32>; (16)
//    max : vec4<f32>; (16)
//    left_child : i32; (4)
//    right_child : i32; (4)
//    padding : i32[2]; (8)
// }; -> 48 bytes

// NodeStride is the byte size of one serialized node record.
const NodeStride = 48

func (n *Node) ToBytes() []byte {
	buf := make([]byte, NodeStride)

	// Min (vec4, w unused)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(n.Min.X()))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(n.Min.Y()))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(n.Min.Z()))
	binary.LittleEndian.PutUint32(buf[12:16], 0)

	// Max (vec4, w unused)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(n.Max.X()))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(n.Max.Y()))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(n.Max.Z()))
	binary.LittleEndian.PutUint32(buf[28:32], 0)

	// Child / leaf encoding
	binary.LittleEndian.PutUint32(buf[32:36], uint32(n.LeftChild))
	binary.LittleEndian.PutUint32(buf[36:40], uint32(n.RightChild))

	// Padding stays zero
	return buf
}

// NodesBytes serializes the whole node array at a uniform 48-byte
// stride. The layout is identical after a build and after a refit, so
// the consuming traversal never needs to distinguish the two.
func (b *Builder) NodesBytes() []byte {
	out := make([]byte, 0, len(b.nodes)*NodeStride)
	for i := range b.nodes {
		out = append(out, b.nodes[i].ToBytes()...)
	}
	return out
}

// PrimitiveIndexBytes serializes the primitive index array as flat
// little-endian int32s.
func (b *Builder) PrimitiveIndexBytes() []byte {
	out := make([]byte, len(b.primitiveIndices)*4)
	for i, idx := range b.primitiveIndices {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(idx))
	}
	return out
}
