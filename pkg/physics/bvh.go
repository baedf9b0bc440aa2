package physics

import (
	"sort"

	"github.com/df07/go-probegrid/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Colliders   []*Collider // Leaf contents (nil for internal nodes)
}

// BVH is a Bounding Volume Hierarchy over colliders. Unlike a renderer BVH it
// reports every collider a ray crosses, not just the closest one.
type BVH struct {
	Root *BVHNode
}

// NewBVH constructs a BVH from a slice of colliders
func NewBVH(colliders []*Collider) *BVH {
	if len(colliders) == 0 {
		return &BVH{Root: nil}
	}

	// Sorting reorders the slice, so work on a copy
	collidersCopy := make([]*Collider, len(colliders))
	copy(collidersCopy, colliders)

	return &BVH{
		Root: buildBVH(collidersCopy, 0),
	}
}

// Leaf threshold: if we have this many or fewer colliders, store them in a leaf node
const leafThreshold = 8

// buildBVH recursively builds the BVH with median splits along the longest axis
func buildBVH(colliders []*Collider, depth int) *BVHNode {
	boundingBox := colliders[0].BoundingBox()
	for i := 1; i < len(colliders); i++ {
		boundingBox = boundingBox.Union(colliders[i].BoundingBox())
	}

	if len(colliders) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Colliders:   colliders,
		}
	}

	axis := boundingBox.LongestAxis()
	sortCollidersByAxis(colliders, axis)

	mid := len(colliders) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(colliders[:mid], depth+1),
		Right:       buildBVH(colliders[mid:], depth+1),
	}
}

// sortCollidersByAxis sorts colliders by their bounding box center along the specified axis
func sortCollidersByAxis(colliders []*Collider, axis int) {
	sort.Slice(colliders, func(i, j int) bool {
		return colliders[i].BoundingBox().Center().Component(axis) <
			colliders[j].BoundingBox().Center().Component(axis)
	})
}

// bvhHit pairs a collider with its entering intersection
type bvhHit struct {
	collider *Collider
	t        float64
	point    core.Vec3
	normal   core.Vec3
}

// HitAll appends every collider hit within [tMin, tMax] to hits, in traversal order
func (bvh *BVH) HitAll(ray core.Ray, tMin, tMax float64, hits []bvhHit) []bvhHit {
	if bvh.Root == nil {
		return hits
	}
	return bvh.hitNode(bvh.Root, ray, tMin, tMax, hits)
}

// hitNode recursively collects intersections from the subtree
func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64, hits []bvhHit) []bvhHit {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return hits
	}

	if node.Colliders != nil {
		for _, collider := range node.Colliders {
			if hit, isHit := collider.Shape.Hit(ray, tMin, tMax); isHit {
				hits = append(hits, bvhHit{collider: collider, t: hit.T, point: hit.Point, normal: hit.Normal})
			}
		}
		return hits
	}

	if node.Left != nil {
		hits = bvh.hitNode(node.Left, ray, tMin, tMax, hits)
	}
	if node.Right != nil {
		hits = bvh.hitNode(node.Right, ray, tMin, tMax, hits)
	}
	return hits
}

// getStats returns statistics about the BVH structure
func (bvh *BVH) getStats() bvhStats {
	if bvh.Root == nil {
		return bvhStats{}
	}

	stats := bvhStats{}
	bvh.collectStats(bvh.Root, 0, &stats)
	return stats
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes     int
	leafNodes      int
	maxDepth       int
	totalColliders int
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	stats.maxDepth = max(stats.maxDepth, depth)

	if node.Colliders != nil {
		stats.leafNodes++
		stats.totalColliders += len(node.Colliders)
		return
	}
	if node.Left != nil {
		bvh.collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		bvh.collectStats(node.Right, depth+1, stats)
	}
}
