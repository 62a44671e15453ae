package detect

import (
	"math"
)

// Blob is a connected component of bright pixels with the geometry the
// candidate selector and circle fitter need.
type Blob struct {
	Label    int
	Area     int
	MinX     int
	MinY     int
	MaxX     int
	MaxY     int
	Centroid struct{ X, Y float64 }

	// EdgePoints are pixels of the blob with at least one 4-neighbor
	// outside it (or on the image border). They feed the circle fit.
	EdgePoints []Point

	// Circularity is 4π·area/perimeter², clamped to [0,1]. A disk scores
	// near 1, elongated or ragged blobs score lower.
	Circularity float64
}

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// unionFind is an arena-indexed disjoint-set over dense small integer
// labels, with path compression and union by rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind() *unionFind {
	return &unionFind{}
}

// makeSet registers the next label and returns it.
func (u *unionFind) makeSet() int {
	label := len(u.parent)
	u.parent = append(u.parent, label)
	u.rank = append(u.rank, 0)
	return label
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]] // path compression
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// LabelComponents runs two-pass 4-connectivity labeling over a binary mask
// and returns the resulting blobs with their geometry populated.
func LabelComponents(mask []bool, w, h int) []Blob {
	if w <= 0 || h <= 0 || len(mask) != w*h {
		return nil
	}

	labels := make([]int, w*h)
	for i := range labels {
		labels[i] = -1
	}
	uf := newUnionFind()

	// First pass: provisional labels, recording equivalences between the
	// left and top neighbors.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !mask[i] {
				continue
			}
			left, top := -1, -1
			if x > 0 && mask[i-1] {
				left = labels[i-1]
			}
			if y > 0 && mask[i-w] {
				top = labels[i-w]
			}
			switch {
			case left < 0 && top < 0:
				labels[i] = uf.makeSet()
			case left >= 0 && top < 0:
				labels[i] = left
			case left < 0 && top >= 0:
				labels[i] = top
			default:
				labels[i] = left
				uf.union(left, top)
			}
		}
	}

	if len(uf.parent) == 0 {
		return nil
	}

	// Second pass: resolve to root labels and accumulate blob stats.
	index := make(map[int]int) // root label -> blobs slice index
	var blobs []Blob
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if labels[i] < 0 {
				continue
			}
			root := uf.find(labels[i])
			bi, ok := index[root]
			if !ok {
				bi = len(blobs)
				index[root] = bi
				blobs = append(blobs, Blob{
					Label: root,
					MinX:  x, MinY: y, MaxX: x, MaxY: y,
				})
			}
			b := &blobs[bi]
			b.Area++
			b.Centroid.X += float64(x)
			b.Centroid.Y += float64(y)
			if x < b.MinX {
				b.MinX = x
			}
			if x > b.MaxX {
				b.MaxX = x
			}
			if y < b.MinY {
				b.MinY = y
			}
			if y > b.MaxY {
				b.MaxY = y
			}
			if isEdgePixel(mask, w, h, x, y) {
				b.EdgePoints = append(b.EdgePoints, Point{X: x, Y: y})
			}
		}
	}

	for i := range blobs {
		b := &blobs[i]
		b.Centroid.X /= float64(b.Area)
		b.Centroid.Y /= float64(b.Area)
		perimeter := float64(len(b.EdgePoints))
		if perimeter > 0 {
			c := 4 * math.Pi * float64(b.Area) / (perimeter * perimeter)
			if c > 1 {
				c = 1
			}
			b.Circularity = c
		}
	}
	return blobs
}

// isEdgePixel reports whether a mask pixel touches the outside through a
// 4-neighbor or lies on the image border.
func isEdgePixel(mask []bool, w, h, x, y int) bool {
	if x == 0 || y == 0 || x == w-1 || y == h-1 {
		return true
	}
	i := y*w + x
	return !mask[i-1] || !mask[i+1] || !mask[i-w] || !mask[i+w]
}

// BlobFilter bounds the blobs eligible for candidate selection.
type BlobFilter struct {
	// MinAreaFraction and MaxAreaFraction bound blob area as a fraction
	// of total image area. Defaults: 0.001 and 0.80.
	MinAreaFraction float64
	MaxAreaFraction float64

	// MinCircularity excludes blobs too irregular to be a lunar disk.
	// Default: 0.6.
	MinCircularity float64
}

// SelectCandidate picks the blob most likely to be the moon: among blobs
// inside the area window with circularity at or above the floor, the one
// maximizing area × circularity. Returns false if nothing qualifies.
func SelectCandidate(blobs []Blob, imageArea int, filter BlobFilter) (Blob, bool) {
	minArea := filter.MinAreaFraction * float64(imageArea)
	maxArea := filter.MaxAreaFraction * float64(imageArea)

	best := -1
	bestScore := 0.0
	for i, b := range blobs {
		area := float64(b.Area)
		if area < minArea || area > maxArea {
			continue
		}
		if b.Circularity < filter.MinCircularity {
			continue
		}
		score := area * b.Circularity
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return Blob{}, false
	}
	return blobs[best], true
}
