// Package coords provides conversions between linear indices and (x, y, z)
// coordinates for neuron addressing.
//
// Layers with a 3D spatial extent (convolutional, max-pooling, input) address
// their neurons by (x, y, z), where x and y are the position in the image plane
// and z is the feature-map (depth) index. Fully connected layers address
// neurons by a single linear index. Whenever a 3D layer feeds a 1D layer, or
// vice versa, indices are translated through these helpers.
//
// The linear layout places x innermost, then y, then z:
//
//	index = (dimX * dimY) * z + dimX * y + x
package coords

// X returns the x component of linear index i in a volume with x extent dimX.
func X(i, dimX int) int {
	return i % dimX
}

// Y returns the y component of linear index i in a volume with extents
// dimX and dimY.
func Y(i, dimX, dimY int) int {
	return (i / dimX) % dimY
}

// Z returns the z component of linear index i in a volume with extents
// dimX and dimY.
func Z(i, dimX, dimY int) int {
	return i / (dimX * dimY)
}

// Index maps the coordinate (x, y, z) onto a linear index in a volume with
// extents dimX and dimY.
func Index(x, y, z, dimX, dimY int) int {
	return (dimX*dimY)*z + dimX*y + x
}
