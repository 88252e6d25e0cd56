// Package geom holds the pure geometric primitives used by the slicer:
// 3D points, triangles, rays and the ray/triangle intersection test.
// Nothing in this package allocates or performs I/O.
package geom
