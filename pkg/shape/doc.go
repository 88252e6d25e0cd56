// Package shape defines the print-object graph produced by the DSL engine.
// The graph is a DAG of primitives, placements and boolean combinations;
// each root is a named print object that tessellates to one mesh.
package shape
