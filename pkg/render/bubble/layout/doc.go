// Package layout computes bubble chart layouts from intents.
//
// A [Layout] is a list of positioned circles ([Bubble]) plus optional
// [Cluster] metadata. Four policies are available:
//
//   - [PolicyFlat]: every intent is a leaf of one circle pack
//   - [PolicyNested]: domains become parent circles with their intents inside
//   - [PolicyGrid]: one packed cluster per domain, arranged in a near-square grid
//   - [PolicyForce]: a force simulation with collision and cluster drift
//
// Intents with a non-positive value are dropped before layout. Empty input
// produces a layout with no bubbles; [Build] never fails.
//
// # Usage
//
//	l := layout.Build(intents, 300, 200, layout.Options{Policy: layout.PolicyGrid})
//	for _, b := range l.Bubbles {
//	    fmt.Println(b.Name, b.X, b.Y, b.R)
//	}
//
// The force policy can also be driven frame by frame: [NewForceModel]
// prepares the simulation and [ForceModel.Bubbles] converts simulation
// positions back into canvas coordinates.
//
// # Coordinates
//
// All coordinates are in canvas pixels with the origin at the top left.
// Bubble X and Y are circle centres.
package layout
