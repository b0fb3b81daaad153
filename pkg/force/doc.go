// Package force implements a velocity Verlet force simulation for circles.
//
// A [Simulation] owns a slice of [Node] values and a set of [Force]
// implementations. Each call to [Simulation.Step] decays alpha toward its
// target, applies every force, and integrates velocities into positions. The
// simulation is "hot" while alpha stays above AlphaMin.
//
// # Forces
//
//   - [Center]: translates all nodes so their mean position is a fixed point
//   - [Collide]: pushes overlapping circles apart
//   - [ManyBody]: pairwise charge between every pair of nodes
//   - [PositionX], [PositionY]: spring each axis toward a target coordinate
//   - [ClusterDrift]: a uniform diagonal drift applied to every node
//
// # Streaming
//
// [Scheduler] drives a simulation on its own goroutine and emits a [Frame]
// per tick. It stops on convergence, on context cancellation or when
// [Scheduler.Stop] is called, and then closes its frame channel.
//
// All randomness comes from a seeded generator so runs are reproducible.
package force
