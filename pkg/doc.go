// Package pkg holds the libraries behind bubblechart.
//
// # Overview
//
// Bubblechart turns weighted, domain-tagged intents into bubble charts. The
// pkg directory is organized by stage:
//
//  1. [intent], [source] - input records and where they come from (files,
//     stdin, MongoDB)
//  2. [pack], [force] - geometry primitives: circle packing and the force
//     simulation
//  3. [render] - bubble layout policies, styles and output sinks, plus the
//     node-link alternative
//  4. [surface] - per-render target handles owning running simulations
//  5. [pipeline] - orchestration (load → layout → render) with caching
//  6. [cache], [config], [errors], [observability], [buildinfo] - supporting
//     infrastructure
//
// # Architecture
//
//	intents (file | stdin | MongoDB | HTTP body)
//	         ↓
//	   intent.Filter (value > 0)
//	         ↓
//	   layout: flat | nested | grid | force
//	         ↓
//	   sink: SVG | PNG | PDF | JSON
//
// Every stage result is cached by a hash of its inputs.
//
// [intent]: github.com/matzehuels/bubblechart/pkg/intent
// [source]: github.com/matzehuels/bubblechart/pkg/source
// [pack]: github.com/matzehuels/bubblechart/pkg/pack
// [force]: github.com/matzehuels/bubblechart/pkg/force
// [render]: github.com/matzehuels/bubblechart/pkg/render
// [surface]: github.com/matzehuels/bubblechart/pkg/surface
// [pipeline]: github.com/matzehuels/bubblechart/pkg/pipeline
// [cache]: github.com/matzehuels/bubblechart/pkg/cache
// [config]: github.com/matzehuels/bubblechart/pkg/config
// [errors]: github.com/matzehuels/bubblechart/pkg/errors
// [observability]: github.com/matzehuels/bubblechart/pkg/observability
// [buildinfo]: github.com/matzehuels/bubblechart/pkg/buildinfo
package pkg
