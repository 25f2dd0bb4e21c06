// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package spec provides the metadata model of a region type: the parameters it
// accepts and the input and output ports it exposes.
//
// # Core Concepts
//
//   - Spec: the description of one region type. It is what the factory caches
//     per type name, and what the parameter parser consults to turn a raw
//     parameter string into typed values.
//
//   - Parameter: a named, typed configuration value with an optional default and
//     an access mode that says when the value may be set.
//
//   - Port: a named input or output of a region, with the element type of the
//     data flowing through it.
//
// Why decode specs from HCL manifests?
//
// Native regions and foreign regions describe themselves in the same manifest
// format. A native module embeds its manifest next to the Go code, while the
// foreign runtime hands the manifest text back across the bridge. Either way
// the factory ends up with the same strongly typed Spec, so everything
// downstream (caching, parameter parsing, tooling) never needs to know where a
// type came from.
//
// A manifest looks like this:
//
//	region "TestNode" {
//	  description = "Node used by the engine tests."
//
//	  parameter "count" {
//	    type    = number
//	    default = 1
//	  }
//
//	  input "bottomUpIn" {
//	    type     = list(number)
//	    required = true
//	  }
//	}
package spec
