// Package masker runs the iterative masking of an ordered list of
// reference collections.
//
// Reference i (from last to second) is aligned against every reference
// j < i; the regions of i homologous to any earlier reference are masked
// (or replaced with the query text) and the result is handed to a Sink.
// Reference 0 is written unchanged.
//
// Subject steps run one after the other. Within a step the queries are
// aligned concurrently and their hits are funnelled to a single collector
// that dispatches them into the subject.
package masker
