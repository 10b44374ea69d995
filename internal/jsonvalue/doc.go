// Package jsonvalue models parsed JSON documents as an ordered tagged union
// and decodes them one top-level value at a time from a byte stream.
//
// Unlike decoding into map[string]any, objects keep their members in the
// order they appear in the input, so traversals over a Value are
// deterministic and follow document order.
//
// A stream may hold any number of documents back to back, separated by
// whitespace or directly concatenated:
//
//	{"a":"x"} {"a":"y"}{"a":"z"}
//
// Decoder.Next returns them one at a time and io.EOF once the stream is
// drained.
package jsonvalue
