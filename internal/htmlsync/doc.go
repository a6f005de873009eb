// Package htmlsync rewrites the managed regions of an HTML document from
// collection records.
//
// An anchor is an element located by a Selector; its children form the
// managed region. The document is never parsed into a tree and re-serialized.
// It is tokenized to find byte offsets, and only the bytes between an
// anchor's start tag and its end tag are replaced. Everything outside managed
// regions is preserved byte for byte, and syncing twice with the same records
// yields identical output.
package htmlsync
