// Package blocks implements composite form fields built from named child
// blocks. A block descriptor is immutable after construction and safe to share
// across requests; the values it parses, cleans and renders are request-scoped.
//
// The core type is StructBlock, which groups child blocks under stable names
// and keeps their declaration order through parsing, validation, rendering,
// storage and search extraction. Field blocks (CharBlock, IntegerBlock,
// DateBlock and friends) cover the leaf field kinds.
package blocks
