// Package pipeline runs an ordered list of named concatenation stages.
//
// The usual layout is three per-taxon stages (archaea, fungi, bacteria)
// writing into one directory, then a combining stage that reads that
// directory. Ordering is declared with Stage.After and enforced here, not
// left to whoever runs the commands.
package pipeline
