// Package scaffold writes new formula declarations.
//
// A skeleton is guessed from the source archive URL and rendered through
// one of the embedded templates, one per declaration format.
package scaffold
