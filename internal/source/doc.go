// Package source provides the path streams analysed by filestat: delimited
// lines read from a reader, and the entries of a directory tree.
package source
