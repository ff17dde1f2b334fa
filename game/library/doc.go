// Package library provides the board library for the RoboTiles simulator.
//
// Boards live as .board text files in a single directory, one name per
// file ("classic.board" is the board named "classic"). A board file holds
// space-separated fields on newline-separated rows: "0" for an empty cell,
// "START" and "END" for the protected marker cells, and any other keyword
// for an obstacle. The grid size is inferred from the first row's field
// count.
//
// Manager implements service.BoardLibrary. Source text is cached after the
// first read, but Load always builds a fresh Board instance because runs
// mutate their boards independently. Save validates new source by
// constructing a board before anything is written to disk.
package library
