// Package main hosts the seasontrack CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into watch-list
// store operations: listing, adding, editing, toggling and removing season
// records, plus status and configuration scaffolding. It centralizes
// configuration resolution, logger setup and store lifetime so subcommands
// only collect input and render results.
//
// Keep this package lean: validation and persistence live in
// internal/watchlist; commands here translate arguments and format output.
package main
