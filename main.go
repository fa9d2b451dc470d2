// =============================================================================
// Hoshuko Library Tools - Main Entry Point
// =============================================================================
//
// USAGE:
//   hoshuko process   - Convert rosters to an import file, cards or lists
//   hoshuko validate  - Check rosters without writing output
//   hoshuko version   - Display the application version
//
// LAYOUT:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Roster pipeline (parsers, validation, converter, writers)
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/hoshuko-library-tools/cmd"
)

func main() {
	cmd.Execute()
}
