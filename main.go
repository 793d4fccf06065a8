// The main package for the reviews executable.
package main

import (
	"github.com/JakeFAU/restaurant-reviews/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
