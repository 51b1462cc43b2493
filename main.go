// The main package for the newsscraper executable.
package main

import (
	"github.com/JakeFAU/news-scraper/cmd"
)

// main defers all execution to the Cobra command tree.
func main() {
	cmd.Execute()
}
