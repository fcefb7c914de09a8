// Command graphplan runs planner queries against a local property graph.
package main

import (
	"fmt"
	"os"

	"github.com/dd0wney/graphplan/pkg/logging"
)

func main() {
	c := &cli{}
	err := c.rootCmd().Execute()
	if closeErr := c.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		logging.Debug("command failed", logging.Error(err))
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
