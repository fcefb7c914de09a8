package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dd0wney/graphplan/pkg/logging"
)

const shellHelp = `Commands:
  <statement>           Run a MATCH query or CREATE/DROP INDEX
  explain <query>       Show the plan for a query
  profile <query>       Run a query and show operator statistics
  indexes               List indexes
  stats                 Show graph statistics
  top                   Show the most executed queries
  help                  Show this help
  exit, quit            Leave the shell`

type shell struct {
	app     *app
	scanner *bufio.Scanner
	out     io.Writer
	logger  logging.Logger
}

func newShell(a *app, in io.Reader, out io.Writer) *shell {
	return &shell{
		app:     a,
		scanner: bufio.NewScanner(in),
		out:     out,
		logger:  logging.With(logging.Component("shell")),
	}
}

func (s *shell) run(ctx context.Context) error {
	fmt.Fprintf(s.out, "graphplan shell (%s). Type 'help' for commands.\n", graphSummary(s.app.graph))
	for {
		fmt.Fprint(s.out, "graphplan> ")
		if !s.scanner.Scan() {
			fmt.Fprintln(s.out)
			return s.scanner.Err()
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.logger.Debug("statement", logging.String("input", input))
		s.execute(ctx, input)
	}
}

func (s *shell) execute(ctx context.Context, input string) {
	command, rest, _ := strings.Cut(input, " ")

	switch strings.ToLower(command) {
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	case "stats":
		fmt.Fprintln(s.out, renderStats(s.app.graph, s.app.metrics))
	case "indexes":
		fmt.Fprintln(s.out, renderIndexes(s.app.graph.Catalog()))
	case "top":
		fmt.Fprintln(s.out, renderTopQueries(s.app.executor.Cache().TopQueries(10)))
	case "explain":
		plan, err := s.app.executor.Explain(ctx, rest)
		if err != nil {
			s.printError(err)
			return
		}
		fmt.Fprintln(s.out, plan)
	default:
		rs, err := s.app.execute(ctx, input)
		if err != nil {
			s.printError(err)
			return
		}
		fmt.Fprintln(s.out, renderResult(rs))
	}
}

func (s *shell) printError(err error) {
	s.logger.Debug("statement failed", logging.Error(err))
	fmt.Fprintln(s.out, errorStyle.Render("error: "+err.Error()))
}
