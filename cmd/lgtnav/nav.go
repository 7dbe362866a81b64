package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"lgtnav/internal/dispatch"
	"lgtnav/internal/locate"
)

// positionFlags are shared by every command that targets a cursor.
type positionFlags struct {
	file     string
	line     int
	column   int
	symbol   string
	modified bool
}

func (p *positionFlags) register(cmd *cobra.Command, needSymbol bool) {
	cmd.Flags().StringVar(&p.file, "file", "", "Source file (absolute or relative to the root)")
	cmd.Flags().IntVar(&p.line, "line", 1, "Cursor line (1-based)")
	cmd.Flags().IntVar(&p.column, "column", 1, "Cursor column (1-based)")
	cmd.Flags().StringVar(&p.symbol, "symbol", "", "Symbol under the cursor, e.g. foo/2")
	cmd.Flags().BoolVar(&p.modified, "modified", false, "Treat the file as having unsaved changes")
	_ = cmd.MarkFlagRequired("file")
	if needSymbol {
		_ = cmd.MarkFlagRequired("symbol")
	}
}

// request builds a dispatch request with 0-based positions.
func (p *positionFlags) request(root string) dispatch.Request {
	file := p.file
	if file != "" && !filepath.IsAbs(file) {
		file = filepath.Join(root, file)
	}
	return dispatch.Request{
		File: filepath.ToSlash(file),
		Position: locate.Position{
			Line:      max(p.line-1, 0),
			Character: max(p.column-1, 0),
		},
		Symbol:   p.symbol,
		Modified: p.modified,
	}
}

// navCommand describes one navigation subcommand.
type navCommand struct {
	use     string
	aliases []string
	short   string
	op      dispatch.Operation
}

var navCommands = []navCommand{
	{use: "prepare-call", short: "Resolve the call hierarchy item under the cursor", op: dispatch.OpPrepareCallHierarchy},
	{use: "prepare-type", short: "Resolve the type hierarchy item under the cursor", op: dispatch.OpPrepareTypeHierarchy},
	{use: "incoming", aliases: []string{"callers"}, short: "List callers of a predicate", op: dispatch.OpIncomingCalls},
	{use: "outgoing", aliases: []string{"callees"}, short: "List predicates called by a predicate", op: dispatch.OpOutgoingCalls},
	{use: "supertypes", aliases: []string{"ancestors"}, short: "List ancestors of an entity", op: dispatch.OpSupertypes},
	{use: "subtypes", aliases: []string{"descendants"}, short: "List descendants of an entity", op: dispatch.OpSubtypes},
	{use: "refs", aliases: []string{"references"}, short: "List references to a symbol", op: dispatch.OpReferences},
	{use: "typedef", aliases: []string{"type-definition"}, short: "Find the entity defining a symbol", op: dispatch.OpTypeDefinition},
}

func init() {
	for _, nc := range navCommands {
		rootCmd.AddCommand(newNavCmd(nc))
	}
}

func newNavCmd(nc navCommand) *cobra.Command {
	var pos positionFlags
	cmd := &cobra.Command{
		Use:     nc.use,
		Aliases: nc.aliases,
		Short:   nc.short,
		Example: fmt.Sprintf("  lgtnav %s --file src/app.lgt --line 5 --column 5 --symbol greet/1", nc.use),
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runNav(nc.op, &pos)
		},
	}
	pos.register(cmd, true)
	return cmd
}

func runNav(op dispatch.Operation, pos *positionFlags) {
	start := time.Now()
	s := mustOpenSession()
	defer s.Close()

	ctx, cancel := newContext()
	defer cancel()

	result, err := s.facade.Dispatch(ctx, op, pos.request(s.root))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printResult(result)

	s.logger.Debug("Navigation query completed",
		"operation", string(op),
		"file", pos.file,
		"symbol", pos.symbol,
		"duration", time.Since(start).Milliseconds(),
	)
}
