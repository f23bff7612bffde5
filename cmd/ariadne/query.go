package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CRJFisher/ariadne-sub020"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the semantic index",
	Long:  "Run queries against an indexed codebase. All line and column numbers are 0-based.",
}

func init() {
	queryCmd.AddCommand(scopeGraphCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(callGraphCmd)
	queryCmd.AddCommand(sourceCmd)
}

// openProject opens the Project backed by the --db flag path (or default),
// rooted at the repository containing the current working directory.
func openProject() (*ariadne.Project, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)
	dbPath := resolveDBPath(repoRoot)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'ariadne index' first)", dbPath)
	}
	return ariadne.NewProject(dbPath, repoRoot)
}

func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var scopeGraphCmd = &cobra.Command{
	Use:   "scope-graph <file>",
	Short: "Print the ScopeGraph for one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveFilePath(args[0])
		if err != nil {
			return err
		}
		project, err := openProject()
		if err != nil {
			return err
		}
		defer project.Close()

		graph, err := project.GetScopeGraph(path)
		if err != nil {
			return fmt.Errorf("get scope graph: %w", err)
		}
		if graph == nil {
			return fmt.Errorf("file not indexed: %s", path)
		}
		return output(graph, formatScopeGraphText)
	},
}

var referencesCmd = &cobra.Command{
	Use:   "references <symbol-id>",
	Short: "List every reference resolved to a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := openProject()
		if err != nil {
			return err
		}
		defer project.Close()

		refs, err := project.FindReferences(args[0])
		if err != nil {
			return fmt.Errorf("find references: %w", err)
		}
		return output(refs, formatReferencesText)
	},
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the definition(s) of the symbol referenced at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveFilePath(args[0])
		if err != nil {
			return err
		}
		var line, col int
		if _, err := fmt.Sscanf(args[1], "%d", &line); err != nil {
			return fmt.Errorf("invalid line %q", args[1])
		}
		if _, err := fmt.Sscanf(args[2], "%d", &col); err != nil {
			return fmt.Errorf("invalid col %q", args[2])
		}

		project, err := openProject()
		if err != nil {
			return err
		}
		defer project.Close()

		defs, err := project.GoToDefinition(path, line, col)
		if err != nil {
			return fmt.Errorf("go to definition: %w", err)
		}
		return output(defs, formatDefinitionsText)
	},
}

var (
	flagIncludeExternal bool
	flagMaxDepth        int
	flagFileFilter      string
)

var callGraphCmd = &cobra.Command{
	Use:   "call-graph",
	Short: "Print the project's call graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := openProject()
		if err != nil {
			return err
		}
		defer project.Close()

		graph, err := project.GetCallGraph(&ariadne.CallGraphOptions{
			IncludeExternal: flagIncludeExternal,
			MaxDepth:        flagMaxDepth,
			FileFilter:      flagFileFilter,
		})
		if err != nil {
			return fmt.Errorf("get call graph: %w", err)
		}
		return output(graph, formatCallGraphText)
	},
}

func init() {
	callGraphCmd.Flags().BoolVar(&flagIncludeExternal, "include-external", false, "no-op, kept for interface parity")
	callGraphCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "limit traversal depth from entry points (0 = unbounded)")
	callGraphCmd.Flags().StringVar(&flagFileFilter, "file", "", "restrict nodes to one file path")
}

var sourceCmd = &cobra.Command{
	Use:   "source <symbol-id>",
	Short: "Print a definition's source, docstring, and decorators",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := openProject()
		if err != nil {
			return err
		}
		defer project.Close()

		def, err := project.Store().DefinitionBySymbolID(args[0])
		if err != nil {
			return fmt.Errorf("lookup definition: %w", err)
		}
		if def == nil {
			return fmt.Errorf("unknown symbol: %s", args[0])
		}

		ctx, err := project.GetSourceWithContext(def)
		if err != nil {
			return fmt.Errorf("get source with context: %w", err)
		}
		return output(ctx, formatSourceText)
	},
}
