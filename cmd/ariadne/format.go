package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/CRJFisher/ariadne-sub020"
	"github.com/CRJFisher/ariadne-sub020/internal/indexing"
	"github.com/CRJFisher/ariadne-sub020/internal/store"
)

// output prints v as JSON, or via the given text renderer when --format
// text is set.
func output(v any, text func(io.Writer, any)) error {
	if flagFormat == "text" {
		text(os.Stdout, v)
		return nil
	}
	return printJSON(v)
}

func formatScopeGraphText(w io.Writer, v any) {
	graph := v.(*indexing.ScopeGraph)
	if graph == nil {
		return
	}
	fmt.Fprintf(w, "%s\n", graph.Path)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tLINE\tCOL")
	for _, d := range graph.Defs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", d.Kind, d.Name, d.Range.StartLine, d.Range.StartCol)
	}
	tw.Flush()
}

func formatReferencesText(w io.Writer, v any) {
	refs := v.([]ariadne.ReferenceLocation)
	for _, r := range refs {
		fmt.Fprintf(w, "%s:%d:%d\t%s\n", r.Location.File, r.Location.StartLine, r.Location.StartCol, r.Confidence)
	}
}

func formatDefinitionsText(w io.Writer, v any) {
	defs := v.([]*store.Definition)
	for _, d := range defs {
		fmt.Fprintf(w, "%s:%d:%d\t%s\t%s\n", d.SymbolID, d.StartLine, d.StartCol, d.Kind, d.Name)
	}
}

func formatCallGraphText(w io.Writer, v any) {
	graph := v.(*ariadne.SerializedCallGraph)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tCALLS\tCALLERS")
	for _, n := range graph.Nodes {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", n.SymbolID, len(n.Calls), len(n.Callers))
	}
	tw.Flush()
	fmt.Fprintf(w, "entry points: %d\n", len(graph.EntryPoints))
	for _, ep := range graph.EntryPoints {
		fmt.Fprintf(w, "  %s\n", ep)
	}
}

func formatSourceText(w io.Writer, v any) {
	ctx := v.(*ariadne.SourceWithContext)
	if ctx.Docstring != "" {
		fmt.Fprintf(w, "%s\n", ctx.Docstring)
	}
	for _, dec := range ctx.Decorators {
		fmt.Fprintf(w, "@%s(%s)\n", dec.Name, dec.Arguments)
	}
	fmt.Fprintln(w, ctx.Source)
}
