package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/typesystem/internal/cli/ui"
	"github.com/conduit-lang/typesystem/internal/project"
	"github.com/conduit-lang/typesystem/internal/server"
	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// inspection is the --json output of inspect
type inspection struct {
	Type    server.TypeView     `json:"type"`
	Bases   []server.TypeView   `json:"bases"`
	Nested  []server.TypeView   `json:"nested,omitempty"`
	Members []server.MemberView `json:"members,omitempty"`
}

// NewInspectCommand creates the inspect command
func NewInspectCommand(opts *globalOptions) *cobra.Command {
	var (
		asJSON      bool
		allBases    bool
		noMembers   bool
		fromCatalog bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <reflection-name>",
		Short: "Resolve a type and show its bases, nested types and members",
		Long: `Resolve a reflection name against the loaded assemblies and describe the
resulting type. Members of constructed generic types are shown with their
type arguments substituted.

Examples:
  typesys inspect System.String
  typesys inspect 'System.Collections.Generic.List` + "`" + `1[[System.Int32]]'
  typesys inspect 'System.Int32[]' --all-bases
  typesys inspect App.Models.User --from-catalog --json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.close()

			ws, err := e.workspace(cmd.Context(), fromCatalog)
			if err != nil {
				return err
			}

			name := args[0]
			t, err := server.Resolve(ws, name)
			if errors.Is(err, server.ErrTypeNotFound) {
				ui.TypeNotFound(name, ui.Suggest(name, definitionNames(ws)), e.noColor).Write(e.errOut)
			}
			if err != nil {
				return err
			}

			result := describe(ws, t, allBases, !noMembers)
			if asJSON {
				enc := json.NewEncoder(e.out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			renderInspection(e.out, result, e.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&allBases, "all-bases", false, "Show every transitive base type")
	cmd.Flags().BoolVar(&noMembers, "no-members", false, "Omit the member listing")
	cmd.Flags().BoolVar(&fromCatalog, "from-catalog", false, "Load assemblies from the catalog instead of manifests")

	return cmd
}

func describe(ws *project.Workspace, t typesystem.Type, allBases, members bool) inspection {
	var bases []typesystem.Type
	if allBases {
		bases = typesystem.AllBaseTypes(ws, t)
	} else {
		bases = typesystem.Collect(t.BaseTypes(ws))
	}

	result := inspection{
		Type:   server.DescribeType(ws, t),
		Bases:  server.DescribeTypes(ws, bases),
		Nested: server.DescribeTypes(ws, typesystem.Collect(t.NestedTypes(ws, nil))),
	}
	if members {
		for m := range t.Members(ws, nil) {
			result.Members = append(result.Members, server.DescribeMember(ws, m))
		}
	}
	return result
}

func renderInspection(w io.Writer, in inspection, noColor bool) {
	ui.Heading(w, in.Type.ReflectionName, noColor)

	d := ui.NewDetails(noColor)
	d.Add("Kind", in.Type.Kind)
	d.Add("Reference type", in.Type.IsReferenceType)
	d.Add("Definition", in.Type.Definition)
	d.Add("Assembly", in.Type.Assembly)
	d.Add("Declaring type", in.Type.DeclaringType)
	d.Add("Type arguments", strings.Join(in.Type.TypeArguments, ", "))
	d.Render(w)

	if len(in.Bases) > 0 {
		fmt.Fprintln(w)
		ui.Heading(w, "Base types", noColor)
		for _, b := range in.Bases {
			fmt.Fprintf(w, "  %s\n", b.ReflectionName)
		}
	}

	if len(in.Nested) > 0 {
		fmt.Fprintln(w)
		ui.Heading(w, "Nested types", noColor)
		for _, n := range in.Nested {
			fmt.Fprintf(w, "  %s (%s)\n", n.ReflectionName, n.Kind)
		}
	}

	if len(in.Members) > 0 {
		fmt.Fprintln(w)
		table := ui.NewTable(noColor, "KIND", "SIGNATURE", "DECLARED BY")
		for _, m := range in.Members {
			sig := m.Signature
			if m.Static {
				sig = "static " + sig
			}
			table.AddRow(m.Kind, sig, m.DeclaringType)
		}
		table.Render(w)
	}
}

// NewTypesCommand creates the types command
func NewTypesCommand(opts *globalOptions) *cobra.Command {
	var (
		namespace   string
		fromCatalog bool
	)

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the type definitions of the loaded assemblies",
		Long: `List the top-level type definitions, sorted by reflection name. Use
inspect to see the nested types of a definition.

Examples:
  typesys types
  typesys types --namespace System.Collections.Generic
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.close()

			ws, err := e.workspace(cmd.Context(), fromCatalog)
			if err != nil {
				return err
			}

			var defs []*typesystem.TypeDefinition
			for def := range ws.TypeDefinitions() {
				if namespace == "" || def.Namespace() == namespace {
					defs = append(defs, def)
				}
			}
			sort.Slice(defs, func(i, j int) bool { return defs[i].ReflectionName() < defs[j].ReflectionName() })

			if len(defs) == 0 {
				ui.Message{Level: ui.LevelWarning, Title: "no types found", NoColor: e.noColor}.Write(e.out)
				return nil
			}

			table := ui.NewTable(e.noColor, "TYPE", "KIND", "ASSEMBLY")
			for _, def := range defs {
				table.AddRow(def.ReflectionName(), def.Kind().String(), def.Assembly())
			}
			table.Render(e.out)
			return nil
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Only list types in this namespace")
	cmd.Flags().BoolVar(&fromCatalog, "from-catalog", false, "Load assemblies from the catalog instead of manifests")

	return cmd
}

func definitionNames(ctx typesystem.ResolveContext) []string {
	var names []string
	for def := range ctx.TypeDefinitions() {
		names = append(names, def.ReflectionName())
	}
	return names
}
