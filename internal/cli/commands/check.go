package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/typesystem/internal/cli/ui"
	"github.com/conduit-lang/typesystem/internal/manifest"
	"github.com/conduit-lang/typesystem/internal/project"
	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// checkReport is the --json output of check
type checkReport struct {
	Files      int                       `json:"files"`
	Errors     []*manifest.ManifestError `json:"errors"`
	Unresolved []unresolvedReference     `json:"unresolved"`
}

// unresolvedReference is a type reference in a loaded manifest that names a
// type no loaded assembly defines
type unresolvedReference struct {
	Type      string `json:"type"`
	Member    string `json:"member,omitempty"`
	Reference string `json:"reference"`
}

// NewCheckCommand creates the check command
func NewCheckCommand(opts *globalOptions) *cobra.Command {
	var (
		asJSON bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "check [manifest...]",
		Short: "Validate manifests and report references that do not resolve",
		Long: `Load every manifest, report all problems found in each one, then look for
base types and member signatures that name types no manifest defines.

Unresolved references are warnings unless --strict is given.

Examples:
  typesys check
  typesys check types/corlib.yml types/app.yml --strict
  typesys check --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.manifests = args
			}
			e, err := newEnv(cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.close()

			files, err := e.manifestFiles()
			if err != nil {
				return err
			}

			report := checkReport{Files: len(files), Errors: []*manifest.ManifestError{}}
			loader := manifest.NewLoader(e.logger)
			ws := project.NewWorkspace()
			owners := make(map[string]string)
			for _, file := range files {
				content, err := loader.LoadFile(file)
				if err != nil {
					report.Errors = append(report.Errors, manifestErrors(err)...)
					continue
				}
				if other, ok := owners[content.Assembly()]; ok {
					report.Errors = append(report.Errors, manifest.NewDuplicateAssemblyError(content.Assembly(), file, other))
					continue
				}
				owners[content.Assembly()] = file
				ws.Replace(content)
			}
			report.Unresolved = unresolvedReferences(ws)

			if asJSON {
				enc := json.NewEncoder(e.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				renderCheck(e, report)
			}

			switch {
			case len(report.Errors) > 0:
				return fmt.Errorf("%d manifest problem(s)", len(report.Errors))
			case strict && len(report.Unresolved) > 0:
				return fmt.Errorf("%d unresolved reference(s)", len(report.Unresolved))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when references do not resolve")

	return cmd
}

func renderCheck(e *env, report checkReport) {
	for _, me := range report.Errors {
		for _, m := range ui.ManifestProblems(me, e.noColor) {
			m.Write(e.errOut)
		}
	}
	for _, u := range report.Unresolved {
		where := "type: " + u.Type
		if u.Member != "" {
			where += ", member: " + u.Member
		}
		ui.Message{
			Level:   ui.LevelWarning,
			Title:   "unresolved reference " + u.Reference,
			Detail:  []string{where},
			NoColor: e.noColor,
		}.Write(e.errOut)
	}
	if len(report.Errors) == 0 {
		ui.Success(e.out, fmt.Sprintf("%d manifest(s) valid", report.Files), e.noColor)
	}
}

// manifestErrors flattens a load failure into manifest errors
func manifestErrors(err error) []*manifest.ManifestError {
	var list manifest.ErrorList
	if errors.As(err, &list) {
		return list
	}
	var one *manifest.ManifestError
	if errors.As(err, &one) {
		return []*manifest.ManifestError{one}
	}
	return []*manifest.ManifestError{{Code: manifest.ErrInvalidYAML, Message: err.Error()}}
}

// unresolvedReferences walks every definition in ws, nested ones included,
// and collects base and member references that do not resolve
func unresolvedReferences(ws *project.Workspace) []unresolvedReference {
	out := []unresolvedReference{}
	check := func(def *typesystem.TypeDefinition, member string, ref typesystem.TypeReference) {
		if typesystem.ContainsUnknown(ref.Resolve(ws)) {
			out = append(out, unresolvedReference{
				Type:      def.ReflectionName(),
				Member:    member,
				Reference: ref.String(),
			})
		}
	}
	checkParameters := func(def *typesystem.TypeDefinition, member string, params []*typesystem.Parameter) {
		for _, p := range params {
			check(def, member, p.Type())
		}
	}

	var visit func(def *typesystem.TypeDefinition)
	visit = func(def *typesystem.TypeDefinition) {
		for _, ref := range def.BaseTypeReferences() {
			check(def, "", ref)
		}
		for _, m := range append(def.DeclaredConstructors(), def.DeclaredMethods()...) {
			check(def, m.Name(), m.ReturnType())
			checkParameters(def, m.Name(), m.Parameters())
		}
		for _, p := range def.DeclaredProperties() {
			check(def, p.Name(), p.ReturnType())
			checkParameters(def, p.Name(), p.Parameters())
		}
		for _, f := range def.DeclaredFields() {
			check(def, f.Name(), f.ReturnType())
		}
		for _, ev := range def.DeclaredEvents() {
			check(def, ev.Name(), ev.ReturnType())
		}
		for _, nested := range def.NestedTypeDefinitions() {
			visit(nested)
		}
	}
	for def := range ws.TypeDefinitions() {
		visit(def)
	}
	return out
}
