// Command inspect-form lists the fillable fields of a PDF form and, with
// --check, verifies that every key of the RUT field mapping names one of them.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/document"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/pkg/config"
	"github.com/spf13/cobra"
)

var (
	asJSON       bool
	checkMapping bool
	mapFile      string
	mapRevision  string
)

var rootCmd = &cobra.Command{
	Use:   "inspect-form <file.pdf>",
	Short: "List the form fields of a PDF",
	Long: `List every form field of a PDF with its page and current value.

Examples:
  inspect-form RUT_editable.pdf
  inspect-form --json documentos_rut/RUT_Ana_123.pdf
  inspect-form --check --map fieldmap.yaml --revision editable-2023 RUT_editable.pdf`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runInspect,
}

func init() {
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "print fields as JSON")
	rootCmd.Flags().BoolVar(&checkMapping, "check", false, "report mapping keys whose field is missing")
	rootCmd.Flags().StringVar(&mapFile, "map", os.Getenv("FIELD_MAP_FILE"), "field mapping file (default: embedded)")
	rootCmd.Flags().StringVar(&mapRevision, "revision", os.Getenv("FIELD_MAP_REVISION"), "field mapping revision")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	fields, err := document.NewPDFCPUEngine().Fields(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fields); err != nil {
			return fmt.Errorf("encode fields: %w", err)
		}
	} else {
		printFields(out, fields)
	}

	if !checkMapping {
		return nil
	}

	mapping, err := config.LoadFieldMapping(mapFile, mapRevision)
	if err != nil {
		return err
	}
	missing := missingFields(mapping, fields)
	if len(missing) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "mapping %q: all %d fields present\n", mapping.Revision, len(mapping.Fields))
		return nil
	}
	for _, key := range missing {
		fmt.Fprintf(cmd.ErrOrStderr(), "missing: %s -> %s\n", key, mapping.Fields[key])
	}
	return fmt.Errorf("mapping %q: %d of %d fields missing", mapping.Revision, len(missing), len(mapping.Fields))
}

func printFields(w io.Writer, fields []domain.FormField) {
	if len(fields) == 0 {
		fmt.Fprintln(w, "No form fields found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tFIELD\tVALUE")
	for _, f := range fields {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", f.Page, f.Name, f.Value)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d fields\n", len(fields))
}

// missingFields returns the sorted mapping keys whose field name does not
// occur in fields.
func missingFields(mapping domain.FieldMapping, fields []domain.FormField) []string {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f.Name] = true
	}
	var missing []string
	for key, name := range mapping.Fields {
		if !present[name] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
