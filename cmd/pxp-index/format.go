package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	pxp "github.com/pxp-lang/pxp-sub001"
)

// CLIResult is the top-level JSON envelope for every command.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
}

// CLIParameter is a JSON-friendly parameter.
type CLIParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Variadic    bool   `json:"variadic,omitempty"`
	ByReference bool   `json:"by_reference,omitempty"`
	HasDefault  bool   `json:"has_default,omitempty"`
}

// CLIFunction is a JSON-friendly function entity.
type CLIFunction struct {
	Name               string         `json:"name"`
	ShortName          string         `json:"short_name"`
	Signature          string         `json:"signature"`
	Parameters         []CLIParameter `json:"parameters"`
	ReturnType         string         `json:"return_type"`
	ReturnsByReference bool           `json:"returns_by_reference,omitempty"`
	File               string         `json:"file"`
	Offset             int            `json:"offset"`
	Summary            string         `json:"summary,omitempty"`
}

// CLIIndexSummary reports one indexing run.
type CLIIndexSummary struct {
	Paths       []string `json:"paths"`
	StubsDir    string   `json:"stubs_dir,omitempty"`
	PHPVersion  string   `json:"php_version"`
	Functions   int      `json:"functions"`
	CacheHits   int64    `json:"cache_hits"`
	CacheMisses int64    `json:"cache_misses"`
	Elapsed     string   `json:"elapsed"`
	Error       string   `json:"error,omitempty"`
}

// CLIStubReport reports one stub build.
type CLIStubReport struct {
	Files    int              `json:"files"`
	Versions []CLIStubVersion `json:"versions"`
}

// CLIStubVersion reports the corpus written for one release.
type CLIStubVersion struct {
	Version  string `json:"version"`
	Dir      string `json:"dir"`
	Changed  int    `json:"changed"`
	Removed  int    `json:"removed"`
	Stripped int    `json:"stripped"`
}

func toCLIFunction(fn *pxp.FunctionEntity) CLIFunction {
	params := make([]CLIParameter, 0, len(fn.Parameters))
	for _, p := range fn.Parameters {
		params = append(params, CLIParameter{
			Name:        p.Name,
			Type:        p.Type.String(),
			Variadic:    p.Variadic,
			ByReference: p.ByReference,
			HasDefault:  p.HasDefault,
		})
	}
	return CLIFunction{
		Name:               fn.QualifiedName,
		ShortName:          fn.Name,
		Signature:          fn.Signature(),
		Parameters:         params,
		ReturnType:         fn.ReturnType.String(),
		ReturnsByReference: fn.ReturnsByReference,
		File:               fn.Location.File.Path,
		Offset:             fn.Location.Offset,
		Summary:            fn.Summary,
	}
}

// outputResult writes result to w in the selected format.
func outputResult(w io.Writer, format string, result CLIResult) error {
	if format == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch r := result.Results.(type) {
	case CLIFunction:
		formatFunctionText(w, r)
	case []CLIFunction:
		formatFunctionsText(w, r)
	case CLIIndexSummary:
		formatIndexSummaryText(w, r)
	case CLIStubReport:
		formatStubReportText(w, r)
	default:
		return fmt.Errorf("no text format for %T", result.Results)
	}
	return nil
}

func formatFunctionText(w io.Writer, fn CLIFunction) {
	fmt.Fprintln(w, fn.Signature)
	fmt.Fprintf(w, "  defined at %s@%d\n", fn.File, fn.Offset)
	if fn.Summary != "" {
		fmt.Fprintf(w, "  %s\n", fn.Summary)
	}
}

// formatFunctionsText formats functions as aligned columns.
func formatFunctionsText(w io.Writer, fns []CLIFunction) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tRETURNS\tFILE\tOFFSET")
	for _, fn := range fns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", fn.Name, fn.ReturnType, fn.File, fn.Offset)
	}
	tw.Flush()
}

func formatIndexSummaryText(w io.Writer, s CLIIndexSummary) {
	fmt.Fprintf(w, "Indexed %d functions from %s", s.Functions, strings.Join(s.Paths, ", "))
	if s.StubsDir != "" {
		fmt.Fprintf(w, " and PHP %s stubs (%s)", s.PHPVersion, s.StubsDir)
	}
	fmt.Fprintf(w, " in %s\n", s.Elapsed)
	fmt.Fprintf(w, "Parse cache: %d hits, %d misses\n", s.CacheHits, s.CacheMisses)
	if s.Error != "" {
		fmt.Fprintf(w, "Errors:\n  %s\n", strings.ReplaceAll(s.Error, "\n", "\n  "))
	}
}

// formatStubReportText formats a stub build as aligned columns.
func formatStubReportText(w io.Writer, r CLIStubReport) {
	fmt.Fprintf(w, "Filtered %d files\n", r.Files)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tDIR\tCHANGED\tREMOVED\tSTRIPPED")
	for _, v := range r.Versions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", v.Version, v.Dir, v.Changed, v.Removed, v.Stripped)
	}
	tw.Flush()
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
