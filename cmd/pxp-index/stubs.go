package main

import (
	"github.com/spf13/cobra"

	"github.com/pxp-lang/pxp-sub001/internal/stubs"
	"github.com/pxp-lang/pxp-sub001/internal/syntax"
	"github.com/pxp-lang/pxp-sub001/internal/version"
)

type stubsBuildOptions struct {
	src      string
	out      string
	versions string
	diff     bool
}

func newStubsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stubs",
		Short: "Manage the per-release stub corpora",
	}

	opts := &stubsBuildOptions{}
	build := &cobra.Command{
		Use:   "build",
		Short: "Filter an annotated stub corpus into one directory per release",
		Long:  "Removes declarations introduced after or removed at or before each release, strips the version markers, and writes <out>/<version>/ mirroring <src>.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.writeMetrics(runStubsBuild(cmd, g, opts))
		},
	}
	build.Flags().StringVar(&opts.src, "src", "", "annotated stub corpus (required)")
	build.Flags().StringVar(&opts.out, "out", "", "output root (default: stubs_root from config)")
	build.Flags().StringVar(&opts.versions, "versions", "", "comma-separated releases (default: versions from config)")
	build.Flags().BoolVar(&opts.diff, "diff", false, "write a unified diff of every changed file to stdout")
	_ = build.MarkFlagRequired("src")

	cmd.AddCommand(build)
	return cmd
}

func runStubsBuild(cmd *cobra.Command, g *globalOptions, opts *stubsBuildOptions) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	outDir := opts.out
	if outDir == "" {
		outDir = cfg.StubsRoot
	}

	var versions []version.Version
	if opts.versions != "" {
		versions, err = version.ParseList(opts.versions)
	} else {
		versions, err = cfg.SupportedVersions()
	}
	if err != nil {
		return err
	}

	parser, err := syntax.NewParser("php")
	if err != nil {
		return err
	}
	buildOpts := []stubs.BuildOption{
		stubs.WithMarkers(cfg.StubMarkers()),
		stubs.WithLogger(g.logger),
		stubs.WithWorkers(cfg.Workers),
	}
	if opts.diff {
		buildOpts = append(buildOpts, stubs.WithDiff(cmd.OutOrStdout()))
	}

	report, err := stubs.Build(cmd.Context(), parser, opts.src, outDir, versions, buildOpts...)
	if err != nil {
		return err
	}
	if opts.diff {
		return nil
	}

	rows := make([]CLIStubVersion, 0, len(report.Versions))
	for _, v := range report.Versions {
		rows = append(rows, CLIStubVersion{
			Version:  v.Version.String(),
			Dir:      v.Dir,
			Changed:  v.Changed,
			Removed:  v.Removed,
			Stripped: v.Stripped,
		})
	}
	return outputResult(cmd.OutOrStdout(), g.format, CLIResult{
		Command: "stubs build",
		Results: CLIStubReport{Files: report.Files, Versions: rows},
	})
}
