package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/pkg/api"
)

func main() {
	var (
		entryPoints []string
		outdir      string
		target      string
		format      string
		splitting   bool
		treeshake   bool
		sourcemap   string
		external    []string
		alias       []string
		define      []string
		configPath  string
		addr        string
	)

	rootCmd := &cobra.Command{
		Use:   "gobundle",
		Short: "A JavaScript/TypeScript bundler",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "gobundle.config.yaml", "Config file path")
	rootCmd.PersistentFlags().StringSliceVar(&entryPoints, "entry", nil, "Entry point file (repeatable)")
	rootCmd.PersistentFlags().StringVar(&outdir, "outdir", "dist", "Output directory")
	rootCmd.PersistentFlags().StringVar(&target, "target", "browser", "Target platform: browser|server")
	rootCmd.PersistentFlags().StringVar(&format, "format", "iife", "Output format: iife|cjs|esm")
	rootCmd.PersistentFlags().BoolVar(&splitting, "splitting", true, "Enable code splitting")
	rootCmd.PersistentFlags().BoolVar(&treeshake, "treeshake", true, "Enable tree shaking")
	rootCmd.PersistentFlags().StringVar(&sourcemap, "sourcemap", "none", "Source map mode: none|inline|external")
	rootCmd.PersistentFlags().StringSliceVar(&external, "external", nil, "Mark a specifier (or \"prefix/*\") as external (repeatable)")
	rootCmd.PersistentFlags().StringSliceVar(&alias, "alias", nil, "Alias a specifier, as from=to (repeatable)")
	rootCmd.PersistentFlags().StringSliceVar(&define, "define", nil, "Replace an identifier at transform time, as name=value (repeatable)")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle the given entry points once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := loadOptions(configPath, entryPoints, outdir, target, format, splitting, treeshake, sourcemap, external, alias, define)
			if err != nil {
				return err
			}
			return runBuild(options)
		},
	}

	devCmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the dev server: build, watch, and push HMR updates to connected clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := loadOptions(configPath, entryPoints, outdir, target, format, splitting, treeshake, sourcemap, external, alias, define)
			if err != nil {
				return err
			}
			return runDev(options, addr)
		},
	}
	devCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "Address the dev server listens on")

	rootCmd.AddCommand(buildCmd, devCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadOptions layers config.DefaultOptions() under gobundle.config.yaml (if
// present) under the flags actually set on the command line, in that
// priority order, via viper the way the rest of the pack's CLIs do.
// Flag values arrive already parsed into native Go types, so the only job
// left for viper is the optional config file and GOBUNDLE_-prefixed env.
func loadOptions(configPath string, entryPoints []string, outdir, target, format string, splitting, treeshake bool, sourcemap string, external, alias, define []string) (config.Options, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("GOBUNDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("entry", entryPoints)
	v.SetDefault("outdir", outdir)
	v.SetDefault("target", target)
	v.SetDefault("format", format)
	v.SetDefault("splitting", splitting)
	v.SetDefault("treeshake", treeshake)
	v.SetDefault("sourcemap", sourcemap)
	v.SetDefault("external", external)
	v.SetDefault("alias", alias)
	v.SetDefault("define", define)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return config.Options{}, fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	options := config.DefaultOptions()
	options.EntryPoints = v.GetStringSlice("entry")
	absOutdir, err := filepath.Abs(v.GetString("outdir"))
	if err != nil {
		return config.Options{}, fmt.Errorf("resolving outdir: %w", err)
	}
	options.AbsOutdir = absOutdir

	switch v.GetString("target") {
	case "server":
		options.Target = config.TargetServer
	default:
		options.Target = config.TargetBrowser
	}
	switch v.GetString("format") {
	case "cjs":
		options.Format = config.FormatCJS
	case "esm":
		options.Format = config.FormatESM
	default:
		options.Format = config.FormatIIFE
	}
	switch v.GetString("sourcemap") {
	case "inline":
		options.SourceMap = config.SourceMapInline
	case "external":
		options.SourceMap = config.SourceMapExternal
	default:
		options.SourceMap = config.SourceMapNone
	}
	options.Splitting = v.GetBool("splitting")
	options.TreeShake = v.GetBool("treeshake")

	for _, pattern := range v.GetStringSlice("external") {
		if strings.HasSuffix(pattern, "/*") {
			options.External = append(options.External, config.ExternalPattern{Prefix: strings.TrimSuffix(pattern, "*")})
		} else {
			options.External = append(options.External, config.ExternalPattern{Literal: pattern})
		}
	}
	for _, kv := range v.GetStringSlice("alias") {
		from, to, ok := strings.Cut(kv, "=")
		if !ok {
			return config.Options{}, fmt.Errorf("invalid --alias %q, expected from=to", kv)
		}
		options.Alias[from] = to
	}
	for _, kv := range v.GetStringSlice("define") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return config.Options{}, fmt.Errorf("invalid --define %q, expected name=value", kv)
		}
		options.Define[name] = value
	}

	if len(options.EntryPoints) == 0 {
		return config.Options{}, fmt.Errorf("no entry points given: pass --entry or set \"entry\" in %s", configPath)
	}

	return options, nil
}

func runBuild(options config.Options) error {
	result := api.Build(options)
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, e.String())
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("build failed with %d error(s)", len(result.Errors))
	}

	if err := os.MkdirAll(options.AbsOutdir, 0o755); err != nil {
		return fmt.Errorf("creating outdir: %w", err)
	}
	for _, f := range result.OutputFiles {
		if err := os.MkdirAll(filepath.Dir(f.AbsPath), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(f.AbsPath), err)
		}
		if err := os.WriteFile(f.AbsPath, f.Contents, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.AbsPath, err)
		}
		fmt.Println(f.AbsPath)
	}
	return nil
}

func runDev(options config.Options, addr string) error {
	ctx := api.NewContext(options)
	if _, err := ctx.Serve(api.ServeOptions{Addr: addr}); err != nil {
		return fmt.Errorf("starting dev server: %w", err)
	}
	defer ctx.Dispose()

	fmt.Printf("gobundle dev server listening on http://%s\n", addr)
	select {} // runs until killed; the server's own goroutines do the work
}
