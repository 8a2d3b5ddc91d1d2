package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dekarpio/dekarpio/mes"
	_ "github.com/dekarpio/dekarpio/mes/units"
)

var (
	// CLI flags
	configPath string // System spec YAML
	logLevel   string // Log verbosity level
	jsonOutput bool   // Print model statistics as JSON
	objective  string // Objective to activate before reporting or exporting
	exportPath string // Write the matrix form as YAML to this path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dekarpio",
	Short: "MILP model assembler for multi-energy systems",
	Long: "Assembles a mixed-integer linear program for the design and operation of a multi-energy system\n" +
		"from a YAML system spec. Solving is left to an external backend.\n\n" + envHelp(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// buildCmd assembles the model described by --config
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the MILP and print its size",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBuild(cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("build failed: %v", err)
		}
	},
}

// validateCmd parses and validates --config without assembling
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Strictly parse and validate a system spec",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("invalid system spec: %v", err)
		}
	},
}

// kindsCmd lists the registered unit kinds
var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the registered unit kinds",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range mes.UnitKinds() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

// loadSpec reads --config and applies environment overrides to its system section.
func loadSpec() (*mes.SystemSpec, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	spec, err := mes.LoadSystemSpec(configPath)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(&spec.System); err != nil {
		return nil, err
	}
	return spec, nil
}

func runValidate(w io.Writer) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	counts := spec.KindCounts()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "%s: ok (%d units, %d nodes, %d steps x %d scenarios)\n",
		configPath, len(spec.Units), len(spec.Nodes), spec.System.Steps, len(spec.System.Scenarios))
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-10s %d\n", k, counts[k])
	}
	return nil
}

func runBuild(w io.Writer) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}
	b, err := spec.Builder()
	if err != nil {
		return err
	}
	sys, err := b.BuildModel()
	if err != nil {
		return err
	}
	m := sys.Model()
	st := m.Stats()
	if objective != "" {
		if _, ok := m.Objective(objective); !ok {
			return fmt.Errorf("objective %q: %w", objective, mes.ErrUnknownObjective)
		}
		st.Active = objective
	}
	if exportPath != "" {
		if err := exportMatrix(m, objective, exportPath); err != nil {
			return err
		}
		logrus.Infof("matrix form written to %s", exportPath)
	}
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	printStats(w, st)
	return nil
}

func exportMatrix(m *mes.Model, objective, path string) error {
	mf, err := m.MatrixFormFor(objective)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(mf)
	if err != nil {
		return fmt.Errorf("encoding matrix form: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing matrix form: %w", err)
	}
	return nil
}

func printStats(w io.Writer, st mes.Stats) {
	fmt.Fprintf(w, "=== Model %s ===\n", st.ID)
	fmt.Fprintf(w, "Variables:   %d continuous, %d binary, %d integer\n",
		st.Variables["continuous"], st.Variables["binary"], st.Variables["integer"])
	fmt.Fprintf(w, "Constraints: %d in %d families\n", st.Constraints, len(st.Families))
	names := make([]string, 0, len(st.Families))
	for name := range st.Families {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-40s %d\n", name, st.Families[name])
	}
	fmt.Fprintf(w, "Objectives:  %d (active: %s)\n", len(st.Objectives), st.Active)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	for _, c := range []*cobra.Command{buildCmd, validateCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Path to the system spec YAML")
	}
	buildCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print model statistics as JSON")
	buildCmd.Flags().StringVar(&objective, "objective", "", "Activate this objective only (e.g. total_real)")
	buildCmd.Flags().StringVar(&exportPath, "export", "", "Write the matrix form of the model as YAML (infinite bounds as .inf)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(kindsCmd)
}
