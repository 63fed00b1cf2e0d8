// Command pgdiff is the CLI entry point (spec §6.4), grounded on
// cmd/packagemigrator/packagemigrator.go's root-command/viper-env-prefix
// shape and cmd/generate/generate.go's cobraflags flag-registration style.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pgschemadiff/pgschemadiff/pkg/pgdiff"
)

const envPrefix = "PGDIFF"

const (
	mainFlag      = "main"
	branchFlag    = "branch"
	pgVersionFlag = "pg-version"
	ignoreExtFlag = "ignore-extension"
	outFlag       = "out"
)

var flags = map[string]cobraflags.Flag{
	mainFlag: &cobraflags.StringFlag{
		Name:  mainFlag,
		Value: "",
		Usage: "Connection string for the database being migrated (required)",
	},
	branchFlag: &cobraflags.StringFlag{
		Name:  branchFlag,
		Value: "",
		Usage: "Connection string for the database holding the desired schema (required)",
	},
	pgVersionFlag: &cobraflags.StringFlag{
		Name:  pgVersionFlag,
		Value: "0",
		Usage: "Target server's major version, for version-sensitive SQL formatting (0 = newest syntax)",
	},
	ignoreExtFlag: &cobraflags.StringFlag{
		Name:  ignoreExtFlag,
		Value: "plpgsql",
		Usage: "Comma-separated extension names excluded from diffing entirely",
	},
	outFlag: &cobraflags.StringFlag{
		Name:  outFlag,
		Value: "",
		Usage: "Write the migration script here instead of stdout",
	},
}

var rootCmd = &cobra.Command{
	Use:   "pgdiff",
	Short: "Diff two PostgreSQL databases and emit a migration script",
	Long: `pgdiff connects to two live PostgreSQL databases - one holding the
current schema, one holding the desired schema - and prints the SQL
statements that migrate the first to match the second.

It compares every schema-level object PostgreSQL's catalog exposes
(tables, indexes, views, routines, triggers, policies, publications,
foreign servers, privileges, and more), orders the resulting changes so
that every dependency is created before anything that needs it, and masks
environment-specific values (passwords, connection strings) before they
reach the printed script.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func main() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	cobraflags.RegisterMap(rootCmd, flags)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1) //revive:disable-line:deep-exit
	}
}

func run(cmd *cobra.Command, _ []string) error {
	mainDSN := flags[mainFlag].GetString()
	branchDSN := flags[branchFlag].GetString()
	if mainDSN == "" || branchDSN == "" {
		return fmt.Errorf("--%s and --%s are both required", mainFlag, branchFlag)
	}

	pgVersion, err := strconv.Atoi(flags[pgVersionFlag].GetString())
	if err != nil {
		return fmt.Errorf("--%s must be an integer: %w", pgVersionFlag, err)
	}

	var ignored []string
	for _, name := range strings.Split(flags[ignoreExtFlag].GetString(), ",") {
		if name = strings.TrimSpace(name); name != "" {
			ignored = append(ignored, name)
		}
	}

	script, err := pgdiff.Migrate(context.Background(), pgdiff.Options{
		MainDSN:           mainDSN,
		BranchDSN:         branchDSN,
		PGMajorVersion:    pgVersion,
		IgnoredExtensions: ignored,
	})
	if err != nil {
		return fmt.Errorf("pgdiff: %w", err)
	}

	if script.SQL == "" {
		cmd.Println("-- no differences found")
		return nil
	}

	out := flags[outFlag].GetString()
	if out == "" {
		cmd.Println(script.SQL)
		return nil
	}
	return os.WriteFile(out, []byte(script.SQL), 0o644) //nolint:gosec // script output, not a secret
}
