// Package cmd implements the ghs command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghswitch/ghswitch/internal/config"
	"github.com/ghswitch/ghswitch/internal/guard"
	"github.com/ghswitch/ghswitch/internal/logger"
	"github.com/ghswitch/ghswitch/internal/profile"
	"github.com/ghswitch/ghswitch/internal/project"
	"github.com/ghswitch/ghswitch/internal/registry"
	"github.com/ghswitch/ghswitch/internal/sshkey"
	"github.com/ghswitch/ghswitch/internal/style"
)

// Command groups shown in help output.
const (
	GroupProfiles = "profiles"
	GroupProjects = "projects"
	GroupGuard    = "guard"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagDir     string
	flagVerbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ghs",
	Short: "Per-project GitHub identity switching",
	Long: `ghs keeps your GitHub identities straight.

Register a profile per GitHub account (name, email, SSH key, signing key),
pin each project to the account that owns its commits, and let the
pre-commit guard block commits made under the wrong identity.

Profiles live in ~/.config/ghswitch as plain text files. Nothing leaves
your machine.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := os.Getenv("GHSWITCH_LOG")
		if flagVerbose {
			level = "debug"
		}
		logger.Init(level)

		c, err := config.Load()
		if err != nil {
			return err
		}
		if flagDir != "" {
			c.BaseDir = flagDir
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command. A guard block exits 1 without extra
// output; the rendered report already said everything.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, guard.ErrBlocked) {
			fmt.Fprintf(os.Stderr, "%s %v\n", style.ErrorPrefix, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Data directory (default: ~/.config/ghswitch)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupProfiles, Title: "Profiles:"},
		&cobra.Group{ID: GroupProjects, Title: "Projects:"},
		&cobra.Group{ID: GroupGuard, Title: "Guard:"},
	)
}

// stores wires the three flat-file stores under the data directory.
func stores() (*profile.Store, *project.Assignments, *registry.Registry) {
	keys := &sshkey.Validator{}
	return profile.NewStore(cfg.ProfilesPath(), keys),
		project.NewAssignments(cfg.ProjectsPath()),
		registry.New(cfg.UsersPath())
}
