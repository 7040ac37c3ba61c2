package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ghswitch/ghswitch/internal/gh"
	"github.com/ghswitch/ghswitch/internal/gitcfg"
	"github.com/ghswitch/ghswitch/internal/guard"
	"github.com/ghswitch/ghswitch/internal/project"
	"github.com/ghswitch/ghswitch/internal/style"
)

var guardCmd = &cobra.Command{
	Use:     "guard",
	GroupID: GroupGuard,
	Short:   "Validate the active identity before committing",
	Long: `Validate that the active GitHub identity matches what this project
expects. Designed to run as a git pre-commit hook.

Checks, in order:
  1. GitHub CLI authentication
  2. Current login resolves
  3. Project assignment exists
  4. Login matches the assignment
  5. Git identity is complete
  6. Git identity matches the stored profile

Only an account mismatch or incomplete git config blocks the commit.
Anything the validation cannot determine degrades to a warning, so a
wedged setup never locks you out.

Examples:
  ghs guard                  # Validate the current repository
  ghs guard --project api    # Validate by name
  ghs guard --terse          # One line per check, for hook output`,
	RunE: runGuard,
}

var guardInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the pre-commit hook in this repository",
	Long: `Install the guard as this repository's pre-commit hook.

An existing pre-commit hook is saved as pre-commit.ghswitch.bak and
restored on uninstall. Respects core.hooksPath when set.`,
	RunE: runGuardInstall,
}

var guardUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the pre-commit hook",
	RunE:  runGuardUninstall,
}

var guardStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the pre-commit hook is installed",
	RunE:  runGuardStatus,
}

var (
	guardProject string
	guardTerse   bool
)

func init() {
	rootCmd.AddCommand(guardCmd)
	guardCmd.AddCommand(guardInstallCmd)
	guardCmd.AddCommand(guardUninstallCmd)
	guardCmd.AddCommand(guardStatusCmd)

	guardCmd.Flags().StringVar(&guardProject, "project", "", "Project name (default: the current repository)")
	guardCmd.Flags().BoolVar(&guardTerse, "terse", false, "One line per check")
}

func runGuard(cmd *cobra.Command, args []string) error {
	profiles, assignments, _ := stores()

	projectName := guardProject
	var gitDir string
	root, err := project.FindRoot(".")
	if err == nil {
		if projectName == "" {
			projectName = filepath.Base(root)
		}
		gitDir, err = project.GitDir(root)
		if err != nil {
			return err
		}
	} else if projectName == "" {
		return err
	}

	// The assigned account's profile decides which gh session file the
	// provider reads.
	host := cfg.Host
	if assigned, err := assignments.Lookup(projectName); err == nil {
		if snap, err := profiles.Load(); err == nil {
			if p, ok := snap.Find(assigned); ok {
				host = p.Host
			}
		}
	}

	engine := &guard.Engine{
		Profiles:    profiles,
		Assignments: assignments,
		GitHub:      gh.NewProvider(host),
		Git:         gitcfg.Open(gitcfg.Options{GitDir: gitDir}),
		DefaultHost: cfg.Host,
	}

	res, err := engine.Evaluate(projectName)
	if err != nil {
		return err
	}

	terse := cfg.Guard.Mode == "terse"
	if cmd.Flags().Changed("terse") {
		terse = guardTerse
	}
	fmt.Print(guard.Render(res, guard.RenderOptions{
		Terse: terse,
		Color: colorEnabled(cfg.Guard.Color),
	}))

	if res.Verdict == guard.Block {
		return guard.ErrBlocked
	}
	return nil
}

func runGuardInstall(cmd *cobra.Command, args []string) error {
	dir, err := hooksDir()
	if err != nil {
		return err
	}

	backedUp, err := guard.InstallHook(dir)
	if err != nil {
		return err
	}
	if backedUp {
		fmt.Printf("%s Existing pre-commit hook saved as pre-commit.ghswitch.bak\n", style.WarningPrefix)
	}
	fmt.Printf("✓ Guard hook installed in %s\n", dir)
	return nil
}

func runGuardUninstall(cmd *cobra.Command, args []string) error {
	dir, err := hooksDir()
	if err != nil {
		return err
	}

	restored, err := guard.UninstallHook(dir)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Guard hook removed\n")
	if restored {
		fmt.Printf("✓ Previous pre-commit hook restored\n")
	}
	return nil
}

func runGuardStatus(cmd *cobra.Command, args []string) error {
	dir, err := hooksDir()
	if err != nil {
		return err
	}

	switch guard.CheckHook(dir) {
	case guard.HookInstalled:
		fmt.Printf("%s Guard hook installed in %s\n", style.SuccessPrefix, dir)
	case guard.HookForeign:
		fmt.Printf("%s A pre-commit hook exists in %s, but it is not the guard hook\n", style.WarningPrefix, dir)
	default:
		fmt.Println("Guard hook not installed. Run 'ghs guard install'.")
	}
	return nil
}

// hooksDir resolves where this repository's hooks live, honoring
// core.hooksPath. Relative values are anchored at the repository root,
// matching git's resolution.
func hooksDir() (string, error) {
	root, err := project.FindRoot(".")
	if err != nil {
		return "", err
	}
	gitDir, err := project.GitDir(root)
	if err != nil {
		return "", err
	}

	git := gitcfg.Open(gitcfg.Options{GitDir: gitDir})
	if hp := git.HooksPath(); hp != "" {
		if !filepath.IsAbs(hp) {
			hp = filepath.Join(root, hp)
		}
		return hp, nil
	}
	return filepath.Join(gitDir, "hooks"), nil
}

func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}
