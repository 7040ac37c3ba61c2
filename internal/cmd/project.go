package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghswitch/ghswitch/internal/project"
	"github.com/ghswitch/ghswitch/internal/style"
)

var assignCmd = &cobra.Command{
	Use:     "assign [project] <user>",
	GroupID: GroupProjects,
	Short:   "Pin a project to an account",
	Long: `Pin a project to the account that should own its commits.

With one argument the project name is taken from the current repository's
root directory. The user may be a username or its number from 'ghs list',
and must have a profile.

Examples:
  ghs assign alice                  # Pin the current repository
  ghs assign acme-api work          # Pin a project by name`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAssign,
}

var unassignCmd = &cobra.Command{
	Use:     "unassign [project]",
	GroupID: GroupProjects,
	Short:   "Remove a project's assignment",
	Long: `Remove a project's account assignment. Without an argument the project
name is taken from the current repository's root directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUnassign,
}

var projectsCmd = &cobra.Command{
	Use:     "projects",
	GroupID: GroupProjects,
	Short:   "List project assignments",
	RunE:    runProjects,
}

func init() {
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(unassignCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	profiles, assignments, users := stores()

	var projectName, ref string
	if len(args) == 2 {
		projectName, ref = args[0], args[1]
	} else {
		detected, err := project.Detect(".")
		if err != nil {
			return err
		}
		projectName, ref = detected, args[0]
	}

	username, err := users.Resolve(ref)
	if err != nil {
		return err
	}
	if _, err := profiles.Get(username); err != nil {
		return err
	}

	if err := assignments.Assign(projectName, username); err != nil {
		return err
	}

	fmt.Printf("✓ Assigned '%s' to '%s'\n", projectName, username)
	return nil
}

func runUnassign(cmd *cobra.Command, args []string) error {
	_, assignments, _ := stores()

	var projectName string
	if len(args) == 1 {
		projectName = args[0]
	} else {
		detected, err := project.Detect(".")
		if err != nil {
			return err
		}
		projectName = detected
	}

	if err := assignments.Remove(projectName); err != nil {
		return err
	}

	fmt.Printf("✓ Unassigned '%s'\n", projectName)
	return nil
}

func runProjects(cmd *cobra.Command, args []string) error {
	profiles, assignments, _ := stores()

	all, err := assignments.List()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No projects assigned. Run 'ghs assign <project> <user>' to pin one.")
		return nil
	}

	snap, err := profiles.Load()
	if err != nil {
		return err
	}

	width := 0
	for _, a := range all {
		if len(a.Project) > width {
			width = len(a.Project)
		}
	}
	for _, a := range all {
		line := fmt.Sprintf("  %-*s  %s", width, a.Project, a.Username)
		if _, ok := snap.Find(a.Username); !ok {
			line += " " + style.Dim.Render("(no profile)")
		}
		fmt.Println(line)
	}
	return nil
}
