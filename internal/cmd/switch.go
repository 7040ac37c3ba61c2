package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghswitch/ghswitch/internal/gitcfg"
	"github.com/ghswitch/ghswitch/internal/profile"
	"github.com/ghswitch/ghswitch/internal/project"
	"github.com/ghswitch/ghswitch/internal/sshkey"
	"github.com/ghswitch/ghswitch/internal/style"
)

var switchCmd = &cobra.Command{
	Use:     "switch <user>",
	GroupID: GroupProfiles,
	Short:   "Apply a profile to git config",
	Long: `Apply a profile's identity to git config.

Sets user.name and user.email, and when the profile carries them,
core.sshCommand and signing settings. By default this writes the current
repository's local config; --global writes ~/.gitconfig instead.

Switching git config does not move the GitHub CLI session. The printed
gh command does that.

Examples:
  ghs switch alice
  ghs switch 2
  ghs switch work --global`,
	Args: cobra.ExactArgs(1),
	RunE: runSwitch,
}

var switchGlobal bool

func init() {
	rootCmd.AddCommand(switchCmd)
	switchCmd.Flags().BoolVar(&switchGlobal, "global", false, "Write ~/.gitconfig instead of the repository config")
}

func runSwitch(cmd *cobra.Command, args []string) error {
	profiles, _, users := stores()

	username, err := users.Resolve(args[0])
	if err != nil {
		return err
	}
	p, err := profiles.Get(username)
	if err != nil {
		return err
	}

	scope := gitcfg.ScopeLocal
	var opts gitcfg.Options
	if switchGlobal {
		scope = gitcfg.ScopeGlobal
	} else {
		root, err := project.FindRoot(".")
		if err != nil {
			return err
		}
		opts.GitDir, err = project.GitDir(root)
		if err != nil {
			return err
		}
	}
	git := gitcfg.Open(opts)

	if err := git.SetIdentity(scope, gitcfg.Identity{Name: p.Name, Email: p.Email}); err != nil {
		return err
	}

	if p.SSHKeyPath != "" {
		res, err := (&sshkey.Validator{}).Validate(p.SSHKeyPath, true)
		if err != nil {
			return err
		}
		for _, r := range res.Repairs {
			fmt.Printf("✓ %s: %s\n", res.Path, r)
		}
		if err := git.SetSSHCommand(scope, gitcfg.SSHCommandFor(res.Path)); err != nil {
			return err
		}
	} else if git.SSHCommand(scope) != "" {
		fmt.Printf("%s core.sshCommand is still set from a previous profile\n", style.WarningPrefix)
	}

	if p.GPGKey != "" {
		if err := git.SetSigning(scope, p.GPGKey, p.AutoSign); err != nil {
			return err
		}
	}

	where := "this repository"
	if switchGlobal {
		where = "global git config"
	}
	fmt.Printf("✓ Switched %s to '%s' (%s <%s>)\n", where, p.Username, p.Name, p.Email)
	fmt.Printf("%s Run: %s\n", style.ArrowPrefix, style.Command.Render(authSwitchHint(p)))
	return nil
}

// authSwitchHint is the gh command that moves the CLI session to the same
// account. gh targets github.com unless told otherwise.
func authSwitchHint(p *profile.Profile) string {
	hint := "gh auth switch --user " + p.Username
	if p.Host != "" && p.Host != profile.DefaultHost {
		hint += " --hostname " + p.Host
	}
	return hint
}
