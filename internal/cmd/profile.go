package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghswitch/ghswitch/internal/gh"
	"github.com/ghswitch/ghswitch/internal/profile"
	"github.com/ghswitch/ghswitch/internal/registry"
	"github.com/ghswitch/ghswitch/internal/sshkey"
	"github.com/ghswitch/ghswitch/internal/style"
)

var addCmd = &cobra.Command{
	Use:     "add <username>",
	GroupID: GroupProfiles,
	Short:   "Register a profile for a GitHub account",
	Long: `Register a named profile for a GitHub account.

The username is the GitHub login. Display name defaults to the username
and email defaults to the account's noreply address when not given.

Examples:
  ghs add alice
  ghs add alice --name "Alice Jones" --email alice@example.com
  ghs add work --ssh-key ~/.ssh/id_work --gpg-key 3AA5C34371567BD2 --auto-sign
  ghs add corp --host github.corp.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var removeCmd = &cobra.Command{
	Use:     "remove <user>",
	Aliases: []string{"rm"},
	GroupID: GroupProfiles,
	Short:   "Delete a profile",
	Long: `Delete a profile and drop it from the user registry.

The user may be a username or its number from 'ghs list'. Project
assignments pointing at the removed profile are left in place; the guard
reports them as stale.

Example:
  ghs remove alice`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var updateCmd = &cobra.Command{
	Use:     "update <user> <field> <value>",
	GroupID: GroupProfiles,
	Short:   "Change one field of a profile",
	Long: `Update a single profile field.

Fields: name, email, gpg-key, auto-sign, ssh-key, host

Clearing email restores the account's derived noreply address.

Examples:
  ghs update alice name "Alice B. Jones"
  ghs update alice auto-sign true
  ghs update 2 ssh-key ~/.ssh/id_alt`,
	Args: cobra.ExactArgs(3),
	RunE: runUpdate,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	GroupID: GroupProfiles,
	Short:   "Show all profiles",
	Long: `List registered profiles in registry order.

The profile matching the active GitHub CLI login is marked with an
asterisk (*). Numbers are stable references usable anywhere a username
is expected.`,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:     "show <user>",
	GroupID: GroupProfiles,
	Short:   "Show one profile in full",
	Args:    cobra.ExactArgs(1),
	RunE:    runShow,
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	GroupID: GroupProfiles,
	Short:   "Show the active GitHub account",
	Long: `Show the GitHub account the CLI session is signed in as, plus its
profile when one exists.`,
	RunE: runWhoami,
}

var (
	addName     string
	addEmail    string
	addSSHKey   string
	addGPGKey   string
	addAutoSign bool
	addHost     string
	addForce    bool
)

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(whoamiCmd)

	addCmd.Flags().StringVar(&addName, "name", "", "Display name for commits")
	addCmd.Flags().StringVar(&addEmail, "email", "", "Commit email (default: the account's noreply address)")
	addCmd.Flags().StringVar(&addSSHKey, "ssh-key", "", "Path to the account's SSH private key")
	addCmd.Flags().StringVar(&addGPGKey, "gpg-key", "", "GPG signing key ID")
	addCmd.Flags().BoolVar(&addAutoSign, "auto-sign", false, "Sign all commits with the GPG key")
	addCmd.Flags().StringVar(&addHost, "host", "", "GitHub host (default: github.com)")
	addCmd.Flags().BoolVar(&addForce, "force", false, "Replace an existing profile")
}

func runAdd(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])

	keyPath := strings.TrimSpace(addSSHKey)
	if keyPath != "" {
		if err := fixKey(keyPath); err != nil {
			return err
		}
	}

	profiles, _, users := stores()

	p := profile.Profile{
		Username:   username,
		Name:       addName,
		Email:      addEmail,
		GPGKey:     addGPGKey,
		AutoSign:   addAutoSign,
		SSHKeyPath: keyPath,
		Host:       addHost,
	}
	if p.Host == "" {
		p.Host = cfg.Host
	}

	if err := profiles.Create(p, addForce); err != nil {
		return err
	}
	if err := users.Add(username); err != nil {
		return err
	}

	fmt.Printf("✓ Added profile '%s'\n", username)
	if addEmail == "" {
		if stored, err := profiles.Get(username); err == nil {
			fmt.Printf("  Email: %s %s\n", stored.Email, style.Dim.Render("(derived)"))
		}
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	profiles, _, users := stores()

	username, err := users.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := removeUser(profiles, users, username); err != nil {
		return err
	}

	fmt.Printf("✓ Removed profile '%s'\n", username)
	return nil
}

// removeUser drops both records for username. Either record may already
// be gone (its line skipped as corrupt at load); a user absent from both
// stores is an error.
func removeUser(profiles *profile.Store, users *registry.Registry, username string) error {
	profErr := profiles.Remove(username)
	if profErr != nil && !errors.Is(profErr, profile.ErrProfileNotFound) {
		return profErr
	}
	regErr := users.Remove(username)
	if regErr != nil && !errors.Is(regErr, registry.ErrUserNotFound) {
		return regErr
	}
	if profErr != nil && regErr != nil {
		return profErr
	}
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	profiles, _, users := stores()

	username, err := users.Resolve(args[0])
	if err != nil {
		return err
	}
	field, value := args[1], args[2]

	if field == profile.FieldSSHKey && value != "" {
		if err := fixKey(value); err != nil {
			return err
		}
	}

	if err := profiles.Update(username, field, value); err != nil {
		return err
	}

	fmt.Printf("✓ Updated %s for '%s'\n", field, username)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	profiles, _, users := stores()

	snap, err := profiles.Load()
	if err != nil {
		return err
	}
	order, err := users.List()
	if err != nil {
		return err
	}

	for _, w := range snap.Warnings {
		fmt.Printf("%s profiles: %s\n", style.WarningPrefix, w.String())
	}

	if len(snap.Profiles) == 0 && len(order) == 0 {
		fmt.Println("No profiles yet. Run 'ghs add <username>' to create the first one.")
		return nil
	}

	current := gh.NewProvider(cfg.Host).CurrentLogin()

	seen := make(map[string]bool, len(order))
	for n, username := range order {
		p, ok := snap.Find(username)
		if !ok {
			fmt.Printf("  %d. %s %s\n", n+1, username, style.Dim.Render("(no profile)"))
			continue
		}
		seen[username] = true

		marker := "  "
		if p.Username == current {
			marker = "* "
		}
		fmt.Printf("%s%d. %s\n", marker, n+1, profileSummary(p))
	}

	for i := range snap.Profiles {
		p := &snap.Profiles[i]
		if seen[p.Username] {
			continue
		}
		fmt.Printf("     %s %s\n", profileSummary(p), style.Dim.Render("(unregistered)"))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	profiles, assignments, users := stores()

	username, err := users.Resolve(args[0])
	if err != nil {
		return err
	}
	p, err := profiles.Get(username)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", style.Bold.Render("Profile:"), p.Username)
	printProfileDetails(p)

	all, err := assignments.List()
	if err != nil {
		return err
	}
	var pinned []string
	for _, a := range all {
		if a.Username == p.Username {
			pinned = append(pinned, a.Project)
		}
	}
	if len(pinned) > 0 {
		fmt.Printf("  Projects:  %s\n", strings.Join(pinned, ", "))
	}
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	provider := gh.NewProvider(cfg.Host)
	if !provider.IsAuthenticated() {
		fmt.Println(style.Dim.Render("Not authenticated."))
		fmt.Println("Run 'gh auth login' to sign in.")
		return nil
	}

	login := provider.CurrentLogin()
	if login == "" {
		fmt.Println(style.Dim.Render("Authenticated, but no active login recorded."))
		return nil
	}

	fmt.Printf("%s %s\n", style.Bold.Render("Current user:"), login)

	profiles, _, _ := stores()
	p, err := profiles.Get(login)
	if err != nil {
		fmt.Println(style.Dim.Render("No profile for this account. Run 'ghs add " + login + "' to create one."))
		return nil //nolint:nilerr // a missing profile is informational here
	}
	printProfileDetails(p)
	return nil
}

// fixKey validates an SSH key before it is stored, repairing loose
// permissions and reporting what changed.
func fixKey(path string) error {
	res, err := (&sshkey.Validator{}).Validate(path, true)
	if err != nil {
		return err
	}
	for _, r := range res.Repairs {
		fmt.Printf("✓ %s: %s\n", res.Path, r)
	}
	return nil
}

func profileSummary(p *profile.Profile) string {
	display := p.Username
	if p.Name != "" && p.Name != p.Username {
		display = fmt.Sprintf("%s (%s)", p.Username, p.Name)
	}
	if p.Email != "" {
		display += fmt.Sprintf(" <%s>", p.Email)
	}

	var extras []string
	if p.SSHKeyPath != "" {
		extras = append(extras, "ssh")
	}
	if p.GPGKey != "" {
		extras = append(extras, "gpg")
	}
	if p.Host != profile.DefaultHost {
		extras = append(extras, p.Host)
	}
	if len(extras) > 0 {
		display += " " + style.Dim.Render("["+strings.Join(extras, ", ")+"]")
	}
	return display
}

func printProfileDetails(p *profile.Profile) {
	if p.Name != "" {
		fmt.Printf("  Name:      %s\n", p.Name)
	}
	if p.Email != "" {
		fmt.Printf("  Email:     %s\n", p.Email)
	}
	if p.SSHKeyPath != "" {
		fmt.Printf("  SSH key:   %s\n", p.SSHKeyPath)
	}
	if p.GPGKey != "" {
		autoSign := "off"
		if p.AutoSign {
			autoSign = "on"
		}
		fmt.Printf("  GPG key:   %s %s\n", p.GPGKey, style.Dim.Render("(auto-sign "+autoSign+")"))
	}
	fmt.Printf("  Host:      %s\n", p.Host)
}
