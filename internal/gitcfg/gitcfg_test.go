package gitcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFileT(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
}

func TestFileAccessor_ReadsLocalAndGlobal(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	writeFileT(t, filepath.Join(gitDir, "config"), "[user]\n\tname = Alice Local\n\temail = alice@local.example.com\n")
	writeFileT(t, globalPath, "[user]\n\tname = Alice Global\n\temail = alice@global.example.com\n")

	acc := Open(Options{GitDir: gitDir, GlobalPath: globalPath})

	local := acc.Identity(ScopeLocal)
	if local.Name != "Alice Local" || local.Email != "alice@local.example.com" {
		t.Errorf("local = %+v", local)
	}
	global := acc.Identity(ScopeGlobal)
	if global.Name != "Alice Global" || global.Email != "alice@global.example.com" {
		t.Errorf("global = %+v", global)
	}
}

func TestOpen_NoWritesLeavesFilesAlone(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	writeFileT(t, filepath.Join(gitDir, "config"), "[user]\n\tname = Before\n\temail = before@example.com\n")
	writeFileT(t, globalPath, "[user]\n\tname = Global Before\n")

	dry := Open(Options{GitDir: gitDir, GlobalPath: globalPath, NoWrites: true})
	if err := dry.SetIdentity(ScopeLocal, Identity{Name: "After", Email: "after@example.com"}); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if err := dry.SetSigning(ScopeLocal, "DEADBEEF", true); err != nil {
		t.Fatalf("SetSigning: %v", err)
	}

	fresh := Open(Options{GitDir: gitDir, GlobalPath: globalPath})
	if got := fresh.Identity(ScopeLocal); got.Name != "Before" || got.Email != "before@example.com" {
		t.Errorf("identity after discarded writes = %+v, want the original values", got)
	}
	if key, autoSign := fresh.Signing(ScopeLocal); key != "" || autoSign {
		t.Errorf("signing after discarded writes = %q, %v, want unset", key, autoSign)
	}
}

func TestResolvedIdentity_LocalWinsPerField(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	// local sets only the name; the email falls through to global
	writeFileT(t, filepath.Join(gitDir, "config"), "[user]\n\tname = Work Alice\n")
	writeFileT(t, globalPath, "[user]\n\tname = Home Alice\n\temail = alice@example.com\n")

	acc := Open(Options{GitDir: gitDir, GlobalPath: globalPath})

	id := ResolvedIdentity(acc)
	if id.Name != "Work Alice" {
		t.Errorf("name = %q, want %q", id.Name, "Work Alice")
	}
	if id.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", id.Email, "alice@example.com")
	}
}

func TestResolvedIdentity_Empty(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	writeFileT(t, filepath.Join(gitDir, "config"), "[core]\n\tbare = false\n")
	writeFileT(t, globalPath, "[core]\n\tpager = less\n")

	acc := Open(Options{GitDir: gitDir, GlobalPath: globalPath})

	id := ResolvedIdentity(acc)
	if id.Name != "" || id.Email != "" {
		t.Errorf("identity = %+v, want empty", id)
	}
}

func TestFileAccessor_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	writeFileT(t, filepath.Join(gitDir, "config"), "[core]\n\trepositoryformatversion = 0\n")
	writeFileT(t, globalPath, "[core]\n\tpager = less\n")

	acc := Open(Options{GitDir: gitDir, GlobalPath: globalPath})

	want := Identity{Name: "Alice Work", Email: "alice@work.example.com"}
	if err := acc.SetIdentity(ScopeLocal, want); err != nil {
		t.Fatalf("SetIdentity local: %v", err)
	}
	if err := acc.SetSigning(ScopeLocal, "DEADBEEF", true); err != nil {
		t.Fatalf("SetSigning: %v", err)
	}
	sshCmd := SSHCommandFor("/home/alice/.ssh/id_work")
	if err := acc.SetSSHCommand(ScopeLocal, sshCmd); err != nil {
		t.Fatalf("SetSSHCommand: %v", err)
	}
	if err := acc.SetIdentity(ScopeGlobal, Identity{Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("SetIdentity global: %v", err)
	}

	// a fresh accessor sees only what was persisted
	fresh := Open(Options{GitDir: gitDir, GlobalPath: globalPath})

	if got := fresh.Identity(ScopeLocal); got != want {
		t.Errorf("local identity = %+v, want %+v", got, want)
	}
	if key, sign := fresh.Signing(ScopeLocal); key != "DEADBEEF" || !sign {
		t.Errorf("signing = %q, %v, want DEADBEEF, true", key, sign)
	}
	if got := fresh.SSHCommand(ScopeLocal); got != sshCmd {
		t.Errorf("sshCommand = %q, want %q", got, sshCmd)
	}
	if got := fresh.Identity(ScopeGlobal); got.Email != "alice@example.com" {
		t.Errorf("global identity = %+v", got)
	}
}

func TestFileAccessor_SetSigningWithoutKey(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	writeFileT(t, filepath.Join(gitDir, "config"), "[user]\n\tsigningkey = CAFEBABE\n")
	writeFileT(t, globalPath, "")

	acc := Open(Options{GitDir: gitDir, GlobalPath: globalPath})

	if err := acc.SetSigning(ScopeLocal, "", false); err != nil {
		t.Fatalf("SetSigning: %v", err)
	}

	key, sign := acc.Signing(ScopeLocal)
	if key != "CAFEBABE" {
		t.Errorf("key = %q, want the existing key preserved", key)
	}
	if sign {
		t.Error("autoSign = true, want false")
	}
}

func TestFileAccessor_HooksPath(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	writeFileT(t, filepath.Join(gitDir, "config"), "[core]\n\thookspath = .husky\n")
	writeFileT(t, globalPath, "")

	acc := Open(Options{GitDir: gitDir, GlobalPath: globalPath})
	if got := acc.HooksPath(); got != ".husky" {
		t.Errorf("HooksPath = %q, want %q", got, ".husky")
	}
}

func TestFileAccessor_HooksPathGlobalFallback(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	writeFileT(t, filepath.Join(gitDir, "config"), "[core]\n\tbare = false\n")
	writeFileT(t, globalPath, "[core]\n\thookspath = /opt/hooks\n")

	acc := Open(Options{GitDir: gitDir, GlobalPath: globalPath})
	if got := acc.HooksPath(); got != "/opt/hooks" {
		t.Errorf("HooksPath = %q, want %q", got, "/opt/hooks")
	}
}

func TestFileAccessor_HooksPathUnset(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	globalPath := filepath.Join(dir, "gitconfig")

	writeFileT(t, filepath.Join(gitDir, "config"), "[core]\n\tbare = false\n")
	writeFileT(t, globalPath, "")

	acc := Open(Options{GitDir: gitDir, GlobalPath: globalPath})
	if got := acc.HooksPath(); got != "" {
		t.Errorf("HooksPath = %q, want empty", got)
	}
}

func TestSSHCommandFor(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "plain path",
			path: "/home/alice/.ssh/id_ed25519",
			want: "ssh -i /home/alice/.ssh/id_ed25519 -o IdentitiesOnly=yes",
		},
		{
			name: "path with spaces",
			path: "/home/alice/my keys/id_work",
			want: "ssh -i '/home/alice/my keys/id_work' -o IdentitiesOnly=yes",
		},
		{
			name: "path with single quote",
			path: "/home/o'brien/.ssh/id",
			want: `ssh -i '/home/o'\''brien/.ssh/id' -o IdentitiesOnly=yes`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SSHCommandFor(tt.path); got != tt.want {
				t.Errorf("SSHCommandFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
