package hosts

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// testRegistry builds a registry over temp files with a scripted
// modification-time source, so cache validity is fully deterministic.
func testRegistry(t *testing.T) (*Registry, string, string, map[string]time.Time) {
	t.Helper()
	dir := t.TempDir()
	confPath := filepath.Join(dir, "ssh_config")
	listPath := filepath.Join(dir, "hosts")
	mods := map[string]time.Time{}
	reg := NewRegistryWithModTime(confPath, listPath, func(p string) time.Time {
		return mods[p]
	})
	return reg, confPath, listPath, mods
}

func TestList_CustomHostsFirst(t *testing.T) {
	reg, confPath, listPath, mods := testRegistry(t)
	writeFile(t, confPath, "Host prod\n  HostName prod.example.com\nHost staging\n")
	writeFile(t, listPath, "nas:2222\nprod:/var/log\n")
	mods[confPath] = time.Unix(100, 0)
	mods[listPath] = time.Unix(100, 0)

	got, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"nas:2222", "prod:/var/log", "prod", "staging"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestList_Deduplicates(t *testing.T) {
	reg, confPath, listPath, mods := testRegistry(t)
	writeFile(t, confPath, "Host prod\nHost prod\n")
	writeFile(t, listPath, "prod\n")
	mods[confPath] = time.Unix(1, 0)
	mods[listPath] = time.Unix(1, 0)

	got, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"prod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestList_SkipsNonLiteralPatterns(t *testing.T) {
	reg, confPath, _, mods := testRegistry(t)
	writeFile(t, confPath, `
# fleet config
Host *
  User deploy
Host web-? bastion
Host !prod
Host db[1-3]
Host=equals-form
Host staging prod
`)
	mods[confPath] = time.Unix(1, 0)

	got, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"bastion", "equals-form", "staging", "prod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestList_IgnoresInlineComments(t *testing.T) {
	reg, confPath, _, mods := testRegistry(t)
	writeFile(t, confPath, "Host prod # primary box\n")
	mods[confPath] = time.Unix(1, 0)

	got, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"prod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestList_MissingSourceFiles(t *testing.T) {
	reg, _, _, _ := testRegistry(t)
	got, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}

func TestList_CachedUntilModTimeChanges(t *testing.T) {
	reg, confPath, _, mods := testRegistry(t)
	writeFile(t, confPath, "Host prod\n")
	mods[confPath] = time.Unix(1, 0)

	got, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0] != "prod" {
		t.Fatalf("List() = %v, want [prod]", got)
	}

	// File changes but the modification time source does not: the cached
	// view must be served.
	writeFile(t, confPath, "Host prod\nHost staging\n")
	got, err = reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List() after unsignalled rewrite = %v, want cached [prod]", got)
	}

	// Bumping the modification time invalidates the cache.
	mods[confPath] = time.Unix(2, 0)
	got, err = reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"prod", "staging"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() after mtime bump = %v, want %v", got, want)
	}
}

func TestAdd(t *testing.T) {
	reg, confPath, listPath, mods := testRegistry(t)
	writeFile(t, confPath, "Host prod\n")
	mods[confPath] = time.Unix(1, 0)

	if _, err := reg.List(); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add("prod:/var/log"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Cache is patched in place: no mtime bump needed for the new entry
	// to show up, and the SSH-config hosts are still present.
	got, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"prod:/var/log", "prod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	// The entry was persisted verbatim.
	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "prod:/var/log\n" {
		t.Errorf("host list file = %q, want %q", data, "prod:/var/log\n")
	}
}

func TestAdd_CreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "nested", "deeper", "hosts")
	reg := NewRegistry(filepath.Join(dir, "ssh_config"), listPath)

	if err := reg.Add("nas"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := os.Stat(listPath); err != nil {
		t.Errorf("host list not created: %v", err)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	reg, _, listPath, mods := testRegistry(t)
	writeFile(t, listPath, "nas\n")
	mods[listPath] = time.Unix(1, 0)

	err := reg.Add("nas")
	if !errors.Is(err, ErrDuplicateHost) {
		t.Errorf("Add duplicate = %v, want ErrDuplicateHost", err)
	}
}

func TestAdd_Empty(t *testing.T) {
	reg, _, _, _ := testRegistry(t)
	if err := reg.Add("   "); err == nil {
		t.Error("Add of blank entry should return error")
	}
}

func TestRemove(t *testing.T) {
	reg, _, listPath, mods := testRegistry(t)
	writeFile(t, listPath, "nas\nprod:/var/log\n")
	mods[listPath] = time.Unix(1, 0)

	if _, err := reg.List(); err != nil {
		t.Fatal(err)
	}
	if err := reg.Remove("nas"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	got, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"prod:/var/log"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "prod:/var/log\n" {
		t.Errorf("host list file = %q, want %q", data, "prod:/var/log\n")
	}
}

func TestRemove_LastEntryDeletesFile(t *testing.T) {
	reg, _, listPath, mods := testRegistry(t)
	writeFile(t, listPath, "nas\n")
	mods[listPath] = time.Unix(1, 0)

	if err := reg.Remove("nas"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(listPath); !os.IsNotExist(err) {
		t.Errorf("host list file should be deleted, stat err = %v", err)
	}
}

func TestRemove_NotFound(t *testing.T) {
	reg, _, listPath, mods := testRegistry(t)
	writeFile(t, listPath, "nas\n")
	mods[listPath] = time.Unix(1, 0)

	err := reg.Remove("prod")
	if !errors.Is(err, ErrHostNotFound) {
		t.Errorf("Remove missing = %v, want ErrHostNotFound", err)
	}
}

func TestRemove_SSHConfigHostNotRemovable(t *testing.T) {
	reg, confPath, _, mods := testRegistry(t)
	writeFile(t, confPath, "Host prod\n")
	mods[confPath] = time.Unix(1, 0)

	err := reg.Remove("prod")
	if !errors.Is(err, ErrHostNotFound) {
		t.Errorf("Remove ssh-config host = %v, want ErrHostNotFound", err)
	}
}
