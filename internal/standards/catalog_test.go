package standards

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "standards.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoad_ValidCatalog(t *testing.T) {
	path := writeFile(t, `{
		"okpd2_groups": {
			"26.20": {
				"processor": {"name": "Процессор", "values": ["Intel Core i5"], "units": []},
				"ram": {"values": ["8", "16"], "units": ["ГБ"]}
			},
			"17.12": {
				"layers": {"values": ["1", "2", "3"], "units": ["слой"]}
			}
		}
	}`)

	catalog := Load(path, slog.Default())

	if catalog.Len() != 2 {
		t.Fatalf("expected 2 groups, got %d", catalog.Len())
	}

	set, ok := catalog.Lookup("26.20")
	if !ok {
		t.Fatal("group 26.20 should exist")
	}
	if len(set) != 2 {
		t.Errorf("expected 2 characteristics, got %d", len(set))
	}
	if set["processor"].Name != "Процессор" {
		t.Errorf("unexpected characteristic name: %q", set["processor"].Name)
	}
	if len(set["ram"].Units) != 1 || set["ram"].Units[0] != "ГБ" {
		t.Errorf("unexpected units: %v", set["ram"].Units)
	}

	if _, ok := catalog.Lookup("99.99"); ok {
		t.Error("unknown group should not resolve")
	}
}

func TestLoad_GroupKeysSorted(t *testing.T) {
	path := writeFile(t, `{
		"okpd2_groups": {
			"26.20": {},
			"17.12": {},
			"26.11": {}
		}
	}`)

	catalog := Load(path, slog.Default())

	keys := catalog.GroupKeys()
	want := []string{"17.12", "26.11", "26.20"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, key := range want {
		if keys[i] != key {
			t.Errorf("key[%d]: expected %q, got %q", i, key, keys[i])
		}
	}
}

func TestLoad_LegacySchemaRejected(t *testing.T) {
	path := writeFile(t, `{
		"okpd2_characteristics": {
			"26.20": {"processor": {"variations": ["CPU"], "values": ["Intel"]}}
		}
	}`)

	catalog := Load(path, slog.Default())

	// Fail-soft: старая схема отвергается, каталог пустой.
	if catalog.Len() != 0 {
		t.Fatalf("legacy schema should yield empty catalog, got %d groups", catalog.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	catalog := Load(filepath.Join(t.TempDir(), "nope.json"), slog.Default())

	if catalog.Len() != 0 {
		t.Fatal("missing file should yield empty catalog")
	}
	if _, ok := catalog.Lookup("26.20"); ok {
		t.Error("empty catalog should resolve nothing")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeFile(t, `{not json`)

	catalog := Load(path, slog.Default())
	if catalog.Len() != 0 {
		t.Fatal("malformed file should yield empty catalog")
	}
}
