package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	content := "# hubs\nBerlin Hbf\n\n  München Hbf  \n#skip\nKöln Hbf\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := readQueries(path)
	if err != nil {
		t.Fatalf("readQueries: %v", err)
	}
	want := []string{"Berlin Hbf", "München Hbf", "Köln Hbf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReadQueriesMissingFile(t *testing.T) {
	if _, err := readQueries(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
