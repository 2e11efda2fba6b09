package main

import (
	"bytes"
	"testing"

	"rastro/internal/core/domain"
	"rastro/internal/testutil"
)

func TestRootCmdHasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	testutil.AssertTrue(t, names["scan"], "scan registered")
	testutil.AssertTrue(t, names["analyzers"], "analyzers registered")
	testutil.AssertTrue(t, names["version"], "version registered")
}

func TestVersionCmdOutput(t *testing.T) {
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})

	testutil.AssertNoError(t, cmd.Execute(), "version should run")
	testutil.AssertContains(t, buf.String(), "rastro version", "version banner")
}

func TestAnalyzersCmdListsCatalog(t *testing.T) {
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"analyzers"})

	testutil.AssertNoError(t, cmd.Execute(), "analyzers should run")
	out := buf.String()
	testutil.AssertContains(t, out, "geoip", "geoip listed")
	testutil.AssertContains(t, out, "profiles", "profiles listed")
	testutil.AssertContains(t, out, "API key required", "auth requirement shown")
}

func TestDetectSeed(t *testing.T) {
	seed, companions, err := detectSeed("ghost@example.com")
	testutil.AssertNoError(t, err, "email seed")
	testutil.AssertEqual(t, seed.Type, domain.EntityTypeEmail, "type detected")
	testutil.AssertEqual(t, len(companions), 0, "single identifier has no companions")

	_, _, err = detectSeed("this is a long sentence with no identifiers in it at all")
	testutil.AssertError(t, err, "unextractable text rejected")
}

func TestArtifactType(t *testing.T) {
	testutil.AssertEqual(t, artifactType("/tmp/photo.JPG"), domain.EntityTypeImage, "jpeg is an image")
	testutil.AssertEqual(t, artifactType("/tmp/report.docx"), domain.EntityTypeDocument, "docx is a document")
}
