package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:s@test\r\nDTSTART:20260311T100000Z\r\nDTEND:20260311T120000Z\r\n" +
	"STATUS:CONFIRMED\r\nSUMMARY:Seminar\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

const conf = `
name: CLI
timezone: UTC
output: out.ics
sources:
  - {id: local, file: cal.ics}
vacancies:
  - {day: 1, from: "08:00", to: "12:00"}
assignments:
  - pattern: Seminar
    tasks:
      - {name: Read, type: before, hours: 2}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		planDryRun, planNow, planOutput = false, "", ""
		verbose, quiet = false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cal.ics"), []byte(calendar), 0o644))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(conf), 0o600))
	return path
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "--quiet", "--config", writeFixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Mon 08:00-12:00")
	assert.Contains(t, out, "Seminar")
}

func TestPlanCommand(t *testing.T) {
	path := writeFixture(t)
	output := filepath.Join(filepath.Dir(path), "plan.ics")

	out, err := execute(t, "plan", "--quiet", "--config", path, "--now", "2026-03-01T00:00:00Z", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Events have been calculated and stored in "+output)
	assert.Contains(t, out, "Mon 2026-03-02 08:00")
	assert.FileExists(t, output)
}

func TestPlanCommand_CreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := execute(t, "plan", "--quiet", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default one was written")
	assert.FileExists(t, path)
}
