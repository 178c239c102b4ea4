// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const scenario = `
sounds:
  - id: coin
    clip: coin.wav
    length: 100ms
schedule:
  - play: coin
  - at: 50ms
    play: coin
`

func TestRunCommand(t *testing.T) {
	chk := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	chk.NoError(os.WriteFile(path, []byte(scenario), 0o600))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "--scenario", path, "--frame", "10ms", "--tail", "0s", "--log-level", "error"})
	chk.NoError(cmd.ExecuteContext(context.Background()))

	var results map[string]any
	chk.NoError(yaml.Unmarshal(out.Bytes(), &results))
	chk.Equal(2, results["plays"])
	chk.Equal(2, results["released"])
}

func TestRunCommandFromEnvironment(t *testing.T) {
	chk := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	chk.NoError(os.WriteFile(path, []byte(scenario), 0o600))
	t.Setenv("RESPOOLSIM_SCENARIO", path)
	t.Setenv("RESPOOLSIM_ORDERING", "ring")
	t.Setenv("RESPOOLSIM_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run"})
	chk.NoError(cmd.ExecuteContext(context.Background()))
	chk.Contains(out.String(), "taken: 2")
}

func TestRunCommandErrors(t *testing.T) {
	chk := require.New(t)

	cmd := newRootCommand()
	cmd.SetArgs([]string{"run", "--log-level", "error"})
	chk.ErrorContains(cmd.ExecuteContext(context.Background()), "--scenario is required")

	cmd = newRootCommand()
	cmd.SetArgs([]string{"run", "--scenario", "missing.yaml", "--log-level", "error"})
	chk.Error(cmd.ExecuteContext(context.Background()))

	cmd = newRootCommand()
	cmd.SetArgs([]string{"run", "--scenario", "x", "--log-level", "loud"})
	chk.Error(cmd.ExecuteContext(context.Background()))
}

func TestRunCommandWithConfigFile(t *testing.T) {
	chk := require.New(t)
	cfgPath := filepath.Join(t.TempDir(), "respoolsim.yaml")
	chk.NoError(os.WriteFile(cfgPath, []byte("capacity: 0\nlog-level: error\nscenario: testdata/arcade.yaml\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "--config", cfgPath})
	chk.NoError(cmd.ExecuteContext(context.Background()))

	var results map[string]any
	chk.NoError(yaml.Unmarshal(out.Bytes(), &results))
	chk.Equal(5, results["plays"])
	chk.Equal(5, results["constructed"])
	// The sparks burst pool keeps its own capacity of 4, so the one released
	// burst stays idle even with the voice capacity set to 0.
	chk.Equal(1, results["retained"])
	chk.Equal(4, results["destroyed"])
	chk.Equal(map[string]any{"voices": 0, "sparks": 1}, results["idle"])
}
