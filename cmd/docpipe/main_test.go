package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContextWithLevel(level string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", level, "")
	return cli.NewContext(nil, set, nil)
}

func TestSetupLogger(t *testing.T) {
	t.Run("accepts valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO", "Debug"} {
			assert.NoError(t, setupLogger(newContextWithLevel(level)), level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := setupLogger(newContextWithLevel("verbose"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %s not found", name)
	return nil
}

func TestIngestCommandFlags(t *testing.T) {
	app := newApp()
	ingest := findCommand(t, app, "ingest")

	t.Run("db is required", func(t *testing.T) {
		var dbFlag *cli.StringFlag
		for _, f := range ingest.Flags {
			if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "db" {
				dbFlag = sf
			}
		}
		require.NotNil(t, dbFlag)
		assert.True(t, dbFlag.Required)
	})

	t.Run("chunking defaults", func(t *testing.T) {
		defaults := map[string]int{}
		for _, f := range ingest.Flags {
			if intFlag, ok := f.(*cli.IntFlag); ok {
				defaults[intFlag.Name] = intFlag.Value
			}
		}
		assert.Equal(t, 1000, defaults["chunk-size"])
		assert.Equal(t, 200, defaults["overlap"])
	})
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"ingest", "versions", "search", "stats"} {
		assert.NotNil(t, findCommand(t, app, name))
	}
}
