package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/barysiuk/cpm/cmd/cpm/cmd"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"cpm": func() {
			if err := cmd.Execute(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	})
}

func TestScript(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:                 filepath.Join("testdata", "script"),
		RequireExplicitExec: true,
		Setup: func(e *testscript.Env) error {
			// Confine all config inside the temp dir and keep the
			// registry pointed at a port that refuses instantly, so no
			// script ever waits on the network.
			e.Vars = append(e.Vars,
				"HOME="+e.WorkDir,
				"XDG_CONFIG_HOME="+filepath.Join(e.WorkDir, ".config"),
				"CPM_REGISTRY_URL=http://127.0.0.1:1",
				"NO_COLOR=1",
			)
			return nil
		},
	})
}
