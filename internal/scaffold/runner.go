package scaffold

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes a custom template entry point with a JSON options document.
type Runner interface {
	Run(entryPoint string, options any) error
}

// nodeLoader calls the default export of the module at argv[1] with the
// parsed JSON at argv[2]. It accepts CommonJS and ES modules.
const nodeLoader = `const { pathToFileURL } = require('url');
const [entry, raw] = process.argv.slice(1);
import(pathToFileURL(entry).href).then(async (mod) => {
  let fn = mod.default;
  if (fn && typeof fn !== 'function' && typeof fn.default === 'function') fn = fn.default;
  if (typeof fn !== 'function') throw new Error(entry + ' does not export a default function');
  await fn(JSON.parse(raw));
}).catch((err) => {
  console.error(err && err.stack ? err.stack : err);
  process.exit(1);
});`

var jsExtensions = map[string]bool{".js": true, ".cjs": true, ".mjs": true}

// ProcessRunner runs entry points as child processes sharing the CLI's
// standard streams. It waits for the child without a timeout.
type ProcessRunner struct {
	logger *zerolog.Logger
	node   string
	dir    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewProcessRunner runs JavaScript entry points with the node binary and
// everything else directly, in dir.
func NewProcessRunner(logger *zerolog.Logger, node, dir string) *ProcessRunner {
	return &ProcessRunner{
		logger: logger,
		node:   node,
		dir:    dir,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func (r *ProcessRunner) Run(entryPoint string, options any) error {
	payload, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode installer options: %w", err)
	}

	path := filepath.FromSlash(entryPoint)
	var cmd *exec.Cmd
	if jsExtensions[strings.ToLower(filepath.Ext(path))] {
		cmd = exec.Command(r.node, "-e", nodeLoader, path, string(payload)) //nolint:gosec
	} else {
		cmd = exec.Command(path, string(payload)) //nolint:gosec
	}
	cmd.Dir = r.dir
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	r.logger.Debug().Str("entryPoint", path).RawJSON("options", payload).Msg("Running custom template installer")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to start custom template installer %s: %w", path, err)
	}
	return nil
}
