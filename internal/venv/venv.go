// Package venv provisions and inspects the bot's Python virtual
// environment.
//
// A virtual environment is just a directory layout: an interpreter under
// bin/ (Scripts\ on Windows), a pyvenv.cfg marker at the root, and a
// site-packages tree. This package creates that layout with
// `python -m venv`, locates the interpreter inside it, and drives pip
// through the venv interpreter so installed packages land in the
// environment rather than the system installation.
//
// Design decisions:
//   - Shell activation scripts are never sourced. Activation only adjusts
//     environment variables, so ActivationEnv computes the same additions
//     (VIRTUAL_ENV, PATH) for child processes directly.
//   - pip and venv creation run with inherited stdio: their progress and
//     error text reach the terminal untranslated, and failures are wrapped
//     only with the name of the failed step.
package venv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/feralbyte/botup/internal/model"
)

// binDirName returns the name of the venv's executable directory, which
// differs between Unix and Windows layouts.
func binDirName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

// InterpreterPath returns the path of the Python interpreter inside the
// virtual environment: <venv>/bin/python on Unix, <venv>\Scripts\python.exe
// on Windows. The path is computed, not checked; use RequireInterpreter
// when absence must be an error.
func InterpreterPath(venvPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvPath, "Scripts", "python.exe")
	}
	return filepath.Join(venvPath, "bin", "python")
}

// RequireInterpreter returns the venv interpreter path, failing with an
// explicit missing-component error when it does not exist.
func RequireInterpreter(venvPath string) (string, error) {
	interp := InterpreterPath(venvPath)
	if _, err := os.Stat(interp); err != nil {
		return "", model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("virtual environment interpreter not found: %s", interp),
			err,
		)
	}
	return interp, nil
}

// Exists reports whether a virtual environment is present at venvPath.
// The pyvenv.cfg marker file is checked rather than the directory itself,
// so a half-created or unrelated directory does not count as a venv.
func Exists(venvPath string) bool {
	_, err := os.Stat(filepath.Join(venvPath, "pyvenv.cfg"))
	return err == nil
}

// Ensure makes sure a virtual environment exists at venvPath, creating one
// with `<python> -m venv` when absent. The returned bool reports whether a
// new environment was created.
//
// The existence check runs first, so repeated calls are idempotent and a
// present environment is never touched — the system interpreter is not
// even resolved in that case.
func Ensure(ctx context.Context, pythonBin, projectDir, venvPath string) (bool, error) {
	if Exists(venvPath) {
		return false, nil
	}

	interp, err := FindSystemPython(pythonBin)
	if err != nil {
		return false, err
	}

	if err := runPython(ctx, projectDir, interp, "-m", "venv", venvPath); err != nil {
		return false, err
	}
	return true, nil
}

// FindSystemPython resolves the system Python interpreter used to create
// virtual environments.
//
// A configured binary name (or path) wins and must resolve. With no
// configuration the conventional launcher names are probed in order:
// python3 then python on Unix, py then python on Windows.
func FindSystemPython(configured string) (string, error) {
	if configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return "", model.WrapCLIError(
				model.ExitFailure,
				fmt.Sprintf("configured Python interpreter not found: %s", configured),
				err,
			)
		}
		return path, nil
	}

	candidates := []string{"python3", "python"}
	if runtime.GOOS == "windows" {
		candidates = []string{"py", "python"}
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", model.NewCLIError(
		model.ExitFailure,
		fmt.Sprintf("no Python interpreter found (looked for %s); install Python 3 first", strings.Join(candidates, ", ")),
	)
}

// ActivationEnv returns the environment variable additions equivalent to
// sourcing the venv's activate script: VIRTUAL_ENV set to the environment
// root and the venv's executable directory prepended to PATH.
//
// Child processes launched with these additions resolve `python` and any
// installed console scripts from the venv first, which is all activation
// does.
func ActivationEnv(venvPath string) []string {
	binDir := filepath.Join(venvPath, binDirName())
	return []string{
		"VIRTUAL_ENV=" + venvPath,
		"PATH=" + binDir + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}

// UpgradePip upgrades the package manager inside the virtual environment
// by running `<interp> -m pip install --upgrade pip` in the project
// directory. pip's own output streams to the terminal.
func UpgradePip(ctx context.Context, interp, projectDir string) error {
	return runPython(ctx, projectDir, interp, "-m", "pip", "install", "--upgrade", "pip")
}

// InstallRequirements installs the dependency manifest into the virtual
// environment by running `<interp> -m pip install -r <manifest>` in the
// project directory. pip's own output streams to the terminal; a failure
// here aborts setup before any launch.
func InstallRequirements(ctx context.Context, interp, projectDir, manifest string) error {
	return runPython(ctx, projectDir, interp, "-m", "pip", "install", "-r", manifest)
}

// runPython executes a Python command in the given directory with stdio
// inherited from botup, so interactive progress bars and error text from
// pip and venv reach the operator directly.
//
// On failure the error is wrapped with the failed command line only — the
// underlying tool has already printed its own diagnostics.
func runPython(ctx context.Context, dir, interp string, args ...string) error {
	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, interp, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitFailure,
			fmt.Sprintf("%s %s failed", filepath.Base(interp), strings.Join(args, " ")),
			err,
		)
	}
	return nil
}
