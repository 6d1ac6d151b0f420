//go:build mage
// +build mage

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "bin/ondemand"
	docsDir = "cmd/server/docs"
)

// swagDirs are the packages swag scans, general API info first.
var swagDirs = []string{"cmd/server", "internal/ports/http", "internal/model", "internal/utils/errors"}

var Default = Build

// Gen groups code generation targets.
type Gen mg.Namespace

// Build compiles the server into bin/ondemand.
func Build() error {
	mg.Deps(Gen.All)
	fmt.Println("Building", binary)
	return sh.Run("go", "build", "-o", binary, "./cmd/server")
}

// All regenerates wire injectors and swagger docs.
func (Gen) All() {
	mg.SerialDeps(Gen.Wire, Gen.Docs)
}

// Wire regenerates every wire_gen.go.
func (Gen) Wire() error {
	dirs, err := wireDirs()
	if err != nil {
		return fmt.Errorf("finding wire directories: %w", err)
	}
	for _, dir := range dirs {
		fmt.Println("wire", dir)
		if err := sh.Run("wire", dir); err != nil {
			return fmt.Errorf("wire %s: %w", dir, err)
		}
	}
	return nil
}

// Docs regenerates the swagger docs package served under /swagger.
func (Gen) Docs() error {
	return swagInit(docsDir)
}

// Check fails when committed generated code is stale.
func (Gen) Check() error {
	dirs, err := wireDirs()
	if err != nil {
		return fmt.Errorf("finding wire directories: %w", err)
	}
	for _, dir := range dirs {
		// wire diff exits non-zero and prints the diff when wire_gen.go is out of date.
		if err := sh.RunV("wire", "diff", dir); err != nil {
			return fmt.Errorf("%s/wire_gen.go is stale, run mage gen:wire: %w", dir, err)
		}
	}

	tmp, err := os.MkdirTemp("", "ondemand-docs")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err := swagInit(tmp); err != nil {
		return err
	}
	fresh, err := os.ReadFile(filepath.Join(tmp, "docs.go"))
	if err != nil {
		return err
	}
	committed, err := os.ReadFile(filepath.Join(docsDir, "docs.go"))
	if err != nil {
		return err
	}
	if !bytes.Equal(fresh, committed) {
		return fmt.Errorf("%s/docs.go is stale, run mage gen:docs", docsDir)
	}
	return nil
}

func swagInit(out string) error {
	return sh.Run("swag", "init",
		"--dir", strings.Join(swagDirs, ","),
		"--generalInfo", "docs.go",
		"--output", out,
		"--outputTypes", "go")
}

// wireDirs lists directories holding a wire.go injector, skipping vendor,
// hidden and underscore-prefixed trees.
func wireDirs() ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == "vendor" || (path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_"))) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == "wire.go" {
			dirs = append(dirs, "./"+filepath.Dir(path))
		}
		return nil
	})
	return dirs, err
}

// Test runs the test suite under the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Cover runs the test suite and writes coverage.out.
func Cover() error {
	return sh.RunV("go", "test", "-race", "-covermode=atomic", "-coverprofile=coverage.out", "./...")
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.Run("go", "mod", "tidy")
}

// Clean removes the binary and coverage output. Generated code is committed and kept.
func Clean() error {
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	if err := os.Remove("coverage.out"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CI verifies generated code is current, then lints and tests with coverage.
func CI() {
	mg.SerialDeps(Tidy, Gen.Check, Lint, Cover)
}

// Dev builds and runs the server against configs/config.yaml.
func Dev() error {
	mg.Deps(Build)
	cmd := exec.Command("./"+binary, "-config", "configs/config.yaml")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Install installs the code generators and linter.
func Install() error {
	tools := []string{
		"github.com/google/wire/cmd/wire@latest",
		"github.com/swaggo/swag/cmd/swag@v1.16.6",
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	}
	for _, tool := range tools {
		fmt.Println("go install", tool)
		if err := sh.Run("go", "install", tool); err != nil {
			return fmt.Errorf("installing %s: %w", tool, err)
		}
	}
	return nil
}
