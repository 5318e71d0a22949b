// Package aot turns compiled programs into standalone native executables.
//
// The generated Go source embeds the encoded image as a hex string and
// replays it on the virtual machine, so the resulting binary needs nothing
// but itself at run time. Building requires a Go toolchain on PATH.
package aot

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dave/jennifer/jen"
	"github.com/tliron/commonlog"

	"github.com/chazu/slime/pkg/bytecode"
)

var log = commonlog.GetLogger("slime.aot")

const (
	bytecodePkg = "github.com/chazu/slime/pkg/bytecode"
	runtimePkg  = "github.com/chazu/slime/pkg/runtime"
)

// GenerateSource renders a main package that embeds the program and runs it.
func GenerateSource(p *bytecode.Program) string {
	imageHex := hex.EncodeToString(bytecode.Encode(p))

	f := jen.NewFile("main")
	f.HeaderComment("Code generated by slime --compile-to-exe. DO NOT EDIT.")

	f.Func().Id("main").Params().Block(
		jen.List(jen.Id("data"), jen.Id("err")).Op(":=").Qual("encoding/hex", "DecodeString").Call(jen.Lit(imageHex)),
		jen.If(jen.Id("err").Op("!=").Nil()).Block(
			jen.Qual("fmt", "Fprintln").Call(jen.Qual("os", "Stderr"), jen.Id("err")),
			jen.Qual("os", "Exit").Call(jen.Lit(1)),
		),
		jen.List(jen.Id("prog"), jen.Id("err")).Op(":=").Qual(bytecodePkg, "Decode").Call(jen.Id("data")),
		jen.If(jen.Id("err").Op("!=").Nil()).Block(
			jen.Qual("fmt", "Fprintln").Call(jen.Qual("os", "Stderr"), jen.Id("err")),
			jen.Qual("os", "Exit").Call(jen.Lit(1)),
		),
		jen.Id("machine").Op(":=").Qual(bytecodePkg, "NewMachine").Call(
			jen.Qual(runtimePkg, "NewBaseLibrary").Call(jen.Qual("os", "Stdout"), jen.Qual("os", "Stdin")),
		),
		jen.If(
			jen.Id("err").Op(":=").Id("machine").Dot("Run").Call(jen.Id("prog")),
			jen.Id("err").Op("!=").Nil(),
		).Block(
			jen.Qual("fmt", "Fprintln").Call(jen.Qual("os", "Stderr"), jen.Id("err")),
			jen.Qual("os", "Exit").Call(jen.Lit(1)),
		),
	)

	return fmt.Sprintf("%#v", f)
}

// CompileToExe generates the stub source for a program and builds it into a
// native executable at output.
func CompileToExe(p *bytecode.Program, output string) error {
	goTool, err := exec.LookPath("go")
	if err != nil {
		return fmt.Errorf("native compilation requires the go tool on PATH: %w", err)
	}

	workDir, err := os.MkdirTemp("", "slime-aot-")
	if err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	source := GenerateSource(p)
	srcPath := filepath.Join(workDir, "main.go")
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return fmt.Errorf("writing stub source: %w", err)
	}

	modFile := fmt.Sprintf("module slime-stub\n\ngo 1.25\n\nrequire github.com/chazu/slime v0.0.0\n\nreplace github.com/chazu/slime => %s\n", moduleRoot())
	if err := os.WriteFile(filepath.Join(workDir, "go.mod"), []byte(modFile), 0o644); err != nil {
		return fmt.Errorf("writing stub go.mod: %w", err)
	}

	absOutput, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	log.Infof("building %s", absOutput)
	for _, args := range [][]string{
		{"mod", "tidy"},
		{"build", "-o", absOutput, "."},
	} {
		cmd := exec.Command(goTool, args...)
		cmd.Dir = workDir
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("go %s failed: %w\n%s", args[0], err, out)
		}
	}
	return nil
}

// moduleRoot locates this module's source tree so the stub can build against
// it. Falls back to the working directory.
func moduleRoot() string {
	out, err := exec.Command("go", "env", "GOMOD").Output()
	if err == nil {
		gomod := string(out)
		if n := len(gomod); n > 0 && gomod[n-1] == '\n' {
			gomod = gomod[:n-1]
		}
		if gomod != "" && gomod != "/dev/null" {
			return filepath.Dir(gomod)
		}
	}
	wd, _ := os.Getwd()
	return wd
}
