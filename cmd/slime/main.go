// Slime - a small scripting language with a bytecode toolchain.
//
// One binary covers the whole pipeline: interpret source directly, compile
// it to a bytecode image, execute or disassemble an image, build a native
// executable, or start an interactive session.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/peterh/liner"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/slime/pkg/aot"
	"github.com/chazu/slime/pkg/bytecode"
	"github.com/chazu/slime/pkg/parser"
	"github.com/chazu/slime/pkg/runtime"
)

var (
	compile      = flag.Bool("compile", false, "compile <source> to a bytecode image: slime --compile in.slm out.btc")
	run          = flag.Bool("run", false, "execute a bytecode image: slime --run program.btc")
	compileToExe = flag.Bool("compile-to-exe", false, "build a native executable: slime --compile-to-exe in.slm out")
	disasm       = flag.Bool("disasm", false, "print the disassembly of a bytecode image")
	repl         = flag.Bool("repl", false, "start an interactive session")
	version      = flag.Bool("version", false, "print version and exit")
	verbosity    = flag.Int("v", -1, "log verbosity (overrides slime.toml)")
)

const versionStr = "1.0.0"

// config is the optional slime.toml next to the working directory.
type config struct {
	GCInterval int  `toml:"gc_interval"`
	Verbosity  int  `toml:"verbosity"`
	Trace      bool `toml:"trace"`
}

func loadConfig() config {
	cfg := config{GCInterval: 0, Verbosity: 0}
	if _, err := os.Stat("slime.toml"); err != nil {
		return cfg
	}
	if _, err := toml.DecodeFile("slime.toml", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring slime.toml: %v\n", err)
	}
	return cfg
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Slime - scripting language toolchain\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  slime <source.slm>                   interpret a source file\n")
		fmt.Fprintf(os.Stderr, "  slime --compile <in.slm> <out.btc>   compile to bytecode\n")
		fmt.Fprintf(os.Stderr, "  slime --run <program.btc>            execute a bytecode image\n")
		fmt.Fprintf(os.Stderr, "  slime --disasm <program.btc>         disassemble an image\n")
		fmt.Fprintf(os.Stderr, "  slime --compile-to-exe <in.slm> <out>  build a native executable\n")
		fmt.Fprintf(os.Stderr, "  slime --repl                         interactive session\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("slime version %s\n", versionStr)
		os.Exit(0)
	}

	cfg := loadConfig()
	level := cfg.Verbosity
	if *verbosity >= 0 {
		level = *verbosity
	}
	commonlog.Configure(level, nil)

	var err error
	switch {
	case *repl:
		err = runRepl()

	case *compile:
		err = withTwoArgs("--compile", func(in, out string) error {
			return compileFile(in, out)
		})

	case *compileToExe:
		err = withTwoArgs("--compile-to-exe", func(in, out string) error {
			return compileExe(in, out)
		})

	case *run:
		err = withOneArg("--run", func(path string) error {
			return runImage(path, cfg)
		})

	case *disasm:
		err = withOneArg("--disasm", disasmImage)

	default:
		if flag.NArg() != 1 {
			flag.Usage()
			os.Exit(1)
		}
		err = interpretFile(flag.Arg(0))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func withOneArg(mode string, fn func(string) error) error {
	if flag.NArg() != 1 {
		return fmt.Errorf("%s takes exactly one argument", mode)
	}
	return fn(flag.Arg(0))
}

func withTwoArgs(mode string, fn func(string, string) error) error {
	if flag.NArg() != 2 {
		return fmt.Errorf("%s takes an input and an output argument", mode)
	}
	return fn(flag.Arg(0), flag.Arg(1))
}

func parseFile(path string) (*bytecode.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree, err := parser.Parse(string(source))
	if err != nil {
		return nil, err
	}
	return bytecode.Generate(tree)
}

func interpretFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tree, err := parser.Parse(string(source))
	if err != nil {
		return err
	}
	interp := runtime.NewInterpreter(runtime.NewBaseLibrary(os.Stdout, os.Stdin))
	return interp.Execute(tree)
}

func compileFile(in, out string) error {
	prog, err := parseFile(in)
	if err != nil {
		return err
	}
	return bytecode.Save(prog, out)
}

func runImage(path string, cfg config) error {
	prog, err := bytecode.Load(path)
	if err != nil {
		return err
	}
	machine := bytecode.NewMachine(runtime.NewBaseLibrary(os.Stdout, os.Stdin))
	if cfg.GCInterval > 0 {
		machine.SetGCInterval(cfg.GCInterval)
	}
	machine.SetTrace(cfg.Trace)
	return machine.Run(prog)
}

func disasmImage(path string) error {
	prog, err := bytecode.Load(path)
	if err != nil {
		return err
	}
	fmt.Print(bytecode.Disassemble(prog))
	return nil
}

func compileExe(in, out string) error {
	prog, err := parseFile(in)
	if err != nil {
		return err
	}
	return aot.CompileToExe(prog, out)
}

// runRepl feeds lines through one interpreter so variables persist between
// entries.
func runRepl() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	interp := runtime.NewInterpreter(runtime.NewBaseLibrary(os.Stdout, os.Stdin))
	fmt.Printf("slime %s (:quit to exit)\n", versionStr)

	for {
		input, err := line.Prompt("slime> ")
		if err != nil {
			// Ctrl-C or Ctrl-D ends the session.
			fmt.Println()
			return nil
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if trimmed == ":quit" || trimmed == ":q" {
			return nil
		}
		line.AppendHistory(input)

		tree, err := parser.Parse(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		if err := interp.Execute(tree); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}
