package runtime

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// BuiltinFunc is the signature of a registered builtin. Arguments arrive as
// display text in source order.
type BuiltinFunc func(args []string)

// Registry maps qualified builtin names to their implementations.
type Registry struct {
	funcs map[string]BuiltinFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]BuiltinFunc)}
}

// Register installs a builtin, replacing any previous binding.
func (r *Registry) Register(name string, fn BuiltinFunc) {
	r.funcs[name] = fn
}

// Lookup returns the builtin bound to name.
func (r *Registry) Lookup(name string) (BuiltinFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Call invokes a builtin by name. An unregistered name returns an
// UnresolvedCallError; callers log it and continue.
func (r *Registry) Call(name string, args []string) error {
	fn, ok := r.funcs[name]
	if !ok {
		return &UnresolvedCallError{Name: name}
	}
	fn(args)
	return nil
}

// Names returns the registered builtin names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

func parseArg(args []string, i int) float64 {
	if i >= len(args) {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(args[i]), 64)
	if err != nil {
		return 0
	}
	return n
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// NewBaseLibrary builds the standard builtin set writing to out and reading
// from in.
func NewBaseLibrary(out io.Writer, in io.Reader) *Registry {
	r := NewRegistry()
	reader := bufio.NewReader(in)

	printLine := func(args []string) {
		fmt.Fprintln(out, strings.Join(args, ""))
	}
	r.Register("System.Output.Print", printLine)
	r.Register("System.Output.Println", printLine)

	readLine := func(args []string) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		fmt.Fprint(out, line)
	}
	r.Register("System.Input.Read", readLine)
	r.Register("System.Input.ReadLine", readLine)

	r.Register("System.Time.Now", func(args []string) {
		fmt.Fprintln(out, time.Now().UnixMilli())
	})

	r.Register("System.Math.Add", func(args []string) {
		fmt.Fprintln(out, formatNumber(parseArg(args, 0)+parseArg(args, 1)))
	})
	r.Register("System.Math.Subtract", func(args []string) {
		fmt.Fprintln(out, formatNumber(parseArg(args, 0)-parseArg(args, 1)))
	})
	r.Register("System.Math.Multiply", func(args []string) {
		fmt.Fprintln(out, formatNumber(parseArg(args, 0)*parseArg(args, 1)))
	})
	r.Register("System.Math.Divide", func(args []string) {
		d := parseArg(args, 1)
		if d == 0 {
			fmt.Fprintln(out, "Error: Division by zero")
			return
		}
		fmt.Fprintln(out, formatNumber(parseArg(args, 0)/d))
	})
	r.Register("System.Math.Modulo", func(args []string) {
		d := parseArg(args, 1)
		if d == 0 {
			fmt.Fprintln(out, "Error: Modulo by zero")
			return
		}
		fmt.Fprintln(out, formatNumber(float64(int64(parseArg(args, 0))%int64(d))))
	})

	return r
}
