// Package cli holds the flag-registration and exit-code conventions
// shared by the five spec-mandated tools (bench, extract, dataset,
// embedding, unpacker), factored out of cmd/benchmark/main.go's
// flag-var-plus-Usage-closure shape since all five tools repeat it
// (spec.md §6).
package cli

import (
	"flag"
	"fmt"
	"os"
)

// CPUList accumulates repeated `-c` flag occurrences into an ordered
// list of CPU ids (spec.md §6: "`-c` int (repeatable)").
type CPUList struct {
	ids []int
}

func (c *CPUList) String() string {
	return fmt.Sprint(c.ids)
}

func (c *CPUList) Set(value string) error {
	var id int
	if _, err := fmt.Sscanf(value, "%d", &id); err != nil {
		return fmt.Errorf("invalid CPU id %q: %w", value, err)
	}
	c.ids = append(c.ids, id)
	return nil
}

// IDs returns the CPU ids collected so far.
func (c *CPUList) IDs() []int { return c.ids }

// CommonFlags is the `-o`/positional convention every one of the five
// tools shares.
type CommonFlags struct {
	Output string
	CPUs   CPUList
}

// RegisterCommon wires the shared `-o` and `-c` flags into fs.
func RegisterCommon(fs *flag.FlagSet) *CommonFlags {
	c := &CommonFlags{}
	fs.StringVar(&c.Output, "o", "", "output path (file or directory)")
	fs.Var(&c.CPUs, "c", "CPU id to pin to (repeatable)")
	return c
}

// Fail prints msg to stderr and exits 1, the exit-code convention spec.md
// §6 assigns to configuration, parsing, compilation, or harness errors.
func Fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// RequirePositional returns fs's first positional argument, calling Fail
// if none was given.
func RequirePositional(fs *flag.FlagSet, what string) string {
	if fs.NArg() < 1 {
		Fail("missing required %s argument", what)
	}
	return fs.Arg(0)
}

// FirstNonEmpty returns the first non-empty string in vals, or "" if
// all are empty — used by every tool's --arch/--triple override pair.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
