// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pintos/cmd/util"
)

// Syscalls implements subcommands.Command for the "syscalls" command.
type Syscalls struct {
	output string
	table  string
}

// TableInfo maps syscall number to its doc, for one syscall table.
type TableInfo struct {
	// Syscalls maps syscall number for the table to the doc.
	Syscalls map[uintptr]SyscallDoc `json:"syscalls"`
}

// SyscallDoc represents a single item of syscall documentation.
type SyscallDoc struct {
	Name string `json:"name"`
	num  uintptr

	Args    []string `json:"args"`
	Returns bool     `json:"returns"`
}

type outputFunc func(io.Writer, map[string]TableInfo) error

var (
	// The string name to use for printing all tables.
	tableAll = "all"

	// A map of output type names to output functions.
	outputMap = map[string]outputFunc{
		"table": outputTable,
		"json":  outputJSON,
		"csv":   outputCSV,
	}
)

// Name implements subcommands.Command.Name.
func (*Syscalls) Name() string {
	return "syscalls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Syscalls) Synopsis() string {
	return "Print the syscall tables."
}

// Usage implements subcommands.Command.Usage.
func (*Syscalls) Usage() string {
	return `syscalls [options] - Print the syscall tables.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Syscalls) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.output, "o", "table", "Output format (table, csv, json).")
	f.StringVar(&s.table, "table", tableAll, "The syscall table (e.g. pintos).")
}

// Execute implements subcommands.Command.Execute.
func (s *Syscalls) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	out, ok := outputMap[s.output]
	if !ok {
		util.Fatalf("Unsupported output format %q", s.output)
	}
	info, err := tableInfo(s.table)
	if err != nil {
		util.Fatalf("%v", err)
	}
	if err := out(os.Stdout, info); err != nil {
		util.Fatalf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

// tableInfo returns the docs of the named table, or of every table for the
// special name 'all'.
func tableInfo(name string) (map[string]TableInfo, error) {
	info := make(map[string]TableInfo)
	if name == tableAll {
		for _, t := range kernel.SyscallTables() {
			info[t.Name] = getTableInfo(t)
		}
		return info, nil
	}
	t, ok := kernel.LookupSyscallTable(name)
	if !ok {
		return nil, fmt.Errorf("syscall table %q not found", name)
	}
	info[name] = getTableInfo(t)
	return info, nil
}

func getTableInfo(t *kernel.SyscallTable) TableInfo {
	info := TableInfo{Syscalls: make(map[uintptr]SyscallDoc)}
	for num, sc := range t.Table {
		args := make([]string, len(sc.Args))
		for i, kind := range sc.Args {
			args[i] = kind.String()
		}
		info.Syscalls[num] = SyscallDoc{
			Name:    sc.Name,
			num:     num,
			Args:    args,
			Returns: sc.Returns,
		}
	}
	return info
}

// sortedNames returns the table names of info in order.
func sortedNames(info map[string]TableInfo) []string {
	names := make([]string, 0, len(info))
	for name := range info {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sortedCalls returns the syscalls of ti ordered by number.
func sortedCalls(ti TableInfo) []SyscallDoc {
	calls := make([]SyscallDoc, 0, len(ti.Syscalls))
	for _, sc := range ti.Syscalls {
		calls = append(calls, sc)
	}
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].num < calls[j].num
	})
	return calls
}

// outputTable outputs the syscall info in tabular format.
func outputTable(w io.Writer, info map[string]TableInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range sortedNames(info) {
		fmt.Fprintf(w, "%s:\n\n", name)

		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", "NUM", "NAME", "ARGS", "RETURNS")
		if err != nil {
			return err
		}
		for _, sc := range sortedCalls(info[name]) {
			_, err = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n",
				strconv.FormatInt(int64(sc.num), 10),
				sc.Name,
				strings.Join(sc.Args, ", "),
				sc.Returns,
			)
			if err != nil {
				return err
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// outputJSON outputs the syscall info in JSON format.
func outputJSON(w io.Writer, info map[string]TableInfo) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(info)
}

// outputCSV outputs the syscall info in CSV format.
func outputCSV(w io.Writer, info map[string]TableInfo) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"table", "num", "name", "args", "returns"}); err != nil {
		return err
	}
	for _, name := range sortedNames(info) {
		for _, sc := range sortedCalls(info[name]) {
			row := []string{
				name,
				strconv.FormatInt(int64(sc.num), 10),
				sc.Name,
				strings.Join(sc.Args, " "),
				strconv.FormatBool(sc.Returns),
			}
			if err := csvWriter.Write(row); err != nil {
				return err
			}
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
