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

// Package programs holds the user programs built into the pintos command.
// Each is a C-style main function run through package user, so it reaches
// the kernel only through syscalls.
package programs

import (
	"strconv"
	"strings"

	abi "github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/user"
)

// chunk is the transfer size of the copying programs.
const chunk = 512

// Programs returns the built-in programs by name.
func Programs() map[string]kernel.Program {
	progs := make(map[string]kernel.Program, len(mains))
	for name, main := range mains {
		progs[name] = user.Main(main)
	}
	return progs
}

// Names returns the names of the built-in programs.
func Names() []string {
	names := make([]string, 0, len(mains))
	for name := range mains {
		names = append(names, name)
	}
	return names
}

var mains = map[string]func(p *user.Proc, argv []string) int{
	"cat":   cat,
	"cp":    cp,
	"echo":  echo,
	"exit":  exit,
	"halt":  halt,
	"ls":    ls,
	"put":   put,
	"rm":    rm,
	"sh":    sh,
	"spawn": spawn,
}

// echo prints its arguments.
func echo(p *user.Proc, argv []string) int {
	p.Printf("%s\n", strings.Join(argv[1:], " "))
	return 0
}

// exit exits with the status given as its argument.
func exit(p *user.Proc, argv []string) int {
	if len(argv) != 2 {
		p.Printf("usage: exit STATUS\n")
		return 1
	}
	status, err := strconv.Atoi(argv[1])
	if err != nil {
		p.Printf("exit: %v\n", err)
		return 1
	}
	return status
}

// halt shuts the machine down.
func halt(p *user.Proc, _ []string) int {
	p.Halt()
	return 0
}

// copyFD copies from src to dst until end of input and returns the number of
// bytes copied, or -1 if dst stops accepting data.
func copyFD(p *user.Proc, dst, src int32) int {
	total := 0
	for {
		b := p.ReadBytes(src, chunk)
		if len(b) == 0 {
			return total
		}
		if n := p.WriteBytes(dst, b); int(n) != len(b) {
			return -1
		}
		total += len(b)
	}
}

// cat prints files, or standard input if there are none.
func cat(p *user.Proc, argv []string) int {
	if len(argv) == 1 {
		copyFD(p, abi.StdoutFD, abi.StdinFD)
		return 0
	}
	status := 0
	for _, name := range argv[1:] {
		fd := p.Open(name)
		if fd == abi.FDError {
			p.Printf("cat: %s: cannot open\n", name)
			status = 1
			continue
		}
		copyFD(p, abi.StdoutFD, fd)
		p.Close(fd)
	}
	return status
}

// cp copies a file to a new file of the same size.
func cp(p *user.Proc, argv []string) int {
	if len(argv) != 3 {
		p.Printf("usage: cp SRC DST\n")
		return 1
	}
	src := p.Open(argv[1])
	if src == abi.FDError {
		p.Printf("cp: %s: cannot open\n", argv[1])
		return 1
	}
	defer p.Close(src)
	if !p.Create(argv[2], uint32(p.Filesize(src))) {
		p.Printf("cp: %s: cannot create\n", argv[2])
		return 1
	}
	dst := p.Open(argv[2])
	if dst == abi.FDError {
		p.Printf("cp: %s: cannot open\n", argv[2])
		return 1
	}
	defer p.Close(dst)
	if copyFD(p, dst, src) < 0 {
		p.Printf("cp: %s: short write\n", argv[2])
		return 1
	}
	return 0
}

// put creates a file holding its remaining arguments, separated by spaces.
func put(p *user.Proc, argv []string) int {
	if len(argv) < 2 {
		p.Printf("usage: put NAME [WORD...]\n")
		return 1
	}
	data := []byte(strings.Join(argv[2:], " "))
	if !p.Create(argv[1], uint32(len(data))) {
		p.Printf("put: %s: cannot create\n", argv[1])
		return 1
	}
	fd := p.Open(argv[1])
	if fd == abi.FDError {
		p.Printf("put: %s: cannot open\n", argv[1])
		return 1
	}
	defer p.Close(fd)
	if int(p.WriteBytes(fd, data)) != len(data) {
		p.Printf("put: %s: short write\n", argv[1])
		return 1
	}
	return 0
}

// rm removes files.
func rm(p *user.Proc, argv []string) int {
	status := 0
	for _, name := range argv[1:] {
		if !p.Remove(name) {
			p.Printf("rm: %s: cannot remove\n", name)
			status = 1
		}
	}
	return status
}

// ls prints the size of each named file.
func ls(p *user.Proc, argv []string) int {
	status := 0
	for _, name := range argv[1:] {
		fd := p.Open(name)
		if fd == abi.FDError {
			p.Printf("ls: %s: not found\n", name)
			status = 1
			continue
		}
		p.Printf("%8d %s\n", p.Filesize(fd), name)
		p.Close(fd)
	}
	return status
}

// spawn runs its arguments as a command line in a child process and exits
// with the child's status.
func spawn(p *user.Proc, argv []string) int {
	if len(argv) < 2 {
		p.Printf("usage: spawn PROGRAM [ARG...]\n")
		return 1
	}
	cmdline := strings.Join(argv[1:], " ")
	pid := p.Exec(cmdline)
	if pid == abi.TIDError {
		p.Printf("spawn: %s: cannot run\n", argv[1])
		return 1
	}
	return int(p.Wait(pid))
}

// readLine reads standard input up to and excluding a newline. ok is false at
// end of input with nothing read.
func readLine(p *user.Proc) (line string, ok bool) {
	var b strings.Builder
	for {
		c := p.ReadBytes(abi.StdinFD, 1)
		if len(c) == 0 {
			return b.String(), b.Len() > 0
		}
		switch c[0] {
		case '\n', '\r':
			return b.String(), true
		}
		b.WriteByte(c[0])
	}
}

// sh runs the command lines read from standard input one at a time.
func sh(p *user.Proc, _ []string) int {
	for {
		p.Printf("$ ")
		line, ok := readLine(p)
		if !ok {
			return 0
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit":
			return 0
		}
		pid := p.Exec(line)
		if pid == abi.TIDError {
			p.Printf("sh: %s: cannot run\n", line)
			continue
		}
		if status := p.Wait(pid); status != 0 {
			p.Printf("sh: %s: exit status %d\n", line, status)
		}
	}
}
