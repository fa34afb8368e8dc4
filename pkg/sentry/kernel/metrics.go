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

package kernel

import (
	"github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/metric"
)

func syscallNames() []string {
	names := make([]string, pintos.NumSyscalls)
	for i := range names {
		names[i] = pintos.Sysno(i).String()
	}
	return names
}

var (
	syscallCounts = metric.MustCreateNewUint64Metric("syscalls_total", "Number of syscalls dispatched, by syscall.",
		metric.NewField("syscall", syscallNames()))
	processFaults    = metric.MustCreateNewUint64Metric("process_faults_total", "Number of processes terminated for a protocol violation or a crash.")
	processesStarted = metric.MustCreateNewUint64Metric("processes_started_total", "Number of processes started.")
)
