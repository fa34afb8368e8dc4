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

package boot

import (
	"strings"

	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/sentry/strace"
	"github.com/comeintostout/pintos/pintos/config"
)

func enableStrace(conf *config.Config, table *kernel.SyscallTable) error {
	if !conf.Strace {
		strace.Disable(table)
		return nil
	}

	max := conf.StraceLogSize
	if max == 0 {
		max = strace.DefaultLogMaximumSize
	}
	strace.LogMaximumSize = max

	if len(conf.StraceSyscalls) == 0 {
		return strace.Enable(table, nil)
	}
	return strace.Enable(table, strings.Split(conf.StraceSyscalls, ","))
}
