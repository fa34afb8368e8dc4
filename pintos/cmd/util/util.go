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

// Package util groups helpers shared by the pintos commands.
package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/comeintostout/pintos/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages
// are consumed by tools that drive pintos and show them to the user.
var ErrorLogger io.Writer

// Infof writes message to log and stderr. Stdout belongs to the console.
func Infof(format string, args ...any) {
	log.Infof(format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// errorLog is the JSON form of an error message in ErrorLogger.
type errorLog struct {
	Msg   string    `json:"msg"`
	Level string    `json:"level"`
	Time  time.Time `json:"time"`
}

// Errorf writes an error message to ErrorLogger and stderr.
func Errorf(format string, args ...any) {
	// A driving tool may not show stderr, so the message also goes to
	// the log.
	msg := fmt.Sprintf(format, args...)
	log.Warningf("%s", msg)
	fmt.Fprintln(os.Stderr, msg)

	if ErrorLogger != nil {
		data, err := json.Marshal(&errorLog{Msg: msg, Level: "error", Time: time.Now()})
		if err != nil {
			log.Warningf("failed to marshal error: %v", err)
			return
		}
		if _, err := ErrorLogger.Write(append(data, '\n')); err != nil {
			log.Warningf("failed to write to error logger: %v", err)
		}
	}
}

// Fatalf logs the same way as Errorf, and exits the process with 128.
func Fatalf(format string, args ...any) {
	Errorf(format, args...)
	// Return an error that is unlikely to be used by the application.
	os.Exit(128)
}
