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
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSyscallsCSV(t *testing.T) {
	info, err := tableInfo("pintos")
	if err != nil {
		t.Fatalf("tableInfo failed: %v", err)
	}
	var buf bytes.Buffer
	if err := outputCSV(&buf, info); err != nil {
		t.Fatalf("outputCSV failed: %v", err)
	}
	want := []string{
		"table,num,name,args,returns",
		"pintos,0,halt,,false",
		"pintos,1,exit,int,false",
		"pintos,2,exec,path,true",
		"pintos,3,wait,int,true",
		"pintos,4,create,path unsigned,true",
		"pintos,5,remove,path,true",
		"pintos,6,open,path,true",
		"pintos,7,filesize,fd,true",
		"pintos,8,read,fd buffer size,true",
		"pintos,9,write,fd buffer size,true",
		"pintos,10,seek,fd unsigned,false",
		"pintos,11,tell,fd,true",
		"pintos,12,close,fd,false",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CSV output (-want +got):\n%s", diff)
	}
}

func TestSyscallsTable(t *testing.T) {
	info, err := tableInfo("pintos")
	if err != nil {
		t.Fatalf("tableInfo failed: %v", err)
	}
	var buf bytes.Buffer
	if err := outputTable(&buf, info); err != nil {
		t.Fatalf("outputTable failed: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[0] != "pintos:" {
		t.Errorf("first line %q, want the table name", lines[0])
	}
	if !strings.Contains(buf.String(), "read") || !strings.Contains(buf.String(), "fd, buffer, size") {
		t.Errorf("table is missing read:\n%s", buf.String())
	}
}

func TestSyscallsJSON(t *testing.T) {
	info, err := tableInfo(tableAll)
	if err != nil {
		t.Fatalf("tableInfo failed: %v", err)
	}
	var buf bytes.Buffer
	if err := outputJSON(&buf, info); err != nil {
		t.Fatalf("outputJSON failed: %v", err)
	}
	var got map[string]struct {
		Syscalls map[string]struct {
			Name    string   `json:"name"`
			Args    []string `json:"args"`
			Returns bool     `json:"returns"`
		} `json:"syscalls"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	open := got["pintos"].Syscalls["6"]
	if open.Name != "open" || !open.Returns || !cmp.Equal(open.Args, []string{"path"}) {
		t.Errorf("open = %+v", open)
	}
}

func TestSyscallsUnknownTable(t *testing.T) {
	if _, err := tableInfo("linux"); err == nil {
		t.Errorf("tableInfo of an unknown table succeeded")
	}
}
