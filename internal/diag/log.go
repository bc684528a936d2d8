// Copyright 2025 The pbcore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build pbcore_debug

// Package diag includes diagnostic helpers that only exist in builds tagged
// pbcore_debug. Production builds never pay for this package, since it is
// compiled out entirely.
package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/timandy/routine"
)

// Enabled is true whenever this file is part of the build (i.e. the
// pbcore_debug build tag is set).
const Enabled = true

// Log prints a trace line to stderr identifying the calling package and
// file, decorated with the calling goroutine's ID (via routine.Goid, since
// the stdlib does not expose one) so that interleaved traces from
// concurrent decode loops stay attributable.
//
// context is optional leading Printf-style args rendered before operation;
// useful for tagging a family of related log lines (e.g. the arena or
// decoder instance they came from).
func Log(context []any, operation, format string, args ...any) {
	skip := 1
again:
	pc, file, line, _ := runtime.Caller(skip)
	fn := runtime.FuncForPC(pc)
	name := fn.Name()
	short := name[strings.LastIndex(name, ".")+1:]
	if strings.HasPrefix(short, "log") || strings.Contains(short, "Log") {
		skip++
		goto again
	}

	pkg := name
	if idx := strings.LastIndex(pkg, "/"); idx >= 0 {
		pkg = pkg[idx+1:]
	}
	if idx := strings.Index(pkg, "."); idx >= 0 {
		pkg = pkg[:idx]
	}

	buf := new(strings.Builder)
	fmt.Fprintf(buf, "%s/%s:%d [g%04d", pkg, filepath.Base(file), line, routine.Goid())
	if len(context) >= 1 {
		fmt.Fprintf(buf, ", "+context[0].(string), context[1:]...)
	}
	fmt.Fprintf(buf, "] %s: ", operation)
	fmt.Fprintf(buf, format, args...)
	buf.WriteByte('\n')

	_, _ = os.Stderr.WriteString(buf.String())
}

// Assert panics if cond is false. Only compiled into pbcore_debug builds;
// production code must not rely on it for correctness.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("pbcore: internal assertion failed: "+format, args...))
	}
}
