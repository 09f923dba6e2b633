/*
Copyright 2020 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package debug provides an opt-in trace logger for the lexer and parser.
// It is a no-op unless PROMQLINT_DEBUG_LOG_DIR names a writable
// directory, in which case each named component appends its trace to a file
// in that directory.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

const logDirEnv = "PROMQLINT_DEBUG_LOG_DIR"

var (
	lock  sync.Mutex
	files = make([]*os.File, 0)
)

// Logger wraps *log.Logger with an Enabled check so callers can skip formatting
// work entirely when tracing isn't enabled.
type Logger struct {
	*log.Logger
	enabled bool
}

// New returns a logger that appends to <dir>/name when logDirEnv is set, or
// a discarding no-op logger otherwise.
func New(name string) *Logger {
	dir := os.Getenv(logDirEnv)
	if dir == "" {
		return &Logger{Logger: log.New(io.Discard, "", 0)}
	}
	f, err := os.OpenFile(dir+"/"+name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return &Logger{Logger: log.New(io.Discard, "", 0)}
	}
	lock.Lock()
	files = append(files, f)
	lock.Unlock()
	return &Logger{Logger: log.New(f, "", log.Lmicroseconds), enabled: true}
}

// Enabled reports whether this logger writes anywhere.
func (l *Logger) Enabled() bool { return l != nil && l.enabled }

// Printf is a no-op when tracing is disabled, avoiding the fmt.Sprintf cost
// on the hot parse path.
func (l *Logger) Printf(format string, args ...interface{}) {
	if !l.Enabled() {
		return
	}
	l.Logger.Output(2, fmt.Sprintf(format, args...))
}

// Teardown closes every log file opened by New. Tests that exercise many
// lexer/parser instances should call this once at the end.
func Teardown() {
	lock.Lock()
	defer lock.Unlock()
	for _, f := range files {
		f.Close()
	}
	files = files[:0]
}
