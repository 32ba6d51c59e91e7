// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package log provides leveled logging for the batch pipeline: Debug,
// Info, Warn and Error/Fatal. Time/date are not logged because systemd
// adds them for us when the CLI runs as a unit; see the prefix scheme at
// https://www.freedesktop.org/software/systemd/man/sd-daemon.html. The
// pipeline only ever logs a plain message or a formatted one, so unlike
// a library serving many callers, this trims to just those two calling
// conventions per level instead of carrying every variant.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	debugWriter io.Writer = os.Stderr
	infoWriter  io.Writer = os.Stderr
	warnWriter  io.Writer = os.Stderr
	errWriter   io.Writer = os.Stderr
)

var (
	debugLog = log.New(debugWriter, "<7>[DEBUG]    ", 0)
	infoLog  = log.New(infoWriter, "<6>[INFO]     ", 0)
	warnLog  = log.New(warnWriter, "<4>[WARNING]  ", log.Lshortfile)
	errLog   = log.New(errWriter, "<3>[ERROR]    ", log.Llongfile)
)

// SetLogLevel silences every writer below lvl ("debug", "info", "warn",
// "err"/"fatal"). An unrecognised level falls back to "debug" so that a
// typo in configuration fails loud rather than going silent.
func SetLogLevel(lvl string) {
	switch lvl {
	case "err", "fatal":
		warnWriter = io.Discard
		fallthrough
	case "warn":
		infoWriter = io.Discard
		fallthrough
	case "info":
		debugWriter = io.Discard
	case "debug":
		// nothing silenced
	default:
		fmt.Printf("pkg/log: invalid loglevel %q, using \"debug\"\n", lvl)
		SetLogLevel("debug")
		return
	}
	debugLog.SetOutput(debugWriter)
	infoLog.SetOutput(infoWriter)
	warnLog.SetOutput(warnWriter)
}

func Debugf(format string, v ...interface{}) {
	if debugWriter != io.Discard {
		debugLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Info(v ...interface{}) {
	if infoWriter != io.Discard {
		infoLog.Output(2, fmt.Sprint(v...))
	}
}

func Infof(format string, v ...interface{}) {
	if infoWriter != io.Discard {
		infoLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Warnf(format string, v ...interface{}) {
	if warnWriter != io.Discard {
		warnLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Errorf(format string, v ...interface{}) {
	errLog.Output(2, fmt.Sprintf(format, v...))
}

// Fatalf logs at error level and exits the process, the pipeline's way
// of failing a batch that cannot even start (e.g. no DB connection).
func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}
