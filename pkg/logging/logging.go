// Copyright 2026 Google LLC
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

// Package logging is the leveled logger used by every aml-pipeline package.
package logging

import (
	"io"
	"os"

	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	})
	return l
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetVerbose switches between the default INFO level and DEBUG.
// At DEBUG the Azure SDK's request, response and retry events are forwarded too.
func SetVerbose(verbose bool) {
	if !verbose {
		logger.SetLevel(logrus.InfoLevel)
		azlog.SetListener(nil)
		return
	}
	logger.SetLevel(logrus.DebugLevel)
	azlog.SetEvents(azlog.EventRequest, azlog.EventResponse, azlog.EventRetryPolicy, azlog.EventResponseError)
	azlog.SetListener(func(event azlog.Event, msg string) {
		logger.WithField("sdk", string(event)).Debug(msg)
	})
}

// WithField returns an entry carrying a structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}

// Debug logs a DEBUG message.
func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Info logs an INFO message.
func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warn logs a WARNING message.
func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Error logs an ERROR message.
func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
