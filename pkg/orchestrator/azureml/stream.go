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

package azureml

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"aml-pipeline/pkg/orchestrator"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// StreamJob polls the job every poll interval, printing each status change
// and the new output of its logs, until the job reaches a terminal status or
// ctx is done.
func (c *Client) StreamJob(ctx context.Context, name string) (*orchestrator.Job, error) {
	p := newPrinter(c.out)
	start := time.Now()

	job, err := c.GetJob(ctx, name)
	if err != nil {
		return nil, err
	}
	p.header(job)
	p.status(job.Status)
	logs := c.openLogStream(ctx, p, name)
	logs.poll(ctx)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	last := job.Status
	for !job.Status.IsTerminal() {
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
		next, err := c.GetJob(ctx, name)
		if err != nil {
			return job, err
		}
		job = next
		if job.Status != last {
			p.status(job.Status)
			last = job.Status
		}
		logs.poll(ctx)
	}

	if job.Status != orchestrator.StatusCompleted {
		job.Error = logs.failure()
	}
	p.summary(job, time.Since(start))
	return job, nil
}

// printer writes stream output, colored when it goes to a terminal.
type printer struct {
	w       io.Writer
	label   *color.Color
	ok      *color.Color
	failed  *color.Color
	pending *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		w:       w,
		label:   color.New(color.Bold),
		ok:      color.New(color.FgGreen),
		failed:  color.New(color.FgRed, color.Bold),
		pending: color.New(color.FgYellow),
	}
	if !isTerminal(w) {
		for _, c := range []*color.Color{p.label, p.ok, p.failed, p.pending} {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) header(job *orchestrator.Job) {
	p.label.Fprint(p.w, "RunId: ")
	fmt.Fprintln(p.w, job.Name)
	if job.StudioURL != "" {
		p.label.Fprint(p.w, "Web View: ")
		fmt.Fprintln(p.w, job.StudioURL)
	}
	fmt.Fprintln(p.w)
}

func (p *printer) colorOf(s orchestrator.JobStatus) *color.Color {
	switch {
	case s == orchestrator.StatusCompleted:
		return p.ok
	case s.IsTerminal():
		return p.failed
	default:
		return p.pending
	}
}

func (p *printer) status(s orchestrator.JobStatus) {
	if s == "" {
		return
	}
	fmt.Fprintf(p.w, "%s ", time.Now().Format(time.TimeOnly))
	p.label.Fprint(p.w, "Status: ")
	p.colorOf(s).Fprintln(p.w, s)
}

func (p *printer) logHeader(name string) {
	fmt.Fprintln(p.w)
	p.label.Fprintf(p.w, "Streaming %s\n", name)
	p.label.Fprintln(p.w, strings.Repeat("=", len(name)+10))
}

func (p *printer) logContent(b []byte) {
	_, _ = p.w.Write(b)
}

func (p *printer) summary(job *orchestrator.Job, elapsed time.Duration) {
	fmt.Fprintln(p.w)
	p.label.Fprintln(p.w, "Execution Summary")
	p.label.Fprintln(p.w, "=================")
	fmt.Fprintf(p.w, "RunId: %s\n", job.Name)
	if job.StudioURL != "" {
		fmt.Fprintf(p.w, "Web View: %s\n", job.StudioURL)
	}
	fmt.Fprint(p.w, "Status: ")
	p.colorOf(job.Status).Fprintln(p.w, job.Status)
	if job.Error != "" {
		fmt.Fprint(p.w, "Error: ")
		p.failed.Fprintln(p.w, job.Error)
	}
	fmt.Fprintf(p.w, "Elapsed: %s\n", elapsed.Round(time.Second))
}
