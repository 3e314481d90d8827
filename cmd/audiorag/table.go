// Copyright 2025 SeisSparrow
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

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/search"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderRuns(runs []*core.RunRecord) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.FileName,
			string(run.Status),
			strconv.Itoa(run.Segments),
			strconv.Itoa(run.Chunks),
			strconv.Itoa(run.Indexed),
			strconv.Itoa(len(run.Manifest.Skipped)),
			strconv.Itoa(len(run.Manifest.Dropped)),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "File", "Status", "Segments", "Chunks", "Indexed", "Skipped", "Dropped"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func renderRun(run *core.RunRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:      %s\n", run.ID)
	fmt.Fprintf(&b, "File:     %s (%016x)\n", run.FileName, uint64(run.FileID))
	fmt.Fprintf(&b, "Status:   %s\n", run.Status)
	fmt.Fprintf(&b, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(&b, "Took:     %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&b, "Segments: %d, chunks: %d, indexed: %d\n", run.Segments, run.Chunks, run.Indexed)
	if run.Error != "" {
		fmt.Fprintf(&b, "Error:    %s\n", run.Error)
	}

	if len(run.Manifest.Skipped) > 0 {
		rows := make([][]string, 0, len(run.Manifest.Skipped))
		for _, s := range run.Manifest.Skipped {
			rows = append(rows, []string{strconv.Itoa(s.Index), string(s.Stage), s.Reason})
		}
		b.WriteString("\nSkipped segments\n")
		b.WriteString(renderTable([]string{"Segment", "Stage", "Reason"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft}))
		b.WriteString("\n")
	}
	if len(run.Manifest.Dropped) > 0 {
		rows := make([][]string, 0, len(run.Manifest.Dropped))
		for _, d := range run.Manifest.Dropped {
			rows = append(rows, []string{strconv.Itoa(d.ChunkID), strconv.Itoa(d.Attempts), d.Reason})
		}
		b.WriteString("\nDropped documents\n")
		b.WriteString(renderTable([]string{"Chunk", "Attempts", "Reason"}, rows,
			[]columnAlignment{alignRight, alignRight, alignLeft}))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStats(stats search.TranscriptStats) string {
	rows := [][]string{
		{"Files", strconv.Itoa(stats.Files)},
		{"Chunks", strconv.Itoa(stats.Chunks)},
		{"Words", strconv.Itoa(stats.Words)},
		{"Sentences", strconv.Itoa(stats.Sentences)},
		{"Spoken time", formatOffset(stats.SpokenSeconds)},
		{"Longest recording", formatOffset(stats.LastEndTime)},
		{"Words per minute", fmt.Sprintf("%.1f", stats.WordsPerMinute)},
		{"Sentences per minute", fmt.Sprintf("%.1f", stats.SentencesPerMinute)},
		{"Average chunk", fmt.Sprintf("%.1fs", stats.AverageChunkDuration)},
		{"Pacing", string(stats.Pacing)},
	}
	return renderTable([]string{"Statistic", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

// formatOffset renders seconds as h:mm:ss or m:ss.
func formatOffset(seconds float64) string {
	total := int(seconds + 0.5)
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func truncate(s string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(s), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-3]) + "..."
}
