package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// CountWeekday counts the dates in the input file that fall on the
// requested weekday and writes the count to the output file.
func (h *Handlers) CountWeekday(_ context.Context, req Request) task.Result {
	input := req.Intent.InputPath
	data, res, ok := readInput(input)
	if !ok {
		return res
	}

	day := strings.ToLower(strings.TrimSpace(req.Intent.Param("day", "wednesday")))
	want, known := weekdays[day]
	if !known {
		return task.Failed("Invalid day '%s' specified.", day)
	}

	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t, err := dateparse.ParseAny(line)
		if err != nil {
			return task.Failed("Invalid date format found: %s", line)
		}
		if t.Weekday() == want {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return task.Failed("Unable to read %s: %v", input, err)
	}

	return finish(req.Intent.OutputPath, []byte(strconv.Itoa(count)),
		strings.ToUpper(day[:1])+day[1:]+"s counted.")
}

// SortRecords stably sorts a JSON array of objects by the configured keys.
// Each record is written back with its original field order.
func (h *Handlers) SortRecords(_ context.Context, req Request) task.Result {
	input := req.Intent.InputPath
	data, res, ok := readInput(input)
	if !ok {
		return res
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return task.Failed("Unable to parse %s as a list of records.", input)
	}

	keys := req.Intent.StringsParam("sort_keys", []string{"last_name", "first_name"})
	records := make([]map[string]any, len(raws))
	for i, raw := range raws {
		if err := json.Unmarshal(raw, &records[i]); err != nil || records[i] == nil {
			return task.Failed("Record %d in %s is not an object.", i, input)
		}
		for _, k := range keys {
			if _, has := records[i][k]; !has {
				return task.Failed("Record %d is missing field %q.", i, k)
			}
		}
	}

	order := make([]int, len(raws))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := records[order[a]], records[order[b]]
		for _, k := range keys {
			if c := compareValues(ra[k], rb[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})

	sorted := make([]json.RawMessage, len(raws))
	for i, idx := range order {
		sorted[i] = raws[idx]
	}
	out, err := json.Marshal(sorted)
	if err != nil {
		return task.Failed("Unable to encode sorted records: %v", err)
	}
	return finish(req.Intent.OutputPath, out, "Contacts sorted.")
}

// compareValues orders numbers numerically and everything else by its
// string form.
func compareValues(a, b any) int {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// LogFirstLines writes the first line of each of the most recent .log files
// in the input's directory.
func (h *Handlers) LogFirstLines(_ context.Context, req Request) task.Result {
	dir := filepath.Dir(req.Intent.InputPath)
	if !h.contained(dir) {
		return task.Rejected(sandboxMessage(h.deps.Policy.Root))
	}
	if !isDir(dir) {
		return task.Failure("Error: Logs directory not found.")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return task.Failed("Unable to list %s: %v", dir, err)
	}

	type logFile struct {
		path    string
		modTime time.Time
	}
	var logs []logFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		logs = append(logs, logFile{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].modTime.After(logs[j].modTime) })

	if n := req.Intent.IntParam("count", 10); n >= 0 && len(logs) > n {
		logs = logs[:n]
	}

	var buf bytes.Buffer
	for _, l := range logs {
		line, err := firstLine(l.path)
		if err != nil {
			return task.Failed("Unable to read %s: %v", l.path, err)
		}
		buf.WriteString(strings.TrimSpace(line))
		buf.WriteByte('\n')
	}
	return finish(req.Intent.OutputPath, buf.Bytes(), "Log first lines extracted.")
}

func firstLine(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is inside a checked directory
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}

// MarkdownTitles indexes the first H1 heading of every Markdown file under
// the input's directory. Keys are slash-separated relative paths.
func (h *Handlers) MarkdownTitles(_ context.Context, req Request) task.Result {
	dir := filepath.Dir(req.Intent.InputPath)
	if !h.contained(dir) {
		return task.Rejected(sandboxMessage(h.deps.Policy.Root))
	}
	if !isDir(dir) {
		return task.Failure("Error: Docs directory not found.")
	}

	index := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		title, found, err := firstHeading(path)
		if err != nil || !found {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		index[filepath.ToSlash(rel)] = title
		return nil
	})
	if err != nil {
		return task.Failed("Unable to index %s: %v", dir, err)
	}

	out, err := json.Marshal(index)
	if err != nil {
		return task.Failed("Unable to encode index: %v", err)
	}
	return finish(req.Intent.OutputPath, out, "Markdown titles indexed.")
}

func firstHeading(path string) (string, bool, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from a walk of a checked directory
	if err != nil {
		return "", false, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimLeft(line, "# ")), true, nil
		}
	}
	return "", false, scanner.Err()
}

// CSVFilter converts a CSV file with a header row to a JSON array of
// records, optionally keeping only rows where column equals value.
func (h *Handlers) CSVFilter(_ context.Context, req Request) task.Result {
	input := req.Intent.InputPath
	data, res, ok := readInput(input)
	if !ok {
		return res
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return task.Failure(fmt.Sprintf("Error filtering CSV: %v", err))
	}
	if len(rows) == 0 {
		return finish(req.Intent.OutputPath, []byte("[]"), "CSV filtered and JSON saved.")
	}

	header := rows[0]
	filterCol := -1
	column := req.Intent.Param("column", "")
	value := req.Intent.Param("value", "")
	if column != "" {
		for i, name := range header {
			if name == column {
				filterCol = i
				break
			}
		}
		if filterCol < 0 {
			return task.Failure(fmt.Sprintf("Error filtering CSV: unknown column %q", column))
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	written := 0
	for _, row := range rows[1:] {
		if filterCol >= 0 && strings.TrimSpace(row[filterCol]) != value {
			continue
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		writeRecord(&buf, header, row)
		written++
	}
	buf.WriteByte(']')
	return finish(req.Intent.OutputPath, buf.Bytes(), "CSV filtered and JSON saved.")
}

// writeRecord encodes one row as a JSON object in header order.
func writeRecord(buf *bytes.Buffer, header, row []string) {
	buf.WriteByte('{')
	for i, name := range header {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(cellJSON(row[i]))
	}
	buf.WriteByte('}')
}

// cellJSON renders an empty cell as null, a finite number as a JSON number
// and anything else as a string.
func cellJSON(cell string) []byte {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return []byte("null")
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64))
	}
	s, _ := json.Marshal(cell)
	return s
}
