package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed log line.
type Entry struct {
	Time    time.Time         `json:"time,omitzero" yaml:"time,omitempty"`
	Level   string            `json:"level,omitempty" yaml:"level,omitempty"`
	Message string            `json:"message" yaml:"message"`
	Fields  map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Raw     string            `json:"-" yaml:"-"`
}

var reservedKeys = map[string]bool{"time": true, "level": true, "message": true}

// Parse decodes a JSON log line. Lines that are not JSON objects come back
// with only Raw and Message set.
func Parse(line string) Entry {
	entry := Entry{Raw: line}
	if !gjson.Valid(line) {
		entry.Message = line
		return entry
	}
	root := gjson.Parse(line)
	if !root.IsObject() {
		entry.Message = line
		return entry
	}

	if ts := root.Get("time"); ts.Exists() {
		if parsed, err := time.Parse(time.RFC3339Nano, ts.String()); err == nil {
			entry.Time = parsed
		}
	}
	entry.Level = strings.ToLower(root.Get("level").String())
	entry.Message = root.Get("message").String()
	root.ForEach(func(key, value gjson.Result) bool {
		if reservedKeys[key.String()] {
			return true
		}
		if entry.Fields == nil {
			entry.Fields = map[string]string{}
		}
		entry.Fields[key.String()] = value.String()
		return true
	})
	return entry
}

// ReadEntries reads and parses the last maxLines lines.
func ReadEntries(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

// Format renders the entry as "15:04:05 LVL message key=value ...".
func (e Entry) Format() string {
	if e.Level == "" && e.Time.IsZero() {
		return e.Message
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(levelTag(e.Level))
	b.WriteByte(' ')
	b.WriteString(e.Message)
	for _, key := range e.sortedKeys() {
		fmt.Fprintf(&b, " %s=%s", key, e.Fields[key])
	}
	return b.String()
}

func (e Entry) sortedKeys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func levelTag(level string) string {
	switch level {
	case "trace":
		return "TRC"
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	case "fatal":
		return "FTL"
	case "panic":
		return "PNC"
	default:
		return "???"
	}
}

var levelStyles = map[string]lipgloss.Style{
	"debug": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
	"info":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
	"warn":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
	"error": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
}

// Colorize renders Format with the level styled for a terminal.
func (e Entry) Colorize() string {
	style, ok := levelStyles[e.Level]
	if !ok {
		return e.Format()
	}
	plain := e.Format()
	tag := levelTag(e.Level)
	return strings.Replace(plain, tag, style.Render(tag), 1)
}
