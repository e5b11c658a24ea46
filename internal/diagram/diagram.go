// Package diagram renders a system's active/inactive table partition and
// per-table descriptor contents as an ASCII diagram for CLI diagnostics.
//
// Grounded on goarchive's internal/mermaidascii (RenderDiagram's
// Parse-then-Render entry point, Config/DefaultConfig): repurposed from
// rendering a mermaid dependency graph to rendering spec.md §3's system
// state (tables, inactive_tables, per-descriptor offset codes), using
// gookit/color for active/inactive highlighting and mattn/go-runewidth for
// column alignment, both promoted from indirect-only entries in the
// teacher's go.mod.
package diagram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/goecs/internal/ecs"
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

// Config controls rendering, mirroring mermaidascii's Config/DefaultConfig
// split between a "plain" and a colorized ASCII style.
type Config struct {
	// UseColor enables gookit/color highlighting of active vs. inactive
	// tables. Disable for output piped to a file or a non-terminal.
	UseColor bool
}

// DefaultConfig returns a Config with color enabled, the common case for an
// interactive terminal.
func DefaultConfig() *Config {
	return &Config{UseColor: true}
}

// RenderSystem is the package's Parse-then-Render entry point: it reads a
// system's live bookkeeping out of w and s and returns a complete ASCII
// diagram. If config is nil, DefaultConfig is used.
func RenderSystem(w *world.World, s *ecs.System, config *Config) string {
	if config == nil {
		config = DefaultConfig()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "system %s (%s)\n", s.ID, s.Kind)
	fmt.Fprintf(&b, "  enabled: %v\n", s.Enabled)

	renderPartition(&b, w, s.Tables, "active", config)
	renderPartition(&b, w, s.InactiveTables, "inactive", config)

	return b.String()
}

func renderPartition(b *strings.Builder, w *world.World, descs []types.TableDescriptor, label string, config *Config) {
	header := fmt.Sprintf("  %s tables (%d)", label, len(descs))
	if config.UseColor {
		if label == "active" {
			header = color.Green.Sprint(header)
		} else {
			header = color.Gray.Sprint(header)
		}
	}
	b.WriteString(header)
	b.WriteByte('\n')

	if len(descs) == 0 {
		b.WriteString("    (none)\n")
		return
	}

	rows := make([][]string, 0, len(descs)+1)
	rows = append(rows, []string{"table", "rows", "offset codes"})
	for _, d := range descs {
		t := w.TableAt(d.TableIndex)
		rows = append(rows, []string{
			strconv.Itoa(d.TableIndex),
			strconv.Itoa(t.RowCount()),
			formatCodes(d.OffsetCodes),
		})
	}
	writeTable(b, rows)
}

func formatCodes(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// writeTable renders rows as a left-aligned, space-padded ASCII table,
// using go-runewidth so multi-byte table/column labels still line up.
func writeTable(b *strings.Builder, rows [][]string) {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for _, row := range rows {
		b.WriteString("    ")
		for i, cell := range row {
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
		}
		b.WriteByte('\n')
	}
}
