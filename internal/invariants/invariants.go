// Package invariants checks a system's own bookkeeping against live world
// state for the testable properties a correct engine must uphold.
//
// Grounded on goarchive's internal/verifier (VerifyResult/VerifyStats,
// count-comparison-then-report shape): retargeted from comparing row counts
// between a source and destination database to comparing a system's
// tables/inactive_tables partition and descriptor contents against what the
// table matcher and binder would produce from scratch.
package invariants

import (
	"fmt"

	"github.com/dbsmedya/goecs/internal/ecs"
	"github.com/dbsmedya/goecs/internal/logger"
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

// Violation names the failed invariant and the table (if any) it concerns.
type Violation struct {
	Invariant  int
	SystemID   string
	TableIndex int
	Message    string
}

func (v Violation) Error() string {
	return fmt.Sprintf("invariant %d violated for system %q (table %d): %s", v.Invariant, v.SystemID, v.TableIndex, v.Message)
}

// Report collects every violation found by a check pass.
type Report struct {
	SystemID   string
	Violations []Violation
}

// OK reports whether the check pass found nothing wrong.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

func (r *Report) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// CheckAll runs invariants 1-4 (spec.md §8), the structural properties that
// hold at any point in time, independent of any particular run_system call.
func CheckAll(w *world.World, s *ecs.System) *Report {
	report := &Report{SystemID: s.ID}
	checkPartition(w, s, report)
	checkRowCounts(w, s, report)
	checkActiveSet(w, s, report)
	checkOffsetCodes(w, s, report)
	return report
}

// checkPartition is invariant 1: T in tables XOR T in inactive_tables iff
// the matcher accepts (T, S); otherwise T is in neither.
func checkPartition(w *world.World, s *ecs.System, report *Report) {
	inTables := indexSet(s.Tables)
	inInactive := indexSet(s.InactiveTables)

	for i := 0; i < w.TableCount(); i++ {
		matches := ecs.Matches(w, s, i)
		_, active := inTables[i]
		_, inactive := inInactive[i]

		if active && inactive {
			report.add(Violation{1, s.ID, i, "table appears in both tables and inactive_tables"})
			continue
		}
		bound := active || inactive
		if matches && !bound {
			report.add(Violation{1, s.ID, i, "table matches the signature but was never bound"})
		}
		if !matches && bound {
			report.add(Violation{1, s.ID, i, "table is bound but no longer matches the signature"})
		}
	}
}

// checkRowCounts is invariant 2: every table in Tables has row_count >= 1,
// every table in InactiveTables has row_count == 0.
func checkRowCounts(w *world.World, s *ecs.System, report *Report) {
	for _, d := range s.Tables {
		if w.TableAt(d.TableIndex).RowCount() < 1 {
			report.add(Violation{2, s.ID, d.TableIndex, "table in the active partition has zero rows"})
		}
	}
	for _, d := range s.InactiveTables {
		if w.TableAt(d.TableIndex).RowCount() != 0 {
			report.add(Violation{2, s.ID, d.TableIndex, "table in the inactive partition has rows"})
		}
	}
}

// checkActiveSet is invariant 3: S is in the world's active set iff
// S.Enabled && len(S.Tables) >= 1.
func checkActiveSet(w *world.World, s *ecs.System, report *Report) {
	wantActive := ecs.IsEnabled(s) && len(s.Tables) > 0
	isActive := false
	for _, h := range w.ActiveSystems() {
		if h == s.Handle {
			isActive = true
			break
		}
	}
	if wantActive != isActive {
		report.add(Violation{3, s.ID, -1, fmt.Sprintf("expected active=%v, world reports active=%v", wantActive, isActive)})
	}
}

// checkOffsetCodes is invariant 4, adapted to this implementation's
// column-position offset-code encoding (DESIGN.md decision c): for each
// column c_i of descriptor d, d.OffsetCodes[i] >= 0 iff c_i is FromEntity,
// and when so it equals the live column_offset in the bound table; when
// negative it must equal -(i+1), and the table's own refs block (located at
// RefsIndex) must hold a (entity, component) pair whose entity actually
// carries that component.
func checkOffsetCodes(w *world.World, s *ecs.System, report *Report) {
	for _, d := range append(append([]types.TableDescriptor{}, s.Tables...), s.InactiveTables...) {
		t := w.TableAt(d.TableIndex)
		j := 0
		for i, code := range d.OffsetCodes {
			if i >= len(s.Columns) {
				continue
			}
			col := s.Columns[i]
			if col.Source == types.FromEntity {
				if code < 0 {
					report.add(Violation{4, s.ID, d.TableIndex, fmt.Sprintf("column %d is FromEntity but has a negative offset code", i)})
					continue
				}
				component := col.Handle
				if col.IsFamily() {
					component = w.Families.Contains(t.Family, col.Family, false)
				}
				if offset, ok := t.ColumnOffset(component); !ok || code != offset {
					report.add(Violation{4, s.ID, d.TableIndex, fmt.Sprintf("column %d has offset code %d, want column_offset %d", i, code, offset)})
				}
				continue
			}

			if code != -(i + 1) {
				report.add(Violation{4, s.ID, d.TableIndex, fmt.Sprintf("column %d is FromComponent with offset code %d, want %d", i, code, -(i + 1))})
				continue
			}
			if d.RefsIndex == 0 || d.RefsIndex-1+j >= len(s.Refs) {
				report.add(Violation{4, s.ID, d.TableIndex, fmt.Sprintf("column %d has no corresponding entry in the system's refs block", i)})
				j++
				continue
			}
			ref := s.Refs[d.RefsIndex-1+j]
			j++
			if w.FamilyOf(ref.Entity) == 0 && t.RowCount() > 0 {
				report.add(Violation{4, s.ID, d.TableIndex, fmt.Sprintf("column %d's ref entity %d resolves to no live family", i, ref.Entity)})
				continue
			}
			if _, ok := w.Get(ref.Entity, ref.Component); !ok {
				report.add(Violation{4, s.ID, d.TableIndex, fmt.Sprintf("column %d's ref entity %d does not carry component %d", i, ref.Entity, ref.Component)})
			}
		}
	}
}

func indexSet(descs []types.TableDescriptor) map[int]bool {
	set := make(map[int]bool, len(descs))
	for _, d := range descs {
		set[d.TableIndex] = true
	}
	return set
}

// CheckCoverage is invariant 5: given the table index and the multiset of
// row indices actually passed to action during one run_system call, verify
// every row of the table was visited exactly once.
func CheckCoverage(w *world.World, s *ecs.System, tableIndex int, observedRows []int) *Report {
	report := &Report{SystemID: s.ID}
	t := w.TableAt(tableIndex)
	seen := make(map[int]int, len(observedRows))
	for _, r := range observedRows {
		seen[r]++
	}
	for row := 0; row < t.RowCount(); row++ {
		switch seen[row] {
		case 0:
			report.add(Violation{5, s.ID, tableIndex, fmt.Sprintf("row %d was never passed to action", row)})
		case 1:
		default:
			report.add(Violation{5, s.ID, tableIndex, fmt.Sprintf("row %d was passed to action %d times", row, seen[row])})
		}
	}
	for row := range seen {
		if row < 0 || row >= t.RowCount() {
			report.add(Violation{5, s.ID, tableIndex, fmt.Sprintf("observed row %d is out of range", row)})
		}
	}
	return report
}

// CheckJobCoverage is invariant 6: running a job partition must produce the
// same per-(table,row) invocation multiset as a single run_system call.
func CheckJobCoverage(systemID string, wholeRun, jobRun map[int][]int) *Report {
	report := &Report{SystemID: systemID}
	tables := make(map[int]bool, len(wholeRun)+len(jobRun))
	for t := range wholeRun {
		tables[t] = true
	}
	for t := range jobRun {
		tables[t] = true
	}
	for t := range tables {
		if !multisetEqual(wholeRun[t], jobRun[t]) {
			report.add(Violation{6, systemID, t, "job-partitioned run produced a different row multiset than a whole-system run"})
		}
	}
	return report
}

func multisetEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[int]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

// CheckCreationOrderSymmetry is invariant 7: a table descriptor produced by
// late binding (notify_create_table) must equal the descriptor that would
// have resulted had the table existed at system creation time.
func CheckCreationOrderSymmetry(systemID string, early, late types.TableDescriptor) *Report {
	report := &Report{SystemID: systemID}
	if early.TableIndex != late.TableIndex {
		report.add(Violation{7, systemID, late.TableIndex, "table indices differ between early- and late-bound descriptors"})
	}
	if len(early.OffsetCodes) != len(late.OffsetCodes) {
		report.add(Violation{7, systemID, late.TableIndex, "offset code lengths differ between early- and late-bound descriptors"})
		return report
	}
	for i := range early.OffsetCodes {
		if early.OffsetCodes[i] != late.OffsetCodes[i] {
			report.add(Violation{7, systemID, late.TableIndex, fmt.Sprintf("offset code %d differs: early=%d late=%d", i, early.OffsetCodes[i], late.OffsetCodes[i])})
		}
	}
	return report
}

// LogReport writes one log line per violation, or a single success line
// when the report is clean, via the given logger.
func LogReport(log *logger.Logger, report *Report) {
	if report.OK() {
		log.WithSystem(report.SystemID).Info("all invariants held")
		return
	}
	for _, v := range report.Violations {
		log.WithSystem(report.SystemID).Errorf("%s", v.Error())
	}
}
