package plotter

import (
	"strings"
	"testing"

	"github.com/sudoku-xyz/go-sudoku/eventlog"
	"github.com/sudoku-xyz/go-sudoku/solver"
	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

func TestNewSVGPlotter(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)

	if plotter.Width != 800 {
		t.Errorf("Expected width 800, got %f", plotter.Width)
	}
	if plotter.Height != 600 {
		t.Errorf("Expected height 600, got %f", plotter.Height)
	}
	if plotter.XLabel != "Step" {
		t.Errorf("Expected default XLabel 'Step', got '%s'", plotter.XLabel)
	}
	if plotter.Series != nil {
		t.Error("Expected Series to be nil initially")
	}
}

func TestSetTitle(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	plotter.SetTitle("Test Plot")

	if plotter.Title != "Test Plot" {
		t.Errorf("Expected title 'Test Plot', got '%s'", plotter.Title)
	}

	// Test chaining
	result := plotter.SetTitle("Another Title")
	if result != plotter {
		t.Error("SetTitle should return the plotter for chaining")
	}
}

func TestAddSeriesDefaultColor(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	plotter.AddSeries([]float64{0, 1}, []float64{0, 1}, "Series1", "")
	plotter.AddSeries([]float64{0, 1}, []float64{0, 2}, "Series2", "")

	// Should use default color palette
	if plotter.Series[0].Color == "" {
		t.Error("First series should have a default color")
	}
	if plotter.Series[1].Color == "" {
		t.Error("Second series should have a default color")
	}
	if plotter.Series[0].Color == plotter.Series[1].Color {
		t.Error("Different series should have different default colors")
	}
}

func TestRenderBasic(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	plotter.SetTitle("Test Plot")
	plotter.AddSeries([]float64{0, 1, 2}, []float64{0, 1, 4}, "fitness", "#0000ff")

	svg := plotter.Render()

	if !strings.HasPrefix(svg, "<svg") {
		t.Error("SVG should start with <svg tag")
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("SVG should end with </svg> tag")
	}

	// Check for key elements
	if !strings.Contains(svg, "Test Plot") {
		t.Error("SVG should contain the title")
	}
	if !strings.Contains(svg, "fitness") {
		t.Error("SVG should contain the series label")
	}
	if !strings.Contains(svg, "#0000ff") {
		t.Error("SVG should contain the series color")
	}
	if !strings.Contains(svg, "<path") {
		t.Error("SVG should contain a path element for the data")
	}
}

func TestRenderEmptySeries(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	svg := plotter.Render()

	// Should produce valid SVG even with no data
	if !strings.HasPrefix(svg, "<svg") {
		t.Error("Empty plot should still produce valid SVG")
	}
}

func TestRenderEscaping(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	plotter.SetTitle("<script>alert('xss')</script>")
	plotter.AddSeries([]float64{0, 1}, []float64{0, 1}, "<tag>", "")

	svg := plotter.Render()

	if strings.Contains(svg, "<script>") {
		t.Error("Markup in title should be escaped")
	}
	if !strings.Contains(svg, "&lt;") {
		t.Error("< should be escaped to &lt;")
	}
	if !strings.Contains(svg, "&gt;") {
		t.Error("> should be escaped to &gt;")
	}
}

func TestRenderWithLegend(t *testing.T) {
	plotter := NewSVGPlotter(800, 600)
	plotter.AddSeries([]float64{0, 1}, []float64{0, 1}, "Series 1", "#ff0000")
	plotter.AddSeries([]float64{0, 1}, []float64{0, 2}, "Series 2", "#00ff00")
	svg := plotter.Render()

	if !strings.Contains(svg, "Series 1") {
		t.Error("Legend should contain Series 1")
	}
	if !strings.Contains(svg, "Series 2") {
		t.Error("Legend should contain Series 2")
	}
}

func TestFitnessSeries(t *testing.T) {
	trace := &eventlog.Trace{
		RunID:  "r1",
		Solver: "cultural",
		Events: []eventlog.Event{
			{RunID: "r1", Seq: 1, Type: "generation", Generation: 1, Fitness: 12},
			{RunID: "r1", Seq: 2, Type: "generation", Generation: 2, Fitness: 7},
			{RunID: "r1", Seq: 3, Type: "place", Row: 0, Col: 1, Value: 2},
			{RunID: "r1", Seq: 4, Type: "generation", Generation: 3, Fitness: 0},
		},
	}

	x, y := FitnessSeries(trace)
	if len(x) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(x))
	}
	if x[0] != 1 || x[2] != 3 {
		t.Errorf("Unexpected generation axis: %v", x)
	}
	if y[0] != 12 || y[1] != 7 || y[2] != 0 {
		t.Errorf("Unexpected fitness axis: %v", y)
	}
}

func TestDepthSeries(t *testing.T) {
	trace := &eventlog.Trace{
		RunID:  "r2",
		Solver: "backtracking",
		Events: []eventlog.Event{
			{Seq: 1, Type: "attempt", Value: 1},
			{Seq: 2, Type: "place", Value: 1},
			{Seq: 3, Type: "place", Value: 3},
			{Seq: 4, Type: "backtrack", Value: 3},
			{Seq: 5, Type: "reject", Value: 4},
			{Seq: 6, Type: "place", Value: 2},
		},
	}

	x, y := DepthSeries(trace)
	if len(y) != 4 {
		t.Fatalf("Expected 4 depth points, got %d", len(y))
	}
	want := []float64{1, 2, 1, 2}
	for i := range want {
		if y[i] != want[i] {
			t.Errorf("Depth point %d: expected %.0f, got %.0f", i, want[i], y[i])
		}
	}
}

func TestPlotTraceCultural(t *testing.T) {
	trace := &eventlog.Trace{
		RunID:  "abc123",
		Solver: "cultural",
		Events: []eventlog.Event{
			{Seq: 1, Type: "generation", Generation: 1, Fitness: 9},
			{Seq: 2, Type: "generation", Generation: 2, Fitness: 4},
		},
	}

	svg, err := PlotTrace(trace, 800, 600)
	if err != nil {
		t.Fatalf("PlotTrace failed: %v", err)
	}
	if !strings.Contains(svg, "Cultural search") {
		t.Error("Plot should carry the cultural title")
	}
	if !strings.Contains(svg, "Generation") {
		t.Error("Plot should label the X axis with generations")
	}
}

func TestPlotTraceBacktracking(t *testing.T) {
	trace := &eventlog.Trace{
		RunID:  "def456",
		Solver: "backtracking",
		Events: []eventlog.Event{
			{Seq: 1, Type: "place", Value: 1},
			{Seq: 2, Type: "backtrack", Value: 1},
			{Seq: 3, Type: "place", Value: 2},
		},
	}

	svg, err := PlotTrace(trace, 800, 600)
	if err != nil {
		t.Fatalf("PlotTrace failed: %v", err)
	}
	if !strings.Contains(svg, "Backtracking search") {
		t.Error("Plot should carry the backtracking title")
	}
	if !strings.Contains(svg, "Cells placed") {
		t.Error("Plot should label the Y axis with depth")
	}
}

func TestPlotTraceEmpty(t *testing.T) {
	trace := &eventlog.Trace{RunID: "empty"}
	if _, err := PlotTrace(trace, 800, 600); err == nil {
		t.Error("Expected error for trace without plottable events")
	}
}

func TestPlotRecordedRun(t *testing.T) {
	// Full integration: solve a puzzle with recording, plot the trace
	p, err := sudoku.New(sudoku.Grid{
		{1, 0, 0, 4},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{4, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log := eventlog.NewLog()
	rec := eventlog.NewRecorder(log, "run-1", "backtracking")

	engine := solver.NewBacktracking(p)
	if !engine.Solve(rec.StepFunc(nil)) {
		t.Fatal("Expected puzzle to be solved")
	}

	svg, err := PlotTrace(log.Runs["run-1"], 800, 600)
	if err != nil {
		t.Fatalf("PlotTrace failed: %v", err)
	}
	if !strings.Contains(svg, "<path") {
		t.Error("Plot of a real run should contain a data path")
	}
	if !strings.Contains(svg, "run-1") {
		t.Error("Plot title should name the run")
	}
}
