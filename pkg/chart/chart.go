package chart

import (
	"fmt"
	"strings"

	"github.com/sherine-k/actuator/pkg/command"
	"github.com/sherine-k/actuator/pkg/scheduler"
	"github.com/sherine-k/actuator/pkg/simulation"
)

const (
	chartWidth = 80
	// columns used by the row labels on the left of the chart
	labelWidth = 7
	// distance in columns between two axis markers
	markerSpacing = 10
)

// Generator generates ASCII reports of a replay
type Generator struct {
	width int
}

// NewGenerator creates a new chart generator
func NewGenerator() *Generator {
	return &Generator{
		width: chartWidth,
	}
}

// column aggregates the ticks drawn in one chart column
type column struct {
	armed    bool
	fired    bool
	schedule bool
	cancel   bool
}

// GenerateTimelineChart generates an ASCII chart of the actuation slot over time
func (g *Generator) GenerateTimelineChart(timePoints []simulation.TimePoint) string {
	if len(timePoints) == 0 {
		return "No data to display"
	}

	var sb strings.Builder

	// Header
	sb.WriteString("\n")
	sb.WriteString("Actuation Timeline\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	plotWidth := g.width - labelWidth
	perColumn := (len(timePoints) + plotWidth - 1) / plotWidth
	if perColumn < 1 {
		perColumn = 1
	}

	columns := make([]column, 0, plotWidth)
	for start := 0; start < len(timePoints); start += perColumn {
		end := start + perColumn
		if end > len(timePoints) {
			end = len(timePoints)
		}

		var col column
		for _, tp := range timePoints[start:end] {
			col.armed = col.armed || tp.Armed
			col.fired = col.fired || tp.Fired
			if tp.Command != nil {
				switch *tp.Command {
				case command.KindSchedule:
					col.schedule = true
				case command.KindCancel:
					col.cancel = true
				}
			}
		}
		columns = append(columns, col)
	}

	// Slot row: most significant state in the bucket wins
	sb.WriteString("  slot |")
	for _, col := range columns {
		switch {
		case col.fired:
			sb.WriteString("*")
		case col.armed:
			sb.WriteString("=")
		default:
			sb.WriteString(".")
		}
	}
	sb.WriteString("\n")

	// Command row
	sb.WriteString("  cmds |")
	for _, col := range columns {
		switch {
		case col.schedule && col.cancel:
			sb.WriteString("X")
		case col.schedule:
			sb.WriteString("S")
		case col.cancel:
			sb.WriteString("C")
		default:
			sb.WriteString(" ")
		}
	}
	sb.WriteString("\n")

	// X-axis
	sb.WriteString("       +")
	sb.WriteString(strings.Repeat("-", len(columns)))
	sb.WriteString("\n")

	// X-axis labels: the tick at the start of every marked column
	labelLine := make([]rune, len(columns))
	for i := range labelLine {
		labelLine[i] = ' '
	}
	for c := 0; c < len(columns); c += markerSpacing {
		marker := fmt.Sprintf("%d", timePoints[c*perColumn].Time)
		if c+len(marker) > len(columns) {
			break
		}
		for i, ch := range marker {
			labelLine[c+i] = ch
		}
	}
	sb.WriteString("        ")
	sb.WriteString(string(labelLine))
	sb.WriteString("\n")

	// Legend
	sb.WriteString("\n")
	sb.WriteString("Legend:\n")
	if perColumn > 1 {
		sb.WriteString(fmt.Sprintf("  Each column covers %d ticks (%d-%d)\n",
			perColumn, timePoints[0].Time, timePoints[len(timePoints)-1].Time))
	}
	sb.WriteString("  Slot:\n")
	sb.WriteString("    = - Actuation armed\n")
	sb.WriteString("    * - Actuation fired\n")
	sb.WriteString("    . - Idle\n")
	sb.WriteString("  Commands:\n")
	sb.WriteString("    S - Schedule\n")
	sb.WriteString("    C - Cancel\n")
	sb.WriteString("    X - Schedule and cancel in the same column\n")
	sb.WriteString("\n")

	return sb.String()
}

// GenerateEventSummary generates a summary of events
func (g *Generator) GenerateEventSummary(events []scheduler.Event) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Event Summary\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	// Group events by type
	eventsByType := make(map[scheduler.EventType]int)
	for _, event := range events {
		eventsByType[event.Type]++
	}

	sb.WriteString(fmt.Sprintf("Total Events: %d\n", len(events)))
	sb.WriteString(fmt.Sprintf("  - Scheduled: %d\n", eventsByType[scheduler.EventTypeScheduled]))
	sb.WriteString(fmt.Sprintf("  - Replaced: %d\n", eventsByType[scheduler.EventTypeReplaced]))
	sb.WriteString(fmt.Sprintf("  - Cancelled: %d\n", eventsByType[scheduler.EventTypeCancelled]))
	sb.WriteString(fmt.Sprintf("  - Cancelled With Nothing Pending: %d\n", eventsByType[scheduler.EventTypeCancelNoop]))
	sb.WriteString(fmt.Sprintf("  - Fired: %d\n", eventsByType[scheduler.EventTypeFired]))
	sb.WriteString(fmt.Sprintf("  - Malformed Lines: %d\n", eventsByType[scheduler.EventTypeMalformed]))
	sb.WriteString(fmt.Sprintf("  - Late Records: %d\n", eventsByType[scheduler.EventTypeLate]))
	sb.WriteString(fmt.Sprintf("  - Overflows: %d\n",
		eventsByType[scheduler.EventTypeOverflow]+eventsByType[scheduler.EventTypeDrainOverflow]))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateWarnings generates a list of warnings
func (g *Generator) GenerateWarnings(warnings []scheduler.Event) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Warnings\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	if len(warnings) == 0 {
		sb.WriteString("No warnings!\n")
		return sb.String()
	}

	for _, warning := range warnings {
		sb.WriteString(fmt.Sprintf("[t=%d] %s: %s\n", warning.Time, warning.Type, warning.Message))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total Warnings: %d\n", len(warnings)))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateDetailedTimeline generates a detailed timeline of events
func (g *Generator) GenerateDetailedTimeline(events []scheduler.Event, limit int) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Detailed Timeline")
	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf(" (showing first %d events)", limit))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	displayCount := len(events)
	if limit > 0 && limit < displayCount {
		displayCount = limit
	}

	for i := 0; i < displayCount; i++ {
		event := events[i]

		typeIcon := " "
		switch event.Type {
		case scheduler.EventTypeScheduled:
			typeIcon = "+"
		case scheduler.EventTypeReplaced, scheduler.EventTypeCancelled:
			typeIcon = "-"
		case scheduler.EventTypeCancelNoop:
			typeIcon = "~"
		case scheduler.EventTypeFired:
			typeIcon = "*"
		default:
			if event.IsWarning {
				typeIcon = "!"
			}
		}

		sb.WriteString(fmt.Sprintf("[%8d] %s %s\n", event.Time, typeIcon, event.Message))
	}

	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf("\n... and %d more events\n", len(events)-limit))
	}

	sb.WriteString("\n")

	return sb.String()
}
