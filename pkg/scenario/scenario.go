// Package scenario expands cron-scheduled command templates into a
// replayable command log.
package scenario

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sherine-k/actuator/pkg/command"
	"github.com/sherine-k/actuator/pkg/config"
)

// Expand generates every record the scenario's commands produce within
// [Start, Start+Horizon). Each firing becomes a record at tick
// (firing-Start)/Resolution. Records are ordered by tick; commands firing on
// the same tick keep their declaration order.
func Expand(scn *config.Scenario) ([]command.RawRecord, error) {
	if err := config.ValidateScenario(scn); err != nil {
		return nil, err
	}

	type entry struct {
		rec   command.RawRecord
		order int
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	end := scn.Start.Add(scn.Horizon)

	entries := []entry{}
	for i, cmd := range scn.Commands {
		schedule, err := parser.Parse(cmd.CronSchedule)
		if err != nil {
			return nil, fmt.Errorf("command %s: failed to parse cron schedule: %w", cmd.Name, err)
		}

		signal := int64(-1)
		if !cmd.Cancel {
			signal = int64(cmd.Delay)
		}

		// Next is strictly after its argument, so step back to include Start itself
		current := scn.Start.Add(-time.Nanosecond)
		for {
			next := schedule.Next(current)
			if next.IsZero() || !next.Before(end) {
				break
			}

			entries = append(entries, entry{
				rec: command.RawRecord{
					Time:   uint64(next.Sub(scn.Start) / scn.Resolution),
					Signal: signal,
				},
				order: i,
			})
			current = next
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].rec.Time != entries[j].rec.Time {
			return entries[i].rec.Time < entries[j].rec.Time
		}
		return entries[i].order < entries[j].order
	})

	records := make([]command.RawRecord, len(entries))
	for i, e := range entries {
		records[i] = e.rec
	}
	return records, nil
}

// Write prints records in the "<time>\t<signal>" line format
func Write(w io.Writer, records []command.RawRecord) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := fmt.Fprintln(bw, command.FormatRecord(rec)); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
