package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printKV(w io.Writer, rows [][2]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n== %s ==\n", title)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// formatIDs collapses consecutive identifiers into ranges: 1-3,7,9-10.
func formatIDs(ids []uint) string {
	if len(ids) == 0 {
		return "-"
	}
	var parts []string
	start, prev := ids[0], ids[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.FormatUint(uint64(start), 10))
			return
		}
		parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
	}
	for _, id := range ids[1:] {
		if id == prev+1 {
			prev = id
			continue
		}
		flush()
		start, prev = id, id
	}
	flush()
	return strings.Join(parts, ",")
}

func printReport(w io.Writer, r domain.FixtureReport) {
	printSection(w, "destroyed")
	rows := make([][]string, 0, len(r.Destroyed))
	for _, d := range r.Destroyed {
		rows = append(rows, []string{d.Kind, strconv.FormatInt(d.Count, 10)})
	}
	printTable(w, []string{"KIND", "DELETED"}, rows)

	printSection(w, "created")
	rows = make([][]string, 0, len(r.Created))
	for _, c := range r.Created {
		if c.Count == 0 {
			continue
		}
		rows = append(rows, []string{c.Kind, strconv.Itoa(c.Count), formatIDs(c.IDs)})
	}
	printTable(w, []string{"KIND", "CREATED", "IDS"}, rows)

	printSection(w, "credentials")
	printCredentials(w, r.Credentials)

	fmt.Fprintln(w)
	printKV(w, [][2]string{
		{"run_id", r.RunID},
		{"started_at", formatTime(r.StartedAt)},
		{"finished_at", formatTime(r.FinishedAt)},
	})
}

func printCredentials(w io.Writer, items []domain.IssuedLogin) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		token := item.Token
		if token == "" {
			token = "-"
		}
		rows = append(rows, []string{item.Name, item.Role, item.Email, item.Secret, token})
	}
	printTable(w, []string{"NAME", "ROLE", "EMAIL", "PASSWORD", "TOKEN"}, rows)
}

func printPlan(w io.Writer, deletion, creation []string) {
	rows := make([][]string, 0, len(deletion))
	for i := range deletion {
		rows = append(rows, []string{strconv.Itoa(i + 1), deletion[i], creation[i]})
	}
	printTable(w, []string{"STEP", "DELETE", "CREATE"}, rows)
}

func printStatus(w io.Writer, counts []domain.KindCount) {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Kind, strconv.FormatInt(c.Count, 10)})
	}
	printTable(w, []string{"KIND", "RECORDS"}, rows)
}
