package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jason-s-yu/thief/engine"
	"github.com/jason-s-yu/thief/service/internal/game"
	"gopkg.in/yaml.v3"
)

type gameResult struct {
	Number int       `json:"number" yaml:"number"`
	GameID uuid.UUID `json:"gameId" yaml:"gameId"`
	Reason string    `json:"reason" yaml:"reason"`
	Scores []int     `json:"scores" yaml:"scores,flow"`
}

// report collects finished games for the final summary.
type report struct {
	mu      sync.Mutex
	Table   uuid.UUID    `json:"table" yaml:"table"`
	Players []string     `json:"players" yaml:"players,flow"`
	Games   []gameResult `json:"games" yaml:"games"`
	Totals  []int        `json:"totals" yaml:"totals,flow"`
	Winners []string     `json:"winners" yaml:"winners,flow"`
}

func newReport(table uuid.UUID) *report {
	return &report{Table: table}
}

// record is the table's OnGameEnd callback.
func (r *report) record(gameID uuid.UUID, reason engine.EndReason, scores []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Games = append(r.Games, gameResult{
		Number: len(r.Games) + 1,
		GameID: gameID,
		Reason: string(reason),
		Scores: append([]int(nil), scores...),
	})
}

// finish fills in names, totals and winners from the final state.
func (r *report) finish(s game.SyncState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Players = r.Players[:0]
	for _, p := range s.Players {
		r.Players = append(r.Players, p.Name)
	}
	r.Totals = make([]int, len(r.Players))
	for _, g := range r.Games {
		for i, v := range g.Scores {
			if i < len(r.Totals) {
				r.Totals[i] += v
			}
		}
	}
	r.Winners = nil
	for _, seat := range engine.Winners(r.Totals) {
		r.Winners = append(r.Winners, r.Players[seat])
	}
}

// write prints the report as a table, JSON or YAML.
func (r *report) write(w io.Writer, format string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return r.writeTable(w)
}

func (r *report) writeTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Game\t%s\tEnd\t\n", strings.Join(r.Players, "\t"))
	for _, g := range r.Games {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", g.Number, joinInts(g.Scores), g.Reason)
	}
	fmt.Fprintf(tw, "Total\t%s\t\t\n", joinInts(r.Totals))
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Winner: %s\n", strings.Join(r.Winners, ", "))
	return err
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\t")
}
