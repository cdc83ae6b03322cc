package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/thief/service/internal/config"
	"github.com/jason-s-yu/thief/service/internal/historian"
	"gopkg.in/yaml.v3"
)

// replay prints the archived actions of one game.
func replay(ctx context.Context, cfg *config.Config, w io.Writer) error {
	id, err := uuid.Parse(cfg.Report.Replay)
	if err != nil {
		return fmt.Errorf("replay game id: %w", err)
	}
	store, err := historian.NewPostgresStore(ctx, historian.PostgresOptions{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.Actions(ctx, id)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no actions stored for game %s", id)
	}
	return writeActions(w, recs, cfg.Report.Format)
}

// writeActions prints records as a table, JSON or YAML.
func writeActions(w io.Writer, recs []historian.ActionRecord, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(recs); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTime\tSeat\tAction\tDetails")
	for _, rec := range recs {
		actor := "-"
		if rec.Actor != historian.NoActor {
			actor = strconv.Itoa(rec.Actor)
		}
		details, err := json.Marshal(rec.Payload)
		if err != nil {
			return err
		}
		at := time.UnixMilli(rec.Timestamp).UTC().Format("15:04:05.000")
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", rec.ActionIndex, at, actor, rec.ActionType, details)
	}
	return tw.Flush()
}
