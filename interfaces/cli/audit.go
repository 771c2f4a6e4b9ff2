package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/imagereader/imagereader-mcp/infrastructure/security/audit"
)

// auditOptions holds options for the audit command.
type auditOptions struct {
	configPath string
	file       string
	requestID  string
	tool       string
	path       string
	types      []string
	failed     bool
	succeeded  bool
	since      time.Duration
	until      string
	limit      int
	jsonOut    bool
}

// newAuditCmd creates the audit command.
func (a *App) newAuditCmd() *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Search the audit trail",
		Long: `Read the JSON lines audit trail the server writes and print the
records matching the given filters. The trail path comes from --file or from
audit.path in the configuration file.

Examples:
  # Last 20 failed reads
  imagereader audit -c imagereader.yaml --failed --limit 20

  # Everything one request touched
  imagereader audit --file audit.jsonl --request-id 3f2a...

  # Rejections in the last hour, as JSON
  imagereader audit --file audit.jsonl --type rejected --since 1h --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.searchAudit(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.file, "file", "", "Audit trail to read (overrides audit.path)")
	cmd.Flags().StringVar(&opts.requestID, "request-id", "", "Only records for this request")
	cmd.Flags().StringVar(&opts.tool, "tool", "", "Only records for this tool")
	cmd.Flags().StringVar(&opts.path, "path", "", "Only records for this image path")
	cmd.Flags().StringSliceVar(&opts.types, "type", nil, "Event types to keep (tool_call, tool_failure, rejected)")
	cmd.Flags().BoolVar(&opts.failed, "failed", false, "Only unsuccessful records")
	cmd.Flags().BoolVar(&opts.succeeded, "succeeded", false, "Only successful records")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "Only records newer than this age, e.g. 1h")
	cmd.Flags().StringVar(&opts.until, "until", "", "Only records at or before this RFC 3339 time")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Keep only the most recent N matches")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print matches as JSON lines")
	cmd.MarkFlagsMutuallyExclusive("failed", "succeeded")

	return cmd
}

// filter builds the audit filter from the flags, relative to now.
func (o *auditOptions) filter(now time.Time) (audit.Filter, error) {
	f := audit.Filter{
		RequestID: o.requestID,
		ToolName:  o.tool,
		Path:      o.path,
		Limit:     o.limit,
	}
	for _, t := range o.types {
		switch et := audit.EventType(t); et {
		case audit.EventToolCall, audit.EventToolFailure, audit.EventRejected:
			f.EventTypes = append(f.EventTypes, et)
		default:
			return audit.Filter{}, fmt.Errorf("unknown event type %q", t)
		}
	}
	switch {
	case o.failed:
		f.Success = new(bool)
	case o.succeeded:
		ok := true
		f.Success = &ok
	}
	if o.since > 0 {
		f.StartTime = now.Add(-o.since)
	}
	if o.until != "" {
		until, err := time.Parse(time.RFC3339, o.until)
		if err != nil {
			return audit.Filter{}, fmt.Errorf("invalid --until: %w", err)
		}
		f.EndTime = until
	}
	if o.limit < 0 {
		return audit.Filter{}, fmt.Errorf("--limit must not be negative")
	}
	return f, nil
}

// searchAudit prints the audit records matching opts.
func (a *App) searchAudit(opts *auditOptions) error {
	file := opts.file
	if file == "" {
		if opts.configPath == "" {
			return fmt.Errorf("audit trail path is required (--file or -c)")
		}
		cfg, err := loadConfig(opts.configPath, false)
		if err != nil {
			return err
		}
		if cfg.Audit.Path == "" {
			return fmt.Errorf("configuration has no audit.path")
		}
		file = cfg.Audit.Path
	}

	filter, err := opts.filter(time.Now())
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open audit trail: %w", err)
	}
	defer f.Close()

	events, err := audit.Scan(f, filter)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(a.stdout)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
		return nil
	}

	for _, e := range events {
		status := "ok"
		if !e.Success {
			status = "FAIL"
		}
		_, _ = fmt.Fprintf(a.stdout, "%s  %-12s %-4s %s %s",
			e.Timestamp.Format(time.RFC3339), e.EventType, status, e.ToolName, e.Path)
		if e.RequestID != "" {
			_, _ = fmt.Fprintf(a.stdout, " request=%s", e.RequestID)
		}
		if e.Error != "" {
			_, _ = fmt.Fprintf(a.stdout, " error=%q", e.Error)
		}
		_, _ = fmt.Fprintln(a.stdout)
	}
	_, _ = fmt.Fprintf(a.stdout, "%d record(s)\n", len(events))
	return nil
}
