package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/claude/runplan/internal/localstore"
	"github.com/claude/runplan/internal/mcp"
	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/plan"
	"github.com/claude/runplan/internal/planner"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type options struct {
	event     string
	distance  float64
	elevation int
	skill     string
	days      int
	today     string
	format    string
	rounding  string
	maxWeeks  int
	save      string
	name      string
	list      bool
	load      string
	mcpRemote string
	apiKey    string
	version   bool
}

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if opts.mcpRemote != "" {
		// Remote MCP mode: stdio transport, plans served by a RunPlan server.
		client := mcp.NewHTTPClient(opts.mcpRemote, opts.apiKey)
		if err := mcpserver.ServeStdio(mcp.New(client, Version, log)); err != nil {
			log.Error("mcp stdio server", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Stdout, opts, time.Now(), log); err != nil {
		log.Error("runplan failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("runplan-cli", flag.ContinueOnError)
	fs.StringVar(&o.event, "event", "", "event date (YYYY-MM-DD)")
	fs.Float64Var(&o.distance, "distance", 0, "event distance in km")
	fs.IntVar(&o.elevation, "elevation", 0, "event elevation gain in meters")
	fs.StringVar(&o.skill, "skill", "beginner", "skill level: beginner, intermediate or advanced")
	fs.IntVar(&o.days, "days", 4, "training days per week (3-6)")
	fs.StringVar(&o.today, "today", "", "override today's date (YYYY-MM-DD)")
	fs.StringVar(&o.format, "format", "text", "output format: text, json or yaml")
	fs.StringVar(&o.rounding, "rounding", os.Getenv("RUNPLAN_PLAN_ROUNDING"), "distance rounding: half_up or half_even")
	fs.IntVar(&o.maxWeeks, "max-weeks", planner.DefaultMaxWeeks, "longest plan accepted, in weeks")
	fs.StringVar(&o.save, "save", "", "SQLite plan file to save to (or read with -list/-load)")
	fs.StringVar(&o.name, "name", "", "name to save the plan under (default: generated plan name)")
	fs.BoolVar(&o.list, "list", false, "list plans saved in the -save file")
	fs.StringVar(&o.load, "load", "", "print the plan saved under this name in the -save file")
	fs.StringVar(&o.mcpRemote, "mcp-remote", "", "serve MCP over stdio against the RunPlan server at this URL")
	fs.StringVar(&o.apiKey, "api-key", os.Getenv("RUNPLAN_AUTH_API_KEY"), "API key for -mcp-remote")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	err := fs.Parse(args)
	return o, err
}

func run(w io.Writer, o options, now time.Time, log *slog.Logger) error {
	if o.version {
		fmt.Fprintln(w, "runplan-cli", Version)
		return nil
	}

	if o.list || o.load != "" {
		if o.save == "" {
			return fmt.Errorf("-list and -load need -save <file>")
		}
		store, err := localstore.Open(o.save)
		if err != nil {
			return err
		}
		defer store.Close()

		if o.list {
			plans, err := store.ListPlans()
			if err != nil {
				return err
			}
			return writePlanList(w, o.format, plans)
		}
		saved, err := store.LoadPlan(o.load)
		if err != nil {
			return err
		}
		return writeOutput(w, o.format, saved, func(w io.Writer) error {
			return writeWorkouts(w, saved.Name, saved.Workouts)
		})
	}

	if o.event == "" {
		return fmt.Errorf("-event is required")
	}
	eventDate, err := models.ParseDate(o.event)
	if err != nil {
		return fmt.Errorf("-event: %w", err)
	}
	today := now
	if o.today != "" {
		if today, err = models.ParseDate(o.today); err != nil {
			return fmt.Errorf("-today: %w", err)
		}
	}
	rounding, err := plan.ParseRounding(o.rounding)
	if err != nil {
		return err
	}

	p := planner.New(nil, plan.Generator{Rounding: rounding}, o.maxWeeks, log)
	res, err := p.Preview(planner.Request{
		EventDate:           models.Date{Time: eventDate},
		DistanceKm:          o.distance,
		ElevationGainM:      o.elevation,
		SkillLevel:          o.skill,
		TrainingDaysPerWeek: o.days,
	}, today)
	if err != nil {
		return err
	}

	if o.save != "" {
		name := o.name
		if name == "" {
			name = res.Name
		}
		store, err := localstore.Open(o.save)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SavePlan(name, res.Params, res.Workouts)
		if err != nil {
			return err
		}
		log.Info("plan saved", "file", o.save, "name", name, "id", id, "workouts", len(res.Workouts))
	}

	return writeOutput(w, o.format, res, func(w io.Writer) error {
		return writeResult(w, res)
	})
}

func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case "", "text":
		return text(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func writeResult(w io.Writer, res *planner.Result) error {
	fmt.Fprintln(w, res.Name)
	fmt.Fprintln(w, res.Description)
	fmt.Fprintf(w, "Start %s, event %s, %d weeks\n",
		res.StartDate.Format(models.DateLayout), res.EndDate.Format(models.DateLayout), res.Weeks)

	for _, s := range res.Summary {
		fmt.Fprintf(w, "\nWeek %d (%s): %g km, %d m climb, %d runs, long run %g km\n",
			s.WeekNumber, s.StartDate.Format(planner.WeekStartLayout), s.DistanceKm, s.ElevationGainM, s.Runs, s.LongRunKm)
		start := (s.WeekNumber - 1) * 7
		if err := writeDays(w, res.Workouts[start:start+7]); err != nil {
			return err
		}
	}
	return nil
}

func writeWorkouts(w io.Writer, name string, specs []plan.WorkoutSpec) error {
	fmt.Fprintln(w, name)
	for start := 0; start < len(specs); start += 7 {
		end := min(start+7, len(specs))
		fmt.Fprintf(w, "\nWeek %d (%s)\n", specs[start].WeekNumber, specs[start].Date.Format(planner.WeekStartLayout))
		if err := writeDays(w, specs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func writeDays(w io.Writer, specs []plan.WorkoutSpec) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range specs {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", s.Weekday.String()[:3], s.Type.Label(), km(s.DistanceKm), meters(s.ElevationGainM))
	}
	return tw.Flush()
}

func writePlanList(w io.Writer, format string, plans []localstore.SavedPlan) error {
	if plans == nil {
		plans = []localstore.SavedPlan{}
	}
	return writeOutput(w, format, plans, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSKILL\tDISTANCE\tDAYS\tWEEKS\tSTART")
		for _, p := range plans {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", p.Name, p.Params.Skill, km(p.Params.EventDistanceKm),
				p.Params.TrainingDaysPerWeek, p.Params.WeeksUntilEvent, p.Params.StartDate.Format(models.DateLayout))
		}
		return tw.Flush()
	})
}

func km(d float64) string {
	if d == 0 {
		return ""
	}
	return fmt.Sprintf("%g km", d)
}

func meters(m int) string {
	if m == 0 {
		return ""
	}
	return fmt.Sprintf("%d m", m)
}
