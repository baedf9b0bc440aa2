package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/df07/go-probegrid/pkg/config"
	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/scene"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to a YAML run configuration")
	sceneRef := flag.String("scene", "", "Built-in scene id or path to a scene file (overrides the config)")
	scenesDir := flag.String("scenes", "scenes", "Directory searched for scene files by -list")
	list := flag.Bool("list", false, "List available scenes and exit")
	bake := flag.String("bake", "", "Light baking for the contrast pass: none, normal or simple")
	dbPath := flag.String("db", "", "SQLite database that receives committed probes")
	exportPath := flag.String("export", "", "Write committed probes to a .jsonl.zst file")
	workers := flag.Int("workers", -1, "Number of groups culled in parallel (0 = all CPUs)")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Probe Grid Generator")
		fmt.Println("Usage: probegrid [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Every probe group in the scene is generated, culled and committed to the")
		fmt.Println("configured store and export. Run with -list to see the available scenes.")
		return
	}

	if *list {
		if err := listScenes(os.Stdout, *scenesDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing scenes: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(*configPath, overrides{
		scene:   *sceneRef,
		bake:    *bake,
		db:      *dbPath,
		export:  *exportPath,
		workers: *workers,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	results, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}

	printSummary(os.Stdout, results)
	for _, result := range results {
		if result.Error != nil {
			os.Exit(1)
		}
	}
}

// overrides are command line values that replace the configuration file.
// Empty strings and negative workers leave the file value alone.
type overrides struct {
	scene   string
	bake    string
	db      string
	export  string
	workers int
}

// loadConfig reads the configuration file, if any, and applies the flag overrides
func loadConfig(path string, o overrides) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	if o.scene != "" {
		cfg.Scene = o.scene
	}
	if o.bake != "" {
		switch mode := config.BakeMode(o.bake); mode {
		case config.BakeNone, config.BakeNormal, config.BakeSimple:
			cfg.Bake.Mode = mode
		default:
			return config.Config{}, fmt.Errorf("%w: unknown bake mode %q", config.ErrInvalidConfig, o.bake)
		}
	}
	if o.db != "" {
		cfg.Store = o.db
	}
	if o.export != "" {
		cfg.Export = o.export
	}
	if o.workers >= 0 {
		cfg.Workers = o.workers
	}
	return cfg, nil
}

// run culls every group of the configured scene and commits the results
func run(ctx context.Context, cfg config.Config, logger *log.Logger) ([]group.Result, error) {
	startTime := time.Now()

	job, err := cfg.Prepare(ctx, logger)
	if err != nil {
		return nil, err
	}

	sinks, closeSinks, err := cfg.OpenSinks()
	if err != nil {
		return nil, err
	}

	results := job.Run(ctx, sinks)
	if err := closeSinks(); err != nil {
		return results, fmt.Errorf("closing sinks: %w", err)
	}

	logger.Printf("%d probes committed across %d groups in %v",
		group.CountAll(job.Groups), len(job.Groups), time.Since(startTime))
	return results, nil
}

func printSummary(w io.Writer, results []group.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tPLANNED\tREMOVED\tKEPT\tTIME\tSTATUS")
	for _, result := range results {
		status := "ok"
		if result.Error != nil {
			status = result.Error.Error()
		}
		r := result.Report
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%v\t%s\n",
			r.Group, r.Planned, r.Removed(), r.Remaining, r.Duration.Round(time.Millisecond), status)
	}
	tw.Flush()
}

func listScenes(w io.Writer, dir string) error {
	response, err := scene.ListAllScenes(dir)
	if err != nil {
		return err
	}
	for _, g := range response.Groups {
		fmt.Fprintf(w, "%s:\n", g.Name)
		for _, s := range g.Scenes {
			id := s.ID
			if s.Type == scene.TypeFile {
				id = s.FilePath
			}
			if s.Description != "" {
				fmt.Fprintf(w, "  %-20s %s\n", id, s.Description)
			} else {
				fmt.Fprintf(w, "  %s\n", id)
			}
		}
	}
	return nil
}
