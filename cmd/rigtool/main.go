// rigtool is a CLI utility for building spline-driven joint rigs from
// curve description files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/splinerig/internal/config"
	"github.com/Faultbox/splinerig/internal/logger"
	"github.com/Faultbox/splinerig/internal/rig"
	"github.com/Faultbox/splinerig/internal/scene"
	"github.com/Faultbox/splinerig/pkg/spline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		cmdBuild(args)
	case "sample":
		cmdSample(args)
	case "info":
		cmdInfo(args)
	case "init":
		cmdInit(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rigtool - spline rig builder

Usage:
  rigtool <command> [options]

Commands:
  build <curve.yaml>   Build the full rig for a curve description
  sample <curve.yaml>  Print arc-length samples along the curve
  info <curve.yaml>    Show curve information
  init [path]          Write a default config file

Examples:
  rigtool build spine.yaml -spans 7 -prefix spine
  rigtool sample tail.yaml -n 12
  rigtool info spine.yaml`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to config file")
	prefix := fs.String("prefix", "", "Node name prefix")
	spans := fs.Int("spans", 0, "Number of curve spans to sample")
	offset := fs.Float64("offset", 0, "Offset curve distance")
	debug := fs.Bool("debug", false, "Enable debug logging")
	logFile := fs.String("log", "", "Log file path")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rigtool build <curve.yaml> [options]")
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath, config.Overrides{
		Debug:          *debug,
		Prefix:         *prefix,
		SpanCount:      *spans,
		OffsetDistance: *offset,
		LogFile:        *logFile,
	})
	if err != nil {
		fatal(err)
	}

	lg, err := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	if err != nil {
		fatal(err)
	}
	defer lg.Sync()

	cf, err := config.LoadCurveFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	g := scene.NewGraph()
	curve, err := g.CreateCurveFromPoints(cf.Name, cf.Positions(), cf.Degree, cf.Closed)
	if err != nil {
		fatal(err)
	}

	opts := rig.Options{
		Prefix:          cfg.Rig.Prefix,
		SpanCount:       cfg.Rig.SpanCount,
		OffsetDistance:  cfg.Rig.OffsetDistance,
		OffsetTolerance: cfg.Rig.OffsetTolerance,
		StretchDefault:  cfg.Rig.StretchDefault,
		StretchMax:      cfg.Rig.StretchMax,
		AllowCompress:   cfg.Rig.AllowCompress,
	}
	b := rig.NewBuilder(g, opts, lg)

	// One transaction around all three stages, so a failed stage leaves
	// nothing behind but the input curve.
	tx, err := g.Begin()
	if err != nil {
		fatal(err)
	}
	r, err := buildStages(b, curve, opts)
	if err != nil {
		tx.Rollback()
		fatal(err)
	}
	tx.Commit()

	length, err := g.CurveArcLength(r.Chain.Curve)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Rig:          %s\n", opts.Prefix)
	fmt.Printf("Curve:        %s (%d CVs, length %.3f)\n", cf.Name, len(cf.Points), length)
	fmt.Printf("IK joints:    %d\n", len(r.IKJoints))
	fmt.Printf("Bind joints:  %d\n", len(r.BindJoints))
	fmt.Printf("FK controls:  %d\n", len(r.FKControls))
	fmt.Printf("IK anchors:   %d\n", len(r.IKAnchors))
	fmt.Printf("Scene nodes:  %d\n", g.NumLive())
}

func buildStages(b *rig.Builder, curve scene.CurveID, opts rig.Options) (*rig.Rig, error) {
	chain, err := b.SampleAndBuildChain(curve, opts.SpanCount, opts.Prefix)
	if err != nil {
		return nil, err
	}
	if _, err := b.BuildOffsetCurve(chain, opts.OffsetDistance, opts.OffsetTolerance); err != nil {
		return nil, err
	}
	return b.BuildRig(chain)
}

func cmdSample(args []string) {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	count := fs.Int("n", 6, "Number of samples")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rigtool sample <curve.yaml> [-n count]")
		os.Exit(1)
	}

	cf, err := config.LoadCurveFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	g := scene.NewGraph()
	curve, err := g.CreateCurveFromPoints(cf.Name, cf.Positions(), cf.Degree, cf.Closed)
	if err != nil {
		fatal(err)
	}

	samples, err := rig.SampleCurve(g, curve, *count)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("%-8s %-10s %-10s %-10s\n", "param", "x", "y", "z")
	for _, s := range samples {
		fmt.Printf("%-8.4f %-10.4f %-10.4f %-10.4f\n", s.Param, s.Position.X, s.Position.Y, s.Position.Z)
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rigtool info <curve.yaml>")
		os.Exit(1)
	}

	cf, err := config.LoadCurveFile(args[0])
	if err != nil {
		fatal(err)
	}

	c, err := spline.New(cf.Positions(), cf.Degree, cf.Closed)
	if err != nil {
		fatal(err)
	}
	table := c.ArcTable(spline.DefaultArcResolution)

	shape := "open"
	if cf.Closed {
		shape = "periodic"
	}
	fmt.Printf("Curve:   %s\n", cf.Name)
	fmt.Printf("Shape:   degree %d, %s\n", cf.Degree, shape)
	fmt.Printf("CVs:     %d\n", len(cf.Points))
	fmt.Printf("Length:  %.4f\n", table.Length())
}

func cmdInit(args []string) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	cfg := config.Default()
	var err error
	if path != "" {
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
		path = config.ConfigDir() + "/config.yaml"
	}
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote default config to %s\n", path)
}
