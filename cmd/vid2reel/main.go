package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/codegangsta/cli"
	"github.com/kevin-cantwell/neoreel"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	app := cli.NewApp()
	app.Version = "0.1.0"
	app.Name = "vid2reel"
	app.Usage = "Samples a video into a reel of 8x8 thumbnails."
	app.UsageText = "vid2reel [options] VIDEO"
	app.Author = "Kevin Cantwell"
	app.Email = "kevin.cantwell@gmail.com"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "dir,d",
			Usage: "`DIR` the reel is written to, as DIR/NAME.raw. Defaults to " + neoreel.DefaultDir + ".",
		},
		cli.IntFlag{
			Name:  "rate,r",
			Usage: "`RATE` the video is sampled at, in frames per second.",
		},
		cli.StringFlag{
			Name:  "config,c",
			Usage: "YAML `FILE` with dir and rate settings.",
		},
		cli.BoolFlag{
			Name:  "quiet,q",
			Usage: "Only report warnings and errors.",
		},
		cli.BoolFlag{
			Name:  "verbose,v",
			Usage: "Log every frame.",
		},
	}
	app.Action = func(c *cli.Context) error {
		logger := newLogger(c)

		input := c.Args().First()
		if input == "" {
			cli.ShowAppHelp(c)
			return errors.New("a video file is required")
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		out := neoreel.BufferPath(cfg.Dir, neoreel.OutputName(input))
		ex := neoreel.NewExtractor(cfg.Rate, logger)
		var bar *progressbar.ProgressBar
		if !c.Bool("quiet") {
			ex.OnProbe = func(info neoreel.VideoInfo) {
				bar = progressbar.NewOptions(expectedFrames(info, cfg.Rate),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("converting"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			ex.OnFrame = func(i int) {
				if i >= bar.GetMax() {
					bar.ChangeMax(i + 1)
				}
				bar.Add(1)
			}
		}

		// An interrupt cancels the extraction so the partial reel is removed.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		res, err := ex.Extract(ctx, input, out)
		if bar != nil {
			bar.Finish()
		}
		var openErr *neoreel.OpenError
		if errors.As(err, &openErr) {
			return fmt.Errorf("Could not open %s", input)
		}
		if err != nil {
			return err
		}

		p := message.NewPrinter(language.English)
		p.Printf("Converted %d frames to %s.\n", res.Frames, res.Output)
		return nil
	}
	if err := app.Run(os.Args); err != nil {
		exit(err.Error(), 1)
	}
}

func newLogger(c *cli.Context) *log.Logger {
	level := log.InfoLevel
	switch {
	case c.Bool("quiet"):
		level = log.WarnLevel
	case c.Bool("verbose"):
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  level,
		Prefix: "vid2reel",
	})
	log.SetDefault(logger)
	return logger
}

func loadConfig(c *cli.Context) (neoreel.Config, error) {
	cfg, err := neoreel.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("dir") {
		cfg.Dir = c.String("dir")
	}
	if c.IsSet("rate") {
		cfg.Rate = c.Int("rate")
	}
	return cfg, cfg.Validate()
}

// expectedFrames estimates how many frames resampling info to rate yields.
func expectedFrames(info neoreel.VideoInfo, rate int) int {
	if info.FPS <= 0 {
		return info.Frames
	}
	return int(math.Round(float64(info.Frames) * float64(rate) / info.FPS))
}

func exit(msg string, code int) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
