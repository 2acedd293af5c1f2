package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codegangsta/cli"
	"github.com/kevin-cantwell/neoreel"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	app := cli.NewApp()
	app.Version = "0.1.0"
	app.Name = "reelview"
	app.Usage = "Plays a reel of 8x8 thumbnails in the terminal."
	app.UsageText = "reelview [options] NAME"
	app.Author = "Kevin Cantwell"
	app.Email = "kevin.cantwell@gmail.com"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "dir,d",
			Usage: "`DIR` the reel is read from, as DIR/NAME.raw. Defaults to " + neoreel.DefaultDir + ".",
		},
		cli.IntFlag{
			Name:  "rate,r",
			Usage: "`RATE` the reel is played at, in frames per second.",
		},
		cli.StringFlag{
			Name:  "config,c",
			Usage: "YAML `FILE` with dir and rate settings.",
		},
		cli.IntFlag{
			Name:  "scale,s",
			Usage: "`SCALE` = 2 draws every pixel twice as large. Fits the terminal by default.",
		},
		cli.BoolFlag{
			Name:  "mono,m",
			Usage: "Draws frames with monochrome braille symbols for terminals without true color.",
		},
		cli.BoolFlag{
			Name:  "invert,i",
			Usage: "Inverts monochrome frames.",
		},
		cli.StringFlag{
			Name:  "export,e",
			Usage: "Writes the reel to `FILE` instead of playing it: .gif animates, .png, .jpg and .bmp lay frames out on a sheet.",
		},
		cli.BoolFlag{
			Name:  "info",
			Usage: "Prints the frame count and the brightness of every frame.",
		},
		cli.BoolFlag{
			Name:  "verbose,v",
			Usage: "Log debug output.",
		},
	}
	app.Action = func(c *cli.Context) error {
		logger := newLogger(c)

		name := c.Args().First()
		if name == "" {
			cli.ShowAppHelp(c)
			return errors.New("a reel name is required")
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		reel, err := neoreel.OpenBuffer(neoreel.BufferPath(cfg.Dir, name))
		if err != nil {
			return err
		}
		defer reel.Close()
		logger.Debug("opened", "path", reel.Path(), "frames", reel.Len())

		switch {
		case c.Bool("info"):
			printInfo(reel, cfg.Rate)
			return nil
		case c.IsSet("export"):
			return export(c, reel, cfg.Rate)
		}

		term := &neoreel.Xterm{Writer: os.Stdout}
		var renderer neoreel.Renderer
		if c.Bool("mono") {
			var opts []neoreel.BrailleOpt
			if c.Bool("invert") {
				opts = append(opts, neoreel.WithInvertedColors())
			}
			renderer = neoreel.NewBrailleRenderer(scalar(c, term, 2, 4), opts...)
		} else {
			renderer = neoreel.NewColorRenderer(scalar(c, term, 1, 2))
		}

		player := neoreel.NewPlayer(os.Stdout, renderer, term, cfg.Rate)
		if keys, restore, err := neoreel.Keyboard(int(os.Stdin.Fd())); err == nil {
			defer restore()
			player.Keys = keys
		} else {
			logger.Debug("keyboard disabled", "err", err)
		}

		n, err := player.Play(reel)
		if err != nil {
			return err
		}
		logger.Debug("played", "frames", n)
		return nil
	}
	if err := app.Run(os.Args); err != nil {
		exit(err.Error(), 1)
	}
}

func newLogger(c *cli.Context) *log.Logger {
	level := log.WarnLevel
	if c.Bool("verbose") {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  level,
		Prefix: "reelview",
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

// scalar picks the largest integer scale at which a frame fits the
// terminal. A character cell holds dx by dy pixels.
func scalar(c *cli.Context, term neoreel.Terminal, dx, dy int) int {
	if c.IsSet("scale") {
		if s := c.Int("scale"); s > 0 {
			return s
		}
	}
	cols, lines, err := term.Size()
	if err != nil || cols <= 0 || lines <= 1 {
		cols, lines = 80, 25 // Small, but a pretty standard default
	}
	// Leave the last line free for the prompt.
	scaleX, scaleY := cols*dx/neoreel.Size, (lines-1)*dy/neoreel.Size
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	if scale < 1 {
		return 1
	}
	return scale
}

func printInfo(reel *neoreel.BufferReader, rate int) {
	p := message.NewPrinter(language.English)
	duration := time.Duration(reel.Len()) * time.Second / time.Duration(rate)
	p.Printf("%s: %d frames, %v at %d fps\n", reel.Path(), reel.Len(), duration, rate)
	for i := 0; i < reel.Len(); i++ {
		p.Printf("%6d  %.3f\n", i, reel.Frame(i).Brightness())
	}
}

func export(c *cli.Context, reel *neoreel.BufferReader, rate int) error {
	path := c.String("export")
	scale := c.Int("scale")
	if scale < 1 {
		scale = 8
	}

	var format neoreel.SheetFormat
	animate := strings.EqualFold(filepath.Ext(path), ".gif")
	if !animate {
		var err error
		if format, err = neoreel.SheetFormatFromFilename(path); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if animate {
		err = neoreel.EncodeGIF(f, reel, rate, scale)
	} else {
		err = neoreel.EncodeSheet(f, reel, scale, format)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("export %s: %w", path, err)
	}
	log.Info("exported", "path", path, "frames", reel.Len())
	return nil
}

func exit(msg string, code int) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
