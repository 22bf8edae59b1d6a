package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bodgit/puyotools"
	"github.com/bodgit/puyotools/archive"
	"github.com/bodgit/puyotools/archive/one"
	"github.com/bodgit/puyotools/catalog"
	"github.com/bodgit/puyotools/compression"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const defaultDB = "puyotools.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// The codec flag only applies to formats that compress their entries
func writableFormat(name, codec string) (archive.Format, error) {
	f, err := puyotools.LookupFormat(name)
	if err != nil {
		return nil, err
	}

	c, err := compression.Lookup(codec)
	if err != nil {
		return nil, err
	}

	if _, ok := f.(one.Format); ok {
		return one.Format{Options: []one.Option{one.WithCodec(c)}}, nil
	}

	return f, nil
}

type listedEntry struct {
	Name   string `yaml:"name"`
	Offset int64  `yaml:"offset"`
	Length int64  `yaml:"length"`
	Size   int64  `yaml:"size"`
}

type listing struct {
	File    string        `yaml:"file"`
	Format  string        `yaml:"format"`
	Entries []listedEntry `yaml:"entries"`
}

func list(c *cli.Context) error {
	p := puyotools.New(newLogger(c))

	var listings []listing
	for _, file := range c.Args().Slice() {
		f, entries, err := p.List(file)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("%s: %w", file, err), 1)
		}

		l := listing{
			File:    file,
			Format:  f.Name(),
			Entries: make([]listedEntry, 0, len(entries)),
		}
		for _, e := range entries {
			l.Entries = append(l.Entries, listedEntry{e.Name, e.Offset, e.Length, e.Size})
		}
		listings = append(listings, l)
	}

	if c.Bool("yaml") {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		for _, l := range listings {
			if err := enc.Encode(l); err != nil {
				return cli.NewExitError(err, 1)
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	for _, l := range listings {
		fmt.Fprintf(tw, "%s (%s, %d entries)\n", l.File, l.Format, len(l.Entries))
		for _, e := range l.Entries {
			fmt.Fprintf(tw, "0x%08x\t%d\t%d\t%s\n", e.Offset, e.Length, e.Size, e.Name)
		}
	}

	return nil
}

func texture(c *cli.Context) error {
	f, err := puyotools.ParsePixelFormat(c.String("format"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	in, out := c.Args().Get(0), c.Args().Get(1)

	if c.Bool("encode") {
		r, err := os.Open(in)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer r.Close()

		m, _, err := image.Decode(r)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		b, err := puyotools.EncodeTexture(f, m)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		if err := ioutil.WriteFile(out, b, 0o644); err != nil {
			return cli.NewExitError(err, 1)
		}

		return nil
	}

	b, err := ioutil.ReadFile(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	m, err := puyotools.DecodeTexture(f, c.Int("width"), c.Int("height"), b)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	w, err := os.Create(out)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer w.Close()

	if c.Bool("gif") {
		err = puyotools.WriteGIF(w, m)
	} else {
		err = png.Encode(w, m)
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "puyotools"
	app.Usage = "Sega game archive and texture utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PUYOTOOLS_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "list",
			Usage:       "List the entries of archives",
			Description: "",
			ArgsUsage:   "FILE...",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "yaml",
					Usage: "print each listing as a YAML document",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				return list(c)
			},
		},
		{
			Name:        "extract",
			Usage:       "Extract the entries of archives",
			Description: "Each archive is extracted into a directory named after it.",
			ArgsUsage:   "FILE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Value:   ".",
					Usage:   "directory to extract into",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p := puyotools.New(newLogger(c))

				if err := p.Extract(c.String("out"), c.Args().Slice()...); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "create",
			Usage:       "Create an archive from files",
			Description: "",
			ArgsUsage:   "OUTPUT FILE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "one",
					Usage:   "archive format",
				},
				&cli.StringFlag{
					Name:    "compression",
					Aliases: []string{"c"},
					EnvVars: []string{"PUYOTOOLS_COMPRESSION"},
					Value:   compression.PRS.Name(),
					Usage:   "entry compression, one of " + strings.Join(compression.Names(), ", "),
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := writableFormat(c.String("format"), c.String("compression"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				p := puyotools.New(newLogger(c))

				args := c.Args().Slice()
				if err := p.Create(args[0], f, args[1:]...); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "texture",
			Usage:       "Convert between raw texture data and images",
			Description: "Raw pixel data is converted to PNG, or GIF with --gif. With --encode an image is converted to raw pixel data.",
			ArgsUsage:   "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "format",
					Aliases:  []string{"f"},
					Required: true,
					Usage:    "pixel format, e.g. gvr-rgb5a3, or a header code such as gvr:2",
				},
				&cli.IntFlag{
					Name:  "width",
					Usage: "texture width in pixels",
				},
				&cli.IntFlag{
					Name:  "height",
					Usage: "texture height in pixels",
				},
				&cli.BoolFlag{
					Name:  "gif",
					Usage: "write a GIF preview instead of a PNG",
				},
				&cli.BoolFlag{
					Name:  "encode",
					Usage: "convert an image to raw pixel data",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				return texture(c)
			},
		},
		{
			Name:        "index",
			Usage:       "Scan filesystem and record archive entries",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				db, err := catalog.New(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				p := puyotools.New(newLogger(c))

				if err := p.Index(context.Background(), db, c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "find",
			Usage:       "Find archive entries by checksum",
			Description: "",
			ArgsUsage:   "CHECKSUM",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				sum, err := strconv.ParseUint(c.Args().First(), 16, 64)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				db, err := catalog.New(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				locations, err := db.FindByChecksum(sum)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, l := range locations {
					fmt.Printf("%s\t%s\t%s\t0x%08x\n", l.Path, l.Format, l.Name, l.Offset)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
