package main

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-crossfilter/components/crossfilter"
	"github.com/goliatone/go-crossfilter/pkg/logger"
)

type cli struct {
	Globals

	Schema  schemaCmd  `cmd:"" help:"Inspect, validate and scaffold column schemas."`
	Analyze analyzeCmd `cmd:"" help:"Analyze a rows file against a report or metric schema."`
}

// Globals are shared by every subcommand.
type Globals struct {
	LogLevel string   `name:"log-level" default:"warn" env:"CROSSFILTER_LOG_LEVEL" help:"Log level (debug, info, warn, error)."`
	LogJSON  bool     `name:"log-json" env:"CROSSFILTER_LOG_JSON" help:"Emit JSON log lines."`
	Manifest []string `type:"existingfile" env:"CROSSFILTER_MANIFEST" help:"Schema manifest(s) to register on top of the built-in tables."`

	Stdout io.Writer      `kong:"-"`
	Logger *logrus.Logger `kong:"-"`
}

func main() {
	c := &cli{}
	kctx := kong.Parse(c,
		kong.Name("crossfilterctl"),
		kong.Description("Column analysis and schema tooling for go-crossfilter."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.Bind(&c.Globals),
	)
	c.Globals.Stdout = os.Stdout
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}

func (g *Globals) logger() (*logrus.Logger, error) {
	if g.Logger != nil {
		return g.Logger, nil
	}
	log, err := logger.New(logger.Config{Level: g.LogLevel, JSON: g.LogJSON})
	if err != nil {
		return nil, err
	}
	g.Logger = log
	return log, nil
}

func (g *Globals) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// registry builds the built-in registry plus every --manifest.
func (g *Globals) registry() (*crossfilter.SchemaRegistry, error) {
	log, err := g.logger()
	if err != nil {
		return nil, err
	}
	registry := crossfilter.NewSchemaRegistry()
	for _, path := range g.Manifest {
		doc, err := registry.LoadManifestFile(path)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"manifest": path,
			"reports":  len(doc.Reports),
			"metrics":  len(doc.Metrics),
		}).Debug("crossfilterctl: manifest loaded")
	}
	return registry, nil
}

// emit writes data to path atomically, or to stdout when path is empty.
func (g *Globals) emit(path string, data []byte) error {
	if path == "" {
		_, err := g.out().Write(data)
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
