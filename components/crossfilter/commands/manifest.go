package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crossfilter/components/crossfilter"
)

// LoadManifestInput points at a YAML schema manifest.
type LoadManifestInput struct {
	Path string `json:"path"`
}

type manifestLoader interface {
	LoadManifestFile(path string) (*crossfilter.SchemaManifestDocument, error)
}

// LoadManifestCommand registers report and metric tables from a manifest.
type LoadManifestCommand struct {
	registry  manifestLoader
	telemetry Telemetry
}

// NewLoadManifestCommand wires dependencies.
func NewLoadManifestCommand(registry manifestLoader, telemetry Telemetry) *LoadManifestCommand {
	return &LoadManifestCommand{registry: registry, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadManifestInput] = (*LoadManifestCommand)(nil)

// Execute loads the manifest.
func (c *LoadManifestCommand) Execute(ctx context.Context, msg LoadManifestInput) error {
	if c.registry == nil {
		return errors.New("load manifest command requires schema registry")
	}
	if msg.Path == "" {
		return invalidInput("load manifest command requires path")
	}
	doc, err := c.registry.LoadManifestFile(msg.Path)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "crossfilter.command.load_manifest", map[string]any{
		"path":    msg.Path,
		"reports": len(doc.Reports),
		"metrics": len(doc.Metrics),
	})
	return nil
}
