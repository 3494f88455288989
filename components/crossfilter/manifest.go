package crossfilter

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestVersion is the only supported schema manifest format.
const ManifestVersion = "1"

// SchemaManifestDocument describes report and metric column tables in YAML.
//
//	version: "1"
//	reports:
//	  - id: seat-expansion
//	    columns:
//	      - {id: customer, data_type: string}
//	      - {id: seats_added, data_type: number, is_number: true}
type SchemaManifestDocument struct {
	Version string           `json:"version" yaml:"version"`
	Name    string           `json:"name,omitempty" yaml:"name,omitempty"`
	Reports []ManifestSchema `json:"reports,omitempty" yaml:"reports,omitempty"`
	Metrics []ManifestSchema `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Source  string           `json:"-" yaml:"-"`
}

// ManifestSchema is one column table within a manifest.
type ManifestSchema struct {
	ID          string             `json:"id" yaml:"id"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Columns     []ColumnDefinition `json:"columns" yaml:"columns"`
}

// LoadManifestFile reads a manifest from disk and registers its tables.
func (r *SchemaRegistry) LoadManifestFile(path string) (*SchemaManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers every table in doc. Existing ids are replaced.
func (r *SchemaRegistry) LoadManifestDocument(doc *SchemaManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("crossfilter: manifest document is nil")
	}
	for _, report := range doc.Reports {
		if err := r.RegisterReport(report.ID, report.Columns); err != nil {
			return fmt.Errorf("crossfilter: register report %s from %s: %w", report.ID, doc.Source, err)
		}
	}
	for _, metric := range doc.Metrics {
		if err := r.RegisterMetric(metric.ID, metric.Columns); err != nil {
			return fmt.Errorf("crossfilter: register metric %s from %s: %w", metric.ID, doc.Source, err)
		}
	}
	return nil
}

// ReadManifest loads a manifest file without registering it.
func ReadManifest(path string) (*SchemaManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("crossfilter: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("crossfilter: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest validates the raw document against the manifest JSON
// Schema, then decodes it strictly.
func DecodeManifest(r io.Reader) (*SchemaManifestDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("crossfilter: read manifest: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("crossfilter: manifest is empty")
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("crossfilter: parse manifest: %w", err)
	}
	if err := manifestValidator.ValidateManifest(raw); err != nil {
		return nil, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var doc SchemaManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("crossfilter: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

var manifestValidator = NewJSONSchemaValidator()

// Validate ensures ids are present and unique within each section.
func (doc *SchemaManifestDocument) Validate() error {
	if doc.Version != ManifestVersion {
		return fmt.Errorf("crossfilter: unsupported manifest version %q", doc.Version)
	}
	if err := validateManifestSection("report", doc.Reports); err != nil {
		return err
	}
	return validateManifestSection("metric", doc.Metrics)
}

func validateManifestSection(kind string, tables []ManifestSchema) error {
	seen := make(map[string]struct{}, len(tables))
	for idx, table := range tables {
		if table.ID == "" {
			return fmt.Errorf("crossfilter: manifest %s at index %d is missing id", kind, idx)
		}
		if _, exists := seen[table.ID]; exists {
			return fmt.Errorf("crossfilter: manifest duplicates %s %s", kind, table.ID)
		}
		seen[table.ID] = struct{}{}
		if err := checkColumns(normalizeColumns(table.Columns)); err != nil {
			return fmt.Errorf("crossfilter: manifest %s %s: %w", kind, table.ID, err)
		}
	}
	return nil
}

func (doc *SchemaManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = ManifestVersion
	}
}

// EncodeManifest writes the registry's tables as a manifest document.
func (r *SchemaRegistry) EncodeManifest(w io.Writer, name string) error {
	doc := SchemaManifestDocument{Version: ManifestVersion, Name: name}
	for _, id := range r.Reports() {
		cols, _ := r.Lookup(id, true)
		doc.Reports = append(doc.Reports, ManifestSchema{ID: id, Columns: cols})
	}
	for _, id := range r.Metrics() {
		cols, _ := r.Lookup(id, false)
		doc.Metrics = append(doc.Metrics, ManifestSchema{ID: id, Columns: cols})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("crossfilter: encode manifest: %w", err)
	}
	return enc.Close()
}
