// Package export writes a snapshot of the item list to stdout, a local file
// or an S3 object, as JSON or YAML.
//
// Destinations:
//
//	-  (or empty)          → stdout
//	backup/items.json      → local file, parent directory created
//	s3://bucket/key.yaml   → S3 PutObject (AWS S3 or an S3-compatible endpoint)
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/sakif/tasklist/internal/model"
)

// Format is the serialisation of an export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("export: unknown format %q (want json or yaml)", s)
}

// ContentType is sent as the S3 object's Content-Type.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Document is the top-level shape of an export file.
type Document struct {
	ExportedAt time.Time    `json:"exportedAt" yaml:"exportedAt"`
	Count      int          `json:"count" yaml:"count"`
	Items      []model.Item `json:"items" yaml:"items"`
}

// NewDocument wraps items, which must already be in list order.
func NewDocument(items []model.Item, now time.Time) Document {
	if items == nil {
		items = []model.Item{}
	}
	return Document{ExportedAt: now.UTC(), Count: len(items), Items: items}
}

// Encode writes doc to w in the given format.
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("export: unknown format %q", format)
}

// =========================================================================
// DESTINATIONS
// =========================================================================

// Kind says where a Target writes.
type Kind int

const (
	KindStdout Kind = iota
	KindFile
	KindS3
)

// Target is a parsed export destination.
type Target struct {
	Kind   Kind
	Path   string // KindFile
	Bucket string // KindS3
	Key    string // KindS3
}

// ParseTarget parses "-", a file path or an s3://bucket/key URL.
func ParseTarget(raw string) (Target, error) {
	if raw == "" || raw == "-" {
		return Target{Kind: KindStdout}, nil
	}
	if rest, ok := strings.CutPrefix(raw, "s3://"); ok {
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return Target{}, fmt.Errorf("export: %q must be s3://bucket/key", raw)
		}
		return Target{Kind: KindS3, Bucket: bucket, Key: key}, nil
	}
	return Target{Kind: KindFile, Path: raw}, nil
}

func (t Target) String() string {
	switch t.Kind {
	case KindFile:
		return t.Path
	case KindS3:
		return "s3://" + t.Bucket + "/" + t.Key
	}
	return "-"
}

// ObjectPutter is the one S3 call an export needs. *s3.Client implements it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Exporter writes documents to targets.
type Exporter struct {
	// Stdout receives KindStdout exports.
	Stdout io.Writer
	// NewS3 is called lazily, only for KindS3 targets, so file exports never
	// touch the AWS credential chain.
	NewS3 func(ctx context.Context) (ObjectPutter, error)
}

// Export encodes doc and writes it to target.
func (e Exporter) Export(ctx context.Context, doc Document, format Format, target Target) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, format); err != nil {
		return fmt.Errorf("export: encoding: %w", err)
	}

	switch target.Kind {
	case KindStdout:
		out := e.Stdout
		if out == nil {
			out = os.Stdout
		}
		_, err := buf.WriteTo(out)
		return err

	case KindFile:
		if dir := filepath.Dir(target.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("export: creating %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(target.Path, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("export: writing %s: %w", target.Path, err)
		}
		return nil

	case KindS3:
		if e.NewS3 == nil {
			return fmt.Errorf("export: no S3 client configured for %s", target)
		}
		client, err := e.NewS3(ctx)
		if err != nil {
			return fmt.Errorf("export: creating S3 client: %w", err)
		}
		contentType := format.ContentType()
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &target.Bucket,
			Key:         &target.Key,
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: &contentType,
		})
		if err != nil {
			return fmt.Errorf("export: uploading %s: %w", target, err)
		}
		return nil
	}
	return fmt.Errorf("export: unknown target kind %d", target.Kind)
}
