package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sakif/tasklist/internal/config"
	"github.com/sakif/tasklist/internal/model"
)

var exportedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleDoc() Document {
	return NewDocument([]model.Item{
		{ID: "b", Text: "Walk dog", CreatedAt: exportedAt.Add(-time.Minute), Completed: true},
		{ID: "a", Text: "Buy milk", CreatedAt: exportedAt.Add(-time.Hour)},
	}, exportedAt)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"csv", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{"", Target{Kind: KindStdout}, false},
		{"-", Target{Kind: KindStdout}, false},
		{"out/items.json", Target{Kind: KindFile, Path: "out/items.json"}, false},
		{"s3://backups/tasklist/items.yaml", Target{Kind: KindS3, Bucket: "backups", Key: "tasklist/items.yaml"}, false},
		{"s3://backups", Target{}, true},
		{"s3://backups/", Target{}, true},
		{"s3:///key", Target{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}

func TestNewDocument_NilItems(t *testing.T) {
	doc := NewDocument(nil, exportedAt)

	assert.NotNil(t, doc.Items)
	assert.Zero(t, doc.Count)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, FormatJSON))
	assert.Contains(t, buf.String(), `"items": []`)
}

func TestEncode_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleDoc(), FormatJSON))

	var got Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "b", got.Items[0].ID, "list order is preserved")
	assert.True(t, got.Items[0].Completed)
	assert.True(t, exportedAt.Equal(got.ExportedAt))
}

func TestEncode_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleDoc(), FormatYAML))

	assert.Contains(t, buf.String(), "count: 2")
	assert.Contains(t, buf.String(), "text: Buy milk")

	var got Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Walk dog", got.Items[0].Text)
	assert.True(t, exportedAt.Equal(got.ExportedAt))
}

func TestExport_Stdout(t *testing.T) {
	var out bytes.Buffer
	e := Exporter{Stdout: &out}

	require.NoError(t, e.Export(context.Background(), sampleDoc(), FormatJSON, Target{Kind: KindStdout}))

	assert.Contains(t, out.String(), `"Buy milk"`)
}

func TestExport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "items.yaml")
	target, err := ParseTarget(path)
	require.NoError(t, err)

	require.NoError(t, Exporter{}.Export(context.Background(), sampleDoc(), FormatYAML, target))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Walk dog")
}

func TestExport_S3WithoutClient(t *testing.T) {
	target, err := ParseTarget("s3://bucket/items.json")
	require.NoError(t, err)

	err = Exporter{}.Export(context.Background(), sampleDoc(), FormatJSON, target)
	assert.Error(t, err)
}

func TestExport_S3ClientError(t *testing.T) {
	target, err := ParseTarget("s3://bucket/items.json")
	require.NoError(t, err)
	e := Exporter{NewS3: func(context.Context) (ObjectPutter, error) {
		return nil, errors.New("no credentials")
	}}

	err = e.Export(context.Background(), sampleDoc(), FormatJSON, target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}

// fakeS3 is an http.RoundTripper that stores PUT bodies by URL path.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}, Request: req}, nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	f.objects[req.URL.Path] = body
	f.types[req.URL.Path] = req.Header.Get("Content-Type")

	h := http.Header{}
	h.Set("ETag", `"fake"`)
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: h, Request: req}, nil
}

// isolateAWSEnv keeps the host's AWS settings out of LoadDefaultConfig. A
// custom CA bundle in particular makes the SDK reject a plain *http.Client.
func isolateAWSEnv(t *testing.T) {
	t.Helper()
	none := filepath.Join(t.TempDir(), "none")
	t.Setenv("AWS_CA_BUNDLE", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", none)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", none)
}

func TestExport_S3Upload(t *testing.T) {
	isolateAWSEnv(t)
	assertS3Upload(t)
}

func TestExport_S3UploadIgnoresHostAWSSettings(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(bundle, []byte("not a certificate"), 0644))
	t.Setenv("AWS_CA_BUNDLE", bundle)
	t.Setenv("AWS_PROFILE", "some-host-profile")

	isolateAWSEnv(t)
	assertS3Upload(t)
}

func assertS3Upload(t *testing.T) {
	t.Helper()
	rt := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	cfg := config.S3{Region: "us-east-1", Endpoint: "http://s3.test.local", PathStyle: true}

	e := Exporter{NewS3: func(ctx context.Context) (ObjectPutter, error) {
		return NewS3Client(ctx, cfg,
			awsconfig.WithSharedConfigFiles([]string{}),
			awsconfig.WithSharedCredentialsFiles([]string{}),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIDTEST", "SECRET", "")),
			awsconfig.WithHTTPClient(&http.Client{Transport: rt}),
			awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
		)
	}}

	target, err := ParseTarget("s3://backups/tasklist/items.json")
	require.NoError(t, err)
	require.NoError(t, e.Export(context.Background(), sampleDoc(), FormatJSON, target))

	body, ok := rt.objects["/backups/tasklist/items.json"]
	require.True(t, ok, "path-style PUT expected, got %v", rt.objects)
	assert.Equal(t, "application/json", rt.types["/backups/tasklist/items.json"])

	var got Document
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 2, got.Count)
}
