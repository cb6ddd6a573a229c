package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGPAD = "!gpad-version: 2.0\nWB:WBGene00001189\t\tRO:0002327\tGO:0003674\tPMID:1\tECO:0000314\t\t\t2020-09-17\tWB\t\t\n"

// objectRoundTripper serves GetObject requests for a path-style bucket from memory.
type objectRoundTripper struct {
	objects map[string][]byte
}

func (m *objectRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	path := strings.TrimPrefix(req.URL.Path, "/")
	body, ok := m.objects[path]
	if req.Method != http.MethodGet || !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     http.Header{},
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header: http.Header{
			"Content-Length": {strconv.Itoa(len(body))},
			"Content-Type":   {"text/plain"},
		},
	}, nil
}

func mockOpener(t *testing.T, objects map[string][]byte) *Opener {
	t.Helper()
	awsConfig, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: &objectRoundTripper{objects: objects}}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return NewOpenerWithClient(client)
}

func gzipped(t *testing.T, content string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	_, err := writer.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func readAll(t *testing.T, reader io.ReadCloser) string {
	t.Helper()
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return string(data)
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "wb.gpad")
	require.NoError(t, os.WriteFile(plain, []byte(sampleGPAD), 0o644))
	compressed := filepath.Join(dir, "wb.gpad.gz")
	require.NoError(t, os.WriteFile(compressed, gzipped(t, sampleGPAD), 0o644))

	opener := NewOpener(S3Config{})

	reader, err := opener.Open(context.Background(), plain)
	require.NoError(t, err)
	assert.Equal(t, sampleGPAD, readAll(t, reader))

	reader, err = opener.Open(context.Background(), "file://"+compressed)
	require.NoError(t, err)
	assert.Equal(t, sampleGPAD, readAll(t, reader))

	_, err = opener.Open(context.Background(), filepath.Join(dir, "missing.gpad"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenCorruptGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.gaf.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	_, err := NewOpener(S3Config{}).Open(context.Background(), path)
	assert.Error(t, err)
}

func TestOpenS3(t *testing.T) {
	opener := mockOpener(t, map[string][]byte{
		"annotations/wb.gpad":    []byte(sampleGPAD),
		"annotations/wb.gpad.gz": gzipped(t, sampleGPAD),
	})

	reader, err := opener.Open(context.Background(), "s3://annotations/wb.gpad")
	require.NoError(t, err)
	assert.Equal(t, sampleGPAD, readAll(t, reader))

	reader, err = opener.Open(context.Background(), "s3://annotations/wb.gpad.gz")
	require.NoError(t, err)
	assert.Equal(t, sampleGPAD, readAll(t, reader))

	_, err = opener.Open(context.Background(), "s3://annotations/missing.gpad")
	assert.Error(t, err)
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://go-annotations/releases/2024/mgi.gpad.gz")
	require.NoError(t, err)
	assert.Equal(t, "go-annotations", bucket)
	assert.Equal(t, "releases/2024/mgi.gpad.gz", key)

	for _, bad := range []string{"s3://bucket", "s3://bucket/", "s3:///key", "http://bucket/key"} {
		_, _, err := ParseS3URI(bad)
		assert.ErrorIs(t, err, ErrInvalidURI, bad)
	}
}

func TestS3ConfigFromEnv(t *testing.T) {
	t.Setenv("ASSOCKIT_S3_REGION", "eu-west-1")
	t.Setenv("ASSOCKIT_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("ASSOCKIT_S3_PATH_STYLE", "TRUE")

	assert.Equal(t, S3Config{Region: "eu-west-1", Endpoint: "http://localhost:9000", PathStyle: true}, S3ConfigFromEnv())
}
