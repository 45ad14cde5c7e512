package store

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/routestate/pkg/route"
)

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucketPrefix := aws.ToString(in.Bucket) + "/"
	var keys []string
	for k := range f.objects {
		if !strings.HasPrefix(k, bucketPrefix) {
			continue
		}
		key := strings.TrimPrefix(k, bucketPrefix)
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func sampleState(t *testing.T) *route.State {
	t.Helper()
	root := route.New("").
		Add(route.New("home")).
		Add(route.New("users").CapturePath().BooleanQueryParam(route.ParamOptions{VariableName: "flag"}))
	root.SetURL("/users/42?flag")
	return root.State()
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "snapshots"))
	require.NoError(t, err)

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"s3":     NewS3Store(newFakeS3(), "bucket", "routestate/"),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			state := sampleState(t)

			_, err := s.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, "b-snap", state))
			require.NoError(t, s.Save(ctx, "a-snap", state))

			loaded, err := s.Load(ctx, "b-snap")
			require.NoError(t, err)
			assert.True(t, loaded.Equal(state), "loaded state differs")

			names, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a-snap", "b-snap"}, names)

			// Overwrite.
			other := state.Clone()
			other.ActiveChild = nil
			require.NoError(t, s.Save(ctx, "b-snap", other))
			loaded, err = s.Load(ctx, "b-snap")
			require.NoError(t, err)
			assert.Nil(t, loaded.ActiveChild)

			require.NoError(t, s.Delete(ctx, "b-snap"))
			require.NoError(t, s.Delete(ctx, "b-snap"))
			_, err = s.Load(ctx, "b-snap")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, s.Save(ctx, "../escape", state), ErrInvalidName)
			_, err = s.Load(ctx, "")
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.Error(t, s.Save(ctx, "nil-state", nil))
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	state := sampleState(t)

	require.NoError(t, s.Save(ctx, "snap", state))
	state.Children["users"].QueryParams["flag"] = false

	loaded, err := s.Load(ctx, "snap")
	require.NoError(t, err)
	assert.Equal(t, true, loaded.Children["users"].QueryParams["flag"])
}

func TestFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "snap", sampleState(t)))
	_, err = os.Stat(filepath.Join(dir, "snap.json"))
	require.NoError(t, err)

	// Stray files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"snap"}, names)
}

func TestS3StoreKeys(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := NewS3Store(fake, "bucket", "prefix/")

	require.NoError(t, s.Save(ctx, "snap", sampleState(t)))
	_, ok := fake.objects["bucket/prefix/snap.json"]
	assert.True(t, ok, "object key should be prefix + name + .json")

	fake.objects["bucket/other/x.json"] = []byte("{}")
	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"snap"}, names)
}

func TestValidateName(t *testing.T) {
	valid := []string{"a", "snap-1", "2024.01.01_x", NewName()}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", ".hidden", "a/b", "a b", "..", "ü", strings.Repeat("x", 201)}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
}
