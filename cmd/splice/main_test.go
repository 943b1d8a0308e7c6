package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/splice/api/v1alpha1"
	"github.com/jbweber/splice/internal/composite"
	"github.com/jbweber/splice/internal/concat"
	"github.com/jbweber/splice/internal/config"
	"github.com/jbweber/splice/internal/descriptor"
)

const groupsYAML = `
apiVersion: splice.cofront.xyz/v1alpha1
kind: ConcatGroup
metadata:
  name: pair
spec:
  devices: [data/a, data/b]
---
apiVersion: splice.cofront.xyz/v1alpha1
kind: ConcatGroup
metadata:
  name: trio
spec:
  devices: [data/c, data/d, data/e]
---
apiVersion: splice.cofront.xyz/v1alpha1
kind: ConcatGroup
metadata:
  name: single
spec:
  devices: [data/f]
---
apiVersion: splice.cofront.xyz/v1alpha1
kind: ConcatGroup
metadata:
  name: parked
spec:
  devices: [data/g, data/h]
  disabled: true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, format string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Output = format
	require.NoError(t, cfg.Validate())
	return cfg
}

func decodeGroups(t *testing.T, data []byte) map[string]v1alpha1.ConcatGroup {
	t.Helper()
	var groups []v1alpha1.ConcatGroup
	require.NoError(t, json.Unmarshal(data, &groups))

	out := make(map[string]v1alpha1.ConcatGroup, len(groups))
	for _, g := range groups {
		out[g.Name] = g
	}
	return out
}

func TestRunAssemble_Offline(t *testing.T) {
	path := writeFile(t, "groups.yaml", groupsYAML)
	cfg := testConfig(t, config.OutputJSON)

	opts := assembleOptions{
		groupsPath: path,
		devices:    []string{"data/b", "data/c", "data/x", "data/a", "data/d", "data/g"},
		deviceSize: 4096,
	}

	var out bytes.Buffer
	err := runAssemble(context.Background(), cfg, opts, slog.New(slog.DiscardHandler), &out)
	require.NoError(t, err)

	groups := decodeGroups(t, out.Bytes())
	require.Len(t, groups, 4)

	pair := groups["pair"]
	assert.Equal(t, v1alpha1.GroupPhasePublished, pair.Status.Phase)
	assert.Equal(t, "a-b-concat", pair.Status.VolumeName)
	assert.Equal(t, 2, pair.Status.Matched)

	trio := groups["trio"]
	assert.Equal(t, v1alpha1.GroupPhasePending, trio.Status.Phase)
	assert.Equal(t, 2, trio.Status.Matched)
	assert.Equal(t, []string{"data/e"}, trio.Status.Missing)

	assert.Empty(t, groups["single"].Status.Phase, "short groups are not tracked")
	assert.Empty(t, groups["parked"].Status.Phase, "disabled groups are not tracked")
}

func TestRunAssemble_ShuffleIsOrderIndependent(t *testing.T) {
	path := writeFile(t, "groups.yaml", groupsYAML)
	cfg := testConfig(t, config.OutputJSON)

	for _, seed := range []uint64{1, 2, 3, 42} {
		opts := assembleOptions{
			groupsPath: path,
			devices:    []string{"data/a", "data/b", "data/c", "data/d", "data/e"},
			deviceSize: 4096,
			shuffle:    true,
			seed:       seed,
		}

		var out bytes.Buffer
		require.NoError(t, runAssemble(context.Background(), cfg, opts, slog.New(slog.DiscardHandler), &out))

		groups := decodeGroups(t, out.Bytes())
		assert.Equal(t, "a-b-concat", groups["pair"].Status.VolumeName, "seed %d", seed)
		assert.Equal(t, "c-d-+-concat", groups["trio"].Status.VolumeName, "seed %d", seed)
	}
}

func TestRunAssemble_Errors(t *testing.T) {
	path := writeFile(t, "groups.yaml", groupsYAML)

	tests := []struct {
		name    string
		opts    assembleOptions
		wantErr string
	}{
		{
			name:    "missing groups file",
			opts:    assembleOptions{groupsPath: filepath.Join(t.TempDir(), "nope.yaml"), devices: []string{"data/a"}},
			wantErr: "failed to load groups",
		},
		{
			name:    "bad device identifier",
			opts:    assembleOptions{groupsPath: path, devices: []string{"no-pool"}},
			wantErr: "failed to collect devices",
		},
		{
			name:    "no device source",
			opts:    assembleOptions{groupsPath: path},
			wantErr: "no devices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, config.OutputTable)
			var out bytes.Buffer
			err := runAssemble(context.Background(), cfg, tt.opts, slog.New(slog.DiscardHandler), &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunAssemble_ZeroSizedDevicesAreAbandoned(t *testing.T) {
	path := writeFile(t, "groups.yaml", groupsYAML)
	cfg := testConfig(t, config.OutputJSON)

	opts := assembleOptions{
		groupsPath: path,
		devices:    []string{"data/a", "data/b"},
		deviceSize: 0,
	}

	var out bytes.Buffer
	err := runAssemble(context.Background(), cfg, opts, slog.New(slog.DiscardHandler), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assembly finished with errors")

	groups := decodeGroups(t, out.Bytes())
	assert.Equal(t, v1alpha1.GroupPhaseAbandoned, groups["pair"].Status.Phase)
}

func TestRunValidate(t *testing.T) {
	path := writeFile(t, "groups.yaml", groupsYAML)

	var out bytes.Buffer
	require.NoError(t, runValidate(testConfig(t, config.OutputTable), path, &out))

	got := out.String()
	assert.Contains(t, got, "NAME")
	assert.Contains(t, got, "pair")
	assert.Contains(t, got, "Disabled")
	assert.Contains(t, got, "4 groups, 2 assemblable")
}

func TestRunValidate_SharedDevice(t *testing.T) {
	path := writeFile(t, "groups.yaml", `
apiVersion: splice.cofront.xyz/v1alpha1
kind: ConcatGroup
metadata:
  name: one
spec:
  devices: [data/a, data/b]
---
apiVersion: splice.cofront.xyz/v1alpha1
kind: ConcatGroup
metadata:
  name: two
spec:
  devices: [data/b, data/c]
`)

	var out bytes.Buffer
	err := runValidate(testConfig(t, config.OutputTable), path, &out)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestRunName(t *testing.T) {
	tests := []struct {
		name    string
		members []string
		want    string
		wantErr bool
	}{
		{name: "two members", members: []string{"alpha", "beta"}, want: "alpha-beta-concat"},
		{name: "many members", members: []string{"alpha", "beta", "gamma"}, want: "alpha-beta-+-concat"},
		{name: "device identifiers", members: []string{"data/alpha", "data/beta"}, want: "alpha-beta-concat"},
		{name: "one member", members: []string{"alpha"}, wantErr: true},
		{name: "bad identifier", members: []string{"data/", "beta"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runName(tt.members, &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out.String())
		})
	}
}

type sizedDevice struct {
	name string
	size uint64
}

func (d *sizedDevice) Name() string      { return d.name }
func (d *sizedDevice) Parent() string    { return "data" }
func (d *sizedDevice) Release() error    { return nil }
func (d *sizedDevice) Size() uint64      { return d.size }
func (d *sizedDevice) EraseSize() uint32 { return 0 }

func TestRunInspect(t *testing.T) {
	vol, err := composite.NewBuilder().Create(context.Background(),
		[]concat.Device{&sizedDevice{"a", 1024}, &sizedDevice{"b", 2048}}, 2, "a-b-concat")
	require.NoError(t, err)

	data, err := descriptor.GenerateISO(descriptor.FromVolume(vol))
	require.NoError(t, err)
	path := writeFile(t, "a-b-concat.iso", string(data))

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runInspect(testConfig(t, config.OutputTable), path, &out))
		got := out.String()
		assert.Contains(t, got, "Name:    a-b-concat")
		assert.Contains(t, got, "Size:    3072")
		assert.Contains(t, got, "MEMBER")
		assert.True(t, strings.Contains(got, "b") && strings.Contains(got, "1024"))
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runInspect(testConfig(t, config.OutputJSON), path, &out))

		var l descriptor.Layout
		require.NoError(t, json.Unmarshal(out.Bytes(), &l))
		assert.Equal(t, []string{"a", "b"}, l.Members())
		assert.Equal(t, uint64(1024), l.Spans[1].Offset)
	})
}

func TestRunInspect_NotAnImage(t *testing.T) {
	path := writeFile(t, "raw.img", "just some bytes")
	err := runInspect(testConfig(t, config.OutputTable), path, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an ISO image")
}
