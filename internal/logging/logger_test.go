package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InfoHidesDebug(t *testing.T) {
	var out bytes.Buffer
	log, closer, err := New(afero.NewMemMapFs(), &out, Options{})
	require.NoError(t, err)
	defer closer.Close()

	log.Info("创建记录", "recordID", "1")
	log.V(1).Info("查找主域名")

	assert.Contains(t, out.String(), "创建记录")
	assert.Contains(t, out.String(), "recordID=1")
	assert.NotContains(t, out.String(), "查找主域名")
}

func TestNew_DebugShowsV1(t *testing.T) {
	var out bytes.Buffer
	log, closer, err := New(afero.NewMemMapFs(), &out, Options{Debug: true})
	require.NoError(t, err)
	defer closer.Close()

	log.V(1).Info("查找主域名", "candidates", []string{"a.example.com", "example.com"})

	assert.Contains(t, out.String(), "查找主域名")
}

func TestNew_FanoutToJSONFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	var out bytes.Buffer
	log, closer, err := New(fs, &out, Options{LogFile: "certbot.json"})
	require.NoError(t, err)

	log.WithName("records").Info("验证记录已删除", "recordID", "42")
	require.NoError(t, closer.Close())

	assert.Contains(t, out.String(), "验证记录已删除")

	data, err := afero.ReadFile(fs, "certbot.json")
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	require.NotEmpty(t, line)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "验证记录已删除", entry["msg"])
	assert.Equal(t, "42", entry["recordID"])
}
