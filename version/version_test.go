package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    SemVer
		wantErr bool
	}{
		{in: "2.3.4", want: SemVer{2, 3, 4}},
		{in: "0.0.0", want: SemVer{0, 0, 0}},
		{in: "10.99.1", want: SemVer{10, 99, 1}},
		{in: "2.3", wantErr: true},
		{in: "2.3.4.5", wantErr: true},
		{in: "v2.3.4", wantErr: true},
		{in: "2.-3.4", wantErr: true},
		{in: "2.+3.4", wantErr: true},
		{in: "2..4", wantErr: true},
		{in: "", wantErr: true},
		{in: "2.3.x", wantErr: true},
		{in: "99999999999999999999.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestExtract(t *testing.T) {
	t.Run("should read version placed first", func(t *testing.T) {
		p, err := Extract([]byte(`{"version": "2.3.4", "media": "Book"}`))
		require.NoError(t, err)
		assert.Equal(t, SemVer{2, 3, 4}, p.Version)
	})

	t.Run("should skip fields placed before version", func(t *testing.T) {
		raw := `{"media": "Book", "personas": [{"name": "x", "version": "9.9.9"}], "version": "1.0.2"}`
		p, err := Extract([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, SemVer{1, 0, 2}, p.Version)
	})

	t.Run("should tolerate malformed content after version", func(t *testing.T) {
		p, err := Extract([]byte(`{"version": "2.0.0", "media": "Book", "name": `))
		require.NoError(t, err)
		assert.Equal(t, 2, p.Version.Major)
	})

	t.Run("should copy the raw bytes", func(t *testing.T) {
		raw := []byte(`{"version": "2.0.0"}`)
		p, err := Extract(raw)
		require.NoError(t, err)
		raw[0] = 'X'
		assert.Equal(t, byte('{'), p.Raw[0])
	})

	failures := map[string]string{
		"missing field":          `{"media": "Book"}`,
		"empty object":           `{}`,
		"numeric version":        `{"version": 2}`,
		"object version":         `{"version": {"major": 2}}`,
		"null version":           `{"version": null}`,
		"not semver":             `{"version": "two"}`,
		"array payload":          `["version", "2.0.0"]`,
		"empty input":            ``,
		"malformed before field": `{"media": Book, "version": "2.0.0"}`,
	}
	for name, raw := range failures {
		t.Run("should reject "+name, func(t *testing.T) {
			_, err := Extract([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestSemVerText(t *testing.T) {
	b, err := json.Marshal(struct {
		V SemVer `json:"v"`
	}{SemVer{2, 3, 4}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"2.3.4"}`, string(b))

	var out struct {
		V SemVer `json:"v"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, SemVer{2, 3, 4}, out.V)

	assert.Error(t, json.Unmarshal([]byte(`{"v":"bad"}`), &out))
}
