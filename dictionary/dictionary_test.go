package dictionary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordgain/codec"
	"github.com/hupe1980/wordgain/word"
)

func TestReadText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    []Option
		want    []string
		wantErr bool
	}{
		{
			name:  "order kept",
			input: "crane\nslate\n\n# comment\n  Speed \n",
			want:  []string{"crane", "slate", "speed"},
		},
		{
			name:    "duplicate",
			input:   "crane\nslate\ncrane\n",
			wantErr: true,
		},
		{
			name:  "dedupe",
			input: "crane\nslate\nCRANE\n",
			opts:  []Option{WithDedupe()},
			want:  []string{"crane", "slate"},
		},
		{
			name:    "invalid",
			input:   "crane\ncranes\n",
			wantErr: true,
		},
		{
			name:  "skip invalid",
			input: "crane\ncranes\nsl4te\nslate\n",
			opts:  []Option{WithSkipInvalid()},
			want:  []string{"crane", "slate"},
		},
		{
			name:  "length",
			input: "cat\ndog\n",
			opts:  []Option{WithLength(3)},
			want:  []string{"cat", "dog"},
		},
		{
			name:    "empty",
			input:   "# nothing\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ReadText(strings.NewReader(tt.input), tt.opts...)
			if tt.wantErr {
				assert.ErrorIs(t, err, word.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Strings())
		})
	}
}

func TestReadJSON(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			d, err := ReadJSON(strings.NewReader(`["crane", "slate", "speed"]`), WithCodec(c))
			require.NoError(t, err)
			assert.Equal(t, []string{"crane", "slate", "speed"}, d.Strings())

			_, err = ReadJSON(strings.NewReader(`{"words": 1}`), WithCodec(c))
			assert.ErrorIs(t, err, word.ErrValidation)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "words.txt")
	js := filepath.Join(dir, "words.JSON")
	require.NoError(t, os.WriteFile(txt, []byte("crane\nslate\n"), 0o644))
	require.NoError(t, os.WriteFile(js, []byte(`["slate","crane"]`), 0o644))

	d, err := Load(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"crane", "slate"}, d.Strings())

	d, err = Load(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"slate", "crane"}, d.Strings())

	_, err = Load(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSample(t *testing.T) {
	d := Sample()
	assert.Greater(t, d.Len(), 300)
	assert.Equal(t, word.DefaultLength, d.WordLength())
	assert.Equal(t, word.Word("about"), d.At(0))
	for _, w := range []word.Word{"crane", "slate", "sassy", "geese", "eerie", "speed"} {
		assert.True(t, d.Contains(w), w)
	}
	assert.Equal(t, d.Fingerprint(), Sample().Fingerprint())
}
