package providers

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	media_archiver "github.com/alanbriolat/media-archiver"
)

func TestDefaultRegistry(t *testing.T) {
	assert := assert_.New(t)

	names := media_archiver.DefaultProviderRegistry.List()
	for _, name := range []string{"soundcloud", "soundcloud:set", "soundcloud:user", "zdf"} {
		assert.Contains(names, name)
	}
}

func TestDefaultRegistryClassification(t *testing.T) {
	assert := assert_.New(t)

	cases := []struct {
		input    string
		provider string
	}{
		{"https://soundcloud.com/alice/my-song", "soundcloud"},
		{"http://api.soundcloud.com/tracks/62986583", "soundcloud"},
		{"https://soundcloud.com/alice/sets/my-ep", "soundcloud:set"},
		{"https://soundcloud.com/alice", "soundcloud:user"},
		{"http://www.zdf.de/ZDFmediathek/beitrag/video/2037704/x", "zdf"},
	}
	for _, c := range cases {
		match, err := media_archiver.DefaultProviderRegistry.Match(c.input)
		assert.NoError(err, c.input)
		assert.Equal(c.provider, match.ProviderName, c.input)
	}

	_, err := media_archiver.DefaultProviderRegistry.Match("https://example.com/video/1")
	assert.ErrorIs(err, media_archiver.ErrNoMatch)
}
