package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkerRoundTrip(t *testing.T) {
	body := "**High** some finding\n\nexplanation text\n\n" + BuildMarker("0a1b2c3d")
	assert.Equal(t, "0a1b2c3d", ExtractHash(body))
}

func TestExtractHashToleratesWhitespace(t *testing.T) {
	assert.Equal(t, "cafe0001", ExtractHash(`prefix <!--  ai-review:  {"hash":"cafe0001"}  --> suffix`))
}

func TestExtractHashMissingOrMalformed(t *testing.T) {
	assert.Empty(t, ExtractHash("just a human reply"))
	assert.Empty(t, ExtractHash("<!-- ai-review: not-json -->"))
	assert.Empty(t, ExtractHash(`<!-- other-tool: {"hash":"cafe0001"} -->`))
}

func TestExtractHashFirstMarkerWins(t *testing.T) {
	body := BuildMarker("00000001") + "\n" + BuildMarker("00000002")
	assert.Equal(t, "00000001", ExtractHash(body))
}
