package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullGemData() map[string]string {
	gem := make(map[string]string)
	for _, f := range Fields() {
		gem[f.Key] = "some value"
	}
	return gem
}

func TestFields(t *testing.T) {
	t.Parallel()

	fields := Fields()
	require.Len(t, fields, 10)
	assert.Equal(t, "GEMhospital", fields[0].Key)
	assert.Equal(t, "hospital", fields[0].ReplyKey)

	last := fields[len(fields)-1]
	assert.Equal(t, "GEMtransportDesc", last.Key)
	assert.Equal(t, "N/A", last.Default)
}

func TestNeedsEnrichment(t *testing.T) {
	t.Parallel()

	assert.True(t, NeedsEnrichment(nil))
	assert.True(t, NeedsEnrichment(map[string]string{}))
	assert.False(t, NeedsEnrichment(fullGemData()))

	missing := fullGemData()
	delete(missing, "GEMsunriseTime")
	assert.True(t, NeedsEnrichment(missing))

	// Blank after trimming counts as missing.
	blank := fullGemData()
	blank["GEMweatherDesc"] = "   "
	assert.True(t, NeedsEnrichment(blank))
}
