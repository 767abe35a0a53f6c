package ingestion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage/badger"
)

// relevantSample reads like the technical documentation the pipeline is
// built for: English, clean text, dense with drive keywords.
const relevantSample = `The variable frequency drive controls motor speed by
adjusting the output frequency of the inverter stage. Before commissioning,
verify that the motor nameplate data matches the drive configuration. The
torque limit protects the mechanical load from overload conditions, and the
servo loop gains are tuned for the inertia of the machine.`

func newTestValidator(t *testing.T, opts ...ValidatorOption) *Validator {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	v, err := NewValidator(stores.Validation, opts...)
	require.NoError(t, err)
	return v
}

func TestValidateAcceptsRelevantEnglish(t *testing.T) {
	v := newTestValidator(t)

	verdict, err := v.Validate(context.Background(), core.IDFromContent(relevantSample), relevantSample)
	require.NoError(t, err)

	assert.True(t, verdict.Accept)
	assert.GreaterOrEqual(t, verdict.Score, 60.0)
	assert.Equal(t, "drives", verdict.Subject)
	assert.Equal(t, "en", verdict.Language)
	assert.Empty(t, verdict.Reason)
}

func TestValidateRejectsGarbage(t *testing.T) {
	v := newTestValidator(t)

	// PUA runes and replacement characters, the signature of a botched
	// PDF text layer.
	garbage := strings.Repeat("� ", 200)
	verdict, err := v.Validate(context.Background(), core.IDFromContent(garbage), garbage)
	require.NoError(t, err)

	assert.False(t, verdict.Accept)
	assert.Less(t, verdict.Score, 60.0)
	assert.Equal(t, "score below threshold", verdict.Reason)
}

func TestValidateRejectsWrongLanguage(t *testing.T) {
	v := newTestValidator(t)

	german := `Der Frequenzumrichter regelt die Drehzahl von dem Motor und
der Inverter ist mit einem Servo verbunden. Die Drive Konfiguration und das
Motor Typenschild sind nicht identisch, und die Torque Grenze ist von der
Last und dem Motor bestimmt.`
	verdict, err := v.Validate(context.Background(), core.IDFromContent(german), german)
	require.NoError(t, err)

	assert.False(t, verdict.Accept)
	assert.Contains(t, verdict.Reason, "language not allowed")
}

func TestValidateRejectsIrrelevantSubject(t *testing.T) {
	v := newTestValidator(t)

	offTopic := `The recipe calls for two cups of flour and a pinch of salt.
Mix the dough until it is smooth and let it rest for an hour before baking
the bread in a hot oven until the crust is golden and crisp.`
	verdict, err := v.Validate(context.Background(), core.IDFromContent(offTopic), offTopic)
	require.NoError(t, err)

	assert.False(t, verdict.Accept)
}

func TestValidateRejectsEmptyDocument(t *testing.T) {
	v := newTestValidator(t)

	verdict, err := v.Validate(context.Background(), core.IDFromContent("x"), "   ")
	require.NoError(t, err)

	assert.False(t, verdict.Accept)
	assert.Equal(t, "empty document", verdict.Reason)
}

func TestValidateUsesCachedVerdict(t *testing.T) {
	v := newTestValidator(t)
	ctx := context.Background()
	sourceID := core.IDFromContent(relevantSample)

	first, err := v.Validate(ctx, sourceID, relevantSample)
	require.NoError(t, err)
	require.True(t, first.Accept)

	// Same source ID with garbage content: the cached verdict wins and
	// the sample is never re-examined.
	second, err := v.Validate(ctx, sourceID, "���")
	require.NoError(t, err)
	assert.True(t, second.Accept)
	assert.Equal(t, first.Score, second.Score)
}

func TestValidateCustomThreshold(t *testing.T) {
	config := DefaultValidatorConfig()
	config.Threshold = 90
	v := newTestValidator(t, WithValidatorConfig(config))

	// Only two keyword hits: relevance is weak, score lands in the 70s.
	weak := `The maintenance manual describes the fault codes in chapter
twelve and lists the recommended spare parts for the machine.`
	verdict, err := v.Validate(context.Background(), core.IDFromContent(weak), weak)
	require.NoError(t, err)
	assert.False(t, verdict.Accept)
	assert.Equal(t, "score below threshold", verdict.Reason)
}
