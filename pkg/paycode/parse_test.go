package paycode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMultiPay(t *testing.T) {
	code, err := Parse("MP-7F2-P9K1-3B4.X7Q")
	require.NoError(t, err)
	assert.Equal(t, KindMulti, code.Kind)
	assert.Equal(t, "7F2", code.PaymentTypeSuffix)
	assert.Equal(t, "9K1", code.PayerSuffix)
	assert.Equal(t, []string{"3B4", "X7Q"}, code.RecipientSuffixes)
}

func TestParseMultiPayWithoutRecipients(t *testing.T) {
	code, err := Parse("mp-7f2-p9k1")
	require.NoError(t, err)
	assert.Equal(t, "9K1", code.PayerSuffix)
	assert.Empty(t, code.RecipientSuffixes)
}

func TestParseMultiPayIgnoresEmptyRecipientGroups(t *testing.T) {
	code, err := Parse("MP-7F2-P9K1-3B4..X7Q.")
	require.NoError(t, err)
	assert.Equal(t, []string{"3B4", "X7Q"}, code.RecipientSuffixes)
}

func TestParseSinglePay(t *testing.T) {
	code, err := Parse("A1B-C2D-1234")
	require.NoError(t, err)
	assert.Equal(t, KindSingle, code.Kind)
	assert.Equal(t, "A1B", code.StudentPrefix)
	assert.Equal(t, "C2D", code.PaymentTypeSuffix)
	assert.Equal(t, "1234", code.Stamp)
}

func TestParseRejectsMalformedCodes(t *testing.T) {
	for _, raw := range []string{
		"",
		"MP-",
		"MP-7F2",
		"MP-7F2-9K1",
		"MP-7F2-P",
		"MP--P9K1",
		"A1B",
		"A1B-",
		"-C2D-1234",
	} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidFormat, "raw %q", raw)
	}
}

func TestEncodeSingleRoundTrip(t *testing.T) {
	at := time.Unix(1_700_001_234, 0)
	code, err := EncodeSingle("a1b2c3d4-0000-0000-0000-000000000000", "ffff-0000-00c2d", at)
	require.NoError(t, err)
	assert.Equal(t, "A1B-C2D-1234", code)
	assert.Equal(t, code, Format(code))

	parsed, err := Parse(code)
	require.NoError(t, err)
	assert.True(t, HasPrefix("a1b2c3d4-0000-0000-0000-000000000000", parsed.StudentPrefix))
	assert.True(t, HasSuffix("ffff-0000-00c2d", parsed.PaymentTypeSuffix))
}

func TestEncodeSingleRejectsMultiPayLookalike(t *testing.T) {
	_, err := EncodeSingle("mpx-123", "abc-7f2", time.Now())
	assert.ErrorIs(t, err, ErrAmbiguousPrefix)
}

func TestEncodeMultiRoundTrip(t *testing.T) {
	code, err := EncodeMulti("pt-0007f2", "2023/XI/9K1", []string{"2023-3B4", "2023-x7q"})
	require.NoError(t, err)
	assert.Equal(t, "MP-7F2-P9K1-3B4.X7Q", code)
	assert.Equal(t, code, Format(code))

	parsed, err := Parse(code)
	require.NoError(t, err)
	assert.Equal(t, "9K1", parsed.PayerSuffix)
	assert.Equal(t, []string{"3B4", "X7Q"}, parsed.RecipientSuffixes)
}

func TestEncodeRejectsShortIdentifiers(t *testing.T) {
	_, err := EncodeMulti("7F", "9K1", nil)
	assert.ErrorIs(t, err, ErrIdentifierTooShort)

	_, err = EncodeMulti("7F2", "9K1", []string{"1"})
	assert.ErrorIs(t, err, ErrIdentifierTooShort)
}
