package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantityConstructors(t *testing.T) {
	assert.Equal(t, Quantity(1500000), NewQuantityFromInt(150))
	assert.Equal(t, Quantity(1500000), NewQuantityFromInt64Scaled(1500000))
	assert.Equal(t, Quantity(125500), NewQuantityFromFloat64(12.55))
	assert.Equal(t, Quantity(-125500), NewQuantityFromFloat64(-12.55))
}

func TestQuantityFromFloat64Rounds(t *testing.T) {
	// 0.1 is not representable exactly in binary; rounding must absorb it.
	q := NewQuantityFromFloat64(0.1)
	assert.Equal(t, Quantity(1000), q)

	q = NewQuantityFromFloat64(2.99995)
	assert.Equal(t, "3.0000", q.String())
}

func TestQuantityString(t *testing.T) {
	cases := []struct {
		q    Quantity
		want string
	}{
		{0, "0.0000"},
		{NewQuantityFromInt(5000), "5000.0000"},
		{NewQuantityFromFloat64(12.5), "12.5000"},
		{NewQuantityFromFloat64(-0.3), "-0.3000"},
		{Quantity(-1), "-0.0001"},
		{Quantity(10001), "1.0001"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.q.String())
	}
}

func TestQuantitySignHelpers(t *testing.T) {
	q := NewQuantityFromInt(30)

	assert.True(t, q.IsPositive())
	assert.True(t, q.Neg().IsNegative())
	assert.Equal(t, q, q.Neg().Abs())
	assert.True(t, Quantity(0).IsZero())
	assert.Equal(t, 30.0, q.Float64())
}

func TestQuantityDecimal(t *testing.T) {
	q := NewQuantityFromFloat64(49.5)
	assert.Equal(t, "49.5", q.Decimal().String())
}

func TestQuantityMarshalJSON(t *testing.T) {
	payload := struct {
		Qty Quantity `json:"qty"`
	}{Qty: NewQuantityFromFloat64(150.25)}

	data, err := json.Marshal(payload)
	assert.NoError(t, err)
	// Encoded as a bare number, not a string.
	assert.Equal(t, `{"qty":150.2500}`, string(data))
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	cases := []struct {
		raw  string
		want Quantity
	}{
		{`150.25`, NewQuantityFromFloat64(150.25)},
		{`"150.25"`, NewQuantityFromFloat64(150.25)},
		{`-8`, NewQuantityFromInt(-8)},
		{`"0.00015"`, Quantity(1)}, // extra fractional digits truncated
		{`null`, 0},
		{`".5"`, Quantity(5000)},
	}
	for _, tc := range cases {
		var q Quantity
		err := json.Unmarshal([]byte(tc.raw), &q)
		assert.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, q, tc.raw)
	}
}

func TestQuantityUnmarshalJSONRejectsGarbage(t *testing.T) {
	var q Quantity
	assert.Error(t, json.Unmarshal([]byte(`"12x.5"`), &q))
	assert.Error(t, json.Unmarshal([]byte(`"1.2.3"`), &q))
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	orig := NewQuantityFromFloat64(-992.0001)
	data, err := json.Marshal(orig)
	assert.NoError(t, err)

	var back Quantity
	assert.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, orig, back)
}

func TestMoneyHelpers(t *testing.T) {
	m := MustMoney("1.45")
	assert.Equal(t, "1.45", m.String())
	assert.True(t, ZeroMoney().IsZero())

	_, err := NewMoneyFromString("not-a-number")
	assert.Error(t, err)
}

func TestMustMoneyPanicsOnInvalid(t *testing.T) {
	defer func() {
		assert.NotNil(t, recover())
	}()
	MustMoney("bogus")
}
