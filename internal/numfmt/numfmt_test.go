package numfmt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
)

func TestRenderNumbers(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		code string
		want string
	}{
		{"general integer", 42, "General", "42"},
		{"general fraction", 0.1 + 0.2, "", "0.30000000000000004"},
		{"general negative", -1.5, "General", "-1.5"},
		{"fixed places", 303.6, "0.00", "303.60"},
		{"fixed zero", 0, "0.00", "0.00"},
		{"optional places", 1.5, "0.##", "1.5"},
		{"integer rounds half away", 2.5, "0", "3"},
		{"integer rounds", 42.9, "0", "43"},
		{"rounds as written", 2.675, "0.00", "2.68"},
		{"negative single section", -3.14159, "0.000", "-3.142"},
		{"negative rounds to zero", -0.001, "0.00", "0.00"},
		{"thousands", 1234567.891, "#,##0.00", "1,234,567.89"},
		{"negative thousands", -1234.5, "#,##0.00", "-1,234.50"},
		{"percent", 0.75, "0%", "75%"},
		{"percent places", 0.1234, "0.00%", "12.34%"},
		{"literal prefix", 40013205, `"E"0`, "E40013205"},
		{"literal suffix", 18000, `0" kg"`, "18000 kg"},
		{"positive section", 42.5, "0.00;(0.00)", "42.50"},
		{"negative section", -42.5, "0.00;(0.00)", "(42.50)"},
		{"zero in two sections", 0, "0.00;(0.00)", "0.00"},
		{"padding", 7, "000", "007"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Render(tc.v, tc.code))
		})
	}
}

func TestRenderOtherValues(t *testing.T) {
	f := Compile("0.00")
	assert.Equal(t, "0.00", f.Code())
	assert.Equal(t, "", f.Render(nil))
	assert.Equal(t, "text", f.Render("text"))
	assert.Equal(t, "TRUE", f.Render(true))
	assert.Equal(t, "FALSE", f.Render(false))
	assert.Equal(t, "#NUM!", f.Render(formulas.NewSpreadsheetError(formulas.ErrorCodeNum, "domain")))
	assert.Equal(t, "5.00", f.Render(5))
	assert.Equal(t, "NaN", f.Render(math.NaN()))
}

func TestCompiledFormatIsReusable(t *testing.T) {
	f := Compile("#,##0.0")
	for _, v := range []float64{1000, 2500.25, 999999.95} {
		first := f.Render(v)
		assert.Equal(t, first, f.Render(v))
	}
	assert.Equal(t, "1,000.0", f.Render(1000.0))
	assert.Equal(t, "1,000,000.0", f.Render(999999.95))
}
