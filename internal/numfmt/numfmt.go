// Package numfmt renders evaluation results with an Excel number format
// code such as "0.00", "#,##0" or "0.0%". Format codes are tokenised by
// github.com/xuri/nfp; only the numeric subset is rendered, date and time
// tokens are ignored.
package numfmt

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/nfp"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
)

// General is the format code that renders numbers in their shortest form
const General = "General"

// Format is a parsed number format code, safe for concurrent use
type Format struct {
	code     string
	sections []nfp.Section
}

// Compile parses code once so it can be applied to many values
func Compile(code string) *Format {
	code = strings.TrimSpace(code)
	f := &Format{code: code}
	if code == "" || strings.EqualFold(code, General) {
		return f
	}
	f.sections = nfp.NumberFormatParser().Parse(code)
	return f
}

// Code returns the format code as given
func (f *Format) Code() string {
	return f.code
}

// Render formats a single value
func Render(value formulas.Primitive, code string) string {
	return Compile(code).Render(value)
}

// Render formats value. text and booleans are shown as-is, formula errors
// as their display code, numbers through the format sections.
func (f *Format) Render(value formulas.Primitive) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case *formulas.SpreadsheetError:
		return v.ErrorCode.String()
	case float64:
		return f.renderFloat(v)
	case int:
		return f.renderFloat(float64(v))
	default:
		return ""
	}
}

func (f *Format) renderFloat(val float64) string {
	if len(f.sections) == 0 || math.IsNaN(val) || math.IsInf(val, 0) {
		return renderGeneral(val)
	}
	sec, signed := section(f.sections, val)
	return renderNumber(val, sec, signed)
}

// section picks the section for val. signed is false when a dedicated
// negative section was chosen, which then displays the sign itself.
//
//	1 section  -> all values
//	2 sections -> positive and zero; negative
//	3+         -> positive; negative; zero
func section(sections []nfp.Section, val float64) (nfp.Section, bool) {
	switch {
	case len(sections) == 1:
		return sections[0], true
	case val < 0:
		return sections[1], false
	case val == 0 && len(sections) > 2:
		return sections[2], true
	default:
		return sections[0], true
	}
}

// renderGeneral prints integers without a decimal point and everything
// else with the shortest representation that round-trips
func renderGeneral(val float64) string {
	if val == math.Trunc(val) && math.Abs(val) < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'G', -1, 64)
}

// layout summarises the placeholders of one section
type layout struct {
	percent    bool
	thousands  bool
	decimal    bool
	sign       bool // the section writes its own + or -
	intZeros   int  // '0' before the decimal point
	fracZeros  int  // '0' after the decimal point
	fracHashes int  // '#' after the decimal point
}

func scan(sec nfp.Section) layout {
	var l layout
	afterDecimal := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			l.percent = true
		case nfp.TokenTypeThousandsSeparator:
			l.thousands = true
		case nfp.TokenTypeDecimalPoint:
			l.decimal = true
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if afterDecimal {
				l.fracZeros += len(tok.TValue)
			} else {
				l.intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				l.fracHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				l.sign = true
			}
		}
	}
	return l
}

// digits returns the integer and fraction digits of |val| laid out for l.
// rounding is half away from zero like the ROUND function.
func digits(val float64, l layout) (string, string) {
	abs := decimal.NewFromFloat(math.Abs(val))
	if l.percent {
		abs = abs.Shift(2)
	}

	places := int32(0)
	if l.decimal {
		places = int32(l.fracZeros + l.fracHashes)
	}
	intPart, fracPart, _ := strings.Cut(abs.StringFixed(places), ".")

	// optional digits drop trailing zeros down to the required ones
	if l.fracHashes > 0 {
		trimmed := strings.TrimRight(fracPart, "0")
		if len(trimmed) < l.fracZeros {
			trimmed = fracPart[:l.fracZeros]
		}
		fracPart = trimmed
	}

	if intPart == "0" && l.intZeros == 0 {
		intPart = ""
	}
	if pad := l.intZeros - len(intPart); pad > 0 {
		intPart = strings.Repeat("0", pad) + intPart
	}
	if l.thousands {
		intPart = groupThousands(intPart)
	}
	return intPart, fracPart
}

func renderNumber(val float64, sec nfp.Section, signed bool) string {
	l := scan(sec)
	intPart, fracPart := digits(val, l)

	var sb strings.Builder
	if val < 0 && signed && !l.sign && (intPart != "" || strings.Trim(fracPart, "0") != "") {
		sb.WriteByte('-')
	}

	wroteInt, wroteFrac, afterDecimal := false, false, false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			afterDecimal = true
			if fracPart != "" {
				sb.WriteByte('.')
			}
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			if afterDecimal && !wroteFrac {
				sb.WriteString(fracPart)
				wroteFrac = true
			} else if !afterDecimal && !wroteInt {
				sb.WriteString(intPart)
				wroteInt = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}

	if !wroteInt && !afterDecimal {
		sb.WriteString(intPart)
	}
	if sb.Len() == 0 {
		return renderGeneral(val)
	}
	return sb.String()
}

// groupThousands inserts a comma every three digits from the right
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
