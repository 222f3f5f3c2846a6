package parse

import (
	"context"
	"image"
	"strings"
	"testing"

	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/classify"
	"github.com/ironsheep/ine-ocr-mcp/internal/extract"
	"github.com/ironsheep/ine-ocr-mcp/internal/roi"
)

type extractCall struct {
	region roi.ROI
	req    extract.Request
}

// fakeExtractor answers by whitelist, or by region when byRegion is set.
type fakeExtractor struct {
	byWhitelist map[string]string
	byRegion    map[roi.ROI]string
	calls       []extractCall
}

func (f *fakeExtractor) Extract(_ context.Context, _ image.Image, region roi.ROI, req extract.Request) extract.Attempt {
	f.calls = append(f.calls, extractCall{region: region, req: req})
	text := f.byWhitelist[req.Whitelist]
	if t, ok := f.byRegion[region]; ok {
		text = t
	}
	return extract.Attempt{Number: req.Attempt, Region: region, Text: text}
}

func (f *fakeExtractor) callFor(whitelist string) (extractCall, bool) {
	for _, c := range f.calls {
		if c.req.Whitelist == whitelist {
			return c, true
		}
	}
	return extractCall{}, false
}

func defaultTemplates(t *testing.T) *roi.Templates {
	t.Helper()
	tpl, err := roi.Default()
	if err != nil {
		t.Fatalf("default templates: %v", err)
	}
	return tpl
}

func qrClassification() classify.Classification {
	return classify.Classification{
		Variant:  card.VariantQR,
		Boxes:    []card.FeatureBox{{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}}},
		Strategy: "qr",
	}
}

func TestParseIDINE(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact 18 between chevrons", "XX<<ABCDEF123456789012<<", "ABCDEF123456789012"},
		{"prefers 18 over 17", "ABCDEFGHIJ1234567 ABCDEFGHIJ12345678", "ABCDEFGHIJ12345678"},
		{"first wins a tie", "AAAAAAAAAAAAAAAAAA BBBBBBBBBBBBBBBBBB", "AAAAAAAAAAAAAAAAAA"},
		{"16 accepted", "IDMEX<<1234567890123456", "1234567890123456"},
		{"20 accepted", "12345678901234567890", "12345678901234567890"},
		{"too short", "ABCDEFGH12345", ""},
		{"too long", strings.Repeat("A", 25), ""},
		{"newline splits", "ABCDEFGHI\n123456789", ""},
		{"lowercase ignored", "abcdefghijklmnopqr", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseIDINE(tt.in); got != tt.want {
				t.Errorf("ParseIDINE(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCorrectOCRConfusions(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		count int
	}{
		{"12O45", "12045", 1},
		{"ABCOEF", "ABCOEF", 0},
		{"I23", "123", 1},
		{"4S", "45", 1},
		{"1O2I3S4", "10213S4", 2},
		// The scan sees its own corrections.
		{"1OO", "100", 2},
		{"OO1", "O01", 1},
		{"", "", 0},
	}
	for _, tt := range tests {
		got, n := CorrectOCRConfusions(tt.in)
		if got != tt.want || n != tt.count {
			t.Errorf("CorrectOCRConfusions(%q) = (%q, %d), want (%q, %d)", tt.in, got, n, tt.want, tt.count)
		}
	}
}

func TestSplitApellidos(t *testing.T) {
	tests := []struct {
		in       string
		pat, mat string
	}{
		{"GARCIA\nLOPEZ", "GARCIA", "LOPEZ"},
		{"GARCIA LOPEZ", "GARCIA", "LOPEZ"},
		{"DE LA CRUZ\nPEREZ", "DE LA CRUZ", "PEREZ"},
		{"\n\nGARCIA\n\nLOPEZ\nEXTRA", "GARCIA", "LOPEZ"},
		{"garcia1 lopez", "GARCIA", "LOPEZ"},
		{"GARCIA", "GARCIA", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		p, m := SplitApellidos(tt.in)
		if p != tt.pat || m != tt.mat {
			t.Errorf("SplitApellidos(%q) = (%q, %q), want (%q, %q)", tt.in, p, m, tt.pat, tt.mat)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  juan   carlos ", "JUAN CARLOS"},
		{"josé", "JOSÉ"},
		{"MARIA-123", "MARIA"},
		{"A.B.C", "ABC"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanName(tt.in); got != tt.want {
			t.Errorf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDomicilio(t *testing.T) {
	tests := []struct {
		name               string
		in                 string
		calle, colonia, cp string
	}{
		{"three lines", "C FALSA 123\nCOL CENTRO 64000\nMONTERREY, N.L.", "C FALSA 123", "CENTRO", "64000"},
		{"dotted prefix", "AV REFORMA 1\nCOL. DEL VALLE\nCDMX 03100", "AV REFORMA 1", "DEL VALLE", "03100"},
		{"colonia falls back to line three", "AV JUAREZ 10\n06000\nCENTRO", "AV JUAREZ 10", "CENTRO", "06000"},
		{"single line", "CALLE 5 DE MAYO", "CALLE 5 DE MAYO", "", ""},
		{"six digits are not a postal code", "CALLE 1\nBARRIO 123456", "CALLE 1", "BARRIO 123456", ""},
		{"drops stray symbols", "CALLE* 1 #2\nSAN JUAN", "CALLE 1 #2", "SAN JUAN", ""},
		{"empty", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calle, colonia, cp := ParseDomicilio(tt.in)
			if calle != tt.calle || colonia != tt.colonia || cp != tt.cp {
				t.Errorf("got (%q, %q, %q), want (%q, %q, %q)", calle, colonia, cp, tt.calle, tt.colonia, tt.cp)
			}
		})
	}
}

func TestParseSeccion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"SECCION 123", "0123"},
		{"SECCIÓN 4567", "4567"},
		{"seccion 0987", "0987"},
		{"ABC 12345", "1234"},
		{"12", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseSeccion(tt.in); got != tt.want {
			t.Errorf("ParseSeccion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBackParser_Parse(t *testing.T) {
	fx := &fakeExtractor{byWhitelist: map[string]string{
		extract.WhitelistLine: "IDMEX<<ABCDEF123456789012<<",
		extract.WhitelistCURP: "CURP\nPELJ000101HDFRPNA1\n",
	}}
	p := NewBackParser(defaultTemplates(t), fx, nil)

	got := p.Parse(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 63)), 1, qrClassification(), roi.Identity())

	if got.IDINE != "ABCDEF123456789012" || got.Corrections != 0 {
		t.Errorf("id: %+v", got)
	}
	if got.CURP != "PELJ000101HDFRPNA1" || got.CURPStrategy != "token" {
		t.Errorf("curp: %q via %q", got.CURP, got.CURPStrategy)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", got.Warnings)
	}

	idCall, ok := fx.callFor(extract.WhitelistLine)
	if !ok || idCall.req.Mode != extract.LineRequest(1).Mode {
		t.Fatalf("id region not read as a line: %+v", fx.calls)
	}
	if want := defaultTemplates(t).Back(card.VariantQR)[roi.FieldIDINE].Apply(roi.Identity()); idCall.region != want {
		t.Errorf("id region %v, want template %v", idCall.region, want)
	}
	if c, ok := fx.callFor(extract.WhitelistCURP); !ok || c.req.Mode != extract.CURPRequest(1).Mode {
		t.Errorf("curp region not read as a block: %+v", fx.calls)
	}
}

func TestBackParser_RetryExpandsIDRegionOnly(t *testing.T) {
	tpl := defaultTemplates(t)
	fx := &fakeExtractor{}
	p := NewBackParser(tpl, fx, nil)
	corr := roi.Correction{DX: 0.01, DY: -0.02, Scale: 1.1}

	p.Parse(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 63)), 2, qrClassification(), corr)

	set := tpl.Back(card.VariantQR)
	idCall, _ := fx.callFor(extract.WhitelistLine)
	wantID := set[roi.FieldIDINE].Apply(corr).Expand(roi.RetryExpandX, roi.RetryExpandY)
	if idCall.region != wantID {
		t.Errorf("id region %v, want %v", idCall.region, wantID)
	}
	curpCall, _ := fx.callFor(extract.WhitelistCURP)
	if want := set[roi.FieldCURP].Apply(corr); curpCall.region != want {
		t.Errorf("curp region %v, want %v", curpCall.region, want)
	}
	if idCall.req.Attempt != 2 || curpCall.req.Attempt != 2 {
		t.Errorf("attempt not passed through: %+v", fx.calls)
	}
}

func TestBackParser_Warnings(t *testing.T) {
	tests := []struct {
		name   string
		cls    classify.Classification
		idText string
		want   []string
	}{
		{"unknown variant", classify.Unknown(), "", []string{card.WarnModelUnknown}},
		{"qr without boxes", classify.Classification{Variant: card.VariantQR}, "", []string{card.WarnQRNotFound}},
		{"pdf417 without boxes", classify.Classification{Variant: card.VariantPDF417}, "", []string{card.WarnPDF417NotFound}},
		{"corrected id", qrClassification(), "ABCDEF12345678901O", []string{card.WarnIDCorrectedChars}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := &fakeExtractor{byWhitelist: map[string]string{extract.WhitelistLine: tt.idText}}
			got := NewBackParser(defaultTemplates(t), fx, nil).
				Parse(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 63)), 1, tt.cls, roi.Identity())
			if strings.Join(got.Warnings, ",") != strings.Join(tt.want, ",") {
				t.Errorf("warnings %v, want %v", got.Warnings, tt.want)
			}
		})
	}
}

func TestBackParser_CorrectsID(t *testing.T) {
	fx := &fakeExtractor{byWhitelist: map[string]string{extract.WhitelistLine: "ABCDEF12345678901O"}}
	got := NewBackParser(defaultTemplates(t), fx, nil).
		Parse(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 63)), 1, qrClassification(), roi.Identity())
	if got.IDINE != "ABCDEF123456789010" || got.Corrections != 1 {
		t.Errorf("got %q with %d corrections", got.IDINE, got.Corrections)
	}
}

func TestBackParser_NothingFound(t *testing.T) {
	got := NewBackParser(defaultTemplates(t), &fakeExtractor{}, nil).
		Parse(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 63)), 1, qrClassification(), roi.Identity())
	if got.IDINE != "" || got.CURP != "" || got.CURPStrategy != "" {
		t.Errorf("got %+v", got)
	}
	if got.Warnings == nil {
		t.Error("warnings must be an empty list, not nil")
	}
}

func TestFrontParser_Parse(t *testing.T) {
	tpl := defaultTemplates(t)
	front := tpl.Front()
	fx := &fakeExtractor{byRegion: map[roi.ROI]string{
		front[roi.FieldApellidos]: "PEREZ\nLOPEZ",
		front[roi.FieldNombre]:    "JUAN",
		front[roi.FieldDomicilio]: "C FALSA 123\nCOL CENTRO 64000\nMONTERREY",
		front[roi.FieldSeccion]:   "SECCION 0456",
	}}

	got := NewFrontParser(tpl, fx, nil).Parse(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 63)))

	want := FrontResult{
		Nombre:          "JUAN",
		ApellidoPaterno: "PEREZ",
		ApellidoMaterno: "LOPEZ",
		Calle:           "C FALSA 123",
		Colonia:         "CENTRO",
		CodigoPostal:    "64000",
		Seccion:         "0456",
	}
	if got != want {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
	if len(fx.calls) != 4 {
		t.Fatalf("expected 4 region reads, got %d", len(fx.calls))
	}
	for _, c := range fx.calls {
		if c.req != extract.BlockRequest(1) {
			t.Errorf("front region read with %+v", c.req)
		}
	}
}
