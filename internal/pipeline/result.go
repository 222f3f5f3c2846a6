package pipeline

import (
	"github.com/ironsheep/ine-ocr-mcp/internal/card"
	"github.com/ironsheep/ine-ocr-mcp/internal/confidence"
	"github.com/ironsheep/ine-ocr-mcp/internal/quality"
)

// Beneficiario holds the personal-data fields.
type Beneficiario struct {
	Nombre          confidence.FieldResult `json:"nombre"`
	ApellidoPaterno confidence.FieldResult `json:"apellido_paterno"`
	ApellidoMaterno confidence.FieldResult `json:"apellido_materno"`
	CURP            confidence.FieldResult `json:"curp"`
	FechaNacimiento confidence.FieldResult `json:"fecha_nacimiento"`
	Sexo            confidence.FieldResult `json:"sexo"`
	IDINE           confidence.FieldResult `json:"id_ine"`
}

// Domicilio holds the address fields.
type Domicilio struct {
	Calle        confidence.FieldResult `json:"calle"`
	Colonia      confidence.FieldResult `json:"colonia"`
	CodigoPostal confidence.FieldResult `json:"codigo_postal"`
	Seccional    confidence.FieldResult `json:"seccional"`
}

// Quality pairs the metrics of both sides.
type Quality struct {
	Front quality.Metrics `json:"front"`
	Back  quality.Metrics `json:"back"`
}

// Result is the complete outcome of one extraction request. Every field is
// always present; missing values are null with zero confidence.
type Result struct {
	RequestID     string       `json:"request_id"`
	ModelID       card.Variant `json:"model_id"`
	Beneficiarios Beneficiario `json:"beneficiarios"`
	Domicilio     Domicilio    `json:"domicilio"`
	Quality       Quality      `json:"quality"`
	Warnings      []string     `json:"warnings"`
	ProcessingMS  int64        `json:"processing_ms"`
	Attempts      int          `json:"attempts"`
	ContextScore  float64      `json:"context_score"`
}

// EmptyResult is the result before anything was extracted.
func EmptyResult(requestID string) *Result {
	absent := confidence.Absent()
	return &Result{
		RequestID: requestID,
		ModelID:   card.VariantUnknown,
		Beneficiarios: Beneficiario{
			Nombre: absent, ApellidoPaterno: absent, ApellidoMaterno: absent,
			CURP: absent, FechaNacimiento: absent, Sexo: absent, IDINE: absent,
		},
		Domicilio: Domicilio{
			Calle: absent, Colonia: absent, CodigoPostal: absent, Seccional: absent,
		},
		Quality:  Quality{Front: quality.Unassessed(), Back: quality.Unassessed()},
		Warnings: []string{},
	}
}
