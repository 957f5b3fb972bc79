package billing

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/cadena"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/signer"
	"github.com/jhoicas/cfdi-sellador/pkg/logger"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// SealPipeline orquesta el sellado de un CFDI:
//
//	Certificado → XML canónico → Cadena original → Firma → Verificación → Sello
//
// Solo guarda dependencias inmutables; cada llamada a Seal crea su propia
// ejecución que es dueña del documento. Varias ejecuciones pueden correr en
// paralelo siempre que no compartan Document ni ArtifactStore.
type SealPipeline struct {
	builder   *sat.XMLBuilderService
	deriver   *cadena.Deriver
	embedder  *sat.SealEmbedder
	templates *cadena.Registry
	signer    pkgsat.Signer
	store     ArtifactStore // nil = sin archivo
	log       *logger.Logger
	now       func() time.Time
}

// NewSealPipeline construye el pipeline. store y log pueden ser nil; sin
// templates se usan las plantillas embebidas.
func NewSealPipeline(templates *cadena.Registry, signerSvc pkgsat.Signer, store ArtifactStore, log *logger.Logger) *SealPipeline {
	if log == nil {
		log = logger.Nop()
	}
	if templates == nil {
		def, err := cadena.DefaultRegistry()
		if err != nil {
			log.Error().Err(err).Msg("plantillas embebidas")
			def = cadena.NewRegistry()
		}
		templates = def
	}
	return &SealPipeline{
		builder:   sat.NewXMLBuilderService(),
		deriver:   cadena.NewDeriver(),
		embedder:  sat.NewSealEmbedder(),
		templates: templates,
		signer:    signerSvc,
		store:     store,
		log:       log.Named("sellado"),
		now:       time.Now,
	}
}

// Credentials CSD para una sola ejecución. Key se destruye al terminar Seal.
type Credentials struct {
	Certificate []byte // .cer DER
	Key         *pkgsat.KeyMaterial
}

// SealResult resultado de un sellado exitoso.
type SealResult struct {
	Cadena             string
	Snapshot           []byte // XML canónico firmado
	Sealed             []byte // XML con Sello, NoCertificado y Certificado
	Seal               cfdi.Seal
	CertificateExpired bool
	ArtifactPath       string // vacío si no hay ArtifactStore
}

// Stage etapa del pipeline.
type Stage string

const (
	StageCertificate Stage = "certificado"
	StageSerialize   Stage = "serializacion"
	StageTemplate    Stage = "plantilla"
	StageDerive      Stage = "cadena_original"
	StageSign        Stage = "firma"
	StageVerify      Stage = "verificacion"
	StageEmbed       Stage = "sello"
	StageArtifact    Stage = "archivo"
)

// StageError indica en qué etapa y con qué entrada falló el sellado.
// Err conserva el error de dominio para errors.Is.
type StageError struct {
	Stage Stage
	Input string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("sellado: etapa %s (%s): %v", e.Stage, e.Input, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage devuelve la etapa de un error del pipeline, si la tiene.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// Seal ejecuta el pipeline completo sobre doc. Ningún error se reintenta; si
// falla, el documento sellado no se escribe. La llave se destruye siempre.
func (p *SealPipeline) Seal(doc *cfdi.Document, creds Credentials) (*SealResult, error) {
	defer creds.Key.Destroy()
	if doc == nil {
		return nil, &StageError{Stage: StageSerialize, Input: "documento", Err: domain.ErrIncompleteDocument}
	}
	run := &sealRun{pipeline: p, doc: doc, ref: documentRef(doc)}
	run.log = p.log.Zerolog().With().Str("documento", run.ref).Logger()
	return run.execute(creds)
}

// sealRun estado de una sola ejecución del pipeline.
type sealRun struct {
	pipeline *SealPipeline
	doc      *cfdi.Document
	ref      string
	log      zerolog.Logger
}

func (r *sealRun) fail(stage Stage, input string, err error) error {
	r.log.Error().Str("etapa", string(stage)).Str("entrada", input).Err(err).Msg("sellado fallido")
	return &StageError{Stage: stage, Input: input, Err: err}
}

func (r *sealRun) execute(creds Credentials) (*SealResult, error) {
	p := r.pipeline

	cert, err := sat.ReadCertificate(creds.Certificate)
	if err != nil {
		return nil, r.fail(StageCertificate, fmt.Sprintf("certificado de %d bytes", len(creds.Certificate)), err)
	}
	expired := cert.Expired(p.now())
	if expired {
		r.log.Warn().Str("no_certificado", cert.Number).Time("vence", cert.Certificate.NotAfter).
			Msg("el certificado no está vigente; el PAC rechazará el comprobante")
	}

	if err := r.doc.SetCertificateNumber(cert.Number); err != nil {
		return nil, r.fail(StageSerialize, r.ref, err)
	}
	snapshot, err := p.builder.Build(r.doc)
	if err != nil {
		return nil, r.fail(StageSerialize, r.ref, err)
	}
	if p.store != nil {
		if _, err := p.store.Save(snapshot); err != nil {
			return nil, r.fail(StageArtifact, "XML canónico", err)
		}
	}
	r.log.Debug().Int("bytes", len(snapshot)).Msg("XML canónico generado")

	tpl, err := p.templates.Lookup(r.doc.Version)
	if err != nil {
		return nil, r.fail(StageTemplate, "versión "+r.doc.Version, err)
	}
	cadenaOriginal, err := p.deriver.Derive(snapshot, tpl)
	if err != nil {
		return nil, r.fail(StageDerive, "plantilla "+tpl.Version(), err)
	}
	r.log.Debug().Int("longitud", len(cadenaOriginal)).Msg("cadena original generada")

	signature, err := p.signer.Sign(cadenaOriginal, creds.Key)
	if err != nil {
		return nil, r.fail(StageSign, fmt.Sprintf("cadena de %d caracteres", len(cadenaOriginal)), err)
	}

	pub, ok := cert.Certificate.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, r.fail(StageVerify, "NoCertificado "+cert.Number,
			fmt.Errorf("%w: el certificado no tiene llave pública RSA", domain.ErrCertificateParse))
	}
	if err := signer.Verify(cadenaOriginal, signature, pub); err != nil {
		return nil, r.fail(StageVerify, "NoCertificado "+cert.Number,
			fmt.Errorf("%w: la llave privada no corresponde al certificado: %v", domain.ErrKeyLoad, err))
	}

	seal := cfdi.Seal{Signature: signature, CertificateNumber: cert.Number, Certificate: cert.Base64}
	sealed, err := p.embedder.Embed(r.doc, seal)
	if err != nil {
		return nil, r.fail(StageEmbed, r.ref, err)
	}

	result := &SealResult{
		Cadena:             cadenaOriginal,
		Snapshot:           snapshot,
		Sealed:             sealed,
		Seal:               seal,
		CertificateExpired: expired,
	}
	if p.store != nil {
		path, err := p.store.Save(sealed)
		if err != nil {
			return nil, r.fail(StageArtifact, "XML sellado", err)
		}
		result.ArtifactPath = path
	}
	r.log.Info().Str("no_certificado", cert.Number).Str("archivo", result.ArtifactPath).Msg("CFDI sellado")
	return result, nil
}

func documentRef(doc *cfdi.Document) string {
	if doc.Series == "" && doc.Folio == "" {
		return "sin serie/folio"
	}
	return fmt.Sprintf("serie %s folio %s", doc.Series, doc.Folio)
}
