// Package pac implementa el cliente HTTP del Proveedor Autorizado de
// Certificación (PAC) que timbra los CFDI sellados.
//
// Flujo:
//
//	POST AuthURL  {user, password}            → data.token
//	POST StampURL multipart "xml" (cfdi.xml)  → data.cfdi / data.uuid
//
// No hay reintentos: un error se devuelve tal cual al llamador.
package pac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-sellador/internal/application/billing"
	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-sellador/pkg/logger"
)

// Ambiente de pruebas de SW Sapiens.
const (
	DefaultAuthURL  = "https://services.test.sw.com.mx/v2/security/authenticate"
	DefaultStampURL = "https://services.test.sw.com.mx/v4/cfdi33/stamp/v4"

	stampedAtLayout = "2006-01-02T15:04:05"
	maxResponseSize = 4 << 20
)

// Config datos de conexión al PAC.
type Config struct {
	AuthURL  string
	StampURL string
	User     string
	Password string
	CustomID string // header customid; identifica la petición ante el PAC
	Timeout  time.Duration
}

// Client cliente del PAC. Seguro para uso concurrente.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
	now        func() time.Time
}

// NewClient construye el cliente. URLs vacías usan el ambiente de pruebas.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.StampURL == "" {
		cfg.StampURL = DefaultStampURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Named("pac"),
		now:        time.Now,
	}
}

type authRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// envelope forma común de las respuestas del PAC.
type envelope struct {
	Status        string          `json:"status"`
	Message       string          `json:"message"`
	MessageDetail string          `json:"messageDetail"`
	Data          json.RawMessage `json:"data"`
}

type authData struct {
	Token string `json:"token"`
}

type stampData struct {
	CFDI          string `json:"cfdi"`
	UUID          string `json:"uuid"`
	FechaTimbrado string `json:"fechaTimbrado"`
}

// Authenticate obtiene el token de acceso.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	payload, err := json.Marshal(authRequest{User: c.cfg.User, Password: c.cfg.Password})
	if err != nil {
		return "", fmt.Errorf("pac: serializar credenciales: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("pac: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	env, status, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	var data authData
	if status == http.StatusOK && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", fmt.Errorf("%w: data ilegible: %v", domain.ErrPACAuth, err)
		}
	}
	if status != http.StatusOK || data.Token == "" {
		return "", fmt.Errorf("%w: HTTP %d: %s", domain.ErrPACAuth, status, env.describe())
	}
	c.log.Debug().Msg("token del PAC obtenido")
	return data.Token, nil
}

// StampWithToken sube el CFDI sellado con un token ya obtenido.
func (c *Client) StampWithToken(ctx context.Context, token string, sealed []byte) (*billing.StampReceipt, error) {
	if len(sealed) == 0 {
		return nil, fmt.Errorf("%w: documento vacío", domain.ErrNothingToSeal)
	}
	body, contentType, err := multipartXML(sealed)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.StampURL, body)
	if err != nil {
		return nil, fmt.Errorf("pac: crear request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	if c.cfg.CustomID != "" {
		req.Header.Set("customid", c.cfg.CustomID)
	}

	env, status, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var data stampData
	if status == http.StatusOK && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: data ilegible: %v", domain.ErrStamp, err)
		}
	}
	if status != http.StatusOK || data.CFDI == "" {
		c.log.Warn().Int("http", status).Str("mensaje", env.Message).Msg("timbrado rechazado")
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrStamp, status, env.describe())
	}
	return c.receipt(data)
}

// Stamp autentica y timbra. Implementa billing.Stamper.
func (c *Client) Stamp(ctx context.Context, sealed []byte) (*billing.StampReceipt, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return c.StampWithToken(ctx, token, sealed)
}

func (c *Client) receipt(data stampData) (*billing.StampReceipt, error) {
	stamped := []byte(data.CFDI)
	r := &billing.StampReceipt{UUID: data.UUID, StampedXML: stamped}
	// Sin uuid en la respuesta se toma del timbre incluido en el XML.
	if r.UUID == "" {
		view, err := sat.ParseComprobante(stamped)
		if err != nil {
			return nil, fmt.Errorf("%w: XML timbrado ilegible: %v", domain.ErrStamp, err)
		}
		if !view.Stamped() {
			return nil, fmt.Errorf("%w: la respuesta no trae TimbreFiscalDigital", domain.ErrStamp)
		}
		r.UUID = view.Stamp.UUID
		if data.FechaTimbrado == "" {
			data.FechaTimbrado = view.Stamp.StampedAt
		}
	}
	if _, err := uuid.Parse(r.UUID); err != nil {
		return nil, fmt.Errorf("%w: UUID %q inválido", domain.ErrStamp, r.UUID)
	}
	r.StampedAt = c.now()
	if t, err := time.Parse(stampedAtLayout, data.FechaTimbrado); err == nil {
		r.StampedAt = t
	}
	c.log.Info().Str("uuid", r.UUID).Msg("CFDI timbrado")
	return r, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*envelope, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("pac: timeout o cancelación: %w", ctx.Err())
		}
		return nil, 0, fmt.Errorf("pac: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("pac: leer respuesta: %w", err)
	}
	env := &envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		env.Message = truncate(string(raw), 200)
	}
	return env, resp.StatusCode, nil
}

func (e *envelope) describe() string {
	switch {
	case e.Message != "" && e.MessageDetail != "":
		return e.Message + " (" + e.MessageDetail + ")"
	case e.Message != "":
		return e.Message
	default:
		return "respuesta sin mensaje"
	}
}

// multipartXML arma el cuerpo con el campo "xml" y nombre de archivo "file".
func multipartXML(sealed []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="xml"; filename="file"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("pac: armar multipart: %w", err)
	}
	if _, err := part.Write(sealed); err != nil {
		return nil, "", fmt.Errorf("pac: armar multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("pac: armar multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

var _ billing.Stamper = (*Client)(nil)
