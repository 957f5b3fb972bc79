package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/cfdi-sellador/internal/application/billing"
	"github.com/jhoicas/cfdi-sellador/internal/domain/repository"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/memory"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/pac"
	infrapdf "github.com/jhoicas/cfdi-sellador/internal/infrastructure/pdf"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/postgres"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/cadena"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/signer"
	httpRouter "github.com/jhoicas/cfdi-sellador/internal/interfaces/http"
	"github.com/jhoicas/cfdi-sellador/pkg/config"
	"github.com/jhoicas/cfdi-sellador/pkg/logger"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()

	// Sin base de datos los CFDI viven en memoria mientras el proceso esté arriba.
	var cfdiRepo repository.CFDIRepository
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("crear esquema")
		}
		cfdiRepo = postgres.NewCFDIRepository(pool)
	} else {
		log.Warn().Msg("sin DATABASE_URL ni DB_HOST: los CFDI se guardan en memoria")
		cfdiRepo = memory.NewCFDIRepository()
	}

	templates, err := cadena.DefaultRegistry()
	if err != nil {
		log.Fatal().Err(err).Msg("cargar plantillas de cadena original")
	}
	if cfg.CFDI.TemplateDir != "" {
		n, err := templates.LoadDir(cfg.CFDI.TemplateDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.CFDI.TemplateDir).Msg("cargar plantillas adicionales")
		}
		log.Info().Int("plantillas", n).Strs("versiones", templates.Versions()).Msg("plantillas adicionales cargadas")
	}

	keyFormat, err := pkgsat.ParseKeyFormat(cfg.CFDI.KeyFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("CFDI_KEY_FORMAT")
	}
	csd := billing.CSDConfig{
		CertPath:    cfg.CFDI.CertPath,
		KeyPath:     cfg.CFDI.KeyPath,
		KeyPassword: cfg.CFDI.KeyPassword,
		KeyFormat:   keyFormat,
	}

	// El API no escribe el XML a disco: el archivo de salida tiene nombre fijo
	// y las peticiones concurrentes se pisarían.
	pipeline := billing.NewSealPipeline(templates, signer.NewService(), nil, log)

	// PAC: solo si hay credenciales; sin ellas /stamp responde 409.
	var stamper billing.Stamper
	if cfg.PAC.Enabled() {
		stamper = pac.NewClient(pac.Config{
			AuthURL:  cfg.PAC.AuthURL,
			StampURL: cfg.PAC.StampURL,
			User:     cfg.PAC.User,
			Password: cfg.PAC.Password,
			CustomID: cfg.PAC.CustomID,
			Timeout:  cfg.PAC.Timeout,
		}, log)
	}

	// PDF: representación impresa del CFDI
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	cfdiUC := billing.NewCFDIUseCase(pipeline, cfdiRepo, stamper, pdfGenerator, csd, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.PAC.Timeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "pac": cfg.PAC.Enabled()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CFDIUC:    cfdiUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
