package config

import (
	"CarePortalGolang/database/postgres"
	appointmentHandler "CarePortalGolang/internal/api/appointment/handler"
	appointmentRepository "CarePortalGolang/internal/api/appointment/repository"
	appointmentService "CarePortalGolang/internal/api/appointment/service"
	billingHandler "CarePortalGolang/internal/api/billing/handler"
	billingRepository "CarePortalGolang/internal/api/billing/repository"
	billingService "CarePortalGolang/internal/api/billing/service"
	medicationHandler "CarePortalGolang/internal/api/medication/handler"
	medicationRepository "CarePortalGolang/internal/api/medication/repository"
	medicationService "CarePortalGolang/internal/api/medication/service"
	voiceHandler "CarePortalGolang/internal/api/voice/handler"
	voiceRepository "CarePortalGolang/internal/api/voice/repository"
	voiceService "CarePortalGolang/internal/api/voice/service"
	"CarePortalGolang/internal/middleware"
	"CarePortalGolang/pkg/audio"
	"CarePortalGolang/pkg/capture"
	"CarePortalGolang/pkg/gemini"
	"CarePortalGolang/pkg/intent"
	"CarePortalGolang/pkg/redis"
	"CarePortalGolang/pkg/s3"
	"CarePortalGolang/pkg/speech"
	"CarePortalGolang/pkg/utils"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	redisServer  redis.IRedis
	geminiClient gemini.IGemini
	s3Client     s3.ItfS3
	captureMgr   *capture.Manager
	classifier   *intent.Classifier
	voiceSvc     voiceService.IVoiceService
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
			}
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithCaptureManager() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before capture manager")
		}
		s.captureMgr = capture.NewManager(s.log)
		return nil
	}
}

func WithClassifier() ServerOption {
	return func(s *Server) error {
		s.classifier = intent.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Appointment Domain
	appointmentRepo := appointmentRepository.New(s.db, s.log)
	appointmentServices := appointmentService.New(s.log, appointmentRepo, s.utils)
	appointmentHandlers := appointmentHandler.New(s.log, s.validator, s.middleware, appointmentServices)

	// Medication Domain
	medicationRepo := medicationRepository.New(s.db, s.log)
	medicationServices := medicationService.New(s.log, medicationRepo, s.utils)
	medicationHandlers := medicationHandler.New(s.log, s.validator, s.middleware, medicationServices)

	// Billing Domain
	billingRepo := billingRepository.New(s.db, s.log)
	billingServices := billingService.New(s.log, billingRepo)
	billingHandlers := billingHandler.New(s.log, s.middleware, billingServices)

	// Voice Domain
	voiceRepo := voiceRepository.New(s.db, s.log)
	transcriber := audio.NewTranscriptionService(os.Getenv("OPENAI_API_KEY"))
	voiceServices := voiceService.New(
		s.log,
		voiceRepo,
		s.captureMgr,
		s.classifier,
		speech.NewElevenLabs(),
		speech.NewLocal(),
		transcriber,
		s.s3Client,
		s.redisServer,
		s.geminiClient,
		s.utils,
		voiceService.NewVoiceConfigFromEnv(),
		appointmentServices,
		medicationServices,
		billingServices,
	)
	voiceHandlers := voiceHandler.New(s.log, s.validator, s.middleware, s.utils, voiceServices)
	s.voiceSvc = voiceServices

	s.setupHealthCheck()
	s.handlers = append(s.handlers, appointmentHandlers, medicationHandlers, billingHandlers, voiceHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	router := s.engine.Group("/api/v1")
	router.Use(s.middleware.NewRateLimiter)

	for _, h := range s.handlers {
		h.Start(router)
	}

	if s.voiceSvc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.voiceSvc.LoadPageMappings(ctx); err != nil {
			s.log.Warnf("Failed to load page mappings, continuing with defaults: %v", err)
		}
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
