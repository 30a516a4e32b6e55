package voiceService

import (
	appointmentService "CarePortalGolang/internal/api/appointment/service"
	billingService "CarePortalGolang/internal/api/billing/service"
	medicationService "CarePortalGolang/internal/api/medication/service"
	"CarePortalGolang/internal/api/voice"
	voiceRepository "CarePortalGolang/internal/api/voice/repository"
	"CarePortalGolang/internal/entity"
	"CarePortalGolang/pkg/capture"
	"CarePortalGolang/pkg/gemini"
	"CarePortalGolang/pkg/intent"
	"CarePortalGolang/pkg/redis"
	"CarePortalGolang/pkg/relay"
	"CarePortalGolang/pkg/s3"
	"CarePortalGolang/pkg/speech"
	"CarePortalGolang/pkg/utils"
	"context"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type IVoiceService interface {
	// live streaming pipeline
	OpenSession(ctx context.Context, user entity.UserLoginData, req voice.StartFrame, emit func(voice.StreamEvent)) (*LiveSession, error)

	// one-shot alternatives to the live stream
	ProcessTextCommand(ctx context.Context, user entity.UserLoginData, req voice.ProcessTextRequest) (*voice.CommandReply, error)
	ProcessClipCommand(ctx context.Context, user entity.UserLoginData, clip io.Reader, filename, opCtx string) (*voice.CommandReply, error)

	GetInteractionHistory(ctx context.Context, userID string, page, limit int) ([]voice.InteractionHistoryItem, int, error)

	GetPageMappings(ctx context.Context) ([]entity.PageMapping, error)
	LoadPageMappings(ctx context.Context) error
	CreatePageMapping(ctx context.Context, req voice.PageMappingRequest) error
	UpdatePageMapping(ctx context.Context, pageID string, req voice.PageMappingRequest) error

	GetSuggestions(ctx context.Context, opCtx, transcript string) (*voice.SuggestionsResponse, error)
}

// Transcriber is what the clip path needs from the speech-to-text client.
type Transcriber interface {
	TranscribeClip(ctx context.Context, clip io.Reader, filename string) (string, error)
}

type VoiceConfig struct {
	RelayURL         string
	RelayAPIKey      string
	CaptureLockTTL   time.Duration
	FinalIdleTimeout time.Duration
	DispatchTimeout  time.Duration
	ReplyCacheTTL    time.Duration
}

func NewVoiceConfigFromEnv() *VoiceConfig {
	idleSecs, err := strconv.Atoi(os.Getenv("VOICE_FINAL_IDLE_TIMEOUT_SECONDS"))
	if err != nil || idleSecs <= 0 {
		idleSecs = 8
	}

	return &VoiceConfig{
		RelayURL:         os.Getenv("TRANSCRIPTION_WS_URL"),
		RelayAPIKey:      os.Getenv("TRANSCRIPTION_API_KEY"),
		CaptureLockTTL:   2 * time.Minute,
		FinalIdleTimeout: time.Duration(idleSecs) * time.Second,
		DispatchTimeout:  10 * time.Second,
		ReplyCacheTTL:    10 * time.Minute,
	}
}

type voiceService struct {
	log        *logrus.Logger
	voiceRepo  voiceRepository.Repository
	captureMgr *capture.Manager
	classifier *intent.Classifier
	dispatcher *dispatcher
	synth      speech.Synthesizer
	synthFall  speech.Synthesizer
	transcribe Transcriber
	s3Client   s3.ItfS3
	redis      redis.IRedis
	gemini     gemini.IGemini
	utils      utils.IUtils
	config     *VoiceConfig
}

func New(
	log *logrus.Logger,
	voiceRepo voiceRepository.Repository,
	captureMgr *capture.Manager,
	classifier *intent.Classifier,
	synth speech.Synthesizer,
	synthFall speech.Synthesizer,
	transcribe Transcriber,
	s3Client s3.ItfS3,
	redisClient redis.IRedis,
	geminiClient gemini.IGemini,
	utils utils.IUtils,
	config *VoiceConfig,
	appointments appointmentService.IAppointmentService,
	medications medicationService.IMedicationService,
	billing billingService.IBillingService,
) IVoiceService {
	return &voiceService{
		log:        log,
		voiceRepo:  voiceRepo,
		captureMgr: captureMgr,
		classifier: classifier,
		dispatcher: newDispatcher(log, appointments, medications, billing, config.DispatchTimeout),
		synth:      synth,
		synthFall:  synthFall,
		transcribe: transcribe,
		s3Client:   s3Client,
		redis:      redisClient,
		gemini:     geminiClient,
		utils:      utils,
		config:     config,
	}
}

// relayConfig builds the provider connection settings for one session.
func (s *voiceService) relayConfig(encoding string, sampleRate int) relay.Config {
	return relay.Config{
		URL:        s.config.RelayURL,
		APIKey:     s.config.RelayAPIKey,
		Encoding:   encoding,
		SampleRate: sampleRate,
	}
}
