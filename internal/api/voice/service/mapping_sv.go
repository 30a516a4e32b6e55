package voiceService

import (
	"CarePortalGolang/internal/api/voice"
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"CarePortalGolang/pkg/intent"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *voiceService) GetInteractionHistory(ctx context.Context, userID string, page, limit int) ([]voice.InteractionHistoryItem, int, error) {
	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	entries, total, err := repo.Interactions.GetInteractionsByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	items := make([]voice.InteractionHistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, voice.InteractionHistoryItem{
			ID:               entry.ID,
			SessionID:        entry.SessionID,
			Input:            entry.Input,
			Output:           entry.Output,
			IntentKind:       string(entry.IntentKind),
			OperatingContext: string(entry.OperatingContext),
			Channel:          entry.Channel,
			Outcome:          string(entry.Outcome),
			Success:          entry.Success,
			LatencyMS:        entry.LatencyMS,
			CreatedAt:        entry.CreatedAt,
		})
	}

	return items, total, nil
}

func (s *voiceService) GetPageMappings(ctx context.Context) ([]entity.PageMapping, error) {
	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return repo.PageMappings.GetActivePageMappings(ctx)
}

// LoadPageMappings seeds the classifier's navigation tables from the
// database on startup, on top of the built-in defaults.
func (s *voiceService) LoadPageMappings(ctx context.Context) error {
	mappings, err := s.GetPageMappings(ctx)
	if err != nil {
		return err
	}

	for _, m := range mappings {
		s.syncClassifier(m)
	}

	s.log.WithField("count", len(mappings)).Info("Loaded page mappings into classifier")
	return nil
}

func (s *voiceService) CreatePageMapping(ctx context.Context, req voice.PageMappingRequest) error {
	opCtx := entity.OperatingContext(req.Context)
	if !opCtx.Known() {
		return voice.ErrUnknownContext
	}

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		return err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := time.Now()
	mapping := entity.PageMapping{
		PageID:      req.PageID,
		Path:        req.Path,
		DisplayName: req.DisplayName,
		Keywords:    req.Keywords,
		Context:     opCtx,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := repo.PageMappings.CreatePageMapping(ctx, mapping); err != nil {
		return err
	}

	s.syncClassifier(mapping)

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"page_id":    mapping.PageID,
		"context":    mapping.Context,
	}).Info("Page mapping created")

	return nil
}

func (s *voiceService) UpdatePageMapping(ctx context.Context, pageID string, req voice.PageMappingRequest) error {
	opCtx := entity.OperatingContext(req.Context)
	if !opCtx.Known() {
		return voice.ErrUnknownContext
	}

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		return err
	}

	existing, err := repo.PageMappings.GetPageMappingByID(ctx, pageID)
	if err != nil {
		return err
	}

	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	mapping := entity.PageMapping{
		PageID:      pageID,
		Path:        req.Path,
		DisplayName: req.DisplayName,
		Keywords:    req.Keywords,
		Context:     opCtx,
		IsActive:    active,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   time.Now(),
	}

	if err := repo.PageMappings.UpdatePageMapping(ctx, mapping); err != nil {
		return err
	}

	// mapping may have moved between contexts
	if existing.Context != mapping.Context {
		s.classifier.RemovePage(existing.Context, pageID)
	}
	s.syncClassifier(mapping)

	return nil
}

// syncClassifier keeps the in-memory navigation tables in step with the
// page-mapping store.
func (s *voiceService) syncClassifier(mapping entity.PageMapping) {
	if !mapping.IsActive {
		s.classifier.RemovePage(mapping.Context, mapping.PageID)
		return
	}

	s.classifier.SetPage(mapping.Context, intent.PageTarget{
		PageID:      mapping.PageID,
		Path:        mapping.Path,
		DisplayName: mapping.DisplayName,
		Keywords:    mapping.Keywords,
	})
}

// GetSuggestions returns what the user could say in the given context. When
// a transcript that failed to classify is provided, the language model adds
// a clarification tailored to it.
func (s *voiceService) GetSuggestions(ctx context.Context, opCtx, transcript string) (*voice.SuggestionsResponse, error) {
	operatingCtx := entity.OperatingContext(opCtx)
	if !operatingCtx.Known() {
		return nil, voice.ErrUnknownContext
	}

	known := s.classifier.KnownCommands(operatingCtx)
	suggestions := make([]string, 0, len(known)+1)

	if transcript != "" && s.gemini != nil {
		clarification, err := s.gemini.SuggestClarification(ctx, transcript, known)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Warn("Clarification suggestion failed, returning static list")
		} else if clarification != "" {
			suggestions = append(suggestions, clarification)
		}
	}

	suggestions = append(suggestions, known...)

	return &voice.SuggestionsResponse{
		Context:     opCtx,
		Transcript:  transcript,
		Suggestions: suggestions,
	}, nil
}
