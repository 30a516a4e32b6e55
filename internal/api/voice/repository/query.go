package voiceRepository

const (
	queryCreateInteraction = `
		INSERT INTO interaction_logs (
			id, session_id, user_id, speaker_role, operating_context,
			input, output, intent_kind, channel, outcome,
			success, latency_ms, created_at
		) VALUES (
			:id, :session_id, :user_id, :speaker_role, :operating_context,
			:input, :output, :intent_kind, :channel, :outcome,
			:success, :latency_ms, :created_at
		)
	`

	queryGetInteractionsByUserID = `
		SELECT
			id, session_id, user_id, speaker_role, operating_context,
			input, output, intent_kind, channel, outcome,
			success, latency_ms, created_at
		FROM interaction_logs
		WHERE user_id = :user_id
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountInteractionsByUserID = `
		SELECT COUNT(*)
		FROM interaction_logs
		WHERE user_id = :user_id
	`

	queryGetInteractionsBySessionID = `
		SELECT
			id, session_id, user_id, speaker_role, operating_context,
			input, output, intent_kind, channel, outcome,
			success, latency_ms, created_at
		FROM interaction_logs
		WHERE session_id = :session_id
		ORDER BY created_at ASC
	`

	queryCreatePageMapping = `
		INSERT INTO page_mappings (
			page_id, path, display_name, keywords, context,
			is_active, created_at, updated_at
		) VALUES (
			:page_id, :path, :display_name, :keywords, :context,
			:is_active, :created_at, :updated_at
		)
	`

	queryGetPageMappingByID = `
		SELECT
			page_id, path, display_name, keywords, context,
			is_active, created_at, updated_at
		FROM page_mappings
		WHERE page_id = :page_id
	`

	queryGetActivePageMappings = `
		SELECT
			page_id, path, display_name, keywords, context,
			is_active, created_at, updated_at
		FROM page_mappings
		WHERE is_active = true
		ORDER BY context, display_name
	`

	queryUpdatePageMapping = `
		UPDATE page_mappings
		SET
			path = :path,
			display_name = :display_name,
			keywords = :keywords,
			context = :context,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE page_id = :page_id
	`
)
