package handlers

const (
	MsgWelcome = `👋 Hello! I answer questions about funds and fund managers.

Just send me a question, for example: "Who is Zhang Kun and which funds does he manage?"

/clear - forget this conversation
/help - show this message`

	MsgHistoryCleared = "🧹 Conversation history cleared."
	MsgUnknownCommand = "❌ Unknown command. Use /help"
	MsgEmptyMessage   = "✍️ Please send your question as text."
	MsgMessageTooLong = "❌ The message is too long. Please shorten your question."
	MsgTimeout        = "⏱ The answer took too long. Please try again."
	MsgNetworkIssue   = "📡 Connection problem. Please try again in a moment."
	MsgGenericError   = "❌ Something went wrong. Please try again."

	MsgVoiceUnsupported   = "🎙 Voice questions are not enabled. Please type your question."
	MsgVoiceTooLong       = "🎙 The voice message is too long. Please keep it under %d seconds."
	MsgTranscribed        = "🎙 I heard: %s"
	MsgVoiceNotRecognized = "🎙 I could not make out the question. Please try again or type it."
)
