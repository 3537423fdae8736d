package bot

const (
	msgRegisterFirst     = "Please register first using the /start command!"
	msgAlreadyRegistered = "You are already registered. Just send me a message or an image!"
	msgNothingToCancel   = "There is no registration in progress. Use /start to register."
	msgUnknownCommand    = "Unknown command. Use /help to see available commands."
	msgUnsupported       = "I can only answer text messages and images. Use /help to see what I can do."
	msgVisionUnavailable = "Sorry, image analysis is not available right now."
	msgAnalyzing         = "Analyzing your image... Please wait."
	msgBadImage          = "Sorry, I couldn't process this image. Please make sure it's a valid image file."
	msgImageTooLarge     = "Sorry, this image is too large to analyze. Please send a smaller one."
	msgLookupFailed      = "Sorry, I couldn't check your registration right now. Please try again later."
	msgSaveFailed        = "Sorry, I couldn't save your message. Please try again."
	msgHistoryFailed     = "Sorry, I couldn't retrieve your message history."
	msgHistoryEmpty      = "You don't have any messages yet."
	msgInternalError     = "Sorry, something went wrong while handling your message."

	msgGenerationError = "Sorry, I encountered an error: %v"
	msgImageError      = "Sorry, I encountered an error analyzing the image: %v"

	msgHelp = "Here are the available commands:\n\n" +
		"/start - Register as a new user\n" +
		"/help - Show this help message\n" +
		"/history - Show your recent messages\n" +
		"/cancel - Cancel a registration in progress\n\n" +
		"You can also:\n" +
		"- Send me text messages to chat\n" +
		"- Send me images to analyze them\n" +
		"- Add captions to images for specific analysis"

	defaultVisionPrompt = "Analyze this image and describe what you see in detail."
	captionVisionSuffix = "Analyze this image based on the above context."
	imageLogMarker      = "[Image Analysis Request]"
)
