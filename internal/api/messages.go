package api

// Status messages shown on the result page.
const (
	msgAudioSaved      = "Audio file uploaded: "
	msgTranscribed     = "Transcribed text:\n"
	msgAudioError      = "Audio file processing error: "
	msgNoAudio         = "No audio file selected."
	msgEmptyRequest    = "User request is empty or too short."
	msgRequestReceived = "User request received:"
)

func audioErrorMessage(err error) string {
	return msgAudioError + err.Error()
}
