package services

import "CAMERA_CAPTURE/go-backend/internal/models"

// Feedback strings shown to the user while they line up the shot.
const (
	FeedbackNoFace        = "no face detected"
	FeedbackMultipleFaces = "multiple faces detected"
	FeedbackLowConfidence = "move closer / improve lighting"
	FeedbackReady         = "ready, hold still"
)

type CaptureVerdict struct {
	ReadyForCapture bool
	Feedback        string
}

// EvaluateCapture решает, достаточно ли хорош кадр для запуска отсчёта.
// Чистая функция: одинаковый вход - одинаковый вердикт.
func EvaluateCapture(result *models.DetectionResult, cfg models.SessionConfig) CaptureVerdict {
	switch {
	case result.FaceCount == 0:
		return CaptureVerdict{Feedback: FeedbackNoFace}
	case result.FaceCount > 1:
		// Несколько лиц - никогда не готово, какая бы ни была уверенность
		return CaptureVerdict{Feedback: FeedbackMultipleFaces}
	}

	if !result.Detected || result.Confidence < cfg.FaceDetectionConfidence {
		return CaptureVerdict{Feedback: FeedbackLowConfidence}
	}

	return CaptureVerdict{ReadyForCapture: true, Feedback: FeedbackReady}
}
