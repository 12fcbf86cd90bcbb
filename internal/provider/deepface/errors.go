package deepface

import "errors"

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrModelNotLoaded      = errors.New("deepface detector not loaded")
	ErrInvalidImageFormat  = errors.New("invalid image format for deepface")
)
