package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates the frame was rejected by Rekognition
	ErrInvalidImage = errors.New("image rejected by rekognition")

	// ErrThrottled indicates the account exceeded its request rate
	ErrThrottled = errors.New("rekognition request throttled")

	// ErrNotLoaded indicates DetectFace was called before Load
	ErrNotLoaded = errors.New("rekognition detector not loaded")
)
