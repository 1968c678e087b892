package port

import "context"

// FaceEncoder extracts fixed-length face embeddings from an image.
type FaceEncoder interface {
	// Encode returns one embedding per face found in the image. An image
	// without faces yields an empty slice and a nil error.
	Encode(ctx context.Context, image []byte) ([][]float64, error)
}
