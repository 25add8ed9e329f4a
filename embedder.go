package webrag

import "context"

// Embedder maps texts to fixed-length vectors using an embedding model.
type Embedder interface {
	// Embed returns one vector per input text, in input order. Requests are
	// batched up to the model's limit; transient API failures are retried
	// with bounded backoff before returning EEMBED.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding model. Vectors from different models
	// belong to different spaces and are never compared.
	Model() string

	// Dimensions returns the length of vectors produced by the model.
	Dimensions() int
}
