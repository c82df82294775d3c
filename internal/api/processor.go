package api

import (
	"context"

	"github.com/ironsheep/chroma-alpha/internal/imaging"
)

// Processor keys an encoded image. *imaging.Pipeline implements it.
//
//go:generate mockgen -package mockapi -source=processor.go -destination=mock/mockapi.go
type Processor interface {
	Process(ctx context.Context, data []byte, opts imaging.Options) ([]byte, error)
}

var _ Processor = (*imaging.Pipeline)(nil)
