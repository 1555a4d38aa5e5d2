package capture

import "context"

// FrameSource fornece frames codificados (JPEG) de uma câmera ou outra
// origem de vídeo. Cada sessão é dona exclusiva do seu FrameSource e o
// fecha exatamente uma vez ao terminar.
//
// Read bloqueia até o próximo frame; io.EOF sinaliza o fim da origem,
// qualquer outro erro encerra a sessão.
type FrameSource interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}
