package hardware

import (
	"boundedvote/pkg/context"
	"boundedvote/pkg/io"
)

// CodeReader scans a code back from wherever a CodeWriter put it.
type CodeReader interface {
	Read(ctx *context.OperationContext, storage io.CodeStorage, codeType io.CodeType) (io.Code, error)
}

// CodeWriter renders a code and records its location in storage.
type CodeWriter interface {
	Write(ctx *context.OperationContext, storage io.CodeStorage, code io.Code) error
}

// Hardware is the channel registration codes travel through.
type Hardware interface {
	CodeReader
	CodeWriter
	Name() string
}
