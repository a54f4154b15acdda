package hardware

import (
	"boundedvote/pkg/config"
	"boundedvote/pkg/context"
	"boundedvote/pkg/io"

	"golang.org/x/xerrors"
)

type baseHardware struct {
	reader CodeReader
	writer CodeWriter
}

func (h *baseHardware) Read(ctx *context.OperationContext, storage io.CodeStorage, codeType io.CodeType) (io.Code, error) {
	return h.reader.Read(ctx, storage, codeType)
}

func (h *baseHardware) Write(ctx *context.OperationContext, storage io.CodeStorage, code io.Code) error {
	return h.writer.Write(ctx, storage, code)
}

// Core hands codes over in memory.
type Core struct {
	baseHardware
}

func newCore() *Core {
	store := io.NewMemoryStore()
	return &Core{baseHardware{
		reader: io.NewCoreReader(store),
		writer: io.NewCoreWriter(store),
	}}
}

func (c *Core) Name() string { return "Core" }

// Disk writes every code as a QR code inside a PDF and scans it back.
type Disk struct {
	baseHardware
}

func newDisk(cfg *config.Config) *Disk {
	return &Disk{baseHardware{
		reader: io.NewPicReader(),
		writer: io.NewSaveWriter(cfg),
	}}
}

func (d *Disk) Name() string { return "Disk" }

// New creates the hardware named by cfg.HardwareType.
func New(cfg *config.Config) (Hardware, error) {
	switch cfg.HardwareType {
	case config.HWCore:
		return newCore(), nil
	case config.HWDisk:
		return newDisk(cfg), nil
	default:
		return nil, xerrors.Errorf("unknown hardware type specified: %s", cfg.HardwareType)
	}
}
