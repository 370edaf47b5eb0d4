package policy

import (
	"log/slog"

	"github.com/reglet-dev/reglet-langfeatures/location"
	"github.com/reglet-dev/reglet-langfeatures/selector"
)

// Ensure implementations satisfy the interface.
var (
	_ VetoHandler = (*LogVetoHandler)(nil)
	_ VetoHandler = (*NopVetoHandler)(nil)
)

// LogVetoHandler logs vetoes at debug level.
type LogVetoHandler struct {
	Logger *slog.Logger
}

func (h *LogVetoHandler) OnVeto(sel selector.Selector, doc selector.Document, base int) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("provider vetoed by refine function",
		"selector", sel.String(),
		"location", location.StripCredentials(doc.Location),
		"content_type", doc.ContentType,
		"base_score", base)
}

// NopVetoHandler does nothing.
type NopVetoHandler struct{}

func (h *NopVetoHandler) OnVeto(sel selector.Selector, doc selector.Document, base int) {}
