package api

import (
	"net/http"

	"github.com/harishmarimuthu13022003/finance-agent/internal/config"
	"github.com/harishmarimuthu13022003/finance-agent/internal/pipeline"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	pipelineHandler := pipeline.NewHandler(
		domain.Orchestrator,
		int64(cfg.Mailbox.FetchLimit),
		runtime.Logger,
	)

	attachments := newAttachmentHandler(
		runtime.Storage,
		runtime.Logger,
		cfg.Storage.MaxListSize,
	)

	routes.Register(
		mux,
		domain.Emails.Handler().Routes(),
		domain.Ledger.Handler().Routes(),
		domain.Knowledge.Handler().Routes(),
		domain.Runs.Handler().Routes(),
		pipelineHandler.Routes(),
		attachments.routes(),
	)
}
