package api

import (
	"context"

	"github.com/harishmarimuthu13022003/finance-agent/internal/agents"
	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/extraction"
	"github.com/harishmarimuthu13022003/finance-agent/internal/knowledge"
	"github.com/harishmarimuthu13022003/finance-agent/internal/ledger"
	"github.com/harishmarimuthu13022003/finance-agent/internal/mailbox"
	"github.com/harishmarimuthu13022003/finance-agent/internal/pipeline"
	"github.com/harishmarimuthu13022003/finance-agent/internal/replies"
	"github.com/harishmarimuthu13022003/finance-agent/internal/runs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Emails       emails.System
	Ledger       ledger.System
	Knowledge    knowledge.System
	Runs         runs.System
	Orchestrator *pipeline.Orchestrator
}

// NewDomain creates all domain systems from the API runtime. The mailbox is
// optional: when credentials are absent the pipeline still runs, only fetch
// and reply delivery are disabled.
func NewDomain(runtime *Runtime) *Domain {
	emailsSystem := emails.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	ledgerSystem := ledger.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	knowledgeSystem := knowledge.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	runsSystem := runs.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	agentRuntime := &agents.Runtime{
		Agent:   runtime.Agent,
		Timeout: runtime.Pipeline.CapabilityTimeoutDuration(),
	}

	var mb mailbox.Mailbox
	gm, err := mailbox.NewGmail(context.Background(), runtime.Mailbox, runtime.Logger)
	if err != nil {
		runtime.Logger.Warn("mailbox unavailable, fetch and reply delivery disabled", "error", err)
	} else {
		mb = gm
	}

	pipelineRuntime := &pipeline.Runtime{
		Emails:     emailsSystem,
		Runs:       runsSystem,
		Ledger:     ledgerSystem,
		Parser:     extraction.NewParser(agents.NewOCR(agentRuntime, runtime.Logger), runtime.Logger),
		Classifier: agents.NewClassifier(agentRuntime, runtime.Logger),
		Extractor:  agents.NewExtractor(agentRuntime, runtime.Logger),
		Mapper: ledger.NewMapper(
			ledger.Rules(runtime.Pipeline.CapitalThresholdAmount()),
			runtime.Logger,
		),
		Composer: replies.NewComposer(
			knowledgeSystem,
			agents.NewGenerator(agentRuntime, runtime.Logger),
			runtime.Pipeline.RetrievalK,
			runtime.Logger,
		),
		Mailbox: mb,
		Config:  runtime.Pipeline,
		Logger:  runtime.Logger,
	}

	return &Domain{
		Emails:       emailsSystem,
		Ledger:       ledgerSystem,
		Knowledge:    knowledgeSystem,
		Runs:         runsSystem,
		Orchestrator: pipeline.NewOrchestrator(pipelineRuntime),
	}
}
