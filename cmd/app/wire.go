//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/mitchellalderson/render-note-taker-agent/internal/bootstrap"
	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/summarizer"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/config"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/llm/openaichat"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/stt/assemblyai"
	httpiface "github.com/mitchellalderson/render-note-taker-agent/internal/interface/http"
	"github.com/mitchellalderson/render-note-taker-agent/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSummarizerConfig,
		provideEstimator,
		provideOpenAIClient,
		provideTranscriber,
		provideNotesConfig,
		provideNoteRepository,
		provideAudioStorage,
		provideJobQueue,
		provideNotesService,
		summarizer.NewService,
		wire.Bind(new(summarizer.CompletionClient), new(*openaichat.Client)),
		wire.Bind(new(notes.Transcriber), new(*assemblyai.Client)),
		wire.Bind(new(httpiface.NoteService), new(*notes.Service)),
		httpiface.NewNoteHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
